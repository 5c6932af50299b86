package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultURLExpiry = 15 * time.Minute

type S3Options struct {
	Bucket string
	Region string
	Prefix string
	Expiry time.Duration
}

// ObjectPresigner is the part of s3.PresignClient the resolver uses.
type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Resolver hands out short-lived presigned URLs for assets kept in a
// bucket. Targets that are already absolute URLs pass through unchanged.
type S3Resolver struct {
	presigner ObjectPresigner
	opts      S3Options
	targets   map[string]string
}

func NewS3Resolver(ctx context.Context, opts S3Options, targets map[string]string) (*S3Resolver, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 asset store requires S3_BUCKET")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return NewS3ResolverWithPresigner(s3.NewPresignClient(client), opts, targets), nil
}

func NewS3ResolverWithPresigner(presigner ObjectPresigner, opts S3Options, targets map[string]string) *S3Resolver {
	if opts.Expiry <= 0 {
		opts.Expiry = defaultURLExpiry
	}
	return &S3Resolver{
		presigner: presigner,
		opts:      opts,
		targets:   copyTargets(targets),
	}
}

func (r *S3Resolver) Resolve(ctx context.Context, id string) (string, error) {
	target, ok := r.targets[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	if isAbsoluteURL(target) {
		return target, nil
	}

	key := r.opts.Prefix + strings.TrimPrefix(target, "/")
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.opts.Expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (r *S3Resolver) IDs() []string {
	return sortedIDs(r.targets)
}
