package assets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"portfolio-site/internal/config"
)

var ErrUnknownAsset = errors.New("unknown asset")

// Resolver turns an external-action asset id into the URL the browser is
// sent to.
type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
	IDs() []string
}

// New picks the resolver configured by ASSET_STORE.
func New(ctx context.Context, cfg *config.Config, targets map[string]string) (Resolver, error) {
	switch cfg.AssetStore {
	case config.AssetStoreStatic, "":
		return NewStaticResolver(targets), nil
	case config.AssetStoreS3:
		return NewS3Resolver(ctx, S3Options{
			Bucket: cfg.S3Bucket,
			Region: cfg.S3Region,
			Prefix: cfg.S3Prefix,
			Expiry: cfg.S3URLExpiry,
		}, targets)
	}
	return nil, fmt.Errorf("unsupported asset store %q", cfg.AssetStore)
}

type StaticResolver struct {
	targets map[string]string
}

// NewStaticResolver serves each asset from a fixed site path or absolute URL.
func NewStaticResolver(targets map[string]string) *StaticResolver {
	return &StaticResolver{targets: copyTargets(targets)}
}

func (r *StaticResolver) Resolve(_ context.Context, id string) (string, error) {
	target, ok := r.targets[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	return target, nil
}

func (r *StaticResolver) IDs() []string {
	return sortedIDs(r.targets)
}

func copyTargets(targets map[string]string) map[string]string {
	out := make(map[string]string, len(targets))
	for id, target := range targets {
		if target = strings.TrimSpace(target); target != "" {
			out[id] = target
		}
	}
	return out
}

func sortedIDs(targets map[string]string) []string {
	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isAbsoluteURL(target string) bool {
	u, err := url.Parse(target)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
