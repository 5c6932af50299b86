package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio-site/internal/assets"
	"portfolio-site/internal/content"
	"portfolio-site/internal/meta"
	"portfolio-site/internal/shell"
	"portfolio-site/pkg/cache"
	"portfolio-site/pkg/logger"
	"portfolio-site/pkg/navigation"
	"portfolio-site/pkg/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

const notFoundTitle = "Page not found"

var (
	metricsOnce sync.Once
	pageRenders *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		pageRenders = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_site",
			Subsystem: "render",
			Name:      "pages_total",
			Help:      "Rendered pages by layout variant and outcome",
		}, []string{"variant", "outcome"})
	})
}

// RenderedPage is a complete HTML response.
type RenderedPage struct {
	Status int
	Body   []byte
}

type SiteService struct {
	shell     *shell.Shell
	content   content.Source
	assets    assets.Resolver
	cache     *cache.Cache
	templates *template.Template
	tracer    trace.Tracer
}

func NewSiteService(sh *shell.Shell, src content.Source, resolver assets.Resolver, c *cache.Cache) (*SiteService, error) {
	if sh == nil || src == nil || resolver == nil {
		return nil, errors.New("site service requires a shell, a content source and an asset resolver")
	}

	tmpl, err := utils.LoadTemplates(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to load content templates: %w", err)
	}

	initMetrics()

	return &SiteService{
		shell:     sh,
		content:   src,
		assets:    resolver,
		cache:     c,
		templates: tmpl,
		tracer:    otel.Tracer("portfolio-site/service"),
	}, nil
}

type pageView struct {
	Entry    content.Entry
	Children []content.Entry
	Shell    shell.Context
}

type notFoundView struct {
	Path string
}

// RenderPage renders the content at currentPath inside the layout shell.
// Paths with no content produce the not-found page with status 404; any
// other failure is returned.
func (s *SiteService) RenderPage(ctx context.Context, r *http.Request, currentPath string) (RenderedPage, error) {
	ctx, span := s.tracer.Start(ctx, "site.render_page", trace.WithAttributes(attribute.String("page.path", currentPath)))
	defer span.End()

	host := ""
	if r != nil {
		host = r.Host
	}

	if cached, err := s.cache.GetCachedPage(ctx, host, currentPath); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return RenderedPage{Status: cached.Status, Body: cached.Body}, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrDisabled) {
		logger.Warn("Page cache read failed", map[string]interface{}{"path": currentPath, "error": err.Error()})
	}

	entry, err := s.content.Lookup(currentPath)
	if errors.Is(err, content.ErrNotFound) {
		page, renderErr := s.RenderNotFound(ctx, r, currentPath)
		span.SetAttributes(attribute.Int("http.status_code", page.Status))
		return page, renderErr
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "content lookup failed")
		return RenderedPage{}, err
	}

	variant, err := variantFor(entry)
	if err != nil {
		pageRenders.WithLabelValues("unknown", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid layout")
		return RenderedPage{}, fmt.Errorf("%s: %w: %w", entry.Path, shell.ErrConfiguration, err)
	}
	span.SetAttributes(attribute.String("page.variant", variant.String()))

	children, err := s.content.List(entry.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "content listing failed")
		return RenderedPage{}, err
	}

	title := entry.Title
	if title == "" && entry.Path == "/" {
		title = s.shell.SiteTitle()
	}

	var buf bytes.Buffer
	err = s.shell.Render(&buf, currentPath, r, shell.Page{
		Variant: variant,
		Metadata: meta.PageMetadata{
			Title:       title,
			Description: entry.Description,
			Keywords:    entry.Keywords,
		},
		Content: func(sc shell.Context) (template.HTML, error) {
			return s.execute("page", pageView{Entry: entry, Children: children, Shell: sc})
		},
	})
	if err != nil {
		pageRenders.WithLabelValues(variant.String(), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return RenderedPage{}, err
	}
	pageRenders.WithLabelValues(variant.String(), "ok").Inc()

	page := RenderedPage{Status: http.StatusOK, Body: buf.Bytes()}
	if err := s.cache.CachePage(ctx, host, currentPath, cache.CachedPage{Status: page.Status, Body: page.Body}); err != nil {
		logger.Warn("Page cache write failed", map[string]interface{}{"path": currentPath, "error": err.Error()})
	}
	span.SetAttributes(attribute.Int("http.status_code", page.Status))
	return page, nil
}

// RenderNotFound renders the standard not-found page. No navigation entry
// matches an unknown path, so nothing is marked active.
func (s *SiteService) RenderNotFound(ctx context.Context, r *http.Request, currentPath string) (RenderedPage, error) {
	_, span := s.tracer.Start(ctx, "site.render_not_found")
	defer span.End()

	var buf bytes.Buffer
	err := s.shell.Render(&buf, currentPath, r, shell.Page{
		Variant:  shell.Standard,
		Metadata: meta.PageMetadata{Title: notFoundTitle},
		Content: func(shell.Context) (template.HTML, error) {
			return s.execute("not_found", notFoundView{Path: currentPath})
		},
	})
	if err != nil {
		pageRenders.WithLabelValues(shell.Standard.String(), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return RenderedPage{}, err
	}
	pageRenders.WithLabelValues(shell.Standard.String(), "not_found").Inc()

	return RenderedPage{Status: http.StatusNotFound, Body: buf.Bytes()}, nil
}

// Navigation returns the menu state for path as the standard frame draws
// it.
func (s *SiteService) Navigation(path string) (navigation.Menu, error) {
	return s.shell.Menu(utils.NormalizePath(path), shell.Standard)
}

// ResolveAsset returns the URL an external action opens.
func (s *SiteService) ResolveAsset(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "site.resolve_asset", trace.WithAttributes(attribute.String("asset.id", id)))
	defer span.End()

	target, err := s.assets.Resolve(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "asset resolution failed")
		return "", err
	}
	return target, nil
}

// Reload refreshes content and drops cached pages.
func (s *SiteService) Reload(ctx context.Context) error {
	if err := s.content.Reload(ctx); err != nil {
		return err
	}
	s.InvalidateCache(ctx)
	return nil
}

func (s *SiteService) InvalidateCache(ctx context.Context) {
	if err := s.cache.InvalidatePagesCache(ctx); err != nil {
		logger.Error(err, "Failed to invalidate page cache", nil)
	}
}

func (s *SiteService) execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// variantFor picks the frame for an entry. The site root defaults to the
// landing frame, everything else to standard.
func variantFor(entry content.Entry) (shell.LayoutVariant, error) {
	if strings.TrimSpace(entry.Layout) == "" && entry.Path == "/" {
		return shell.Landing, nil
	}
	return shell.ParseVariant(entry.Layout)
}
