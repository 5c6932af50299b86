package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"portfolio-site/pkg/logger"
)

type ExportOptions struct {
	OutputDir string
	StaticDir string
	// SiteURL becomes the request URL of every exported page, so canonical
	// links point at the deployed site.
	SiteURL string
}

type ExportReport struct {
	Pages  int
	Assets int
	Static int
}

// Export renders every content path, the not-found page and a redirect
// stub per external asset into OutputDir, then copies StaticDir to
// OutputDir/static.
func (s *SiteService) Export(ctx context.Context, opts ExportOptions) (ExportReport, error) {
	var report ExportReport

	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		return report, fmt.Errorf("export requires an output directory")
	}
	if err := os.RemoveAll(outputDir); err != nil {
		return report, fmt.Errorf("failed to clean output directory %s: %w", outputDir, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	paths, err := s.content.Paths()
	if err != nil {
		return report, err
	}

	for _, p := range paths {
		req, err := exportRequest(ctx, opts.SiteURL, p)
		if err != nil {
			return report, err
		}
		page, err := s.RenderPage(ctx, req, p)
		if err != nil {
			return report, fmt.Errorf("failed to render %s: %w", p, err)
		}
		if err := writeFile(pageFile(outputDir, p), page.Body); err != nil {
			return report, err
		}
		report.Pages++
	}

	req, err := exportRequest(ctx, opts.SiteURL, "/404")
	if err != nil {
		return report, err
	}
	notFound, err := s.RenderNotFound(ctx, req, "/404")
	if err != nil {
		return report, fmt.Errorf("failed to render not found page: %w", err)
	}
	if err := writeFile(filepath.Join(outputDir, "404.html"), notFound.Body); err != nil {
		return report, err
	}

	for _, id := range s.assets.IDs() {
		target, err := s.ResolveAsset(ctx, id)
		if err != nil {
			return report, fmt.Errorf("failed to resolve asset %s: %w", id, err)
		}
		var buf bytes.Buffer
		if err := s.templates.ExecuteTemplate(&buf, "asset_redirect", map[string]string{"ID": id, "URL": target}); err != nil {
			return report, fmt.Errorf("failed to render asset redirect %s: %w", id, err)
		}
		if err := writeFile(filepath.Join(outputDir, "assets", id, "index.html"), buf.Bytes()); err != nil {
			return report, err
		}
		report.Assets++
	}

	if staticDir := strings.TrimSpace(opts.StaticDir); staticDir != "" {
		copied, err := copyDir(staticDir, filepath.Join(outputDir, "static"))
		if err != nil {
			return report, err
		}
		report.Static = copied
	}

	logger.Info("Site exported", map[string]interface{}{
		"output": outputDir,
		"pages":  report.Pages,
		"assets": report.Assets,
		"static": report.Static,
	})
	return report, nil
}

func exportRequest(ctx context.Context, siteURL, p string) (*http.Request, error) {
	base := strings.TrimRight(strings.TrimSpace(siteURL), "/")
	if base == "" {
		base = "http://localhost"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+p, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build export request for %s: %w", p, err)
	}
	return req, nil
}

func pageFile(outputDir, p string) string {
	return filepath.Join(outputDir, filepath.FromSlash(strings.TrimPrefix(p, "/")), "index.html")
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// copyDir copies src into dst and returns the number of files copied. A
// missing src copies nothing.
func copyDir(src, dst string) (int, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		logger.Warn("Static directory not found, skipping copy", map[string]interface{}{"dir": src})
		return 0, nil
	}

	copied := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("failed to copy static files: %w", err)
	}
	return copied, nil
}
