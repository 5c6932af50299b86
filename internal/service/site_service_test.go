package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"portfolio-site/internal/assets"
	"portfolio-site/internal/content"
	"portfolio-site/internal/meta"
	"portfolio-site/internal/shell"
	"portfolio-site/pkg/navigation"
)

func testContent() fstest.MapFS {
	return fstest.MapFS{
		"index.md":           {Data: []byte("# Hello there\n")},
		"about.md":           {Data: []byte("---\ntitle: About\n---\nVeteran turned developer.\n")},
		"projects.md":        {Data: []byte("---\ntitle: Projects\n---\nThings I built.\n")},
		"contact.md":         {Data: []byte("---\ntitle: Contact\n---\nSay hi.\n")},
		"broken.md":          {Data: []byte("---\ntitle: Broken\nlayout: fullscreen\n---\n")},
		"blog/index.md":      {Data: []byte("---\ntitle: Blog\n---\n")},
		"blog/first-post.md": {Data: []byte("---\ntitle: First Post\ndate: 2023-01-10\nsummary: Where it began\n---\nHello.\n")},
		"blog/next-post.md":  {Data: []byte("---\ntitle: Next Post\ndate: 2024-06-01\n---\nAgain.\n")},
	}
}

func newTestService(t *testing.T) *SiteService {
	t.Helper()

	registry := navigation.MustRegistry(
		navigation.Link("About", "/about"),
		navigation.Link("Projects", "/projects"),
		navigation.Link("Blog", "/blog"),
		navigation.Action("Resume", "resume"),
		navigation.Link("Contact", "/contact"),
	)

	sh, err := shell.New(shell.Options{
		Registry: registry,
		Bar:      navigation.Bar{Brand: navigation.Brand{Label: "KO", Path: "/"}},
		Defaults: meta.Defaults{Title: "Kenneth Ofosu", Description: "Software Engineer"},
		SiteName: "Kenneth Ofosu",
		SiteURL:  "https://kofosu.dev",
	})
	if err != nil {
		t.Fatalf("shell.New returned error: %v", err)
	}

	src, err := content.NewMarkdownSource(testContent())
	if err != nil {
		t.Fatalf("NewMarkdownSource returned error: %v", err)
	}

	svc, err := NewSiteService(sh, src, assets.NewStaticResolver(map[string]string{"resume": "/static/resume.pdf"}), nil)
	if err != nil {
		t.Fatalf("NewSiteService returned error: %v", err)
	}
	return svc
}

func renderPath(t *testing.T, svc *SiteService, path string) RenderedPage {
	t.Helper()
	page, err := svc.RenderPage(context.Background(), httptest.NewRequest(http.MethodGet, path, nil), path)
	if err != nil {
		t.Fatalf("RenderPage(%s) returned error: %v", path, err)
	}
	return page
}

func TestRenderPageVariants(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		path    string
		layout  string
		title   string
		snippet string
	}{
		{path: "/", layout: `data-layout="landing"`, title: "<title>Kenneth Ofosu</title>", snippet: "Hello there"},
		{path: "/about", layout: `data-layout="standard"`, title: "<title>About - Kenneth Ofosu</title>", snippet: "Veteran turned developer."},
		{path: "/contact", layout: `data-layout="standard"`, title: "<title>Contact - Kenneth Ofosu</title>", snippet: "Say hi."},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			page := renderPath(t, svc, tt.path)
			body := string(page.Body)

			if page.Status != http.StatusOK {
				t.Fatalf("expected 200, got %d", page.Status)
			}
			for _, want := range []string{tt.layout, tt.title} {
				if !strings.Contains(body, want) {
					t.Fatalf("expected %q in output", want)
				}
			}
			if !strings.Contains(body, tt.snippet) {
				t.Fatalf("expected content %q in output", tt.snippet)
			}
		})
	}
}

func TestRenderPageActiveLink(t *testing.T) {
	svc := newTestService(t)
	body := string(renderPath(t, svc, "/about").Body)

	if strings.Count(body, `aria-current="page"`) != 1 {
		t.Fatalf("expected exactly one active link")
	}
	if !strings.Contains(body, `href="/about" aria-current="page"`) {
		t.Fatalf("expected About to be the active link")
	}
	if !strings.Contains(body, `href="/assets/resume" target="_blank"`) {
		t.Fatalf("expected Resume to open the asset in a new tab")
	}
}

func TestRenderPageListsChildrenNewestFirst(t *testing.T) {
	svc := newTestService(t)
	body := string(renderPath(t, svc, "/blog").Body)

	next := strings.Index(body, `href="/blog/next-post"`)
	first := strings.Index(body, `href="/blog/first-post"`)
	if next < 0 || first < 0 || next > first {
		t.Fatalf("expected next-post listed before first-post")
	}
	if !strings.Contains(body, "Where it began") {
		t.Fatalf("expected post summary in listing")
	}

	post := string(renderPath(t, svc, "/blog/first-post").Body)
	if !strings.Contains(post, `datetime="2023-01-10T00:00:00Z"`) {
		t.Fatalf("expected post date in output")
	}
}

func TestRenderPageNotFound(t *testing.T) {
	svc := newTestService(t)

	page := renderPath(t, svc, "/projects/1")
	if page.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", page.Status)
	}
	body := string(page.Body)
	if strings.Contains(body, `aria-current="page"`) {
		t.Fatalf("not found page must have no active link")
	}
	if !strings.Contains(body, "<code>/projects/1</code>") || !strings.Contains(body, "<title>Page not found - Kenneth Ofosu</title>") {
		t.Fatalf("unexpected not found body")
	}
}

func TestRenderPageUnknownLayout(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RenderPage(context.Background(), nil, "/broken")
	if !errors.Is(err, shell.ErrConfiguration) || !errors.Is(err, shell.ErrUnknownVariant) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

type failingSource struct {
	content.Source
}

func (failingSource) Lookup(string) (content.Entry, error) {
	return content.Entry{}, errors.New("database unavailable")
}

func TestRenderPagePropagatesSourceErrors(t *testing.T) {
	svc := newTestService(t)
	svc.content = failingSource{}

	if _, err := svc.RenderPage(context.Background(), nil, "/about"); err == nil {
		t.Fatalf("expected source error")
	}
}

func TestNavigationNormalizesPath(t *testing.T) {
	svc := newTestService(t)

	menu, err := svc.Navigation("/projects/")
	if err != nil {
		t.Fatalf("Navigation returned error: %v", err)
	}
	active, ok := menu.Active()
	if !ok || active.Label != "Projects" || menu.CurrentPath != "/projects" {
		t.Fatalf("unexpected menu %+v", menu)
	}
}

func TestResolveAsset(t *testing.T) {
	svc := newTestService(t)

	target, err := svc.ResolveAsset(context.Background(), "resume")
	if err != nil || target != "/static/resume.pdf" {
		t.Fatalf("unexpected result %q, %v", target, err)
	}
	if _, err := svc.ResolveAsset(context.Background(), "portfolio"); !errors.Is(err, assets.ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestExport(t *testing.T) {
	svc := newTestService(t)
	svc.content = exportableSource(t)

	staticDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(staticDir, "css"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "css", "site.css"), []byte(".active{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "public")
	report, err := svc.Export(context.Background(), ExportOptions{OutputDir: out, StaticDir: staticDir, SiteURL: "https://kofosu.dev"})
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if report.Pages != 7 || report.Assets != 1 || report.Static != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	for _, name := range []string{
		"index.html",
		"about/index.html",
		"blog/index.html",
		"blog/first-post/index.html",
		"404.html",
		"static/css/site.css",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected %s in export: %v", name, err)
		}
	}

	stub, err := os.ReadFile(filepath.Join(out, "assets", "resume", "index.html"))
	if err != nil {
		t.Fatalf("expected asset redirect stub: %v", err)
	}
	if !strings.Contains(string(stub), `href="/static/resume.pdf"`) {
		t.Fatalf("unexpected stub %s", stub)
	}

	about, _ := os.ReadFile(filepath.Join(out, "about", "index.html"))
	if !strings.Contains(string(about), `href="https://kofosu.dev/about"`) {
		t.Fatalf("expected canonical link to the site url")
	}
}

// exportableSource drops the entry with a broken layout from the test
// content so every path renders.
func exportableSource(t *testing.T) content.Source {
	t.Helper()
	fsys := testContent()
	delete(fsys, "broken.md")
	src, err := content.NewMarkdownSource(fsys)
	if err != nil {
		t.Fatalf("NewMarkdownSource returned error: %v", err)
	}
	return src
}

func TestReloadPicksUpNewContent(t *testing.T) {
	svc := newTestService(t)
	fsys := fstest.MapFS{"index.md": {Data: []byte("Home.\n")}}
	src, err := content.NewMarkdownSource(fsys)
	if err != nil {
		t.Fatalf("NewMarkdownSource returned error: %v", err)
	}
	svc.content = src

	if page := renderPath(t, svc, "/uses"); page.Status != http.StatusNotFound {
		t.Fatalf("expected 404 before reload, got %d", page.Status)
	}

	fsys["uses.md"] = &fstest.MapFile{Data: []byte("---\ntitle: Uses\n---\nEditor and shell.\n")}
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if page := renderPath(t, svc, "/uses"); page.Status != http.StatusOK {
		t.Fatalf("expected 200 after reload, got %d", page.Status)
	}
}

type fixedSource struct {
	entries map[string]content.Entry
}

func (s fixedSource) Lookup(path string) (content.Entry, error) {
	entry, ok := s.entries[path]
	if !ok {
		return content.Entry{}, content.ErrNotFound
	}
	return entry, nil
}

func (fixedSource) List(string) ([]content.Entry, error) { return nil, nil }
func (fixedSource) Paths() ([]string, error)             { return nil, nil }
func (fixedSource) Reload(context.Context) error         { return nil }

func TestRenderPageUntitledEntries(t *testing.T) {
	svc := newTestService(t)
	svc.content = fixedSource{entries: map[string]content.Entry{
		"/":      {Path: "/", Layout: "landing", Body: "<p>home</p>"},
		"/notes": {Path: "/notes", Body: "<p>notes</p>"},
	}}

	home := renderPath(t, svc, "/")
	if !strings.Contains(string(home.Body), "<title>Kenneth Ofosu</title>") {
		t.Fatalf("root without a title should use the site title, got %s", home.Body)
	}

	_, err := svc.RenderPage(context.Background(), httptest.NewRequest(http.MethodGet, "/notes", nil), "/notes")
	if !errors.Is(err, shell.ErrConfiguration) || !errors.Is(err, meta.ErrEmptyTitle) {
		t.Fatalf("expected configuration error for an untitled page, got %v", err)
	}
}

func TestRenderPageCanonicalDropsQuery(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/about?ref=elsewhere", nil)
	page, err := svc.RenderPage(context.Background(), req, "/about")
	if err != nil {
		t.Fatalf("RenderPage returned error: %v", err)
	}

	body := string(page.Body)
	if !strings.Contains(body, `href="https://kofosu.dev/about"`) || strings.Contains(body, "ref=elsewhere") {
		t.Fatalf("canonical must not carry the query, got %s", body)
	}
}
