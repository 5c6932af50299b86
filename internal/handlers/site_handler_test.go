package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/assets"
	"portfolio-site/internal/content"
	"portfolio-site/internal/meta"
	"portfolio-site/internal/service"
	"portfolio-site/internal/shell"
	"portfolio-site/pkg/navigation"
	"portfolio-site/pkg/validator"
)

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (string, error) {
	return "", errors.New("bucket unreachable")
}

func (failingResolver) IDs() []string { return []string{"resume"} }

func newTestRouter(t *testing.T, resolver assets.Resolver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Init()

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
		Defaults: meta.Defaults{Title: "Kenneth Ofosu"},
	})
	if err != nil {
		t.Fatalf("shell.New returned error: %v", err)
	}

	src, err := content.NewMarkdownSource(fstest.MapFS{
		"index.md":    {Data: []byte("Welcome.\n")},
		"about.md":    {Data: []byte("---\ntitle: About\n---\nAbout me.\n")},
		"projects.md": {Data: []byte("---\ntitle: Projects\n---\nWork.\n")},
		"broken.md":   {Data: []byte("---\nlayout: sideways\n---\n")},
	})
	if err != nil {
		t.Fatalf("NewMarkdownSource returned error: %v", err)
	}

	if resolver == nil {
		resolver = assets.NewStaticResolver(map[string]string{"resume": "https://cdn.example.com/resume.pdf"})
	}
	svc, err := service.NewSiteService(sh, src, resolver, nil)
	if err != nil {
		t.Fatalf("NewSiteService returned error: %v", err)
	}

	h := NewSiteHandler(svc)
	router := gin.New()
	router.GET("/health", Health)
	router.GET("/assets/:id", h.OpenAsset)
	router.GET("/api/v1/navigation", h.Navigation)
	router.NoRoute(h.RenderPage)
	return router
}

func serve(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRenderPageActivePath(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []struct {
		name    string
		request string
		status  int
		active  string
	}{
		{name: "Exact", request: "/about", status: http.StatusOK, active: `href="/about" aria-current="page"`},
		{name: "Trailing slash", request: "/projects/", status: http.StatusOK, active: `href="/projects" aria-current="page"`},
		{name: "Double slash", request: "//about//", status: http.StatusOK, active: `href="/about" aria-current="page"`},
		{name: "Root", request: "/", status: http.StatusOK},
		{name: "Unknown", request: "/projects/1", status: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(router, http.MethodGet, tc.request)
			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, w.Code)
			}
			body := w.Body.String()
			if tc.active == "" {
				if strings.Contains(body, `aria-current="page"`) {
					t.Fatalf("expected no active link")
				}
				return
			}
			if !strings.Contains(body, tc.active) || strings.Count(body, `aria-current="page"`) != 1 {
				t.Fatalf("expected exactly one active link %s", tc.active)
			}
		})
	}
}

func TestRenderPageConfigurationError(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodGet, "/broken")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<nav") {
		t.Fatalf("a failed render must not emit a partial document")
	}
}

func TestRenderPageRejectsWrites(t *testing.T) {
	router := newTestRouter(t, nil)

	if w := serve(router, http.MethodPost, "/about"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestOpenAssetKeepsCurrentPage(t *testing.T) {
	router := newTestRouter(t, nil)

	page := serve(router, http.MethodGet, "/about").Body.String()
	if !strings.Contains(page, `href="/assets/resume" target="_blank"`) {
		t.Fatalf("expected the resume action to open in a new browsing context")
	}

	w := serve(router, http.MethodGet, "/assets/resume")
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://cdn.example.com/resume.pdf" {
		t.Fatalf("unexpected location %q", loc)
	}

	again := serve(router, http.MethodGet, "/about").Body.String()
	if !strings.Contains(again, `href="/about" aria-current="page"`) {
		t.Fatalf("activating the action must leave About active")
	}
}

func TestOpenAssetErrors(t *testing.T) {
	if w := serve(newTestRouter(t, nil), http.MethodGet, "/assets/portfolio"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown asset, got %d", w.Code)
	}
	if w := serve(newTestRouter(t, failingResolver{}), http.MethodGet, "/assets/resume"); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when resolution fails, got %d", w.Code)
	}
}

func TestNavigationAPI(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodGet, "/api/v1/navigation?path=/blog")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var menu navigation.Menu
	if err := json.Unmarshal(w.Body.Bytes(), &menu); err != nil {
		t.Fatalf("failed to decode menu: %v", err)
	}
	if menu.CurrentPath != "/blog" || len(menu.Links) != 5 {
		t.Fatalf("unexpected menu %+v", menu)
	}
	for _, link := range menu.Links {
		if want := link.Label == "Blog"; link.Active != want {
			t.Errorf("%s: expected active=%v", link.Label, want)
		}
		if link.Label == "Resume" && (!link.External || link.Active) {
			t.Errorf("resume must be an inactive external action, got %+v", link)
		}
	}

	trailing := serve(router, http.MethodGet, "/api/v1/navigation?path=/blog/")
	if trailing.Code != http.StatusOK || !strings.Contains(trailing.Body.String(), `"current_path":"/blog"`) {
		t.Fatalf("expected trailing slash to be normalised, got %d %s", trailing.Code, trailing.Body.String())
	}

	if w := serve(router, http.MethodGet, "/api/v1/navigation?path=about"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for relative path, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	w := serve(newTestRouter(t, nil), http.MethodGet, "/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestRenderPageETag(t *testing.T) {
	router := newTestRouter(t, nil)

	first := serve(router, http.MethodGet, "/about")
	etag := first.Header().Get("ETag")
	if first.Code != http.StatusOK || etag == "" {
		t.Fatalf("expected 200 with an ETag, got %d %q", first.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("expected empty 304, got %d with %d bytes", w.Code, w.Body.Len())
	}

	if missing := serve(router, http.MethodGet, "/nowhere"); missing.Header().Get("ETag") != "" {
		t.Fatalf("not found pages must not carry an ETag")
	}
}

func TestETagMatches(t *testing.T) {
	etag := pageETag([]byte("body"))
	cases := map[string]bool{
		etag:           true,
		"W/" + etag:    true,
		"*":            true,
		`"a", "b"`:     false,
		`"a", ` + etag: true,
	}
	for header, want := range cases {
		if got := etagMatches(header, etag); got != want {
			t.Errorf("etagMatches(%q) = %v, want %v", header, got, want)
		}
	}
}
