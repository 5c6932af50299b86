package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"portfolio-site/internal/config"
	"portfolio-site/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseContentSecurityPolicy(policy string) map[string]map[string]struct{} {
	result := make(map[string]map[string]struct{})

	for _, directive := range strings.Split(policy, ";") {
		parts := strings.Fields(strings.TrimSpace(directive))
		if len(parts) == 0 {
			continue
		}

		values := make(map[string]struct{}, len(parts)-1)
		for _, value := range parts[1:] {
			values[value] = struct{}{}
		}
		result[parts[0]] = values
	}

	return result
}

func TestBuildContentSecurityPolicyAllowsStyleCDN(t *testing.T) {
	policy := buildContentSecurityPolicy([]string{StyleCDN}, []string{"https://cdn.example.com"})
	directives := parseContentSecurityPolicy(policy)

	if _, ok := directives["style-src"][StyleCDN]; !ok {
		t.Fatalf("expected style-src to allow %s, policy: %s", StyleCDN, policy)
	}
	if _, ok := directives["img-src"]["https://cdn.example.com"]; !ok {
		t.Fatalf("expected img-src to include extra source, policy: %s", policy)
	}
	for _, required := range []string{"'self'", "data:", "blob:"} {
		if _, ok := directives["media-src"][required]; !ok {
			t.Fatalf("expected media-src to allow %s, policy: %s", required, policy)
		}
	}
	if _, ok := directives["frame-ancestors"]["'none'"]; !ok {
		t.Fatalf("expected frame-ancestors 'none', policy: %s", policy)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), StyleCDN) {
		t.Fatalf("expected CSP to allow the stylesheet CDN")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must only be sent over TLS")
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.RequestIDKey))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(w.Body.String()); err != nil {
		t.Fatalf("expected generated uuid, got %q", w.Body.String())
	}
	if w.Header().Get(RequestIDHeader) != w.Body.String() {
		t.Fatalf("response header should echo the request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Body.String() != "upstream-id" {
		t.Fatalf("expected incoming id to be kept, got %q", w.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	manager := NewRateLimitManager(context.Background())
	defer manager.Shutdown()

	cfg := &config.Config{RateLimitRequests: 2, RateLimitWindow: 60}
	router := gin.New()
	router.Use(RateLimitMiddleware(cfg, manager))
	router.GET("/about", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/static/site.css", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/about", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("static files should bypass the limiter, got %d", w.Code)
	}
}

func TestRateLimitManagerCleanup(t *testing.T) {
	manager := NewRateLimitManager(context.Background())
	defer manager.Shutdown()

	if manager.GetVisitor("1.2.3.4", 0, 60, 0) != nil {
		t.Fatalf("expected nil limiter when limiting is disabled")
	}

	first := manager.GetVisitor("1.2.3.4", 10, 60, 0)
	if first == nil || manager.GetVisitor("1.2.3.4", 10, 60, 0) != first {
		t.Fatalf("expected limiter to be reused per ip")
	}

	manager.cleanup(time.Now().Add(visitorTTL + time.Second))
	if manager.GetVisitor("1.2.3.4", 10, 60, 0) == first {
		t.Fatalf("expected idle visitor to be evicted")
	}
}
