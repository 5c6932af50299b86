package meta

import (
	"net/http"
	"net/url"
	"strings"
)

// Enrich derives the canonical and social card fields from the document
// title/description and the routed path. The query string never reaches the
// canonical URL. siteURL may be empty, in which case the request scheme and
// host are used.
func Enrich(doc *Document, siteName, siteURL, currentPath string, r *http.Request) {
	base := normalizeBaseURL(siteURL, r)

	doc.Canonical = buildCanonicalURL(base, currentPath)
	doc.OGURL = doc.Canonical

	if strings.TrimSpace(doc.OGType) == "" {
		doc.OGType = "website"
	}
	if doc.OGImage != "" {
		doc.OGImage = resolveAbsoluteURL(base, doc.OGImage, r)
	}
	if strings.TrimSpace(doc.OGSiteName) == "" {
		doc.OGSiteName = siteName
	}
	if strings.TrimSpace(doc.TwitterCard) == "" {
		doc.TwitterCard = "summary"
	}

	doc.TwitterTitle = doc.Title
	doc.TwitterDescription = doc.Description
}

func resolveAbsoluteURL(baseURL, value string, r *http.Request) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if strings.HasPrefix(value, "//") {
		scheme := requestScheme(r)
		if scheme == "" {
			return value
		}
		return scheme + ":" + value
	}

	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}

	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}

	if base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/"); base != "" {
		return base + value
	}

	return value
}

func normalizeBaseURL(baseURL string, r *http.Request) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if r == nil {
		return baseURL
	}

	if baseURL == "" {
		scheme := requestScheme(r)
		host := requestHost(r)
		if scheme == "" || host == "" {
			return ""
		}
		return scheme + "://" + host
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	reqHost := requestHost(r)
	if parsed.Host != "" && !strings.EqualFold(parsed.Host, reqHost) {
		return baseURL
	}

	scheme := requestScheme(r)
	if scheme != "" && parsed.Scheme != scheme {
		parsed.Scheme = scheme
		return parsed.String()
	}

	return baseURL
}

func requestScheme(r *http.Request) string {
	if r == nil {
		return ""
	}

	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		parts := strings.Split(proto, ",")
		if value := strings.ToLower(strings.TrimSpace(parts[0])); value != "" {
			return value
		}
	}

	if r.TLS != nil {
		return "https"
	}

	if r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}

	return "http"
}

func requestHost(r *http.Request) string {
	if r == nil {
		return ""
	}

	if forwardedHost := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); forwardedHost != "" {
		parts := strings.Split(forwardedHost, ",")
		if host := strings.TrimSpace(parts[0]); host != "" {
			return host
		}
	}

	if r.Host != "" {
		return r.Host
	}

	if r.URL != nil {
		return r.URL.Host
	}

	return ""
}

func buildCanonicalURL(base, currentPath string) string {
	path := strings.TrimSpace(currentPath)
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return base + path
}
