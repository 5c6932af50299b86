package utils

import (
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type AssetModTimeFunc func(path string) (time.Time, error)

func GetTemplateFuncs(assetModTime AssetModTimeFunc) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time, format string) string {
			if t.IsZero() {
				return ""
			}
			layouts := map[string]string{
				"short":  "01/02/2006",
				"medium": "January 02, 2006",
				"long":   "Monday, January 02, 2006",
				"iso":    time.RFC3339,
			}
			if layout, ok := layouts[format]; ok {
				return t.Format(layout)
			}
			return t.Format(format)
		},

		"asset": func(path string) string {
			if path == "" {
				return ""
			}
			lowerPath := strings.ToLower(path)
			if strings.HasPrefix(lowerPath, "http://") || strings.HasPrefix(lowerPath, "https://") || strings.HasPrefix(path, "//") {
				return path
			}
			version := int64(0)
			if assetModTime != nil {
				if modTime, err := assetModTime(path); err == nil {
					version = modTime.Unix()
				}
			}
			if version == 0 {
				trimmed := strings.TrimPrefix(path, "/")
				if info, err := os.Stat(filepath.FromSlash(trimmed)); err == nil {
					version = info.ModTime().Unix()
				}
			}
			if version == 0 {
				return path
			}
			separator := "?"
			if strings.Contains(path, "?") {
				separator = "&"
			}
			return fmt.Sprintf("%s%sv=%d", path, separator, version)
		},
	}
}

// NormalizePath cleans a request path the way the router resolves it: a
// leading slash, no duplicate or trailing slashes, "/" for empty input.
func NormalizePath(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "/"
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if parsed, err := url.Parse(trimmed); err == nil {
			if parsed.Path != "" {
				trimmed = parsed.Path
			} else {
				trimmed = "/"
			}
		}
	}

	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}

	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == "" {
		return "/"
	}

	return cleaned
}
