package meta

import (
	"errors"
	"strings"
)

// ErrEmptyTitle is returned when a page would render without a title.
var ErrEmptyTitle = errors.New("page title is required")

// PageMetadata is the per-page descriptive data handed to the layout shell.
type PageMetadata struct {
	Title       string
	Description string
	Keywords    []string
}

// Defaults are the site-wide values a page falls back to.
type Defaults struct {
	Title       string
	Description string
	Keywords    []string
}

// Resolve fills the description and keywords from the defaults. A page
// title that differs from the site title is suffixed with it; an empty title
// stays empty and is rejected by Inject.
func (d Defaults) Resolve(page PageMetadata) PageMetadata {
	resolved := PageMetadata{
		Title:       strings.TrimSpace(page.Title),
		Description: strings.TrimSpace(page.Description),
		Keywords:    cleanKeywords(page.Keywords),
	}

	if siteTitle := strings.TrimSpace(d.Title); resolved.Title != "" && siteTitle != "" && resolved.Title != siteTitle {
		resolved.Title = resolved.Title + " - " + siteTitle
	}

	if resolved.Description == "" {
		resolved.Description = strings.TrimSpace(d.Description)
	}
	if len(resolved.Keywords) == 0 {
		resolved.Keywords = cleanKeywords(d.Keywords)
	}

	return resolved
}

// Document holds the document-level fields written into <head>.
type Document struct {
	Language    string
	Title       string
	Description string
	Keywords    []string

	Canonical          string
	OGType             string
	OGURL              string
	OGImage            string
	OGSiteName         string
	TwitterCard        string
	TwitterTitle       string
	TwitterDescription string
}

// KeywordList is the keywords meta content.
func (d Document) KeywordList() string {
	return strings.Join(d.Keywords, ", ")
}

// Inject writes m into doc. Fields are replaced, never appended, so
// injecting the same metadata twice leaves the same document.
func Inject(doc *Document, m PageMetadata) error {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return ErrEmptyTitle
	}

	doc.Title = title
	doc.Description = strings.TrimSpace(m.Description)
	doc.Keywords = cleanKeywords(m.Keywords)
	return nil
}

func cleanKeywords(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
