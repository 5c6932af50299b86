package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"portfolio-site/pkg/validator"
)

var ErrNotFound = errors.New("content not found")

// Entry is one renderable page: its route path, page metadata and the
// sanitized HTML body.
type Entry struct {
	Path        string
	Title       string
	Description string
	Keywords    []string
	Layout      string
	Summary     string
	Date        time.Time
	Draft       bool
	Body        template.HTML
}

// Source is the content collaborator the site service renders from.
type Source interface {
	Lookup(path string) (Entry, error)
	// List returns published entries nested under prefix, newest first.
	List(prefix string) ([]Entry, error)
	// Paths returns every published route path.
	Paths() ([]string, error)
	Reload(ctx context.Context) error
}

type markdownRenderer struct {
	md goldmark.Markdown
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

func (r *markdownRenderer) render(source []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(validator.SanitizeHTML(buf.String())), nil
}

func isChild(prefix, path string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return strings.HasPrefix(path, prefix+"/") && len(path) > len(prefix)+1
}

// sortNewestFirst orders by date descending; undated entries go last,
// ties break on path.
func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Date, entries[j].Date
		switch {
		case a.IsZero() && b.IsZero():
			return entries[i].Path < entries[j].Path
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		case a.Equal(b):
			return entries[i].Path < entries[j].Path
		}
		return a.After(b)
	})
}
