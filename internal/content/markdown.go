package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"portfolio-site/pkg/logger"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
	Layout      string   `yaml:"layout"`
	Summary     string   `yaml:"summary"`
	Date        string   `yaml:"date"`
	Draft       bool     `yaml:"draft"`
}

// MarkdownSource serves entries parsed from markdown files with optional
// frontmatter. File location decides the route: about.md is /about,
// index.md is its directory and blog/first-post.md is /blog/first-post.
type MarkdownSource struct {
	fsys     fs.FS
	renderer *markdownRenderer

	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMarkdownSource(fsys fs.FS) (*MarkdownSource, error) {
	s := &MarkdownSource{
		fsys:     fsys,
		renderer: newMarkdownRenderer(),
		entries:  map[string]Entry{},
	}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MarkdownSource) Lookup(p string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[p]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return entry, nil
}

func (s *MarkdownSource) List(prefix string) ([]Entry, error) {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.entries))
	for p, entry := range s.entries {
		if isChild(prefix, p) {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(entries)
	return entries, nil
}

func (s *MarkdownSource) Paths() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Reload re-reads every markdown file. On error the previous entries stay
// in place.
func (s *MarkdownSource) Reload(ctx context.Context) error {
	entries := map[string]Entry{}

	err := WalkDocuments(ctx, s.fsys, func(doc Document) error {
		if doc.Draft {
			logger.Debug("Skipping draft", map[string]interface{}{"file": doc.File})
			return nil
		}
		if existing, dup := entries[doc.Path]; dup {
			return fmt.Errorf("%s and another file both map to %s (%s)", doc.File, doc.Path, existing.Title)
		}

		html, err := s.renderer.render(doc.Markdown)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.File, err)
		}
		entry := doc.Entry
		entry.Body = html
		entries[doc.Path] = entry
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	logger.Info("Content loaded", map[string]interface{}{"entries": len(entries)})
	return nil
}

// Document is a parsed markdown file before rendering. Entry.Body is empty;
// Markdown holds the source without its frontmatter.
type Document struct {
	Entry
	File     string
	Markdown []byte
}

// WalkDocuments parses every .md file under fsys in lexical order, drafts
// included, and calls fn for each.
func WalkDocuments(ctx context.Context, fsys fs.FS, fn func(Document) error) error {
	return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(name), ".md") {
			return nil
		}

		doc, err := ParseDocument(fsys, name)
		if err != nil {
			return err
		}
		return fn(doc)
	})
}

func ParseDocument(fsys fs.FS, name string) (Document, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse frontmatter in %s: %w", name, err)
	}

	routePath, base := routeFor(name)

	title := strings.TrimSpace(fm.Title)
	if title == "" && base != "" {
		title = cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	}

	doc := Document{
		Entry: Entry{
			Path:        routePath,
			Title:       title,
			Description: strings.TrimSpace(fm.Description),
			Keywords:    fm.Keywords,
			Layout:      strings.TrimSpace(fm.Layout),
			Summary:     strings.TrimSpace(fm.Summary),
			Draft:       fm.Draft,
		},
		File:     name,
		Markdown: body,
	}

	if fm.Date != "" {
		doc.Date, err = parseDate(fm.Date)
		if err != nil {
			return Document{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return doc, nil
}

// routeFor maps a content file name to its route path and the base name
// used for a fallback title. The site root has no fallback title.
func routeFor(name string) (string, string) {
	trimmed := strings.TrimSuffix(name, path.Ext(name))
	dir, base := path.Split(trimmed)
	if base == "index" {
		trimmed = strings.TrimSuffix(dir, "/")
		base = path.Base(trimmed)
		if trimmed == "" {
			return "/", ""
		}
	}
	return "/" + trimmed, base
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, use YYYY-MM-DD or RFC3339", value)
}
