package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
	"portfolio-site/pkg/validator"
)

// DatabaseSource reads pages from the pages table on every lookup, so it
// has nothing to reload.
type DatabaseSource struct {
	repo     repository.PageRepository
	renderer *markdownRenderer
}

func NewDatabaseSource(repo repository.PageRepository) *DatabaseSource {
	return &DatabaseSource{
		repo:     repo,
		renderer: newMarkdownRenderer(),
	}
}

func (s *DatabaseSource) Lookup(path string) (Entry, error) {
	page, err := s.repo.GetByPath(path)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Entry{}, fmt.Errorf("failed to load page %s: %w", path, err)
	}
	return s.entry(*page)
}

func (s *DatabaseSource) List(prefix string) ([]Entry, error) {
	pages, err := s.repo.ListPublished(strings.TrimSuffix(prefix, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages under %s: %w", prefix, err)
	}

	entries := make([]Entry, 0, len(pages))
	for _, page := range pages {
		if !isChild(prefix, page.Path) {
			continue
		}
		entry, err := s.entry(page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	sortNewestFirst(entries)
	return entries, nil
}

func (s *DatabaseSource) Paths() ([]string, error) {
	pages, err := s.repo.ListPublished("")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	paths := make([]string, 0, len(pages))
	for _, page := range pages {
		paths = append(paths, page.Path)
	}
	return paths, nil
}

func (s *DatabaseSource) Reload(context.Context) error {
	return nil
}

func (s *DatabaseSource) entry(page models.Page) (Entry, error) {
	if err := validator.Validate(page); err != nil {
		return Entry{}, fmt.Errorf("invalid page %q: %s", page.Path, strings.Join(validator.FieldErrors(err), ", "))
	}

	body, err := s.renderer.render([]byte(page.Body))
	if err != nil {
		return Entry{}, fmt.Errorf("page %s: %w", page.Path, err)
	}

	return Entry{
		Path:        page.Path,
		Title:       page.Title,
		Description: page.Description,
		Summary:     page.Summary,
		Keywords:    page.Keywords,
		Layout:      page.Layout,
		Date:        page.Date(),
		Body:        body,
	}, nil
}
