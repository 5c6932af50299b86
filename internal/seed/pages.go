package seed

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"portfolio-site/internal/content"
	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
	"portfolio-site/pkg/logger"
	"portfolio-site/pkg/validator"
)

// Report counts what ImportPages did.
type Report struct {
	Created int
	Skipped int
}

// ImportPages copies the markdown content tree into the pages table. Pages
// whose path already exists are left untouched, so running it twice is safe.
// Drafts are imported unpublished.
func ImportPages(ctx context.Context, repo repository.PageRepository, fsys fs.FS) (Report, error) {
	var report Report

	err := content.WalkDocuments(ctx, fsys, func(doc content.Document) error {
		created, err := ensurePage(repo, doc)
		if err != nil {
			return err
		}
		if created {
			report.Created++
		} else {
			report.Skipped++
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to import pages: %w", err)
	}

	logger.Info("Content imported", map[string]interface{}{
		"created": report.Created,
		"skipped": report.Skipped,
	})
	return report, nil
}

func ensurePage(repo repository.PageRepository, doc content.Document) (bool, error) {
	exists, err := repo.ExistsByPath(doc.Path)
	if err != nil {
		return false, fmt.Errorf("failed to verify page %s: %w", doc.Path, err)
	}
	if exists {
		logger.Debug("Page already present", map[string]interface{}{"path": doc.Path, "file": doc.File})
		return false, nil
	}

	page := pageFromDocument(doc)
	if err := validator.Validate(page); err != nil {
		return false, fmt.Errorf("%s: %s", doc.File, strings.Join(validator.FieldErrors(err), ", "))
	}

	if err := repo.Create(page); err != nil {
		return false, fmt.Errorf("failed to create page %s: %w", doc.Path, err)
	}

	logger.Info("Imported page", map[string]interface{}{"path": doc.Path, "file": doc.File})
	return true, nil
}

func pageFromDocument(doc content.Document) *models.Page {
	page := &models.Page{
		Path:        doc.Path,
		Title:       doc.Title,
		Description: doc.Description,
		Summary:     doc.Summary,
		Keywords:    doc.Keywords,
		Layout:      doc.Layout,
		Body:        string(doc.Markdown),
		Published:   !doc.Draft,
	}
	if page.Layout == "" {
		page.Layout = "standard"
		if doc.Path == "/" {
			page.Layout = "landing"
		}
	}
	if !doc.Date.IsZero() {
		date := doc.Date.UTC().Truncate(time.Second)
		page.PublishAt = &date
	}
	return page
}
