package repository

import (
	"strings"
	"time"

	"portfolio-site/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PageRepository interface {
	Create(page *models.Page) error
	GetByPath(path string) (*models.Page, error)
	ListPublished(prefix string) ([]models.Page, error)
	ExistsByPath(path string) (bool, error)
}

type pageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) published(now time.Time) *gorm.DB {
	return r.db.Where("published = ?", true).
		Where("publish_at IS NULL OR publish_at <= ?", now)
}

func (r *pageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

func (r *pageRepository) GetByPath(path string) (*models.Page, error) {
	var page models.Page
	if err := r.published(time.Now().UTC()).
		Where("path = ?", path).
		First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPublished returns published pages whose path starts with prefix,
// newest first within the same order bucket.
func (r *pageRepository) ListPublished(prefix string) ([]models.Page, error) {
	var pages []models.Page

	query := r.published(time.Now().UTC())
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("path LIKE ?", prefix+"%")
	}

	if err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Order("COALESCE(pages.publish_at, pages.created_at) DESC").
		Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// ExistsByPath reports whether any row holds path, soft-deleted and
// unpublished rows included, since they still occupy the unique index.
func (r *pageRepository) ExistsByPath(path string) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Page{}).Where("path = ?", path).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
