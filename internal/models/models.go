package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Page is a portfolio page stored in the database when the site runs with
// the database content source. Body holds markdown. An empty title falls
// back to the site title.
type Page struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Path        string     `gorm:"uniqueIndex;not null" json:"path" validate:"required,route_path"`
	Title       string     `gorm:"not null" json:"title" validate:"no_html"`
	Description string     `json:"description" validate:"no_html"`
	Summary     string     `json:"summary" validate:"no_html"`
	Keywords    []string   `gorm:"serializer:json" json:"keywords"`
	Layout      string     `gorm:"default:'standard'" json:"layout"`
	Body        string     `gorm:"type:text" json:"body"`
	Published   bool       `gorm:"default:false" json:"published"`
	PublishAt   *time.Time `gorm:"index" json:"publish_at,omitempty"`

	Order int `gorm:"default:0" json:"order"`
}

// Date is the timestamp shown for the page: the scheduled publish time when
// set, the creation time otherwise.
func (p Page) Date() time.Time {
	if p.PublishAt != nil {
		return *p.PublishAt
	}
	return p.CreatedAt
}

// IsPost reports whether the page lives under the blog section.
func (p Page) IsPost() bool {
	return strings.HasPrefix(p.Path, "/blog/")
}
