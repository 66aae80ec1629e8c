// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a blog post. Body holds sanitized rich text; the
// sanitizer runs before persistence, so stored bodies never contain
// disallowed markup.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"unique;not null" json:"title"`
	Subtitle string `gorm:"not null" json:"subtitle"`
	Body     string `gorm:"type:text;not null" json:"body"`
	ImageURL string `json:"image_url"`
	// DateLabel is the human-readable publication date shown on post pages,
	// fixed at creation time (e.g. "August 31, 2026").
	DateLabel string         `gorm:"not null" json:"date"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
