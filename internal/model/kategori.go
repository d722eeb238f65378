package model

import (
	"time"

	"github.com/google/uuid"
)

// Kategori groups items for browsing. It plays no part in stock accounting.
type Kategori struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nama      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization (kategoris → kategori).
func (Kategori) TableName() string { return "kategori" }
