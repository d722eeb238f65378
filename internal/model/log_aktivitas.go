package model

import (
	"time"

	"github.com/google/uuid"
)

// LogAktivitas is an append-only activity entry. Writes are best-effort and
// never part of a ledger transaction.
type LogAktivitas struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PenggunaID *uuid.UUID `gorm:"type:uuid;index"`
	Aksi       string     `gorm:"type:varchar(40);not null"`
	Entitas    string     `gorm:"type:varchar(40);not null"`
	EntitasID  uuid.UUID  `gorm:"type:uuid;index"`
	Deskripsi  string
	Data       string `gorm:"type:jsonb;default:'null'"`
	CreatedAt  time.Time
}

// TableName overrides GORM's default pluralization.
func (LogAktivitas) TableName() string { return "log_aktivitas" }
