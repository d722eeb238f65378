package model

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. PENDING is initial; APPROVED and REJECTED are terminal.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Permintaan is a demand for items, subject to a single approve/reject decision.
type Permintaan struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nomor            string    `gorm:"uniqueIndex;not null"`
	PemintaID        uuid.UUID `gorm:"type:uuid;not null;index"`
	PemintaEmail     string
	Keterangan       string
	Status           string     `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	DiprosesOleh     *uuid.UUID `gorm:"type:uuid"`
	DiprosesPada     *time.Time
	CatatanPenolakan string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Details []PermintaanDetail `gorm:"foreignKey:PermintaanID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default pluralization.
func (Permintaan) TableName() string { return "permintaan" }

// Final reports whether the request already reached a terminal state.
func (p *Permintaan) Final() bool {
	return p.Status == StatusApproved || p.Status == StatusRejected
}

// PermintaanDetail is one item/quantity line of a request.
// JumlahDisetujui stays 0 until the request is approved.
type PermintaanDetail struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PermintaanID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BarangID        uuid.UUID `gorm:"type:uuid;not null;index"`
	JumlahDiminta   int       `gorm:"not null"`
	JumlahDisetujui int       `gorm:"not null;default:0"`

	Barang *Barang `gorm:"foreignKey:BarangID"`
}

// TableName overrides GORM's default pluralization.
func (PermintaanDetail) TableName() string { return "permintaan_detail" }
