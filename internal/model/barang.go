package model

import (
	"time"

	"github.com/google/uuid"
)

// Barang is a stock-keeping unit. StokTotal is a cached aggregate of
// SisaJumlah over all of its batches and is only ever changed by the stock
// service inside the same transaction as the batch writes.
type Barang struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nama        string     `gorm:"index;not null"`
	Satuan      string     `gorm:"not null;default:'unit'"`
	StokTotal   int        `gorm:"not null;default:0"`
	StokMinimum int        `gorm:"not null;default:0"`
	KategoriID  *uuid.UUID `gorm:"type:uuid;index"`
	KodeScan    *string    `gorm:"uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Kategori *Kategori   `gorm:"foreignKey:KategoriID"`
	Batches  []BatchStok `gorm:"foreignKey:BarangID;constraint:OnDelete:CASCADE"`
}

// Stock status labels, derived from StokTotal and StokMinimum for display only.
const (
	StatusStokAman    = "aman"
	StatusStokMenipis = "menipis"
	StatusStokHabis   = "habis"
)

// StatusStok reports the display status of the item. The reorder threshold is
// never enforced.
func (b *Barang) StatusStok() string {
	switch {
	case b.StokTotal <= 0:
		return StatusStokHabis
	case b.StokTotal <= b.StokMinimum:
		return StatusStokMenipis
	default:
		return StatusStokAman
	}
}

// TableName overrides GORM's default pluralization (barangs → barang).
func (Barang) TableName() string { return "barang" }
