package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MutasiMasuk  = "masuk"
	MutasiKeluar = "keluar"
)

// MutasiStok journals every change to a batch, written in the same
// transaction as the change itself. For depletions there is one row per
// touched batch, which records where consumed stock came from.
type MutasiStok struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BarangID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Tipe        string     `gorm:"type:varchar(10);not null"`
	Jumlah      int        `gorm:"not null"` // positive = masuk, negative = keluar
	StokSebelum int        `gorm:"not null"`
	StokSesudah int        `gorm:"not null"`
	ReferensiID *uuid.UUID `gorm:"type:uuid;index"`
	Keterangan  string
	CreatedAt   time.Time

	Barang *Barang `gorm:"foreignKey:BarangID"`
}

// TableName overrides GORM's default pluralization (mutasi_stoks → mutasi_stok).
func (MutasiStok) TableName() string { return "mutasi_stok" }
