package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Origin tags for a batch. They are informational and never affect depletion.
const (
	JenisPembelian     = "pembelian"
	JenisHibah         = "hibah"
	JenisTransferMasuk = "transfer_masuk"
	JenisSaldoAwal     = "saldo_awal"
	JenisKoreksi       = "koreksi"
	JenisRetur         = "retur"
)

// JenisTransaksiValid lists every accepted origin tag.
var JenisTransaksiValid = map[string]bool{
	JenisPembelian:     true,
	JenisHibah:         true,
	JenisTransferMasuk: true,
	JenisSaldoAwal:     true,
	JenisKoreksi:       true,
	JenisRetur:         true,
}

// BatchStok is one intake lot of a Barang.
//
// Jumlah and HargaSatuan are immutable. SisaJumlah starts at Jumlah and only
// decreases, via the depletion engine. FIFO order is (TanggalMasuk, Urutan):
// Urutan is a database sequence so lots with the same intake date keep their
// insertion order.
type BatchStok struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BarangID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_fifo,priority:1"`
	Jumlah            int             `gorm:"not null"`
	SisaJumlah        int             `gorm:"not null"`
	HargaSatuan       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TanggalMasuk      time.Time       `gorm:"not null;index:idx_batch_fifo,priority:2"`
	Urutan            int64           `gorm:"autoIncrement;not null;index:idx_batch_fifo,priority:3"`
	JenisTransaksi    string          `gorm:"type:varchar(20);not null;default:'pembelian'"`
	TanggalKadaluarsa *time.Time
	Keterangan        string
	CreatedAt         time.Time

	Barang *Barang `gorm:"foreignKey:BarangID"`
}

// TableName overrides GORM's default pluralization (batch_stoks → batch_stok).
func (BatchStok) TableName() string { return "batch_stok" }

// NilaiSisa is the remaining quantity valued at the intake price.
func (b *BatchStok) NilaiSisa() decimal.Decimal {
	return b.HargaSatuan.Mul(decimal.NewFromInt(int64(b.SisaJumlah)))
}
