package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type BuatBarangRequest struct {
	Nama        string  `json:"nama"         validate:"required,min=2,max=120"`
	Satuan      string  `json:"satuan"       validate:"required,max=20"`
	StokMinimum int     `json:"stok_minimum" validate:"min=0"`
	KategoriID  *string `json:"kategori_id"  validate:"omitempty,uuid"`
	KodeScan    *string `json:"kode_scan"    validate:"omitempty,max=64"`
}

// TambahStokRequest is the body of a stock-in. Zero values fall back to the
// service defaults (now, price 0, "pembelian").
type TambahStokRequest struct {
	Jumlah            int              `json:"jumlah"             validate:"required,gt=0"`
	TanggalMasuk      *time.Time       `json:"tanggal_masuk"`
	HargaSatuan       *decimal.Decimal `json:"harga_satuan"       validate:"omitempty,min=0"`
	JenisTransaksi    string           `json:"jenis_transaksi"    validate:"omitempty,oneof=pembelian hibah transfer_masuk saldo_awal koreksi retur"`
	TanggalKadaluarsa *time.Time       `json:"tanggal_kadaluarsa"`
	Keterangan        string           `json:"keterangan"         validate:"max=255"`
}

type KurangiStokRequest struct {
	Jumlah     int    `json:"jumlah"     validate:"required,gt=0"`
	Keterangan string `json:"keterangan" validate:"max=255"`
}

type ReturRequest struct {
	Jumlah       int     `json:"jumlah"        validate:"required,gt=0"`
	Keterangan   string  `json:"keterangan"    validate:"max=255"`
	PermintaanID *string `json:"permintaan_id" validate:"omitempty,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type BarangFilter struct {
	Nama       string `form:"nama"`
	KategoriID string `form:"kategori_id" validate:"omitempty,uuid"`
	Status     string `form:"status"` // aman | menipis | habis
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=50"`
}

type MutasiFilter struct {
	BarangID    string `form:"barang_id" validate:"omitempty,uuid"`
	Tipe        string `form:"tipe"` // masuk | keluar
	ReferensiID string `form:"referensi_id" validate:"omitempty,uuid"`
	Page        int    `form:"page,default=1"`
	Limit       int    `form:"limit,default=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BarangResponse struct {
	ID          string          `json:"id"`
	Nama        string          `json:"nama"`
	Satuan      string          `json:"satuan"`
	StokTotal   int             `json:"stok_total"`
	StokMinimum int             `json:"stok_minimum"`
	StatusStok  string          `json:"status_stok"`
	KategoriID  *string         `json:"kategori_id"`
	KodeScan    *string         `json:"kode_scan"`
	Batches     []BatchResponse `json:"batches,omitempty"`
}

type BarangListResponse struct {
	Data  []BarangResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type BatchResponse struct {
	ID                string          `json:"id"`
	Jumlah            int             `json:"jumlah"`
	SisaJumlah        int             `json:"sisa_jumlah"`
	HargaSatuan       decimal.Decimal `json:"harga_satuan"`
	NilaiSisa         decimal.Decimal `json:"nilai_sisa"`
	TanggalMasuk      string          `json:"tanggal_masuk"`
	JenisTransaksi    string          `json:"jenis_transaksi"`
	TanggalKadaluarsa *string         `json:"tanggal_kadaluarsa"`
	Keterangan        string          `json:"keterangan"`
}

type TambahStokResponse struct {
	BarangID string        `json:"barang_id"`
	Batch    BatchResponse `json:"batch"`
}

type AlokasiResponse struct {
	BatchID      string          `json:"batch_id"`
	Jumlah       int             `json:"jumlah"`
	HargaSatuan  decimal.Decimal `json:"harga_satuan"`
	TanggalMasuk string          `json:"tanggal_masuk"`
}

type KurangiStokResponse struct {
	BarangID  string            `json:"barang_id"`
	Jumlah    int               `json:"jumlah"`
	StokTotal int               `json:"stok_total"`
	Alokasi   []AlokasiResponse `json:"alokasi"`
}

// RekonsiliasiResponse compares the cached aggregate against the batch sum.
type RekonsiliasiResponse struct {
	BarangID    string `json:"barang_id"`
	StokTotal   int    `json:"stok_total"`
	TotalSisa   int    `json:"total_sisa_batch"`
	JumlahBatch int64  `json:"jumlah_batch"`
	Konsisten   bool   `json:"konsisten"`
}

type MutasiResponse struct {
	ID          string  `json:"id"`
	BarangID    string  `json:"barang_id"`
	NamaBarang  string  `json:"nama_barang"`
	BatchID     string  `json:"batch_id"`
	Tipe        string  `json:"tipe"`
	Jumlah      int     `json:"jumlah"`
	StokSebelum int     `json:"stok_sebelum"`
	StokSesudah int     `json:"stok_sesudah"`
	ReferensiID *string `json:"referensi_id"`
	Keterangan  string  `json:"keterangan"`
	CreatedAt   string  `json:"created_at"`
}

type MutasiListResponse struct {
	Data  []MutasiResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type ImportResponse struct {
	TotalBaris   int      `json:"total_baris"`
	BatchDibuat  int      `json:"batch_dibuat"`
	BarangDibuat int      `json:"barang_dibuat"`
	Dilewati     int      `json:"dilewati"`
	Pesan        []string `json:"pesan,omitempty"`
}
