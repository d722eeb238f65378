package service

import (
	"errors"
	"fmt"

	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller errors and business-rule rejections. Their messages are safe to show
// to end users.
var (
	ErrJumlahTidakValid          = errors.New("jumlah harus lebih besar dari nol")
	ErrHargaTidakValid           = errors.New("harga satuan tidak boleh negatif")
	ErrJenisTransaksiTidakValid  = errors.New("jenis transaksi tidak dikenal")
	ErrBarangNotFound            = errors.New("barang tidak ditemukan")
	ErrPermintaanNotFound        = errors.New("permintaan tidak ditemukan")
	ErrKategoriNotFound          = errors.New("kategori tidak ditemukan")
	ErrStatusTidakValid          = errors.New("permintaan sudah diproses")
	ErrJumlahDisetujuiTidakValid = errors.New("jumlah disetujui tidak valid")
	ErrPermintaanKosong          = errors.New("permintaan harus memiliki minimal satu barang")
	ErrKodeScanDuplikat          = errors.New("kode scan sudah dipakai barang lain")
	ErrStokTidakCukup            = errors.New("stok tidak mencukupi")
	ErrPenyimpananSibuk          = errors.New("penyimpanan sedang sibuk, coba lagi")
)

// ErrIntegritasData marks a violated ledger invariant. It is fatal for the
// operation and must never be shown to end users with its detail.
var ErrIntegritasData = errors.New("inkonsistensi data stok")

// StokTidakCukupError is returned when a debit exceeds the item's StokTotal.
type StokTidakCukupError struct {
	BarangID uuid.UUID
	Nama     string
	Diminta  int
	Tersedia int
}

func (e *StokTidakCukupError) Error() string {
	return fmt.Sprintf("stok %s tidak mencukupi: diminta %d, tersedia %d", e.Nama, e.Diminta, e.Tersedia)
}

func (e *StokTidakCukupError) Is(target error) bool { return target == ErrStokTidakCukup }

// ImportError collects every row-level problem found in an uploaded file.
type ImportError struct {
	Pesan []string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("file import tidak valid (%d kesalahan)", len(e.Pesan))
}

// mapStorageErr translates repository errors into service errors. notFound is
// returned for gorm.ErrRecordNotFound.
func mapStorageErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case repository.IsContention(err):
		return fmt.Errorf("%w: %v", ErrPenyimpananSibuk, err)
	case errors.Is(err, repository.ErrBatchBerubah), repository.IsCheckViolation(err):
		return fmt.Errorf("%w: %v", ErrIntegritasData, err)
	}
	return err
}
