package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StokService owns every write to the stock ledger. StokTotal is changed only
// here, inside the same transaction as the batch writes it summarizes.
type StokService interface {
	BuatBarang(ctx context.Context, req dto.BuatBarangRequest) (*dto.BarangResponse, error)
	AmbilBarang(ctx context.Context, id uuid.UUID) (*dto.BarangResponse, error)
	DaftarBarang(ctx context.Context, filter dto.BarangFilter) (*dto.BarangListResponse, error)

	// Replenish adds a new batch and increments StokTotal. Batches are never merged.
	Replenish(ctx context.Context, barangID uuid.UUID, in TambahStokInput) (*model.BatchStok, error)
	// Deplete debits jumlah from the item's oldest batches.
	Deplete(ctx context.Context, barangID uuid.UUID, jumlah int, keterangan string) (*HasilPengurangan, error)
	// Retur puts stock back as a new, newest batch tagged "retur".
	Retur(ctx context.Context, barangID uuid.UUID, jumlah int, keterangan string, referensiID *uuid.UUID) (*model.BatchStok, error)

	Rekonsiliasi(ctx context.Context, barangID uuid.UUID) (*dto.RekonsiliasiResponse, error)
	DaftarMutasi(ctx context.Context, filter dto.MutasiFilter) (*dto.MutasiListResponse, error)

	// ReplenishTx and DepleteTx run inside a transaction owned by the caller.
	ReplenishTx(ctx context.Context, tx *gorm.DB, barangID uuid.UUID, in TambahStokInput) (*model.BatchStok, error)
	DepleteTx(ctx context.Context, tx *gorm.DB, barangID uuid.UUID, jumlah int, referensiID *uuid.UUID, keterangan string) (*HasilPengurangan, error)
}

// TambahStokInput describes a stock-in. Nil/empty optional fields default to
// now, a zero unit price and "pembelian".
type TambahStokInput struct {
	Jumlah            int
	TanggalMasuk      *time.Time
	HargaSatuan       *decimal.Decimal
	JenisTransaksi    string
	TanggalKadaluarsa *time.Time
	Keterangan        string
	ReferensiID       *uuid.UUID
}

// HasilPengurangan is the outcome of a successful depletion.
type HasilPengurangan struct {
	BarangID    uuid.UUID
	Jumlah      int
	StokSesudah int
	Alokasi     []Alokasi
}

type stokService struct {
	tx         repository.TxManager
	barangRepo repository.BarangRepository
	batchRepo  repository.BatchRepository
	mutasiRepo repository.MutasiStokRepository
	now        func() time.Time
}

func NewStokService(
	tx repository.TxManager,
	barangRepo repository.BarangRepository,
	batchRepo repository.BatchRepository,
	mutasiRepo repository.MutasiStokRepository,
) StokService {
	return &stokService{
		tx:         tx,
		barangRepo: barangRepo,
		batchRepo:  batchRepo,
		mutasiRepo: mutasiRepo,
		now:        time.Now,
	}
}

// ── Barang ────────────────────────────────────────────────────────────────────

func (s *stokService) BuatBarang(ctx context.Context, req dto.BuatBarangRequest) (*dto.BarangResponse, error) {
	b := &model.Barang{
		Nama:        req.Nama,
		Satuan:      req.Satuan,
		StokMinimum: req.StokMinimum,
		KodeScan:    req.KodeScan,
	}
	if req.KategoriID != nil {
		kid, err := uuid.Parse(*req.KategoriID)
		if err != nil {
			return nil, fmt.Errorf("kategori_id tidak valid: %w", err)
		}
		b.KategoriID = &kid
	}
	if err := s.barangRepo.Create(ctx, b); err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			return nil, ErrKodeScanDuplikat
		case repository.IsForeignKeyViolation(err):
			return nil, ErrKategoriNotFound
		}
		return nil, err
	}
	return barangToResponse(b), nil
}

func (s *stokService) AmbilBarang(ctx context.Context, id uuid.UUID) (*dto.BarangResponse, error) {
	b, err := s.barangRepo.FindByIDWithBatches(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}
	resp := barangToResponse(b)
	resp.Batches = make([]dto.BatchResponse, 0, len(b.Batches))
	for i := range b.Batches {
		resp.Batches = append(resp.Batches, batchToResponse(&b.Batches[i]))
	}
	return resp, nil
}

func (s *stokService) DaftarBarang(ctx context.Context, filter dto.BarangFilter) (*dto.BarangListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit)
	rows, total, err := s.barangRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.BarangResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *barangToResponse(&rows[i]))
	}
	return &dto.BarangListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Replenish / Retur ─────────────────────────────────────────────────────────

func (s *stokService) Replenish(ctx context.Context, barangID uuid.UUID, in TambahStokInput) (*model.BatchStok, error) {
	var batch *model.BatchStok
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		batch, err = s.ReplenishTx(ctx, tx, barangID, in)
		return err
	})
	if err != nil {
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}
	return batch, nil
}

func (s *stokService) Retur(ctx context.Context, barangID uuid.UUID, jumlah int, keterangan string, referensiID *uuid.UUID) (*model.BatchStok, error) {
	now := s.now()
	return s.Replenish(ctx, barangID, TambahStokInput{
		Jumlah:         jumlah,
		TanggalMasuk:   &now,
		JenisTransaksi: model.JenisRetur,
		Keterangan:     keterangan,
		ReferensiID:    referensiID,
	})
}

func (s *stokService) ReplenishTx(ctx context.Context, tx *gorm.DB, barangID uuid.UUID, in TambahStokInput) (*model.BatchStok, error) {
	if in.Jumlah <= 0 {
		return nil, ErrJumlahTidakValid
	}
	harga := decimal.Zero
	if in.HargaSatuan != nil {
		if in.HargaSatuan.IsNegative() {
			return nil, ErrHargaTidakValid
		}
		harga = *in.HargaSatuan
	}
	jenis := in.JenisTransaksi
	if jenis == "" {
		jenis = model.JenisPembelian
	}
	if !model.JenisTransaksiValid[jenis] {
		return nil, ErrJenisTransaksiTidakValid
	}
	tanggal := s.now()
	if in.TanggalMasuk != nil {
		tanggal = *in.TanggalMasuk
	}

	barang, err := s.barangRepo.LockByIDTx(tx, barangID)
	if err != nil {
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}

	batch := &model.BatchStok{
		BarangID:          barangID,
		Jumlah:            in.Jumlah,
		SisaJumlah:        in.Jumlah,
		HargaSatuan:       harga,
		TanggalMasuk:      tanggal,
		JenisTransaksi:    jenis,
		TanggalKadaluarsa: in.TanggalKadaluarsa,
		Keterangan:        in.Keterangan,
	}
	if err := s.batchRepo.CreateTx(tx, batch); err != nil {
		return nil, err
	}
	if err := s.barangRepo.UpdateStokTotalTx(tx, barangID, in.Jumlah); err != nil {
		return nil, err
	}
	mutasi := &model.MutasiStok{
		BarangID:    barangID,
		BatchID:     batch.ID,
		Tipe:        model.MutasiMasuk,
		Jumlah:      in.Jumlah,
		StokSebelum: barang.StokTotal,
		StokSesudah: barang.StokTotal + in.Jumlah,
		ReferensiID: in.ReferensiID,
		Keterangan:  in.Keterangan,
	}
	if err := s.mutasiRepo.CreateTx(tx, mutasi); err != nil {
		return nil, err
	}
	return batch, nil
}

// ── Deplete ───────────────────────────────────────────────────────────────────

func (s *stokService) Deplete(ctx context.Context, barangID uuid.UUID, jumlah int, keterangan string) (*HasilPengurangan, error) {
	var hasil *HasilPengurangan
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		hasil, err = s.DepleteTx(ctx, tx, barangID, jumlah, nil, keterangan)
		return err
	})
	if err != nil {
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}
	return hasil, nil
}

// DepleteTx locks the item, checks the debit against StokTotal, then walks the
// available batches in FIFO order. StokTotal is debited once by jumlah; the
// per-batch takes sum to exactly jumlah so the aggregate stays reconciled.
func (s *stokService) DepleteTx(ctx context.Context, tx *gorm.DB, barangID uuid.UUID, jumlah int, referensiID *uuid.UUID, keterangan string) (*HasilPengurangan, error) {
	if jumlah <= 0 {
		return nil, ErrJumlahTidakValid
	}
	barang, err := s.barangRepo.LockByIDTx(tx, barangID)
	if err != nil {
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}
	if jumlah > barang.StokTotal {
		return nil, &StokTidakCukupError{
			BarangID: barang.ID,
			Nama:     barang.Nama,
			Diminta:  jumlah,
			Tersedia: barang.StokTotal,
		}
	}

	batches, err := s.batchRepo.ListTersediaForUpdateTx(tx, barangID)
	if err != nil {
		return nil, err
	}
	alokasi, err := rencanakanFIFO(batches, jumlah)
	if err != nil {
		return nil, s.integritas(barang, jumlah, err)
	}

	stok := barang.StokTotal
	for _, a := range alokasi {
		if err := s.batchRepo.KurangiSisaTx(tx, a.BatchID, a.Jumlah); err != nil {
			if errors.Is(err, repository.ErrBatchBerubah) || repository.IsCheckViolation(err) {
				return nil, s.integritas(barang, jumlah, fmt.Errorf("%w: %v", ErrIntegritasData, err))
			}
			return nil, err
		}
		mutasi := &model.MutasiStok{
			BarangID:    barangID,
			BatchID:     a.BatchID,
			Tipe:        model.MutasiKeluar,
			Jumlah:      -a.Jumlah,
			StokSebelum: stok,
			StokSesudah: stok - a.Jumlah,
			ReferensiID: referensiID,
			Keterangan:  keterangan,
		}
		if err := s.mutasiRepo.CreateTx(tx, mutasi); err != nil {
			return nil, err
		}
		stok -= a.Jumlah
	}

	if err := s.barangRepo.UpdateStokTotalTx(tx, barangID, -jumlah); err != nil {
		if repository.IsCheckViolation(err) {
			return nil, s.integritas(barang, jumlah, fmt.Errorf("%w: %v", ErrIntegritasData, err))
		}
		return nil, err
	}

	return &HasilPengurangan{
		BarangID:    barangID,
		Jumlah:      jumlah,
		StokSesudah: barang.StokTotal - jumlah,
		Alokasi:     alokasi,
	}, nil
}

// integritas logs a ledger inconsistency with full context and returns err so
// the caller aborts the transaction.
func (s *stokService) integritas(barang *model.Barang, jumlah int, err error) error {
	log.Error().
		Err(err).
		Str("barang_id", barang.ID.String()).
		Int("stok_total", barang.StokTotal).
		Int("jumlah", jumlah).
		Msg("stok: ledger integrity fault, transaction aborted")
	return err
}

// ── Read side ─────────────────────────────────────────────────────────────────

// Rekonsiliasi compares StokTotal with Σ SisaJumlah. It only reports; the
// aggregate is never rewritten from the sum.
func (s *stokService) Rekonsiliasi(ctx context.Context, barangID uuid.UUID) (*dto.RekonsiliasiResponse, error) {
	b, err := s.barangRepo.FindByID(ctx, barangID)
	if err != nil {
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}
	sisa, count, err := s.batchRepo.Ringkasan(ctx, barangID)
	if err != nil {
		return nil, err
	}
	resp := &dto.RekonsiliasiResponse{
		BarangID:    b.ID.String(),
		StokTotal:   b.StokTotal,
		TotalSisa:   sisa,
		JumlahBatch: count,
		Konsisten:   b.StokTotal == sisa,
	}
	if !resp.Konsisten {
		log.Error().
			Str("barang_id", b.ID.String()).
			Int("stok_total", b.StokTotal).
			Int("total_sisa", sisa).
			Msg("stok: aggregate does not match batch sum")
	}
	return resp, nil
}

func (s *stokService) DaftarMutasi(ctx context.Context, filter dto.MutasiFilter) (*dto.MutasiListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit)
	rows, total, err := s.mutasiRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MutasiResponse, 0, len(rows))
	for i := range rows {
		data = append(data, mutasiToResponse(&rows[i]))
	}
	return &dto.MutasiListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
