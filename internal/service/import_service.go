package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column layout of the import sheet. Row 1 is the header.
const (
	kolomKodeScan = iota
	kolomNama
	kolomSatuan
	kolomJumlah
	kolomHarga
	kolomTanggal
	kolomJenis
)

var formatTanggalImport = []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05"}

// barisImport is one validated data row.
type barisImport struct {
	Baris        int
	KodeScan     string
	Nama         string
	Satuan       string
	Jumlah       int
	HargaSatuan  *decimal.Decimal
	TanggalMasuk *time.Time
	Jenis        string
}

// ImportService loads opening balances and deliveries from a spreadsheet.
// The whole file is applied in one transaction: one bad row rejects all of it.
type ImportService interface {
	ImportStok(ctx context.Context, penggunaID uuid.UUID, r io.Reader) (*dto.ImportResponse, error)
}

type importService struct {
	tx         repository.TxManager
	barangRepo repository.BarangRepository
	stok       StokService
	aktivitas  AktivitasService
}

func NewImportService(tx repository.TxManager, barangRepo repository.BarangRepository, stok StokService, aktivitas AktivitasService) ImportService {
	return &importService{tx: tx, barangRepo: barangRepo, stok: stok, aktivitas: aktivitas}
}

func (s *importService) ImportStok(ctx context.Context, penggunaID uuid.UUID, r io.Reader) (*dto.ImportResponse, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ImportError{Pesan: []string{"file bukan spreadsheet xlsx yang valid"}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ImportError{Pesan: []string{"file tidak memiliki sheet"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("import: read rows: %w", err)
	}

	data, dilewati, err := parseBarisImport(rows)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportResponse{TotalBaris: len(rows) - 1, Dilewati: dilewati}
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		resp.BatchDibuat, resp.BarangDibuat = 0, 0
		cache := make(map[string]uuid.UUID)
		tujuan := make([]uuid.UUID, len(data))
		for i, b := range data {
			barangID, baru, err := s.resolveBarang(tx, cache, b)
			if err != nil {
				return err
			}
			if baru {
				resp.BarangDibuat++
			}
			tujuan[i] = barangID
		}

		// Same lock order as approval: ascending item id, before any batch is written.
		for _, id := range urutkanID(tujuan) {
			if _, err := s.barangRepo.LockByIDTx(tx, id); err != nil {
				return err
			}
		}

		for i, b := range data {
			_, err := s.stok.ReplenishTx(ctx, tx, tujuan[i], TambahStokInput{
				Jumlah:         b.Jumlah,
				TanggalMasuk:   b.TanggalMasuk,
				HargaSatuan:    b.HargaSatuan,
				JenisTransaksi: b.Jenis,
				Keterangan:     fmt.Sprintf("Import baris %d", b.Baris),
			})
			if err != nil {
				return fmt.Errorf("baris %d: %w", b.Baris, err)
			}
			resp.BatchDibuat++
		}
		return nil
	})
	if err != nil {
		var ie *ImportError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, mapStorageErr(err, ErrBarangNotFound)
	}

	if s.aktivitas != nil {
		e := EntriAktivitas{
			PenggunaID: &penggunaID,
			Aksi:       AksiImportStok,
			Entitas:    "batch_stok",
			Deskripsi:  fmt.Sprintf("Import %d batch, %d barang baru", resp.BatchDibuat, resp.BarangDibuat),
			Data:       resp,
		}
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), batasEfekSamping)
		defer cancel()
		if err := s.aktivitas.Catat(actx, e); err != nil {
			log.Warn().Err(err).Msg("import: audit entry not written")
		}
	}
	return resp, nil
}

// resolveBarang finds the row's item by kode_scan, then by name, and creates
// it when neither matches.
func (s *importService) resolveBarang(tx *gorm.DB, cache map[string]uuid.UUID, b barisImport) (uuid.UUID, bool, error) {
	key := "nama:" + strings.ToLower(b.Nama)
	if b.KodeScan != "" {
		key = "kode:" + b.KodeScan
	}
	if id, ok := cache[key]; ok {
		return id, false, nil
	}

	var (
		found *model.Barang
		err   error
	)
	if b.KodeScan != "" {
		found, err = s.barangRepo.FindByKodeScanTx(tx, b.KodeScan)
	} else {
		found, err = s.barangRepo.FindByNamaTx(tx, b.Nama)
	}
	switch {
	case err == nil:
		cache[key] = found.ID
		return found.ID, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return uuid.Nil, false, err
	}

	if b.Nama == "" {
		return uuid.Nil, false, &ImportError{Pesan: []string{
			fmt.Sprintf("baris %d: kode_scan %q belum terdaftar dan nama kosong", b.Baris, b.KodeScan),
		}}
	}
	baru := &model.Barang{ID: uuid.New(), Nama: b.Nama, Satuan: b.Satuan}
	if b.KodeScan != "" {
		kode := b.KodeScan
		baru.KodeScan = &kode
	}
	if err := s.barangRepo.CreateTx(tx, baru); err != nil {
		return uuid.Nil, false, err
	}
	cache[key] = baru.ID
	return baru.ID, true, nil
}

// parseBarisImport validates every data row and returns them in sheet order
// with the number of blank rows skipped. All row problems are reported
// together in one *ImportError.
func parseBarisImport(rows [][]string) ([]barisImport, int, error) {
	if len(rows) < 2 {
		return nil, 0, &ImportError{Pesan: []string{"file harus memiliki header dan minimal satu baris data"}}
	}

	var (
		hasil    []barisImport
		pesan    []string
		dilewati int
	)
	for i, row := range rows[1:] {
		nomor := i + 2
		if barisKosong(row) {
			dilewati++
			continue
		}
		b := barisImport{
			Baris:    nomor,
			KodeScan: sel(row, kolomKodeScan),
			Nama:     sel(row, kolomNama),
			Satuan:   sel(row, kolomSatuan),
			Jenis:    strings.ToLower(sel(row, kolomJenis)),
		}
		if b.KodeScan == "" && b.Nama == "" {
			pesan = append(pesan, fmt.Sprintf("baris %d: kode_scan atau nama wajib diisi", nomor))
		}
		if b.Satuan == "" {
			b.Satuan = "unit"
		}

		jumlah, err := strconv.Atoi(sel(row, kolomJumlah))
		if err != nil || jumlah <= 0 {
			pesan = append(pesan, fmt.Sprintf("baris %d: jumlah harus bilangan bulat lebih dari nol", nomor))
		}
		b.Jumlah = jumlah

		if v := sel(row, kolomHarga); v != "" {
			harga, err := decimal.NewFromString(v)
			if err != nil || harga.IsNegative() {
				pesan = append(pesan, fmt.Sprintf("baris %d: harga_satuan tidak valid", nomor))
			} else {
				b.HargaSatuan = &harga
			}
		}

		if v := sel(row, kolomTanggal); v != "" {
			t, ok := parseTanggal(v)
			if !ok {
				pesan = append(pesan, fmt.Sprintf("baris %d: tanggal_masuk %q tidak dikenali", nomor, v))
			} else {
				b.TanggalMasuk = &t
			}
		}

		if b.Jenis != "" && !model.JenisTransaksiValid[b.Jenis] {
			pesan = append(pesan, fmt.Sprintf("baris %d: jenis_transaksi %q tidak dikenal", nomor, b.Jenis))
		}
		hasil = append(hasil, b)
	}

	if len(pesan) > 0 {
		return nil, dilewati, &ImportError{Pesan: pesan}
	}
	if len(hasil) == 0 {
		return nil, dilewati, &ImportError{Pesan: []string{"tidak ada baris data"}}
	}
	return hasil, dilewati, nil
}

func sel(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func barisKosong(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseTanggal(v string) (time.Time, bool) {
	for _, layout := range formatTanggalImport {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
