package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Alokasi is the quantity taken from one batch by a depletion.
type Alokasi struct {
	BatchID      uuid.UUID
	Jumlah       int
	HargaSatuan  decimal.Decimal
	TanggalMasuk time.Time
}

// urutFIFO sorts batches by the composite key (TanggalMasuk, Urutan).
func urutFIFO(batches []model.BatchStok) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.TanggalMasuk.Equal(b.TanggalMasuk) {
			return a.TanggalMasuk.Before(b.TanggalMasuk)
		}
		return a.Urutan < b.Urutan
	})
}

// rencanakanFIFO plans a debit of jumlah against batches, oldest first. It
// never mutates its input. A batch with remaining quantity is never skipped
// while the debit is still open.
//
// The caller has already checked jumlah against the item's StokTotal, so a
// shortfall here, or a batch outside 0 ≤ SisaJumlah ≤ Jumlah, means the
// cached aggregate and the batches disagree: ErrIntegritasData.
func rencanakanFIFO(batches []model.BatchStok, jumlah int) ([]Alokasi, error) {
	if jumlah <= 0 {
		return nil, ErrJumlahTidakValid
	}
	urut := make([]model.BatchStok, len(batches))
	copy(urut, batches)
	urutFIFO(urut)

	sisa := jumlah
	alokasi := make([]Alokasi, 0, len(urut))
	for _, b := range urut {
		if b.SisaJumlah < 0 || b.SisaJumlah > b.Jumlah {
			return nil, fmt.Errorf("%w: batch %s sisa %d di luar 0..%d", ErrIntegritasData, b.ID, b.SisaJumlah, b.Jumlah)
		}
		if sisa == 0 {
			break
		}
		if b.SisaJumlah == 0 {
			continue
		}
		ambil := min(b.SisaJumlah, sisa)
		alokasi = append(alokasi, Alokasi{
			BatchID:      b.ID,
			Jumlah:       ambil,
			HargaSatuan:  b.HargaSatuan,
			TanggalMasuk: b.TanggalMasuk,
		})
		sisa -= ambil
	}
	if sisa > 0 {
		return nil, fmt.Errorf("%w: batch hanya mencukupi %d dari %d", ErrIntegritasData, jumlah-sisa, jumlah)
	}
	return alokasi, nil
}
