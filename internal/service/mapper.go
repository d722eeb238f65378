package service

import (
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
)

func formatWaktu(t time.Time) string { return t.Format(time.RFC3339) }

func optUUID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func optWaktu(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatWaktu(*t)
	return &s
}

func barangToResponse(b *model.Barang) *dto.BarangResponse {
	return &dto.BarangResponse{
		ID:          b.ID.String(),
		Nama:        b.Nama,
		Satuan:      b.Satuan,
		StokTotal:   b.StokTotal,
		StokMinimum: b.StokMinimum,
		StatusStok:  b.StatusStok(),
		KategoriID:  optUUID(b.KategoriID),
		KodeScan:    b.KodeScan,
	}
}

func batchToResponse(b *model.BatchStok) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                b.ID.String(),
		Jumlah:            b.Jumlah,
		SisaJumlah:        b.SisaJumlah,
		HargaSatuan:       b.HargaSatuan,
		NilaiSisa:         b.NilaiSisa(),
		TanggalMasuk:      formatWaktu(b.TanggalMasuk),
		JenisTransaksi:    b.JenisTransaksi,
		TanggalKadaluarsa: optWaktu(b.TanggalKadaluarsa),
		Keterangan:        b.Keterangan,
	}
}

func mutasiToResponse(m *model.MutasiStok) dto.MutasiResponse {
	nama := ""
	if m.Barang != nil {
		nama = m.Barang.Nama
	}
	return dto.MutasiResponse{
		ID:          m.ID.String(),
		BarangID:    m.BarangID.String(),
		NamaBarang:  nama,
		BatchID:     m.BatchID.String(),
		Tipe:        m.Tipe,
		Jumlah:      m.Jumlah,
		StokSebelum: m.StokSebelum,
		StokSesudah: m.StokSesudah,
		ReferensiID: optUUID(m.ReferensiID),
		Keterangan:  m.Keterangan,
		CreatedAt:   formatWaktu(m.CreatedAt),
	}
}

// HasilToResponse converts a depletion outcome for the HTTP layer.
func HasilToResponse(h *HasilPengurangan) *dto.KurangiStokResponse {
	alokasi := make([]dto.AlokasiResponse, 0, len(h.Alokasi))
	for _, a := range h.Alokasi {
		alokasi = append(alokasi, dto.AlokasiResponse{
			BatchID:      a.BatchID.String(),
			Jumlah:       a.Jumlah,
			HargaSatuan:  a.HargaSatuan,
			TanggalMasuk: formatWaktu(a.TanggalMasuk),
		})
	}
	return &dto.KurangiStokResponse{
		BarangID:  h.BarangID.String(),
		Jumlah:    h.Jumlah,
		StokTotal: h.StokSesudah,
		Alokasi:   alokasi,
	}
}

func permintaanToResponse(p *model.Permintaan) *dto.PermintaanResponse {
	details := make([]dto.DetailPermintaanResponse, 0, len(p.Details))
	for _, d := range p.Details {
		item := dto.DetailPermintaanResponse{
			ID:              d.ID.String(),
			BarangID:        d.BarangID.String(),
			JumlahDiminta:   d.JumlahDiminta,
			JumlahDisetujui: d.JumlahDisetujui,
		}
		if d.Barang != nil {
			item.NamaBarang = d.Barang.Nama
			item.Satuan = d.Barang.Satuan
		}
		details = append(details, item)
	}
	return &dto.PermintaanResponse{
		ID:               p.ID.String(),
		Nomor:            p.Nomor,
		PemintaID:        p.PemintaID.String(),
		Keterangan:       p.Keterangan,
		Status:           p.Status,
		DiprosesOleh:     optUUID(p.DiprosesOleh),
		DiprosesPada:     optWaktu(p.DiprosesPada),
		CatatanPenolakan: p.CatatanPenolakan,
		Details:          details,
		CreatedAt:        formatWaktu(p.CreatedAt),
	}
}

// BatchToResponse converts a newly created batch for the HTTP layer.
func BatchToResponse(b *model.BatchStok) *dto.TambahStokResponse {
	return &dto.TambahStokResponse{BarangID: b.BarangID.String(), Batch: batchToResponse(b)}
}
