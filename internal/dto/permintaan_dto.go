package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type DetailPermintaanRequest struct {
	BarangID      string `json:"barang_id"      validate:"required,uuid"`
	JumlahDiminta int    `json:"jumlah_diminta" validate:"required,gt=0"`
}

type BuatPermintaanRequest struct {
	Keterangan string                    `json:"keterangan" validate:"max=500"`
	Details    []DetailPermintaanRequest `json:"details"    validate:"required,min=1,dive"`
}

// SetujuiRequest carries optional per-line grants keyed by detail id. Lines
// without an entry are granted their requested quantity.
type SetujuiRequest struct {
	JumlahDisetujui map[string]int `json:"jumlah_disetujui" validate:"omitempty,dive,keys,uuid,endkeys,min=0"`
}

type TolakRequest struct {
	Catatan string `json:"catatan" validate:"max=500"`
}

type PermintaanFilter struct {
	Status    string `form:"status"` // PENDING | APPROVED | REJECTED
	PemintaID string `form:"-"`
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetailPermintaanResponse struct {
	ID              string `json:"id"`
	BarangID        string `json:"barang_id"`
	NamaBarang      string `json:"nama_barang"`
	Satuan          string `json:"satuan"`
	JumlahDiminta   int    `json:"jumlah_diminta"`
	JumlahDisetujui int    `json:"jumlah_disetujui"`
}

type PermintaanResponse struct {
	ID               string                     `json:"id"`
	Nomor            string                     `json:"nomor"`
	PemintaID        string                     `json:"peminta_id"`
	Keterangan       string                     `json:"keterangan"`
	Status           string                     `json:"status"`
	DiprosesOleh     *string                    `json:"diproses_oleh"`
	DiprosesPada     *string                    `json:"diproses_pada"`
	CatatanPenolakan string                     `json:"catatan_penolakan,omitempty"`
	Details          []DetailPermintaanResponse `json:"details"`
	CreatedAt        string                     `json:"created_at"`
}

type PermintaanListResponse struct {
	Data  []PermintaanResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
