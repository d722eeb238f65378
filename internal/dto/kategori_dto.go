package dto

type BuatKategoriRequest struct {
	Nama string `json:"nama" validate:"required,min=2,max=100"`
}

type KategoriResponse struct {
	ID   string `json:"id"`
	Nama string `json:"nama"`
}
