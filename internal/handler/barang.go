package handler

import (
	"net/http"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BarangHandler struct{ svc service.StokService }

func NewBarangHandler(svc service.StokService) *BarangHandler {
	return &BarangHandler{svc: svc}
}

func (h *BarangHandler) Buat(c *gin.Context) {
	var req dto.BuatBarangRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.BuatBarang(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BarangHandler) Daftar(c *gin.Context) {
	var filter dto.BarangFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.DaftarBarang(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BarangHandler) Ambil(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.AmbilBarang(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BarangHandler) Rekonsiliasi(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Rekonsiliasi(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StokMasuk registers a new batch (replenishment).
func (h *BarangHandler) StokMasuk(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.TambahStokRequest
	if !bindAndValidate(c, &req) {
		return
	}
	batch, err := h.svc.Replenish(c.Request.Context(), id, service.TambahStokInput{
		Jumlah:            req.Jumlah,
		TanggalMasuk:      req.TanggalMasuk,
		HargaSatuan:       req.HargaSatuan,
		JenisTransaksi:    req.JenisTransaksi,
		TanggalKadaluarsa: req.TanggalKadaluarsa,
		Keterangan:        req.Keterangan,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.BatchToResponse(batch))
}

// StokKeluar debits stock outside of the request flow (damage, usage, …).
func (h *BarangHandler) StokKeluar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.KurangiStokRequest
	if !bindAndValidate(c, &req) {
		return
	}
	hasil, err := h.svc.Deplete(c.Request.Context(), id, req.Jumlah, req.Keterangan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.HasilToResponse(hasil))
}

func (h *BarangHandler) Retur(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ReturRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var ref *uuid.UUID
	if req.PermintaanID != nil {
		pid := uuid.MustParse(*req.PermintaanID)
		ref = &pid
	}
	batch, err := h.svc.Retur(c.Request.Context(), id, req.Jumlah, req.Keterangan, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.BatchToResponse(batch))
}

func (h *BarangHandler) DaftarMutasi(c *gin.Context) {
	var filter dto.MutasiFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.DaftarMutasi(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
