package handler

import (
	"net/http"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/middleware"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PermintaanHandler struct{ svc service.PermintaanService }

func NewPermintaanHandler(svc service.PermintaanService) *PermintaanHandler {
	return &PermintaanHandler{svc: svc}
}

func (h *PermintaanHandler) Buat(c *gin.Context) {
	var req dto.BuatPermintaanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	peminta := service.Peminta{ID: claims.PenggunaID(), Email: claims.Email}
	resp, err := h.svc.Buat(c.Request.Context(), peminta, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Daftar lists requests. Staff only ever see their own.
func (h *PermintaanHandler) Daftar(c *gin.Context) {
	var filter dto.PermintaanFilter
	if !bindQuery(c, &filter) {
		return
	}
	if claims := middleware.GetClaims(c); claims.Rol != middleware.RolAdmin {
		filter.PemintaID = claims.UserID
	}
	resp, err := h.svc.Daftar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PermintaanHandler) Ambil(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Ambil(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if claims := middleware.GetClaims(c); claims.Rol != middleware.RolAdmin && resp.PemintaID != claims.UserID {
		respondError(c, service.ErrPermintaanNotFound)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PermintaanHandler) Setujui(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetujuiRequest
	// an empty body approves every line in full
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	jatah := make(map[uuid.UUID]int, len(req.JumlahDisetujui))
	for k, v := range req.JumlahDisetujui {
		jatah[uuid.MustParse(k)] = v
	}
	resp, err := h.svc.Setujui(c.Request.Context(), id, middleware.GetClaims(c).PenggunaID(), jatah)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PermintaanHandler) Tolak(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.TolakRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Tolak(c.Request.Context(), id, middleware.GetClaims(c).PenggunaID(), req.Catatan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
