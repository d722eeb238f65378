package handler

import (
	"net/http"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type KategoriHandler struct{ svc service.KategoriService }

func NewKategoriHandler(svc service.KategoriService) *KategoriHandler {
	return &KategoriHandler{svc: svc}
}

func (h *KategoriHandler) Buat(c *gin.Context) {
	var req dto.BuatKategoriRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Buat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *KategoriHandler) Daftar(c *gin.Context) {
	resp, err := h.svc.Daftar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
