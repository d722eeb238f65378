package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tegar-arsya/hanadap-sub000/internal/apierror"
	"github.com/tegar-arsya/hanadap-sub000/internal/middleware"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

type ImportHandler struct{ svc service.ImportService }

func NewImportHandler(svc service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// ImportStok accepts a multipart "file" field holding an .xlsx sheet.
func (h *ImportHandler) ImportStok(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("File wajib diunggah"))
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, apierror.New("Hanya file Excel (.xlsx) yang diterima"))
		return
	}
	if file.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("Ukuran file melebihi 10 MB"))
		return
	}

	f, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	resp, err := h.svc.ImportStok(c.Request.Context(), middleware.GetClaims(c).PenggunaID(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
