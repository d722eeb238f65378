package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/tegar-arsya/hanadap-sub000/internal/apierror"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON tidak valid: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, apierror.New("Data tidak valid"))
			return false
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Namespace()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindQuery binds query parameters and runs their validator tags. Any
// failure answers 400.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parameter tidak valid"))
		return false
	}
	if err := validate.Struct(filter); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			c.JSON(http.StatusBadRequest, apierror.New("Parameter tidak valid: "+ve[0].Field()))
			return false
		}
		c.JSON(http.StatusBadRequest, apierror.New("Parameter tidak valid"))
		return false
	}
	return true
}

// paramUUID parses a path parameter, answering 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID tidak valid"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to HTTP responses. Anything not listed is
// handed to middleware.ErrorHandler, which logs it and answers an opaque 500;
// that includes ledger integrity faults.
func respondError(c *gin.Context, err error) {
	var (
		stokErr   *service.StokTidakCukupError
		importErr *service.ImportError
	)
	switch {
	case errors.As(err, &stokErr):
		c.JSON(http.StatusConflict, apierror.New(stokErr.Error()))
	case errors.As(err, &importErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewList(importErr.Error(), importErr.Pesan))
	case errors.Is(err, service.ErrBarangNotFound):
		c.JSON(http.StatusNotFound, apierror.New(service.ErrBarangNotFound.Error()))
	case errors.Is(err, service.ErrPermintaanNotFound):
		c.JSON(http.StatusNotFound, apierror.New(service.ErrPermintaanNotFound.Error()))
	case errors.Is(err, service.ErrKategoriNotFound):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(service.ErrKategoriNotFound.Error()))
	case errors.Is(err, service.ErrStatusTidakValid),
		errors.Is(err, service.ErrKodeScanDuplikat),
		errors.Is(err, service.ErrKategoriDuplikat):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrJumlahTidakValid),
		errors.Is(err, service.ErrHargaTidakValid),
		errors.Is(err, service.ErrJenisTransaksiTidakValid),
		errors.Is(err, service.ErrJumlahDisetujuiTidakValid),
		errors.Is(err, service.ErrPermintaanKosong):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrPenyimpananSibuk):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, apierror.New(service.ErrPenyimpananSibuk.Error()))
	default:
		_ = c.Error(err)
	}
}
