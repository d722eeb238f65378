package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"github.com/google/uuid"
)

// Activity actions.
const (
	AksiSetujuiPermintaan = "permintaan.setujui"
	AksiTolakPermintaan   = "permintaan.tolak"
	AksiImportStok        = "stok.import"
)

// EntriAktivitas is one audit entry. Data is stored as JSON.
type EntriAktivitas struct {
	PenggunaID *uuid.UUID
	Aksi       string
	Entitas    string
	EntitasID  uuid.UUID
	Deskripsi  string
	Data       any
}

// AktivitasService appends audit entries. Callers treat it as best-effort:
// a failed append is logged and never rolls back the operation it describes.
type AktivitasService interface {
	Catat(ctx context.Context, e EntriAktivitas) error
}

type aktivitasService struct{ repo repository.AktivitasRepository }

func NewAktivitasService(repo repository.AktivitasRepository) AktivitasService {
	return &aktivitasService{repo: repo}
}

func (s *aktivitasService) Catat(ctx context.Context, e EntriAktivitas) error {
	// jsonb needs the literal "null" rather than an empty string
	data := "null"
	if e.Data != nil {
		if b, err := json.Marshal(e.Data); err == nil {
			data = string(b)
		}
	}
	entry := &model.LogAktivitas{
		PenggunaID: e.PenggunaID,
		Aksi:       e.Aksi,
		Entitas:    e.Entitas,
		EntitasID:  e.EntitasID,
		Deskripsi:  e.Deskripsi,
		Data:       data,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("log aktivitas: %w", err)
	}
	return nil
}
