package worker

// notifikasi_worker.go
// Tells the requester that their request was approved or rejected: renders
// the decision slip PDF and mails it, retrying transient SMTP failures.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxAttempts = 3

// NotifikasiPayload is the job body sent to QueueNotifikasi.
type NotifikasiPayload struct {
	PermintaanID string `json:"permintaan_id"`
}

// PermintaanLoader is the read the worker needs from the request repository.
type PermintaanLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Permintaan, error)
}

// Sender delivers a notice. *infra.Mailer satisfies it.
type Sender interface {
	Enabled() bool
	KirimPemberitahuan(to, subject, body, pdfPath string) error
}

// NotifikasiWorker processes JobNotifikasiKeputusan jobs.
type NotifikasiWorker struct {
	repo        PermintaanLoader
	sender      Sender
	storagePath string
	renderPDF   func(p *model.Permintaan, storagePath string) (string, error)
	backoff     time.Duration
}

func NewNotifikasiWorker(
	repo PermintaanLoader,
	sender Sender,
	storagePath string,
	renderPDF func(p *model.Permintaan, storagePath string) (string, error),
) *NotifikasiWorker {
	return &NotifikasiWorker{repo: repo, sender: sender, storagePath: storagePath, renderPDF: renderPDF, backoff: time.Second}
}

func (w *NotifikasiWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload NotifikasiPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("notifikasi_worker: invalid payload: %w", err)
	}
	id, err := uuid.Parse(payload.PermintaanID)
	if err != nil {
		return fmt.Errorf("notifikasi_worker: invalid permintaan_id: %w", err)
	}
	if !w.sender.Enabled() {
		log.Debug().Str("permintaan_id", payload.PermintaanID).Msg("notifikasi_worker: SMTP not configured, skipping")
		return nil
	}

	p, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("notifikasi_worker: load permintaan: %w", err)
	}
	if !p.Final() {
		return fmt.Errorf("notifikasi_worker: permintaan %s is still %s", p.Nomor, p.Status)
	}
	if p.PemintaEmail == "" {
		return nil
	}

	pdfPath := ""
	if w.renderPDF != nil {
		pdfPath, err = w.renderPDF(p, w.storagePath)
		if err != nil {
			// a notice without attachment is still useful
			log.Warn().Err(err).Str("permintaan_id", payload.PermintaanID).Msg("notifikasi_worker: slip PDF not generated")
			pdfPath = ""
		}
	}

	subject, body := isiPemberitahuan(p)
	err = withRetry(ctx, maxAttempts, w.backoff, func(attempt int) error {
		err := w.sender.KirimPemberitahuan(p.PemintaEmail, subject, body, pdfPath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("permintaan_id", payload.PermintaanID).
				Msg("notifikasi_worker: send failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("notifikasi_worker: send: %w", err)
	}
	log.Info().Str("to", p.PemintaEmail).Str("nomor", p.Nomor).Msg("notifikasi_worker: notice sent")
	return nil
}

func isiPemberitahuan(p *model.Permintaan) (string, string) {
	if p.Status == model.StatusApproved {
		return "Permintaan " + p.Nomor + " disetujui",
			fmt.Sprintf("Permintaan barang %s telah disetujui. Rincian jumlah yang disetujui terlampir.", p.Nomor)
	}
	body := fmt.Sprintf("Permintaan barang %s ditolak.", p.Nomor)
	if p.CatatanPenolakan != "" {
		body += "\nAlasan: " + p.CatatanPenolakan
	}
	return "Permintaan " + p.Nomor + " ditolak", body
}

// withRetry calls fn up to attempts times, doubling the wait after each
// failure (base, 2·base, …). Returns the last error.
func withRetry(ctx context.Context, attempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
