package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Notifier tells the requester about a decision. Implementations must return
// quickly; delivery happens elsewhere.
type Notifier interface {
	KirimKeputusan(ctx context.Context, p *model.Permintaan) error
}

// batasEfekSamping bounds the post-commit audit write and notification enqueue.
const batasEfekSamping = 5 * time.Second

// PenomoranPermintaan hands out human-readable request numbers.
type PenomoranPermintaan interface {
	Nomor() string
}

// Peminta identifies the user creating a request.
type Peminta struct {
	ID    uuid.UUID
	Email string
}

// PermintaanService is the request lifecycle: PENDING → APPROVED | REJECTED,
// exactly once. Approval depletes stock for every granted line in one
// transaction; rejection never touches the ledger.
type PermintaanService interface {
	Buat(ctx context.Context, peminta Peminta, req dto.BuatPermintaanRequest) (*dto.PermintaanResponse, error)
	Ambil(ctx context.Context, id uuid.UUID) (*dto.PermintaanResponse, error)
	Daftar(ctx context.Context, filter dto.PermintaanFilter) (*dto.PermintaanListResponse, error)
	// Setujui approves a PENDING request. jatah maps detail id to the granted
	// quantity; lines without an entry are granted what they asked for.
	Setujui(ctx context.Context, id, approverID uuid.UUID, jatah map[uuid.UUID]int) (*dto.PermintaanResponse, error)
	Tolak(ctx context.Context, id, approverID uuid.UUID, catatan string) (*dto.PermintaanResponse, error)
}

type permintaanService struct {
	tx         repository.TxManager
	repo       repository.PermintaanRepository
	barangRepo repository.BarangRepository
	stok       StokService
	aktivitas  AktivitasService
	notifier   Notifier
	penomoran  PenomoranPermintaan
	now        func() time.Time
}

// NewPermintaanService wires the lifecycle service. aktivitas and notifier may
// be nil, in which case the corresponding side effect is skipped.
func NewPermintaanService(
	tx repository.TxManager,
	repo repository.PermintaanRepository,
	barangRepo repository.BarangRepository,
	stok StokService,
	aktivitas AktivitasService,
	notifier Notifier,
	penomoran PenomoranPermintaan,
) PermintaanService {
	return &permintaanService{
		tx:         tx,
		repo:       repo,
		barangRepo: barangRepo,
		stok:       stok,
		aktivitas:  aktivitas,
		notifier:   notifier,
		penomoran:  penomoran,
		now:        time.Now,
	}
}

// ── Buat ──────────────────────────────────────────────────────────────────────

func (s *permintaanService) Buat(ctx context.Context, peminta Peminta, req dto.BuatPermintaanRequest) (*dto.PermintaanResponse, error) {
	if len(req.Details) == 0 {
		return nil, ErrPermintaanKosong
	}
	p := &model.Permintaan{
		ID:           uuid.New(),
		Nomor:        s.penomoran.Nomor(),
		PemintaID:    peminta.ID,
		PemintaEmail: peminta.Email,
		Keterangan:   req.Keterangan,
		Status:       model.StatusPending,
	}
	barang := make(map[uuid.UUID]*model.Barang, len(req.Details))
	for _, d := range req.Details {
		if d.JumlahDiminta <= 0 {
			return nil, ErrJumlahTidakValid
		}
		bid, err := uuid.Parse(d.BarangID)
		if err != nil {
			return nil, fmt.Errorf("barang_id tidak valid: %w", err)
		}
		b, err := s.barangRepo.FindByID(ctx, bid)
		if err != nil {
			return nil, mapStorageErr(err, ErrBarangNotFound)
		}
		barang[bid] = b
		p.Details = append(p.Details, model.PermintaanDetail{
			ID:            uuid.New(),
			PermintaanID:  p.ID,
			BarangID:      bid,
			JumlahDiminta: d.JumlahDiminta,
		})
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	// attached only after insert so gorm does not upsert the items
	for i := range p.Details {
		p.Details[i].Barang = barang[p.Details[i].BarangID]
	}
	return permintaanToResponse(p), nil
}

// ── Read side ─────────────────────────────────────────────────────────────────

func (s *permintaanService) Ambil(ctx context.Context, id uuid.UUID) (*dto.PermintaanResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err, ErrPermintaanNotFound)
	}
	return permintaanToResponse(p), nil
}

func (s *permintaanService) Daftar(ctx context.Context, filter dto.PermintaanFilter) (*dto.PermintaanListResponse, error) {
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit)
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PermintaanResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *permintaanToResponse(&rows[i]))
	}
	return &dto.PermintaanListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Setujui ───────────────────────────────────────────────────────────────────
// One transaction for the whole request:
//   1. Lock the request, require PENDING
//   2. Resolve the grant of every line
//   3. Lock every involved item in ascending id order and check the summed
//      grants per item against StokTotal before any batch is touched
//   4. Deplete each granted line (FIFO), record JumlahDisetujui
//   5. Mark APPROVED
// Any failure rolls back every line. Audit and notification run after commit.

func (s *permintaanService) Setujui(ctx context.Context, id, approverID uuid.UUID, jatah map[uuid.UUID]int) (*dto.PermintaanResponse, error) {
	var p *model.Permintaan
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.LockByIDTx(tx, id)
		if err != nil {
			return mapStorageErr(err, ErrPermintaanNotFound)
		}
		if p.Status != model.StatusPending {
			return fmt.Errorf("%w: status %s", ErrStatusTidakValid, p.Status)
		}

		disetujui, err := tentukanJatah(p.Details, jatah)
		if err != nil {
			return err
		}

		perBarang := make(map[uuid.UUID]int)
		for _, d := range p.Details {
			perBarang[d.BarangID] += disetujui[d.ID]
		}
		ids := make([]uuid.UUID, 0, len(perBarang))
		for bid := range perBarang {
			ids = append(ids, bid)
		}

		for _, bid := range urutkanID(ids) {
			b, err := s.barangRepo.LockByIDTx(tx, bid)
			if err != nil {
				return mapStorageErr(err, ErrBarangNotFound)
			}
			if perBarang[bid] > b.StokTotal {
				return &StokTidakCukupError{BarangID: b.ID, Nama: b.Nama, Diminta: perBarang[bid], Tersedia: b.StokTotal}
			}
		}

		keterangan := "Permintaan " + p.Nomor
		for i := range p.Details {
			d := &p.Details[i]
			g := disetujui[d.ID]
			if g > 0 {
				if _, err := s.stok.DepleteTx(ctx, tx, d.BarangID, g, &p.ID, keterangan); err != nil {
					return err
				}
			}
			if err := s.repo.UpdateJumlahDisetujuiTx(tx, d.ID, g); err != nil {
				return err
			}
			d.JumlahDisetujui = g
		}

		now := s.now()
		p.Status = model.StatusApproved
		p.DiprosesOleh = &approverID
		p.DiprosesPada = &now
		return s.repo.UpdateKeputusanTx(tx, p)
	})
	if err != nil {
		return nil, mapStorageErr(err, ErrPermintaanNotFound)
	}

	s.setelahKeputusan(ctx, p, approverID, AksiSetujuiPermintaan)
	return permintaanToResponse(p), nil
}

// tentukanJatah resolves the granted quantity per line. Every key of jatah
// must be a line of the request and 0 ≤ grant ≤ JumlahDiminta. At least one
// line must be granted; a request granting nothing should be rejected instead.
func tentukanJatah(details []model.PermintaanDetail, jatah map[uuid.UUID]int) (map[uuid.UUID]int, error) {
	hasil := make(map[uuid.UUID]int, len(details))
	for _, d := range details {
		hasil[d.ID] = d.JumlahDiminta
	}
	for detailID := range jatah {
		if _, ok := hasil[detailID]; !ok {
			return nil, fmt.Errorf("%w: detail %s bukan bagian dari permintaan", ErrJumlahDisetujuiTidakValid, detailID)
		}
	}
	total := 0
	for _, d := range details {
		g, ok := jatah[d.ID]
		if !ok {
			g = d.JumlahDiminta
		}
		if g < 0 || g > d.JumlahDiminta {
			return nil, fmt.Errorf("%w: %d di luar 0..%d", ErrJumlahDisetujuiTidakValid, g, d.JumlahDiminta)
		}
		hasil[d.ID] = g
		total += g
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: tidak ada barang yang disetujui", ErrJumlahDisetujuiTidakValid)
	}
	return hasil, nil
}

// ── Tolak ─────────────────────────────────────────────────────────────────────

func (s *permintaanService) Tolak(ctx context.Context, id, approverID uuid.UUID, catatan string) (*dto.PermintaanResponse, error) {
	var p *model.Permintaan
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.LockByIDTx(tx, id)
		if err != nil {
			return mapStorageErr(err, ErrPermintaanNotFound)
		}
		if p.Status != model.StatusPending {
			return fmt.Errorf("%w: status %s", ErrStatusTidakValid, p.Status)
		}
		now := s.now()
		p.Status = model.StatusRejected
		p.DiprosesOleh = &approverID
		p.DiprosesPada = &now
		p.CatatanPenolakan = catatan
		return s.repo.UpdateKeputusanTx(tx, p)
	})
	if err != nil {
		return nil, mapStorageErr(err, ErrPermintaanNotFound)
	}

	s.setelahKeputusan(ctx, p, approverID, AksiTolakPermintaan)
	return permintaanToResponse(p), nil
}

// urutkanID returns the distinct ids in ascending byte order. Every
// transaction that locks several barang rows locks them in this order.
func urutkanID(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// setelahKeputusan runs the post-commit side effects. Failures are logged and
// swallowed: the decision is already durable. The caller's context may be
// cancelled once the client goes away, so the side effects run detached from
// it under their own deadline.
func (s *permintaanService) setelahKeputusan(ctx context.Context, p *model.Permintaan, approverID uuid.UUID, aksi string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), batasEfekSamping)
	defer cancel()

	if s.aktivitas != nil {
		err := s.aktivitas.Catat(ctx, EntriAktivitas{
			PenggunaID: &approverID,
			Aksi:       aksi,
			Entitas:    "permintaan",
			EntitasID:  p.ID,
			Deskripsi:  fmt.Sprintf("Permintaan %s %s", p.Nomor, p.Status),
			Data:       permintaanToResponse(p),
		})
		if err != nil {
			log.Warn().Err(err).Str("permintaan_id", p.ID.String()).Msg("permintaan: audit entry not written")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.KirimKeputusan(ctx, p); err != nil {
			log.Warn().Err(err).Str("permintaan_id", p.ID.String()).Msg("permintaan: notification not enqueued")
		}
	}
}
