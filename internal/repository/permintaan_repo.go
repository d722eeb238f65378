package repository

import (
	"context"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermintaanRepository defines the data access contract for requests and
// their lines.
type PermintaanRepository interface {
	// Create inserts the request together with its Details.
	Create(ctx context.Context, p *model.Permintaan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Permintaan, error)
	List(ctx context.Context, filter dto.PermintaanFilter) ([]model.Permintaan, int64, error)

	// LockByIDTx reads the request with SELECT … FOR UPDATE and loads its lines.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Permintaan, error)
	UpdateJumlahDisetujuiTx(tx *gorm.DB, detailID uuid.UUID, jumlah int) error
	// UpdateKeputusanTx persists status, approver, decision time and note.
	UpdateKeputusanTx(tx *gorm.DB, p *model.Permintaan) error
}

type permintaanRepo struct{ db *gorm.DB }

func NewPermintaanRepository(db *gorm.DB) PermintaanRepository {
	return &permintaanRepo{db: db}
}

func (r *permintaanRepo) Create(ctx context.Context, p *model.Permintaan) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *permintaanRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Permintaan, error) {
	var p model.Permintaan
	err := r.db.WithContext(ctx).
		Preload("Details.Barang").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *permintaanRepo) List(ctx context.Context, filter dto.PermintaanFilter) ([]model.Permintaan, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Permintaan{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PemintaID != "" {
		q = q.Where("peminta_id = ?", filter.PemintaID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit)
	var rows []model.Permintaan
	err := q.Preload("Details.Barang").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *permintaanRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Permintaan, error) {
	var p model.Permintaan
	if err := tx.Clauses(forUpdate()).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("permintaan_id = ?", id).Preload("Barang").
		Order("id ASC").Find(&p.Details).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *permintaanRepo) UpdateJumlahDisetujuiTx(tx *gorm.DB, detailID uuid.UUID, jumlah int) error {
	return tx.Model(&model.PermintaanDetail{}).Where("id = ?", detailID).
		Update("jumlah_disetujui", jumlah).Error
}

func (r *permintaanRepo) UpdateKeputusanTx(tx *gorm.DB, p *model.Permintaan) error {
	// The status guard keeps a terminal request immutable even if a caller
	// skipped the lock.
	res := tx.Model(&model.Permintaan{}).
		Where("id = ? AND status = ?", p.ID, model.StatusPending).
		Updates(map[string]interface{}{
			"status":            p.Status,
			"diproses_oleh":     p.DiprosesOleh,
			"diproses_pada":     p.DiprosesPada,
			"catatan_penolakan": p.CatatanPenolakan,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
