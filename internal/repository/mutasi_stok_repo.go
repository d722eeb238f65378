package repository

import (
	"context"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"gorm.io/gorm"
)

type MutasiStokRepository interface {
	CreateTx(tx *gorm.DB, m *model.MutasiStok) error
	List(ctx context.Context, filter dto.MutasiFilter) ([]model.MutasiStok, int64, error)
}

type mutasiStokRepo struct{ db *gorm.DB }

func NewMutasiStokRepository(db *gorm.DB) MutasiStokRepository {
	return &mutasiStokRepo{db: db}
}

func (r *mutasiStokRepo) CreateTx(tx *gorm.DB, m *model.MutasiStok) error {
	return tx.Create(m).Error
}

func (r *mutasiStokRepo) List(ctx context.Context, filter dto.MutasiFilter) ([]model.MutasiStok, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MutasiStok{}).
		Preload("Barang")
	if filter.BarangID != "" {
		q = q.Where("barang_id = ?", filter.BarangID)
	}
	if filter.Tipe != "" {
		q = q.Where("tipe = ?", filter.Tipe)
	}
	if filter.ReferensiID != "" {
		q = q.Where("referensi_id = ?", filter.ReferensiID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit)
	var mutasi []model.MutasiStok
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&mutasi).Error
	return mutasi, total, err
}
