package repository

import (
	"context"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BarangRepository defines the data access contract for items.
// Lookups return gorm.ErrRecordNotFound when the item does not exist.
type BarangRepository interface {
	Create(ctx context.Context, b *model.Barang) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Barang, error)
	// FindByIDWithBatches loads the item and all of its batches in FIFO order.
	FindByIDWithBatches(ctx context.Context, id uuid.UUID) (*model.Barang, error)
	List(ctx context.Context, filter dto.BarangFilter) ([]model.Barang, int64, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, b *model.Barang) error
	FindByKodeScanTx(tx *gorm.DB, kode string) (*model.Barang, error)
	FindByNamaTx(tx *gorm.DB, nama string) (*model.Barang, error)
	// LockByIDTx reads the item with SELECT … FOR UPDATE. Every ledger
	// mutation takes this lock before touching the item's batches.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Barang, error)
	UpdateStokTotalTx(tx *gorm.DB, id uuid.UUID, delta int) error
}

type barangRepo struct{ db *gorm.DB }

func NewBarangRepository(db *gorm.DB) BarangRepository { return &barangRepo{db: db} }

func (r *barangRepo) Create(ctx context.Context, b *model.Barang) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *barangRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Barang, error) {
	var b model.Barang
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *barangRepo) FindByIDWithBatches(ctx context.Context, id uuid.UUID) (*model.Barang, error) {
	var b model.Barang
	err := r.db.WithContext(ctx).
		Preload("Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("tanggal_masuk ASC, urutan ASC")
		}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *barangRepo) List(ctx context.Context, filter dto.BarangFilter) ([]model.Barang, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Barang{})
	if filter.Nama != "" {
		q = q.Where("nama ILIKE ?", "%"+filter.Nama+"%")
	}
	if filter.KategoriID != "" {
		q = q.Where("kategori_id = ?", filter.KategoriID)
	}
	switch filter.Status {
	case model.StatusStokHabis:
		q = q.Where("stok_total <= 0")
	case model.StatusStokMenipis:
		q = q.Where("stok_total > 0 AND stok_total <= stok_minimum")
	case model.StatusStokAman:
		q = q.Where("stok_total > stok_minimum")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit)
	var barang []model.Barang
	err := q.Order("nama ASC").Offset((page - 1) * limit).Limit(limit).Find(&barang).Error
	return barang, total, err
}

func (r *barangRepo) CreateTx(tx *gorm.DB, b *model.Barang) error {
	return tx.Create(b).Error
}

func (r *barangRepo) FindByKodeScanTx(tx *gorm.DB, kode string) (*model.Barang, error) {
	var b model.Barang
	if err := tx.Where("kode_scan = ?", kode).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *barangRepo) FindByNamaTx(tx *gorm.DB, nama string) (*model.Barang, error) {
	var b model.Barang
	if err := tx.Where("LOWER(nama) = LOWER(?)", nama).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *barangRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Barang, error) {
	var b model.Barang
	if err := tx.Clauses(forUpdate()).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *barangRepo) UpdateStokTotalTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	res := tx.Model(&model.Barang{}).Where("id = ?", id).
		Update("stok_total", gorm.Expr("stok_total + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NormalizePage clamps pagination input to sane bounds. List methods and the
// list responses that echo page and limit both go through it.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit
}
