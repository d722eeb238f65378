package repository

import (
	"context"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchRepository defines the data access contract for stock batches.
// Batches are never deleted individually and only SisaJumlah is ever updated.
type BatchRepository interface {
	CreateTx(tx *gorm.DB, b *model.BatchStok) error
	// ListTersediaForUpdateTx locks and returns the item's batches with
	// remaining quantity, ordered by (tanggal_masuk, urutan).
	ListTersediaForUpdateTx(tx *gorm.DB, barangID uuid.UUID) ([]model.BatchStok, error)
	// KurangiSisaTx decrements sisa_jumlah by jumlah, guarded so it can never
	// go below zero. Returns ErrBatchBerubah when the guard matched no row.
	KurangiSisaTx(tx *gorm.DB, id uuid.UUID, jumlah int) error

	ListByBarang(ctx context.Context, barangID uuid.UUID) ([]model.BatchStok, error)
	// Ringkasan returns Σ sisa_jumlah and the batch count for an item.
	Ringkasan(ctx context.Context, barangID uuid.UUID) (sisa int, jumlahBatch int64, err error)
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

const fifoOrder = "tanggal_masuk ASC, urutan ASC"

func (r *batchRepo) CreateTx(tx *gorm.DB, b *model.BatchStok) error {
	return tx.Create(b).Error
}

func (r *batchRepo) ListTersediaForUpdateTx(tx *gorm.DB, barangID uuid.UUID) ([]model.BatchStok, error) {
	var batches []model.BatchStok
	err := tx.Clauses(forUpdate()).
		Where("barang_id = ? AND sisa_jumlah > 0", barangID).
		Order(fifoOrder).
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) KurangiSisaTx(tx *gorm.DB, id uuid.UUID, jumlah int) error {
	res := tx.Model(&model.BatchStok{}).
		Where("id = ? AND sisa_jumlah >= ?", id, jumlah).
		Update("sisa_jumlah", gorm.Expr("sisa_jumlah - ?", jumlah))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrBatchBerubah
	}
	return nil
}

func (r *batchRepo) ListByBarang(ctx context.Context, barangID uuid.UUID) ([]model.BatchStok, error) {
	var batches []model.BatchStok
	err := r.db.WithContext(ctx).Where("barang_id = ?", barangID).Order(fifoOrder).Find(&batches).Error
	return batches, err
}

func (r *batchRepo) Ringkasan(ctx context.Context, barangID uuid.UUID) (int, int64, error) {
	var row struct {
		Sisa  int
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.BatchStok{}).
		Select("COALESCE(SUM(sisa_jumlah), 0) AS sisa, COUNT(*) AS count").
		Where("barang_id = ?", barangID).
		Scan(&row).Error
	return row.Sisa, row.Count, err
}
