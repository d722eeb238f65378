package repository

import (
	"context"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"gorm.io/gorm"
)

type KategoriRepository interface {
	Create(ctx context.Context, k *model.Kategori) error
	List(ctx context.Context) ([]model.Kategori, error)
	FindByNama(ctx context.Context, nama string) (*model.Kategori, error)
}

type kategoriRepo struct{ db *gorm.DB }

func NewKategoriRepository(db *gorm.DB) KategoriRepository { return &kategoriRepo{db: db} }

func (r *kategoriRepo) Create(ctx context.Context, k *model.Kategori) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *kategoriRepo) List(ctx context.Context) ([]model.Kategori, error) {
	var list []model.Kategori
	err := r.db.WithContext(ctx).Order("nama asc").Find(&list).Error
	return list, err
}

func (r *kategoriRepo) FindByNama(ctx context.Context, nama string) (*model.Kategori, error) {
	var k model.Kategori
	if err := r.db.WithContext(ctx).Where("lower(nama) = lower(?)", nama).First(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}
