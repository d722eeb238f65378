package repository

import (
	"context"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"gorm.io/gorm"
)

type AktivitasRepository interface {
	Create(ctx context.Context, l *model.LogAktivitas) error
}

type aktivitasRepo struct{ db *gorm.DB }

func NewAktivitasRepository(db *gorm.DB) AktivitasRepository { return &aktivitasRepo{db: db} }

func (r *aktivitasRepo) Create(ctx context.Context, l *model.LogAktivitas) error {
	return r.db.WithContext(ctx).Create(l).Error
}
