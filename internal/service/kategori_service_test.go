package service

import (
	"context"
	"strings"
	"testing"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubKategoriRepo struct{ list []model.Kategori }

func (r *stubKategoriRepo) Create(_ context.Context, k *model.Kategori) error {
	k.ID = uuid.New()
	r.list = append(r.list, *k)
	return nil
}

func (r *stubKategoriRepo) List(context.Context) ([]model.Kategori, error) { return r.list, nil }

func (r *stubKategoriRepo) FindByNama(_ context.Context, nama string) (*model.Kategori, error) {
	for _, k := range r.list {
		if strings.EqualFold(k.Nama, nama) {
			k := k
			return &k, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func TestKategori_BuatAndDaftar(t *testing.T) {
	svc := NewKategoriService(&stubKategoriRepo{})

	k, err := svc.Buat(context.Background(), dto.BuatKategoriRequest{Nama: "ATK"})
	require.NoError(t, err)
	assert.NotEmpty(t, k.ID)

	_, err = svc.Buat(context.Background(), dto.BuatKategoriRequest{Nama: "atk"})
	assert.ErrorIs(t, err, ErrKategoriDuplikat)

	list, err := svc.Daftar(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ATK", list[0].Nama)
}
