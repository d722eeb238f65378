package service

import (
	"context"
	"errors"

	"github.com/tegar-arsya/hanadap-sub000/internal/dto"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"

	"gorm.io/gorm"
)

var ErrKategoriDuplikat = errors.New("kategori dengan nama tersebut sudah ada")

type KategoriService interface {
	Buat(ctx context.Context, req dto.BuatKategoriRequest) (dto.KategoriResponse, error)
	Daftar(ctx context.Context) ([]dto.KategoriResponse, error)
}

type kategoriService struct {
	repo repository.KategoriRepository
}

func NewKategoriService(repo repository.KategoriRepository) KategoriService {
	return &kategoriService{repo: repo}
}

func mapKategori(k model.Kategori) dto.KategoriResponse {
	return dto.KategoriResponse{ID: k.ID.String(), Nama: k.Nama}
}

func (s *kategoriService) Buat(ctx context.Context, req dto.BuatKategoriRequest) (dto.KategoriResponse, error) {
	existing, err := s.repo.FindByNama(ctx, req.Nama)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.KategoriResponse{}, err
	}
	if existing != nil {
		return dto.KategoriResponse{}, ErrKategoriDuplikat
	}

	k := &model.Kategori{Nama: req.Nama}
	if err := s.repo.Create(ctx, k); err != nil {
		if repository.IsUniqueViolation(err) {
			return dto.KategoriResponse{}, ErrKategoriDuplikat
		}
		return dto.KategoriResponse{}, err
	}
	return mapKategori(*k), nil
}

func (s *kategoriService) Daftar(ctx context.Context) ([]dto.KategoriResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.KategoriResponse, 0, len(list))
	for _, k := range list {
		result = append(result, mapKategori(k))
	}
	return result, nil
}
