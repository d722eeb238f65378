// Command seed resets the stock ledger and loads demo data.
//
//	go run ./cmd/seed -reset        clear batches, journal and requests; zero every StokTotal
//	go run ./cmd/seed -demo         create demo categories, items and opening batches
//	go run ./cmd/seed -token        print development tokens for an admin and a staff user
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/config"
	"github.com/tegar-arsya/hanadap-sub000/internal/infra"
	"github.com/tegar-arsya/hanadap-sub000/internal/middleware"
	"github.com/tegar-arsya/hanadap-sub000/internal/model"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	reset := flag.Bool("reset", false, "clear the stock ledger and all requests")
	demo := flag.Bool("demo", false, "insert demo items and opening balances")
	token := flag.Bool("token", false, "print development JWTs")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if *token {
		printTokens(cfg.JWTSecret)
	}
	if !*reset && !*demo {
		return
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	ctx := context.Background()

	if *reset {
		if err := resetLedger(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("reset failed")
		}
		log.Info().Msg("ledger reset")
	}
	if *demo {
		if err := seedDemo(ctx, db, cfg); err != nil {
			log.Fatal().Err(err).Msg("demo seed failed")
		}
		log.Info().Msg("demo data inserted")
	}
}

// resetLedger wipes batches, journal and requests and zeroes every aggregate
// in one transaction, so StokTotal = Σ SisaJumlah holds before and after.
func resetLedger(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			`DELETE FROM permintaan_detail`,
			`DELETE FROM permintaan`,
			`DELETE FROM mutasi_stok`,
			`DELETE FROM batch_stok`,
			`UPDATE barang SET stok_total = 0`,
		}
		for _, s := range stmts {
			if err := tx.Exec(s).Error; err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
		}
		return nil
	})
}

type demoBarang struct {
	nama, satuan, kode string
	minimum            int
	batches            []demoBatch
}

type demoBatch struct {
	tanggal string
	jumlah  int
	harga   string
}

func seedDemo(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	kategori := model.Kategori{Nama: "Alat Tulis Kantor"}
	if err := db.WithContext(ctx).Where("nama = ?", kategori.Nama).FirstOrCreate(&kategori).Error; err != nil {
		return err
	}

	txm := repository.NewTxManager(db, cfg.LockTimeout())
	barangRepo := repository.NewBarangRepository(db)
	stok := service.NewStokService(txm, barangRepo, repository.NewBatchRepository(db), repository.NewMutasiStokRepository(db))

	items := []demoBarang{
		{"Kertas HVS A4", "rim", "ATK-001", 10, []demoBatch{{"2024-01-01", 50, "52000"}, {"2024-01-15", 30, "54500"}}},
		{"Pulpen Hitam", "pcs", "ATK-002", 24, []demoBatch{{"2024-02-01", 120, "2500"}}},
		{"Map Plastik", "pcs", "ATK-003", 20, []demoBatch{{"2024-01-10", 40, "3000"}, {"2024-03-05", 60, "3200"}}},
		{"Tinta Printer", "botol", "ATK-004", 5, nil},
	}
	for _, it := range items {
		kode := it.kode
		b := &model.Barang{ID: uuid.New(), Nama: it.nama, Satuan: it.satuan, StokMinimum: it.minimum, KategoriID: &kategori.ID, KodeScan: &kode}
		if err := barangRepo.Create(ctx, b); err != nil {
			return fmt.Errorf("barang %s: %w", it.nama, err)
		}
		for _, bt := range it.batches {
			tanggal, _ := time.Parse("2006-01-02", bt.tanggal)
			harga := decimal.RequireFromString(bt.harga)
			_, err := stok.Replenish(ctx, b.ID, service.TambahStokInput{
				Jumlah:         bt.jumlah,
				TanggalMasuk:   &tanggal,
				HargaSatuan:    &harga,
				JenisTransaksi: model.JenisSaldoAwal,
				Keterangan:     "Saldo awal demo",
			})
			if err != nil {
				return fmt.Errorf("batch %s %s: %w", it.nama, bt.tanggal, err)
			}
		}
	}
	return nil
}

func printTokens(secret string) {
	for _, u := range []struct{ email, rol string }{
		{"admin@hanadap.local", middleware.RolAdmin},
		{"staf@hanadap.local", middleware.RolStaf},
	} {
		t, err := middleware.SignToken(secret, uuid.New(), u.email, u.rol, 24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("sign token")
		}
		fmt.Printf("%s (%s):\n%s\n\n", u.email, u.rol, t)
	}
}
