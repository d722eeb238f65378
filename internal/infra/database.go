package infra

import (
	"fmt"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, migrates the
// ledger tables and applies the constraints GORM tags cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and then applies the schema
// patches. Integration tests call it on a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Kategori{},
		&model.Barang{},
		&model.BatchStok{},
		&model.Permintaan{},
		&model.PermintaanDetail{},
		&model.MutasiStok{},
		&model.LogAktivitas{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches adds the ledger CHECK constraints and the partial FIFO
// index. Every statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"chk_barang_stok_total", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_barang_stok_total') THEN
    ALTER TABLE barang ADD CONSTRAINT chk_barang_stok_total CHECK (stok_total >= 0);
  END IF;
END $$`},
		{"chk_batch_sisa", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_batch_sisa') THEN
    ALTER TABLE batch_stok ADD CONSTRAINT chk_batch_sisa
      CHECK (jumlah > 0 AND sisa_jumlah >= 0 AND sisa_jumlah <= jumlah);
  END IF;
END $$`},
		{"chk_batch_harga", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_batch_harga') THEN
    ALTER TABLE batch_stok ADD CONSTRAINT chk_batch_harga CHECK (harga_satuan >= 0);
  END IF;
END $$`},
		{"chk_permintaan_status", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_permintaan_status') THEN
    ALTER TABLE permintaan ADD CONSTRAINT chk_permintaan_status
      CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED'));
  END IF;
END $$`},
		{"chk_detail_jumlah", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_detail_jumlah') THEN
    ALTER TABLE permintaan_detail ADD CONSTRAINT chk_detail_jumlah
      CHECK (jumlah_diminta > 0 AND jumlah_disetujui >= 0 AND jumlah_disetujui <= jumlah_diminta);
  END IF;
END $$`},
		// depletion only ever scans batches that still hold stock
		{"idx_batch_tersedia", `
CREATE INDEX IF NOT EXISTS idx_batch_tersedia
    ON batch_stok (barang_id, tanggal_masuk, urutan)
    WHERE sisa_jumlah > 0`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
