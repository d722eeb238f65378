package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxManager runs a unit of work inside a single database transaction.
// Services depend on this interface so unit tests can swap in an in-memory
// implementation with the same commit/rollback semantics.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxManager struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTxManager returns a TxManager backed by db. A positive lockTimeout is
// applied with SET LOCAL so a transaction waiting on a row lock gives up
// instead of blocking indefinitely.
func NewTxManager(db *gorm.DB, lockTimeout time.Duration) TxManager {
	return &gormTxManager{db: db, lockTimeout: lockTimeout}
}

func (m *gormTxManager) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// forUpdate is the row-lock clause used by every *ForUpdateTx / Lock* method.
func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// PostgreSQL SQLSTATE codes the service layer cares about.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsContention reports whether err is a lock timeout, serialization failure
// or deadlock, i.e. the storage layer gave up waiting for another writer.
func IsContention(err error) bool {
	switch pgCode(err) {
	case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// IsForeignKeyViolation reports whether err was raised by a missing FK target.
func IsForeignKeyViolation(err error) bool { return pgCode(err) == pgForeignKeyViolation }

// IsUniqueViolation reports whether err was raised by a duplicate key.
func IsUniqueViolation(err error) bool { return pgCode(err) == pgUniqueViolation }

// IsCheckViolation reports whether err was raised by a CHECK constraint, which
// for the ledger tables means a quantity invariant was about to be broken.
func IsCheckViolation(err error) bool { return pgCode(err) == pgCheckViolation }

// ErrBatchBerubah is returned when a guarded batch update matched no row: the
// batch no longer holds the quantity the caller read under lock.
var ErrBatchBerubah = errors.New("batch stok berubah di luar transaksi")
