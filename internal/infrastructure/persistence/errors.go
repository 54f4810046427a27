package persistence

import (
	"errors"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes that indicate the caller lost a row-lock race
const (
	pgLockNotAvailable      = "55P03"
	pgSerializationFailure  = "40001"
	pgDeadlockDetected      = "40P01"
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgCheckConstraintFailed = "23514"
)

// mapLockError translates driver-level lock failures into the domain's
// concurrency conflict sentinel so services can retry on errors.Is.
func mapLockError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return shared.ErrConcurrencyConflict
		}
	}
	return err
}

// mapNotFound translates gorm's record-not-found into the domain sentinel
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// mapUniqueViolation translates duplicate-key failures into the domain sentinel
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return shared.ErrAlreadyExists
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}
