package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mugisham37/business-management-web-sub004/internal/apperrors"
)

// Postgres error code for unique constraint violations.
const pqUniqueViolation = "23505"

// mapError translates driver errors into the application's sentinel
// errors so services never see database details.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFoundf("%s: not found", op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return apperrors.Conflictf("%s: duplicate key", op)
	}
	return apperrors.Integrityf("%s: %v", op, err)
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Integrityf("begin transaction: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Integrityf("commit transaction: %v", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nullUUID adapts an optional uuid pointer for driver parameters.
func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// requireRow maps a zero-row result to ErrNotFound.
func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Integrityf("%s: rows affected: %v", op, err)
	}
	if n == 0 {
		return apperrors.NotFoundf("%s: not found", op)
	}
	return nil
}

// requireVersionedRow maps a zero-row result on a version-guarded
// update to ErrConflict: either the row changed underneath us or it
// is gone, and the caller must re-read before retrying.
func requireVersionedRow(res sql.Result, version int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Integrityf("rows affected: %v", err)
	}
	if n == 0 {
		return apperrors.Conflictf("stale version %d, reload and retry", version)
	}
	return nil
}
