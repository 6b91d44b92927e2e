// Package store is the data-access layer: it assembles parameterized sqlite
// statements from pre-validated inputs and applies state mutations. It never
// re-validates enums, sort keys, or field selectors; that is the HTTP layer's
// job. Storage errors propagate unchanged.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Querier is satisfied by *sql.DB, *sql.Tx, and dbsavepoint.Savepoint, so
// mutations compose with whatever transaction scope the caller is in.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Sort is a requested sort key and direction, already narrowed against the
// entity's allow-list by the caller.
type Sort struct {
	Key   string
	Order string
}

// Pagination carries a 1-indexed page and a limit. A nil limit fetches
// everything.
type Pagination struct {
	Page  *int64
	Limit *int64
}

// IsConstraintViolation reports whether err is a sqlite unique-constraint
// failure. Duplicate tag creation and duplicate list membership treat it as
// "already present" rather than an error.
func IsConstraintViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}

	return false
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}

	return &v.String
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}

	return &v.Int64
}

func boolInt(v *bool) int64 {
	if v != nil && *v {
		return 1
	}

	return 0
}

func timeOrNil(set bool, t time.Time) interface{} {
	if !set {
		return nil
	}

	return t
}

// usingTx runs fn inside one transaction: the row-fetch and count statements
// of a list request must observe a consistent snapshot, and multi-row
// mutations must be all-or-nothing.
func usingTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
