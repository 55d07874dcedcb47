package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a referenced row does not exist.
	ErrForeignKey = errors.New("referenced record does not exist")

	// ErrInsufficientQuantity is returned by ledger debits that would take a quantity below zero.
	ErrInsufficientQuantity = errors.New("insufficient quantity on hand")
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// wrapDBError maps driver errors onto the package sentinels.
func wrapDBError(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, action, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%w: %s (constraint: %s)", ErrForeignKey, action, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, action, err)
}
