package db

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Common errors
var (
	// ErrFatal marks persistence faults after which a run cannot safely continue.
	ErrFatal              = errors.New("fatal persistence error")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDatabaseConnection = errors.New("database connection error")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrTagNotFound        = errors.New("license tag not found")
)

// InsertResult is the outcome of an idempotent insert that did not fail.
type InsertResult int

const (
	// Inserted means a new row was written.
	Inserted InsertResult = iota
	// Duplicate means the row already existed and nothing was written.
	Duplicate
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("InsertResult(%d)", int(r))
	}
}

// uniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const uniqueViolation = "23505"

// classifyInsert turns an insert error into Duplicate or a fatal error.
func classifyInsert(what string, err error) (InsertResult, error) {
	if err == nil {
		return Inserted, nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return Duplicate, nil
	}
	return Inserted, fmt.Errorf("%w: insert %s: %v", ErrFatal, what, err)
}
