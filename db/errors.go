package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorKind classifies storage failures independently of the backend.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValueTooLong
	KindUniqueViolation
	KindNotNullViolation
)

func (k ErrorKind) String() string {
	switch k {
	case KindValueTooLong:
		return "value_too_long"
	case KindUniqueViolation:
		return "duplicate_key"
	case KindNotNullViolation:
		return "missing_required_field"
	default:
		return "storage_error"
	}
}

// StorageError is a classified database error.
type StorageError struct {
	Kind       ErrorKind
	Constraint string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Postgres SQLSTATE codes.
const (
	pgStringDataRightTruncation = "22001"
	pgUniqueViolation           = "23505"
	pgNotNullViolation          = "23502"
)

// Classify wraps err in a *StorageError. Errors that are already classified
// are returned unchanged and nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var classified *StorageError
	if errors.As(err, &classified) {
		return err
	}

	return &StorageError{Kind: kindOf(err), Constraint: constraintOf(err), Err: err}
}

// KindOf reports the kind of a classified or raw storage error.
func KindOf(err error) ErrorKind {
	var classified *StorageError
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return kindOf(err)
}

func kindOf(err error) ErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgStringDataRightTruncation:
			return KindValueTooLong
		case pgUniqueViolation:
			return KindUniqueViolation
		case pgNotNullViolation:
			return KindNotNullViolation
		}
		return KindUnknown
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		// Length limits are declared as CHECK constraints in the SQLite schema.
		case sqlite3.ErrConstraintCheck:
			return KindValueTooLong
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return KindUniqueViolation
		case sqlite3.ErrConstraintNotNull:
			return KindNotNullViolation
		}
	}

	return KindUnknown
}

func constraintOf(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.ConstraintName != "" {
			return pgErr.ConstraintName
		}
		return pgErr.ColumnName
	}
	return ""
}
