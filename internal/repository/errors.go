package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Domain-level errors I prefer to bubble up from repository implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
)

// MapError translates driver errors from either supported backend into domain errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if mapped := MapPgError(err); mapped != err {
		return mapped
	}
	return MapSQLiteError(err)
}

// MapPgError translates common Postgres error codes to domain errors.
// I only map what I expect to handle explicitly at higher layers; everything else passes through.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation:
			return ErrConflict
		}
	}
	return err
}

// MapSQLiteError does the same for SQLite extended result codes.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ErrConflict
		}
		// Without extended result codes only the primary code is set.
		if sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := sqErr.Error()
			switch {
			case strings.Contains(msg, "UNIQUE"):
				return ErrAlreadyExists
			case strings.Contains(msg, "FOREIGN KEY"):
				return ErrConflict
			}
		}
	}
	return err
}
