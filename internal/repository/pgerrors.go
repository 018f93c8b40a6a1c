package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error classes this core reacts to. The gorm postgres driver
// runs on pgx, so the original *pgconn.PgError survives the error chain.
const (
	codigoSerializacion     = "40001" // serialization_failure
	codigoDeadlock          = "40P01" // deadlock_detected
	codigoUnicidadViolada   = "23505" // unique_violation
	codigoClaveForaneaViola = "23503" // foreign_key_violation
)

// EsConflictoSerializacion reports whether err is a transient transaction
// conflict (serialization failure or deadlock) — safe to retry the whole
// operation from scratch.
func EsConflictoSerializacion(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codigoSerializacion || pgErr.Code == codigoDeadlock
}

// EsViolacionUnicidad reports whether err comes from a unique index, e.g.
// the one-open-session-per-cashier partial index racing a concurrent open.
func EsViolacionUnicidad(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codigoUnicidadViolada
}

// EsViolacionClaveForanea reports whether err is a foreign-key rejection,
// e.g. deleting a CAI that facturas still reference.
func EsViolacionClaveForanea(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codigoClaveForaneaViola
}
