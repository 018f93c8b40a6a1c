package model

import (
	"time"

	"github.com/google/uuid"
)

// CAI is a government-issued numbering authorization: a bounded range of
// sequential invoice numbers tied to an establishment / emission point /
// document type triple, valid until FechaLimite.
//
// Invariants:
//   - RangoInicio <= RangoFin
//   - RangoInicio-1 <= CorrelativoActual <= RangoFin
//   - at most one row has Activo = true (partial unique index uq_cais_activo)
//
// CorrelativoActual is mutated ONLY by the allocator inside a row-locked
// transaction — there is no admin path that overwrites it once facturas exist.
type CAI struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo string    `gorm:"type:varchar(40);not null;uniqueIndex"`
	// Establecimiento / PuntoEmision / TipoDocumento are the fixed-width
	// prefix fields of the legal invoice number (3 / 3 / 2 digits).
	Establecimiento   string    `gorm:"type:char(3);not null"`
	PuntoEmision      string    `gorm:"type:char(3);not null"`
	TipoDocumento     string    `gorm:"type:char(2);not null"`
	RangoInicio       int64     `gorm:"not null"`
	RangoFin          int64     `gorm:"not null"`
	CorrelativoActual int64     `gorm:"not null"`
	FechaLimite       time.Time `gorm:"type:date;not null"`
	Activo            bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (CAI) TableName() string { return "cais" }

// Restante is the advisory stock of numbers left in the range.
func (c *CAI) Restante() int64 { return c.RangoFin - c.CorrelativoActual }

// Vencido compares FechaLimite against the given day, date-only: an
// authorization is usable through the end of its limit date.
func (c *CAI) Vencido(hoy time.Time) bool {
	limite := time.Date(c.FechaLimite.Year(), c.FechaLimite.Month(), c.FechaLimite.Day(), 0, 0, 0, 0, time.UTC)
	dia := time.Date(hoy.Year(), hoy.Month(), hoy.Day(), 0, 0, 0, 0, time.UTC)
	return limite.Before(dia)
}
