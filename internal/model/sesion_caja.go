package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SesionCaja is a cashier's till session. Estado: "abierta" | "cerrada".
// A cashier holds at most one open session (partial unique index
// uq_sesiones_caja_cajero_abierta). Once cerrada the row is frozen —
// disputes are settled with compensating facturas in a new session,
// never by editing history.
type SesionCaja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajeroID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MontoApertura decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado        string          `gorm:"type:varchar(20);not null;default:'abierta'"`
	AbiertaEn     time.Time       `gorm:"not null"`
	CerradaEn     *time.Time
	// MontoCierre is the cash total the cashier counted, null while open.
	MontoCierre *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Cuadre *Cuadre `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

// Cuadre is the reconciliation frozen into the session at close time.
// It is computed exactly once and never revised — later voids enter the
// books as compensating facturas against a new session.
type Cuadre struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	// EfectivoEsperado = apertura + ventas en efectivo − vuelto entregado
	EfectivoEsperado decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EfectivoContado  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiferenciaTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cuadrado         bool            `gorm:"not null"`
	CreatedAt        time.Time

	Detalles       []CuadreDetalle      `gorm:"foreignKey:CuadreID"`
	Denominaciones []CuadreDenominacion `gorm:"foreignKey:CuadreID"`
}

func (Cuadre) TableName() string { return "cuadres" }

// CuadreDetalle is the expected/counted comparison for one payment method.
type CuadreDetalle struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CuadreID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Metodo     string          `gorm:"type:varchar(20);not null"`
	Esperado   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Contado    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Diferencia decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cuadrado   bool            `gorm:"not null"`
}

func (CuadreDetalle) TableName() string { return "cuadre_detalles" }

// CuadreDenominacion records the physical bill/coin count the cashier
// submitted. Stored for the audit trail; only the aggregated cash total
// feeds the reconciliation math.
type CuadreDenominacion struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CuadreID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Denominacion decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cantidad     int             `gorm:"not null"`
}

func (CuadreDenominacion) TableName() string { return "cuadre_denominaciones" }
