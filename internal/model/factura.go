package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Factura is an issued fiscal invoice. Rows are immutable once created;
// the only later write is flagging reprints via new EsCopia rows.
//
// Numero carries the legal identifier EEE-PPP-TT-CCCCCCCC. Originals
// (EsCopia = false) are globally unique (partial unique index
// uq_facturas_numero); reprint copies share the original's Numero.
type Factura struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero       string    `gorm:"type:varchar(20);not null;index"`
	Correlativo  int64     `gorm:"not null"`
	CAIID        uuid.UUID `gorm:"type:uuid;not null;index;column:cai_id"`
	OrdenID      uuid.UUID `gorm:"type:uuid;not null;index"`
	SesionCajaID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Totals arrive pre-computed from the order service; this core never
	// recalculates tax or discount math.
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Impuesto  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EsCopia   bool            `gorm:"not null;default:false"`
	EmitidaEn time.Time       `gorm:"not null"`
	CreatedAt time.Time

	Pagos []FacturaPago `gorm:"foreignKey:FacturaID"`
}

func (Factura) TableName() string { return "facturas" }

// Payment methods accepted on a factura.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTarjeta       = "tarjeta"
	MetodoTransferencia = "transferencia"
)

// FacturaPago is one payment-method line of an invoice.
// Metodo: "efectivo" | "tarjeta" | "transferencia"
type FacturaPago struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Metodo    string          `gorm:"type:varchar(20);not null"`
	Monto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Vuelto is the change handed back on cash payments; it reduces the
	// expected cash in drawer at reconciliation time.
	Vuelto decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

func (FacturaPago) TableName() string { return "factura_pagos" }
