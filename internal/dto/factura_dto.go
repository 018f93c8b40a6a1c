package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PagoRequest is one payment-method line of an emission request.
type PagoRequest struct {
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta transferencia"`
	Monto  decimal.Decimal `json:"monto"  validate:"required"`
	Vuelto decimal.Decimal `json:"vuelto"`
}

// TotalesRequest carries the pre-computed totals from the order service.
// This core persists them verbatim — tax/discount math is decided upstream.
type TotalesRequest struct {
	Subtotal  decimal.Decimal `json:"subtotal"  validate:"required"`
	Descuento decimal.Decimal `json:"descuento"`
	Impuesto  decimal.Decimal `json:"impuesto"`
	Total     decimal.Decimal `json:"total"     validate:"required"`
}

type EmitirFacturaRequest struct {
	OrdenID      string         `json:"orden_id"       validate:"required,uuid"`
	SesionCajaID string         `json:"sesion_caja_id" validate:"required,uuid"`
	Totales      TotalesRequest `json:"totales"        validate:"required"`
	Pagos        []PagoRequest  `json:"pagos"          validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PagoResponse struct {
	Metodo string          `json:"metodo"`
	Monto  decimal.Decimal `json:"monto"`
	Vuelto decimal.Decimal `json:"vuelto"`
}

type FacturaResponse struct {
	ID           string          `json:"id"`
	Numero       string          `json:"numero"`
	Correlativo  int64           `json:"correlativo"`
	CAIID        string          `json:"cai_id"`
	OrdenID      string          `json:"orden_id"`
	SesionCajaID string          `json:"sesion_caja_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Descuento    decimal.Decimal `json:"descuento"`
	Impuesto     decimal.Decimal `json:"impuesto"`
	Total        decimal.Decimal `json:"total"`
	Pagos        []PagoResponse  `json:"pagos"`
	EsCopia      bool            `json:"es_copia"`
	EmitidaEn    string          `json:"emitida_en"`
}
