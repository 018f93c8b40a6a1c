package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoApertura decimal.Decimal `json:"monto_apertura" validate:"min=0"`
}

// DenominacionRequest is one bill/coin line of the physical count.
type DenominacionRequest struct {
	Denominacion decimal.Decimal `json:"denominacion" validate:"required"`
	Cantidad     int             `json:"cantidad"     validate:"min=0"`
}

// ConteoRequest is the counted total per payment method. Only these
// aggregates feed the reconciliation math; denominations are kept for
// the cashier-facing breakdown.
type ConteoRequest struct {
	Efectivo      decimal.Decimal `json:"efectivo"      validate:"min=0"`
	Tarjeta       decimal.Decimal `json:"tarjeta"       validate:"min=0"`
	Transferencia decimal.Decimal `json:"transferencia" validate:"min=0"`
}

// CuadrePrevioRequest runs the reconciliation math without closing the
// session, so the cashier can recount before committing.
type CuadrePrevioRequest struct {
	Conteo         ConteoRequest         `json:"conteo"         validate:"required"`
	Denominaciones []DenominacionRequest `json:"denominaciones" validate:"dive"`
}

type CerrarCajaRequest struct {
	SesionCajaID   string                `json:"sesion_caja_id" validate:"required,uuid"`
	Conteo         ConteoRequest         `json:"conteo"         validate:"required"`
	Denominaciones []DenominacionRequest `json:"denominaciones" validate:"dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CuadreDetalleResponse struct {
	Metodo     string          `json:"metodo"`
	Esperado   decimal.Decimal `json:"esperado"`
	Contado    decimal.Decimal `json:"contado"`
	Diferencia decimal.Decimal `json:"diferencia"`
	Cuadrado   bool            `json:"cuadrado"`
}

type CuadreResponse struct {
	SesionCajaID     string                  `json:"sesion_caja_id"`
	EfectivoEsperado decimal.Decimal         `json:"efectivo_esperado"`
	EfectivoContado  decimal.Decimal         `json:"efectivo_contado"`
	DiferenciaTotal  decimal.Decimal         `json:"diferencia_total"`
	Cuadrado         bool                    `json:"cuadrado"`
	Detalles         []CuadreDetalleResponse `json:"detalles"`
}

type SesionCajaResponse struct {
	ID            string          `json:"id"`
	CajeroID      string          `json:"cajero_id"`
	MontoApertura decimal.Decimal `json:"monto_apertura"`
	Estado        string          `json:"estado"`
	AbiertaEn     string          `json:"abierta_en"`
	CerradaEn     *string         `json:"cerrada_en"`
	Cuadre        *CuadreResponse `json:"cuadre"`
}

type SesionCajaListResponse struct {
	Data  []SesionCajaResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
