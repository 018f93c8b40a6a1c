package service

import "errors"

// Typed domain failures. Handlers map these to HTTP statuses via errors.Is;
// none of them is ever silently defaulted — a sale without a valid fiscal
// number is a hard stop, not a warning.
var (
	// ErrSinCAIActivo: no numbering authorization is currently active.
	ErrSinCAIActivo = errors.New("no hay un CAI activo")
	// ErrCAIVencido: the active authorization passed its limit date.
	// Terminal — an operator must activate a new CAI.
	ErrCAIVencido = errors.New("el CAI activo está vencido")
	// ErrRangoAgotado: the authorized range has no numbers left.
	// Terminal — an operator must activate a new CAI.
	ErrRangoAgotado = errors.New("el rango autorizado del CAI está agotado")
	// ErrCAINoActivo: the targeted authorization exists but is not the
	// active one; allocation only runs against the active CAI.
	ErrCAINoActivo = errors.New("el CAI no está activo")
	// ErrCAIEnUso guards deletion of authorizations with issued facturas.
	ErrCAIEnUso = errors.New("el CAI tiene facturas emitidas y no puede eliminarse")
	// ErrCorrelativoInmutable guards admin edits of the counter once
	// facturas exist against the authorization.
	ErrCorrelativoInmutable = errors.New("el correlativo no puede editarse: el CAI ya tiene facturas emitidas")

	ErrSesionNoAbierta = errors.New("la sesión de caja no está abierta")
	ErrSesionYaAbierta = errors.New("el cajero ya tiene una sesión de caja abierta")

	// ErrConflictoTransaccion marks a serialization/deadlock failure.
	// The whole allocate-and-issue operation is safe to retry because no
	// number counts as issued until its transaction commits.
	ErrConflictoTransaccion = errors.New("conflicto de transacción, reintente la operación")
)
