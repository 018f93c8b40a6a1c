package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCAIRequest struct {
	Codigo          string `json:"codigo"           validate:"required,min=8"`
	Establecimiento string `json:"establecimiento"  validate:"required,len=3,numeric"`
	PuntoEmision    string `json:"punto_emision"    validate:"required,len=3,numeric"`
	TipoDocumento   string `json:"tipo_documento"   validate:"required,len=2,numeric"`
	RangoInicio     int64  `json:"rango_inicio"     validate:"required,min=1"`
	RangoFin        int64  `json:"rango_fin"        validate:"required,min=1"`
	// CorrelativoSemilla seeds the counter; nil means rango_inicio-1
	// (nothing issued yet). Must stay within [rango_inicio-1, rango_fin].
	CorrelativoSemilla *int64 `json:"correlativo_semilla"`
	FechaLimite        string `json:"fecha_limite" validate:"required,datetime=2006-01-02"`
}

type ActualizarCAIRequest struct {
	Codigo      *string `json:"codigo"       validate:"omitempty,min=8"`
	FechaLimite *string `json:"fecha_limite" validate:"omitempty,datetime=2006-01-02"`
	// CorrelativoSemilla is only honored while the CAI has zero facturas.
	CorrelativoSemilla *int64 `json:"correlativo_semilla"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CAIResponse struct {
	ID                string `json:"id"`
	Codigo            string `json:"codigo"`
	Establecimiento   string `json:"establecimiento"`
	PuntoEmision      string `json:"punto_emision"`
	TipoDocumento     string `json:"tipo_documento"`
	RangoInicio       int64  `json:"rango_inicio"`
	RangoFin          int64  `json:"rango_fin"`
	CorrelativoActual int64  `json:"correlativo_actual"`
	Restante          int64  `json:"restante"`
	// AlertaRangoBajo flags the advisory low-stock warning (≤ threshold).
	AlertaRangoBajo bool   `json:"alerta_rango_bajo"`
	FechaLimite     string `json:"fecha_limite"`
	Activo          bool   `json:"activo"`
	CreatedAt       string `json:"created_at"`
}

type RestanteResponse struct {
	CAIID           string `json:"cai_id"`
	Restante        int64  `json:"restante"`
	AlertaRangoBajo bool   `json:"alerta_rango_bajo"`
}
