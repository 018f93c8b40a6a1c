package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fiscalpos/internal/dto"
	"fiscalpos/internal/model"
	"fiscalpos/internal/repository"
	"fiscalpos/internal/worker"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxReintentosEmision bounds the retries on transaction conflicts.
// Terminal failures (rango agotado, CAI vencido, sesión cerrada) are
// never retried — retrying cannot fix them.
const maxReintentosEmision = 3

type FacturacionService interface {
	Emitir(ctx context.Context, req dto.EmitirFacturaRequest) (*dto.FacturaResponse, error)
	// Reimprimir records a copy that reuses the stored número; it never
	// touches the allocator.
	Reimprimir(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	ListarPorSesion(ctx context.Context, sesionID uuid.UUID) ([]dto.FacturaResponse, error)
}

type facturacionService struct {
	repo         repository.FacturaRepository
	cajaRepo     repository.CajaRepository
	secuencia    SecuenciaService
	dispatcher   *worker.Dispatcher
	umbralAlerta int64
	now          func() time.Time
}

func NewFacturacionService(
	repo repository.FacturaRepository,
	cajaRepo repository.CajaRepository,
	secuencia SecuenciaService,
	dispatcher *worker.Dispatcher,
	umbralAlerta int64,
) FacturacionService {
	return &facturacionService{
		repo:         repo,
		cajaRepo:     cajaRepo,
		secuencia:    secuencia,
		dispatcher:   dispatcher,
		umbralAlerta: umbralAlerta,
		now:          time.Now,
	}
}

// FormatearNumero renders the legal invoice identifier
// EEE-PPP-TT-CCCCCCCC. The prefix fields are stored at fixed width; the
// correlative is zero-padded to 8 digits. Format is bit-exact — fiscal
// compliance depends on it.
func FormatearNumero(c *model.CAI, correlativo int64) string {
	return fmt.Sprintf("%s-%s-%s-%08d", c.Establecimiento, c.PuntoEmision, c.TipoDocumento, correlativo)
}

// ── Emitir ────────────────────────────────────────────────────────────────────
// One transaction per attempt: session re-check (shared lock), number
// allocation (exclusive lock on the CAI row), factura insert. Any failure
// rolls the whole attempt back, correlative increment included — no other
// caller ever observed the rolled-back value, so the sequence stays
// gapless. Only transaction conflicts are retried, from scratch, with
// exponential backoff.

func (s *facturacionService) Emitir(ctx context.Context, req dto.EmitirFacturaRequest) (*dto.FacturaResponse, error) {
	ordenID, err := uuid.Parse(req.OrdenID)
	if err != nil {
		return nil, fmt.Errorf("orden_id inválido: %w", err)
	}
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}

	var factura *model.Factura
	var cai *model.CAI
	operacion := func() error {
		f, c, err := s.emitirUnaVez(ctx, ordenID, sesionID, req)
		if err != nil {
			if errors.Is(err, ErrConflictoTransaccion) {
				return err
			}
			return backoff.Permanent(err)
		}
		factura, cai = f, c
		return nil
	}

	politica := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxReintentosEmision), ctx)
	if err := backoff.Retry(operacion, politica); err != nil {
		return nil, err
	}

	log.Info().
		Str("numero", factura.Numero).
		Str("orden_id", ordenID.String()).
		Str("sesion_caja_id", sesionID.String()).
		Msg("factura emitida")

	s.alertarRangoBajo(ctx, cai)
	return facturaToResponse(factura), nil
}

func (s *facturacionService) emitirUnaVez(ctx context.Context, ordenID, sesionID uuid.UUID, req dto.EmitirFacturaRequest) (*model.Factura, *model.CAI, error) {
	var factura *model.Factura
	var cai *model.CAI
	txErr := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		// Session state is re-checked inside the transaction: the shared
		// lock keeps a concurrent close waiting until this commit, so a
		// factura can never land on a closed session.
		sesion, err := s.cajaRepo.FindSesionForShareTx(ctx, tx, sesionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("sesión de caja no encontrada")
			}
			return err
		}
		if sesion.Estado != "abierta" {
			return ErrSesionNoAbierta
		}

		c, correlativo, err := s.secuencia.AllocateActivo(ctx, tx)
		if err != nil {
			return err
		}
		cai = c

		f := &model.Factura{
			Numero:       FormatearNumero(c, correlativo),
			Correlativo:  correlativo,
			CAIID:        c.ID,
			OrdenID:      ordenID,
			SesionCajaID: sesionID,
			Subtotal:     req.Totales.Subtotal,
			Descuento:    req.Totales.Descuento,
			Impuesto:     req.Totales.Impuesto,
			Total:        req.Totales.Total,
			EmitidaEn:    s.now(),
		}
		for _, p := range req.Pagos {
			f.Pagos = append(f.Pagos, model.FacturaPago{
				Metodo: p.Metodo,
				Monto:  p.Monto,
				Vuelto: p.Vuelto,
			})
		}
		if err := s.repo.CreateTx(ctx, tx, f); err != nil {
			return err
		}
		factura = f
		return nil
	})
	if txErr != nil {
		if repository.EsConflictoSerializacion(txErr) {
			return nil, nil, ErrConflictoTransaccion
		}
		return nil, nil, txErr
	}
	return factura, cai, nil
}

// alertarRangoBajo enqueues the advisory low-range alert after a
// successful emission. Fire and forget — a queue failure never blocks
// the sale.
func (s *facturacionService) alertarRangoBajo(ctx context.Context, cai *model.CAI) {
	if s.dispatcher == nil || cai == nil || cai.Restante() > s.umbralAlerta {
		return
	}
	payload := worker.AlertaCAIPayload{
		CAIID:       cai.ID.String(),
		Codigo:      cai.Codigo,
		Restante:    cai.Restante(),
		FechaLimite: cai.FechaLimite.Format("2006-01-02"),
	}
	if err := s.dispatcher.EnqueueAlertaCAI(ctx, payload); err != nil {
		log.Error().Err(err).Str("cai_id", cai.ID.String()).Msg("no se pudo encolar la alerta de rango bajo")
	}
}

// ── Reimprimir ────────────────────────────────────────────────────────────────

func (s *facturacionService) Reimprimir(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	original, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("factura no encontrada")
	}

	copia := &model.Factura{
		Numero:       original.Numero,
		Correlativo:  original.Correlativo,
		CAIID:        original.CAIID,
		OrdenID:      original.OrdenID,
		SesionCajaID: original.SesionCajaID,
		Subtotal:     original.Subtotal,
		Descuento:    original.Descuento,
		Impuesto:     original.Impuesto,
		Total:        original.Total,
		EsCopia:      true,
		EmitidaEn:    s.now(),
	}
	for _, p := range original.Pagos {
		copia.Pagos = append(copia.Pagos, model.FacturaPago{
			Metodo: p.Metodo,
			Monto:  p.Monto,
			Vuelto: p.Vuelto,
		})
	}

	txErr := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateTx(ctx, tx, copia)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("numero", copia.Numero).Msg("copia de factura registrada")
	return facturaToResponse(copia), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *facturacionService) Obtener(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("factura no encontrada")
	}
	return facturaToResponse(f), nil
}

func (s *facturacionService) ListarPorSesion(ctx context.Context, sesionID uuid.UUID) ([]dto.FacturaResponse, error) {
	facturas, err := s.repo.ListBySesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.FacturaResponse, 0, len(facturas))
	for i := range facturas {
		resp = append(resp, *facturaToResponse(&facturas[i]))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func facturaToResponse(f *model.Factura) *dto.FacturaResponse {
	resp := &dto.FacturaResponse{
		ID:           f.ID.String(),
		Numero:       f.Numero,
		Correlativo:  f.Correlativo,
		CAIID:        f.CAIID.String(),
		OrdenID:      f.OrdenID.String(),
		SesionCajaID: f.SesionCajaID.String(),
		Subtotal:     f.Subtotal,
		Descuento:    f.Descuento,
		Impuesto:     f.Impuesto,
		Total:        f.Total,
		EsCopia:      f.EsCopia,
		EmitidaEn:    f.EmitidaEn.Format(time.RFC3339),
	}
	for _, p := range f.Pagos {
		resp.Pagos = append(resp.Pagos, dto.PagoResponse{
			Metodo: p.Metodo,
			Monto:  p.Monto,
			Vuelto: p.Vuelto,
		})
	}
	return resp
}
