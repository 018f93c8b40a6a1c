package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fiscalpos/internal/dto"
	"fiscalpos/internal/model"
	"fiscalpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CAIService interface {
	Crear(ctx context.Context, req dto.CrearCAIRequest) (*dto.CAIResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCAIRequest) (*dto.CAIResponse, error)
	Activar(ctx context.Context, id uuid.UUID) (*dto.CAIResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	ObtenerActivo(ctx context.Context) (*dto.CAIResponse, error)
	Listar(ctx context.Context) ([]dto.CAIResponse, error)
	Restante(ctx context.Context, id uuid.UUID) (*dto.RestanteResponse, error)
}

type caiService struct {
	repo        repository.CAIRepository
	facturaRepo repository.FacturaRepository
	// umbralAlerta: remaining numbers at or below which the advisory
	// low-range warning fires. Advisory only — never a correctness gate.
	umbralAlerta int64
}

func NewCAIService(repo repository.CAIRepository, facturaRepo repository.FacturaRepository, umbralAlerta int64) CAIService {
	return &caiService{repo: repo, facturaRepo: facturaRepo, umbralAlerta: umbralAlerta}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// Field widths (3/3/2 digits) are enforced by the DTO validation tags;
// range ordering and the correlative seed window are checked here.

func (s *caiService) Crear(ctx context.Context, req dto.CrearCAIRequest) (*dto.CAIResponse, error) {
	if req.RangoInicio > req.RangoFin {
		return nil, fmt.Errorf("rango inválido: inicio %d > fin %d", req.RangoInicio, req.RangoFin)
	}

	fechaLimite, err := time.Parse("2006-01-02", req.FechaLimite)
	if err != nil {
		return nil, fmt.Errorf("fecha_limite inválida: %w", err)
	}

	correlativo := req.RangoInicio - 1
	if req.CorrelativoSemilla != nil {
		correlativo = *req.CorrelativoSemilla
		if correlativo < req.RangoInicio-1 || correlativo > req.RangoFin {
			return nil, fmt.Errorf("correlativo_semilla %d fuera de la ventana [%d, %d]",
				correlativo, req.RangoInicio-1, req.RangoFin)
		}
	}

	cai := &model.CAI{
		Codigo:            req.Codigo,
		Establecimiento:   req.Establecimiento,
		PuntoEmision:      req.PuntoEmision,
		TipoDocumento:     req.TipoDocumento,
		RangoInicio:       req.RangoInicio,
		RangoFin:          req.RangoFin,
		CorrelativoActual: correlativo,
		FechaLimite:       fechaLimite,
	}
	if err := s.repo.Create(ctx, cai); err != nil {
		if repository.EsViolacionUnicidad(err) {
			return nil, fmt.Errorf("ya existe un CAI con el código %s", req.Codigo)
		}
		return nil, err
	}
	return s.caiToResponse(cai), nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// The correlative seed is editable only while the CAI has zero facturas;
// afterwards the allocator owns the counter exclusively.

func (s *caiService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCAIRequest) (*dto.CAIResponse, error) {
	cai, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("CAI no encontrado")
	}

	if req.CorrelativoSemilla != nil {
		emitidas, err := s.facturaRepo.CountByCAI(ctx, id)
		if err != nil {
			return nil, err
		}
		if emitidas > 0 {
			return nil, ErrCorrelativoInmutable
		}
		semilla := *req.CorrelativoSemilla
		if semilla < cai.RangoInicio-1 || semilla > cai.RangoFin {
			return nil, fmt.Errorf("correlativo_semilla %d fuera de la ventana [%d, %d]",
				semilla, cai.RangoInicio-1, cai.RangoFin)
		}
		cai.CorrelativoActual = semilla
	}
	if req.Codigo != nil {
		cai.Codigo = *req.Codigo
	}
	if req.FechaLimite != nil {
		fecha, err := time.Parse("2006-01-02", *req.FechaLimite)
		if err != nil {
			return nil, fmt.Errorf("fecha_limite inválida: %w", err)
		}
		cai.FechaLimite = fecha
	}

	if err := s.repo.Update(ctx, cai); err != nil {
		return nil, err
	}
	return s.caiToResponse(cai), nil
}

// ── Activar ───────────────────────────────────────────────────────────────────

func (s *caiService) Activar(ctx context.Context, id uuid.UUID) (*dto.CAIResponse, error) {
	if err := s.repo.Activar(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("CAI no encontrado")
		}
		return nil, err
	}
	cai, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.caiToResponse(cai), nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

func (s *caiService) Eliminar(ctx context.Context, id uuid.UUID) error {
	emitidas, err := s.facturaRepo.CountByCAI(ctx, id)
	if err != nil {
		return err
	}
	if emitidas > 0 {
		return ErrCAIEnUso
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		// Race: a factura slipped in between the count and the delete.
		if repository.EsViolacionClaveForanea(err) {
			return ErrCAIEnUso
		}
		return err
	}
	return nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *caiService) ObtenerActivo(ctx context.Context) (*dto.CAIResponse, error) {
	cai, err := s.repo.FindActivo(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSinCAIActivo
		}
		return nil, err
	}
	return s.caiToResponse(cai), nil
}

func (s *caiService) Listar(ctx context.Context) ([]dto.CAIResponse, error) {
	cais, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CAIResponse, 0, len(cais))
	for i := range cais {
		resp = append(resp, *s.caiToResponse(&cais[i]))
	}
	return resp, nil
}

func (s *caiService) Restante(ctx context.Context, id uuid.UUID) (*dto.RestanteResponse, error) {
	cai, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("CAI no encontrado")
	}
	return &dto.RestanteResponse{
		CAIID:           cai.ID.String(),
		Restante:        cai.Restante(),
		AlertaRangoBajo: cai.Restante() <= s.umbralAlerta,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *caiService) caiToResponse(c *model.CAI) *dto.CAIResponse {
	return &dto.CAIResponse{
		ID:                c.ID.String(),
		Codigo:            c.Codigo,
		Establecimiento:   c.Establecimiento,
		PuntoEmision:      c.PuntoEmision,
		TipoDocumento:     c.TipoDocumento,
		RangoInicio:       c.RangoInicio,
		RangoFin:          c.RangoFin,
		CorrelativoActual: c.CorrelativoActual,
		Restante:          c.Restante(),
		AlertaRangoBajo:   c.Restante() <= s.umbralAlerta,
		FechaLimite:       c.FechaLimite.Format("2006-01-02"),
		Activo:            c.Activo,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
	}
}
