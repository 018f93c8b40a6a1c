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

type CajaService interface {
	Abrir(ctx context.Context, cajeroID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.SesionCajaResponse, error)
	Obtener(ctx context.Context, sesionID uuid.UUID) (*dto.SesionCajaResponse, error)
	// ObtenerActiva returns (nil, nil) when the cashier has no open session.
	ObtenerActiva(ctx context.Context, cajeroID uuid.UUID) (*dto.SesionCajaResponse, error)
	Historial(ctx context.Context, page, limit int) (*dto.SesionCajaListResponse, error)
}

type cajaService struct {
	repo        repository.CajaRepository
	facturaRepo repository.FacturaRepository
	now         func() time.Time
}

func NewCajaService(repo repository.CajaRepository, facturaRepo repository.FacturaRepository) CajaService {
	return &cajaService{repo: repo, facturaRepo: facturaRepo, now: time.Now}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// One open session per cashier. The application check catches the common
// case; the partial unique index uq_sesiones_caja_cajero_abierta settles
// concurrent opens that race past it.

func (s *cajaService) Abrir(ctx context.Context, cajeroID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if req.MontoApertura.IsNegative() {
		return nil, errors.New("el monto de apertura no puede ser negativo")
	}
	existente, err := s.repo.FindSesionAbiertaPorCajero(ctx, cajeroID)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, ErrSesionYaAbierta
	}

	sesion := &model.SesionCaja{
		CajeroID:      cajeroID,
		MontoApertura: req.MontoApertura,
		Estado:        "abierta",
		AbiertaEn:     s.now(),
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		if repository.EsViolacionUnicidad(err) {
			return nil, ErrSesionYaAbierta
		}
		return nil, err
	}
	return sesionToResponse(sesion), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Single transaction: exclusive lock on the session row (concurrent
// emissions hold a shared lock until commit, so by the time we own the
// lock every factura of the session is visible), compute the cuadre,
// freeze it, stamp cerrada_en. A closed session is never reopened —
// corrections happen through compensating entries in a new session.

func (s *cajaService) Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.SesionCajaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}

	var sesion *model.SesionCaja
	txErr := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		sesion, err = s.repo.FindSesionForUpdateTx(ctx, tx, sesionID)
		if err != nil {
			return errors.New("sesión de caja no encontrada")
		}
		if sesion.Estado != "abierta" {
			return ErrSesionNoAbierta
		}

		facturas, err := s.facturaRepo.ListBySesionTx(ctx, tx, sesionID)
		if err != nil {
			return err
		}
		cuadre := CalcularCuadre(sesion, facturas, req.Conteo, req.Denominaciones)
		if err := s.repo.CreateCuadreTx(ctx, tx, cuadre); err != nil {
			return err
		}

		cierre := s.now()
		montoCierre := req.Conteo.Efectivo
		sesion.Estado = "cerrada"
		sesion.CerradaEn = &cierre
		sesion.MontoCierre = &montoCierre
		sesion.Cuadre = cuadre
		return s.repo.UpdateSesionTx(ctx, tx, sesion)
	})
	if txErr != nil {
		return nil, txErr
	}
	return sesionToResponse(sesion), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) Obtener(ctx context.Context, sesionID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, errors.New("sesión de caja no encontrada")
	}
	return sesionToResponse(sesion), nil
}

func (s *cajaService) ObtenerActiva(ctx context.Context, cajeroID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaPorCajero(ctx, cajeroID)
	if err != nil {
		return nil, err
	}
	if sesion == nil {
		return nil, nil
	}
	return sesionToResponse(sesion), nil
}

func (s *cajaService) Historial(ctx context.Context, page, limit int) (*dto.SesionCajaListResponse, error) {
	sesiones, total, err := s.repo.ListSesiones(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		items = append(items, *sesionToResponse(&sesiones[i]))
	}
	return &dto.SesionCajaListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func sesionToResponse(s *model.SesionCaja) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:            s.ID.String(),
		CajeroID:      s.CajeroID.String(),
		MontoApertura: s.MontoApertura,
		Estado:        s.Estado,
		AbiertaEn:     s.AbiertaEn.Format(time.RFC3339),
	}
	if s.CerradaEn != nil {
		t := s.CerradaEn.Format(time.RFC3339)
		resp.CerradaEn = &t
	}
	if s.Cuadre != nil {
		resp.Cuadre = cuadreToResponse(s.Cuadre)
	}
	return resp
}

func cuadreToResponse(c *model.Cuadre) *dto.CuadreResponse {
	resp := &dto.CuadreResponse{
		SesionCajaID:     c.SesionCajaID.String(),
		EfectivoEsperado: c.EfectivoEsperado,
		EfectivoContado:  c.EfectivoContado,
		DiferenciaTotal:  c.DiferenciaTotal,
		Cuadrado:         c.Cuadrado,
	}
	for _, d := range c.Detalles {
		resp.Detalles = append(resp.Detalles, dto.CuadreDetalleResponse{
			Metodo:     d.Metodo,
			Esperado:   d.Esperado,
			Contado:    d.Contado,
			Diferencia: d.Diferencia,
			Cuadrado:   d.Cuadrado,
		})
	}
	return resp
}
