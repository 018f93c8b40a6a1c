package service

import (
	"context"
	"errors"

	"fiscalpos/internal/dto"
	"fiscalpos/internal/model"
	"fiscalpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Payment methods recognized by the reconciliation math, in report order.
var metodosPago = []string{model.MetodoEfectivo, model.MetodoTarjeta, model.MetodoTransferencia}

// toleranciaCuadre absorbs floating rounding slack on counted totals.
// A method is "cuadrado" when |diferencia| < 0.01, not when it is zero.
var toleranciaCuadre = decimal.NewFromFloat(0.01)

// CuadreService is the reconciliation engine: it reads the facturas of a
// session, aggregates payments per method, and compares them against the
// cashier's count. It never writes — computing a cuadre twice with the
// same inputs yields the same result, which is what makes the dry-run
// preview before closing safe.
type CuadreService interface {
	Reconciliar(ctx context.Context, sesionID uuid.UUID, conteo dto.ConteoRequest, denominaciones []dto.DenominacionRequest) (*dto.CuadreResponse, error)
}

type cuadreService struct {
	cajaRepo    repository.CajaRepository
	facturaRepo repository.FacturaRepository
}

func NewCuadreService(cajaRepo repository.CajaRepository, facturaRepo repository.FacturaRepository) CuadreService {
	return &cuadreService{cajaRepo: cajaRepo, facturaRepo: facturaRepo}
}

func (s *cuadreService) Reconciliar(ctx context.Context, sesionID uuid.UUID, conteo dto.ConteoRequest, denominaciones []dto.DenominacionRequest) (*dto.CuadreResponse, error) {
	sesion, err := s.cajaRepo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, errors.New("sesión de caja no encontrada")
	}
	facturas, err := s.facturaRepo.ListBySesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	return cuadreToResponse(CalcularCuadre(sesion, facturas, conteo, denominaciones)), nil
}

// CalcularCuadre is the pure reconciliation core.
//
//	esperado[efectivo]      = apertura + Σ pagos en efectivo − Σ vuelto
//	esperado[otros métodos] = Σ pagos del método
//	diferencia[m]           = contado[m] − esperado[m]
//
// Reprint copies never move money — they are excluded from the sums.
func CalcularCuadre(sesion *model.SesionCaja, facturas []model.Factura, conteo dto.ConteoRequest, denominaciones []dto.DenominacionRequest) *model.Cuadre {
	esperado := map[string]decimal.Decimal{}
	for _, m := range metodosPago {
		esperado[m] = decimal.Zero
	}

	vueltoTotal := decimal.Zero
	for _, f := range facturas {
		if f.EsCopia {
			continue
		}
		for _, p := range f.Pagos {
			esperado[p.Metodo] = esperado[p.Metodo].Add(p.Monto)
			if p.Metodo == model.MetodoEfectivo {
				vueltoTotal = vueltoTotal.Add(p.Vuelto)
			}
		}
	}
	esperado[model.MetodoEfectivo] = sesion.MontoApertura.
		Add(esperado[model.MetodoEfectivo]).
		Sub(vueltoTotal)

	contado := map[string]decimal.Decimal{
		model.MetodoEfectivo:      conteo.Efectivo,
		model.MetodoTarjeta:       conteo.Tarjeta,
		model.MetodoTransferencia: conteo.Transferencia,
	}

	cuadre := &model.Cuadre{
		SesionCajaID:     sesion.ID,
		EfectivoEsperado: esperado[model.MetodoEfectivo],
		EfectivoContado:  conteo.Efectivo,
		Cuadrado:         true,
	}

	diferenciaTotal := decimal.Zero
	for _, m := range metodosPago {
		dif := contado[m].Sub(esperado[m])
		cuadrado := dif.Abs().LessThan(toleranciaCuadre)
		if !cuadrado {
			cuadre.Cuadrado = false
		}
		diferenciaTotal = diferenciaTotal.Add(dif)
		cuadre.Detalles = append(cuadre.Detalles, model.CuadreDetalle{
			Metodo:     m,
			Esperado:   esperado[m],
			Contado:    contado[m],
			Diferencia: dif,
			Cuadrado:   cuadrado,
		})
	}
	cuadre.DiferenciaTotal = diferenciaTotal

	// The denomination breakdown is audit data; only the aggregated
	// conteo feeds the math. A mismatch is reported, never rejected.
	sumaDenominaciones := decimal.Zero
	for _, d := range denominaciones {
		sumaDenominaciones = sumaDenominaciones.Add(d.Denominacion.Mul(decimal.NewFromInt(int64(d.Cantidad))))
		cuadre.Denominaciones = append(cuadre.Denominaciones, model.CuadreDenominacion{
			Denominacion: d.Denominacion,
			Cantidad:     d.Cantidad,
		})
	}
	if len(denominaciones) > 0 && !sumaDenominaciones.Sub(conteo.Efectivo).Abs().LessThan(toleranciaCuadre) {
		log.Warn().
			Str("sesion_caja_id", sesion.ID.String()).
			Str("suma_denominaciones", sumaDenominaciones.String()).
			Str("efectivo_declarado", conteo.Efectivo.String()).
			Msg("el desglose de denominaciones no coincide con el efectivo declarado")
	}

	return cuadre
}
