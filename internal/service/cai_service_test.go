package service_test

import (
	"context"
	"testing"
	"time"

	"fiscalpos/internal/dto"
	"fiscalpos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCAIFixture(st *fakeStore) service.CAIService {
	return service.NewCAIService(&fakeCAIRepo{st: st}, &fakeFacturaRepo{st: st}, 25)
}

func crearReq() dto.CrearCAIRequest {
	return dto.CrearCAIRequest{
		Codigo:          "254F8-612021-906A1-" + uuid.NewString()[:8],
		Establecimiento: "001",
		PuntoEmision:    "002",
		TipoDocumento:   "01",
		RangoInicio:     1,
		RangoFin:        5000,
		FechaLimite:     time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
	}
}

func TestCrearCAI(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	resp, err := svc.Crear(context.Background(), crearReq())
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.CorrelativoActual)
	assert.Equal(t, int64(5000), resp.Restante)
	assert.False(t, resp.Activo)
	assert.False(t, resp.AlertaRangoBajo)
}

func TestCrearCAIRangoInvertido(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	req := crearReq()
	req.RangoInicio = 100
	req.RangoFin = 50
	_, err := svc.Crear(context.Background(), req)
	assert.ErrorContains(t, err, "rango inválido")
}

func TestCrearCAICodigoDuplicado(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	req := crearReq()
	_, err := svc.Crear(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Crear(context.Background(), req)
	assert.ErrorContains(t, err, "ya existe un CAI")
}

func TestCrearCAISemillaFueraDeVentana(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	req := crearReq()
	req.RangoInicio = 100
	req.RangoFin = 200
	semilla := int64(250)
	req.CorrelativoSemilla = &semilla
	_, err := svc.Crear(context.Background(), req)
	assert.ErrorContains(t, err, "fuera de la ventana")

	// rango_inicio-1 is the low edge of the window: nothing issued yet.
	semilla = 99
	req.CorrelativoSemilla = &semilla
	resp, err := svc.Crear(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(99), resp.CorrelativoActual)
}

func TestActivarCAIExclusivo(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	a := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	b := seedCAI(st, 101, 200, 100, time.Now().AddDate(1, 0, 0), false)

	resp, err := svc.Activar(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, resp.Activo)

	// Exactly one active row, always.
	assert.False(t, st.cais[a.ID].Activo)
	assert.True(t, st.cais[b.ID].Activo)
}

func TestActivarCAIInexistente(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	_, err := svc.Activar(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "no encontrado")
}

func TestActualizarCorrelativoInmutableConFacturas(t *testing.T) {
	st := newFakeStore()
	cai := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	factSvc := newFacturacionFixture(st)
	svc := newCAIFixture(st)

	_, err := factSvc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.NoError(t, err)

	semilla := int64(50)
	_, err = svc.Actualizar(context.Background(), cai.ID, dto.ActualizarCAIRequest{
		CorrelativoSemilla: &semilla,
	})
	assert.ErrorIs(t, err, service.ErrCorrelativoInmutable)
	assert.Equal(t, int64(1), st.cais[cai.ID].CorrelativoActual)
}

func TestActualizarSemillaSinFacturas(t *testing.T) {
	st := newFakeStore()
	cai := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	svc := newCAIFixture(st)

	semilla := int64(42)
	resp, err := svc.Actualizar(context.Background(), cai.ID, dto.ActualizarCAIRequest{
		CorrelativoSemilla: &semilla,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.CorrelativoActual)
}

func TestEliminarCAIConFacturas(t *testing.T) {
	st := newFakeStore()
	cai := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	factSvc := newFacturacionFixture(st)
	svc := newCAIFixture(st)

	_, err := factSvc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.NoError(t, err)

	err = svc.Eliminar(context.Background(), cai.ID)
	assert.ErrorIs(t, err, service.ErrCAIEnUso)
	assert.Contains(t, st.cais, cai.ID)
}

func TestEliminarCAISinFacturas(t *testing.T) {
	st := newFakeStore()
	cai := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), false)
	svc := newCAIFixture(st)

	require.NoError(t, svc.Eliminar(context.Background(), cai.ID))
	assert.NotContains(t, st.cais, cai.ID)
}

func TestObtenerActivoSinCAI(t *testing.T) {
	st := newFakeStore()
	svc := newCAIFixture(st)

	_, err := svc.ObtenerActivo(context.Background())
	assert.ErrorIs(t, err, service.ErrSinCAIActivo)
}

func TestRestanteConAlerta(t *testing.T) {
	st := newFakeStore()
	// 5000 range with 4990 issued → 10 left, below the threshold of 25.
	cai := seedCAI(st, 1, 5000, 4990, time.Now().AddDate(0, 6, 0), true)
	svc := newCAIFixture(st)

	resp, err := svc.Restante(context.Background(), cai.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.Restante)
	assert.True(t, resp.AlertaRangoBajo)
}
