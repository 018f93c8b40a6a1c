package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fiscalpos/internal/dto"
	"fiscalpos/internal/model"
	"fiscalpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFacturacionFixture(st *fakeStore) service.FacturacionService {
	caiRepo := &fakeCAIRepo{st: st}
	return service.NewFacturacionService(
		&fakeFacturaRepo{st: st},
		&fakeCajaRepo{st: st},
		service.NewSecuenciaService(caiRepo),
		nil, // sin dispatcher: las alertas son fire-and-forget
		25,
	)
}

func emitirReq(sesionID uuid.UUID, total float64, pagos ...dto.PagoRequest) dto.EmitirFacturaRequest {
	return dto.EmitirFacturaRequest{
		OrdenID:      uuid.NewString(),
		SesionCajaID: sesionID.String(),
		Totales: dto.TotalesRequest{
			Subtotal: decimalFrom(total),
			Total:    decimalFrom(total),
		},
		Pagos: pagos,
	}
}

func pagoEfectivo(monto, vuelto float64) dto.PagoRequest {
	return dto.PagoRequest{Metodo: model.MetodoEfectivo, Monto: decimalFrom(monto), Vuelto: decimalFrom(vuelto)}
}

func TestFormatearNumero(t *testing.T) {
	cai := &model.CAI{Establecimiento: "001", PuntoEmision: "002", TipoDocumento: "01"}
	assert.Equal(t, "001-002-01-00000042", service.FormatearNumero(cai, 42))
	assert.Equal(t, "001-002-01-00000001", service.FormatearNumero(cai, 1))
	assert.Equal(t, "001-002-01-99999999", service.FormatearNumero(cai, 99999999))
}

func TestEmitirAsignaNumerosConsecutivos(t *testing.T) {
	st := newFakeStore()
	seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	for esperado := int64(1); esperado <= 3; esperado++ {
		resp, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
		require.NoError(t, err)
		assert.Equal(t, esperado, resp.Correlativo)
		assert.Equal(t, service.FormatearNumero(st.cais[uuid.MustParse(resp.CAIID)], esperado), resp.Numero)
	}
}

func TestEmitirSesionCerrada(t *testing.T) {
	st := newFakeStore()
	seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	sesion.Estado = "cerrada"
	svc := newFacturacionFixture(st)

	_, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	assert.ErrorIs(t, err, service.ErrSesionNoAbierta)
	assert.Empty(t, st.facturas)
}

func TestEmitirRangoAgotadoEsTerminal(t *testing.T) {
	st := newFakeStore()
	cai := seedCAI(st, 1, 5, 4, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	// Last number of the range still sells.
	resp, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Correlativo)

	// The next sale is blocked — no silent overflow past rango_fin.
	_, err = svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	assert.ErrorIs(t, err, service.ErrRangoAgotado)
	assert.Len(t, st.facturas, 1)
	assert.Equal(t, int64(5), st.cais[cai.ID].CorrelativoActual)
}

func TestEmitirRollbackSinHueco(t *testing.T) {
	// The insert fails after the correlative was advanced; the rollback
	// must release the number so the next sale reuses it — no gap.
	st := newFakeStore()
	cai := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	st.fallaCrearFactura = true
	_, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.Error(t, err)
	assert.Empty(t, st.facturas)
	assert.Equal(t, int64(0), st.cais[cai.ID].CorrelativoActual)

	resp, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Correlativo)
}

func TestEmitirReintentaConflictos(t *testing.T) {
	st := newFakeStore()
	seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	st.conflictosRestantes = 2
	resp, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Correlativo)
	assert.Equal(t, 0, st.conflictosRestantes)
}

func TestEmitirConcurrenteSinDuplicados(t *testing.T) {
	st := newFakeStore()
	seedCAI(st, 1, 1000, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	const terminales = 20
	var wg sync.WaitGroup
	numeros := make(chan string, terminales)
	for i := 0; i < terminales; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
			if err == nil {
				numeros <- resp.Numero
			}
		}()
	}
	wg.Wait()
	close(numeros)

	vistos := make(map[string]bool)
	for n := range numeros {
		assert.False(t, vistos[n], "número duplicado: %s", n)
		vistos[n] = true
	}
	assert.Len(t, vistos, terminales)
	assert.Len(t, st.facturas, terminales)
}

func TestReimprimirCompartePeroNoAvanza(t *testing.T) {
	st := newFakeStore()
	cai := seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	original, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(150, 50)))
	require.NoError(t, err)

	copia1, err := svc.Reimprimir(context.Background(), uuid.MustParse(original.ID))
	require.NoError(t, err)
	copia2, err := svc.Reimprimir(context.Background(), uuid.MustParse(original.ID))
	require.NoError(t, err)

	// Three records, one legal number, counter untouched.
	assert.Equal(t, original.Numero, copia1.Numero)
	assert.Equal(t, original.Numero, copia2.Numero)
	assert.True(t, copia1.EsCopia)
	assert.True(t, copia2.EsCopia)
	assert.False(t, original.EsCopia)
	assert.Len(t, st.facturas, 3)
	assert.Equal(t, int64(1), st.cais[cai.ID].CorrelativoActual)

	// Payments ride along so the copy prints complete.
	require.Len(t, copia1.Pagos, 1)
	assert.Equal(t, decimalFrom(150).String(), copia1.Pagos[0].Monto.String())
}

func TestEmitirSinCAIActivo(t *testing.T) {
	st := newFakeStore()
	sesion := seedSesionAbierta(st, 500)
	svc := newFacturacionFixture(st)

	_, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	assert.ErrorIs(t, err, service.ErrSinCAIActivo)
}

func TestListarPorSesion(t *testing.T) {
	st := newFakeStore()
	seedCAI(st, 1, 100, 0, time.Now().AddDate(0, 6, 0), true)
	sesion := seedSesionAbierta(st, 500)
	otra := seedSesionAbierta(st, 200)
	svc := newFacturacionFixture(st)

	_, err := svc.Emitir(context.Background(), emitirReq(sesion.ID, 100, pagoEfectivo(100, 0)))
	require.NoError(t, err)
	_, err = svc.Emitir(context.Background(), emitirReq(otra.ID, 80, pagoEfectivo(80, 0)))
	require.NoError(t, err)

	facturas, err := svc.ListarPorSesion(context.Background(), sesion.ID)
	require.NoError(t, err)
	assert.Len(t, facturas, 1)
	assert.Equal(t, decimal.NewFromInt(100).String(), facturas[0].Total.String())
}
