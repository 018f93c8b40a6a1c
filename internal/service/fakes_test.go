package service_test

import (
	"context"
	"sync"
	"time"

	"fiscalpos/internal/model"
	"fiscalpos/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func decimalFrom(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// ── In-memory store shared by the repo fakes ─────────────────────────────────
//
// Transaction takes the store mutex for the whole callback and restores a
// snapshot on error, mirroring the commit/rollback semantics the services
// rely on. The *Tx / For* methods never lock — they only run inside a
// Transaction that already holds the mutex.

type fakeStore struct {
	mu       sync.Mutex
	cais     map[uuid.UUID]*model.CAI
	sesiones map[uuid.UUID]*model.SesionCaja
	facturas []model.Factura
	cuadres  map[uuid.UUID]*model.Cuadre // by sesion_caja_id

	// conflictosRestantes makes the next N transactions fail with a
	// serialization error (SQLSTATE 40001) before running the callback.
	conflictosRestantes int
	// fallaCrearFactura makes CreateTx fail once, after the correlative
	// was already advanced — the rollback path.
	fallaCrearFactura bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cais:     make(map[uuid.UUID]*model.CAI),
		sesiones: make(map[uuid.UUID]*model.SesionCaja),
		cuadres:  make(map[uuid.UUID]*model.Cuadre),
	}
}

type storeSnap struct {
	cais     map[uuid.UUID]model.CAI
	sesiones map[uuid.UUID]model.SesionCaja
	facturas []model.Factura
	cuadres  map[uuid.UUID]model.Cuadre
}

func (st *fakeStore) snapshot() storeSnap {
	snap := storeSnap{
		cais:     make(map[uuid.UUID]model.CAI, len(st.cais)),
		sesiones: make(map[uuid.UUID]model.SesionCaja, len(st.sesiones)),
		facturas: append([]model.Factura(nil), st.facturas...),
		cuadres:  make(map[uuid.UUID]model.Cuadre, len(st.cuadres)),
	}
	for id, c := range st.cais {
		snap.cais[id] = *c
	}
	for id, s := range st.sesiones {
		snap.sesiones[id] = *s
	}
	for id, c := range st.cuadres {
		snap.cuadres[id] = *c
	}
	return snap
}

func (st *fakeStore) restore(snap storeSnap) {
	st.cais = make(map[uuid.UUID]*model.CAI, len(snap.cais))
	for id := range snap.cais {
		c := snap.cais[id]
		st.cais[id] = &c
	}
	st.sesiones = make(map[uuid.UUID]*model.SesionCaja, len(snap.sesiones))
	for id := range snap.sesiones {
		s := snap.sesiones[id]
		st.sesiones[id] = &s
	}
	st.facturas = snap.facturas
	st.cuadres = make(map[uuid.UUID]*model.Cuadre, len(snap.cuadres))
	for id := range snap.cuadres {
		c := snap.cuadres[id]
		st.cuadres[id] = &c
	}
}

func (st *fakeStore) runTx(fn func(tx *gorm.DB) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.conflictosRestantes > 0 {
		st.conflictosRestantes--
		return &pgconn.PgError{Code: "40001"}
	}
	snap := st.snapshot()
	if err := fn(nil); err != nil {
		st.restore(snap)
		return err
	}
	return nil
}

// ── CAIRepository fake ───────────────────────────────────────────────────────

type fakeCAIRepo struct{ st *fakeStore }

func (r *fakeCAIRepo) Create(_ context.Context, c *model.CAI) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.cais {
		if existing.Codigo == c.Codigo {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	copia := *c
	r.st.cais[c.ID] = &copia
	return nil
}

func (r *fakeCAIRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CAI, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.cais[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *c
	return &copia, nil
}

func (r *fakeCAIRepo) FindActivo(_ context.Context) (*model.CAI, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.activo()
}

func (r *fakeCAIRepo) activo() (*model.CAI, error) {
	for _, c := range r.st.cais {
		if c.Activo {
			copia := *c
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCAIRepo) List(_ context.Context) ([]model.CAI, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]model.CAI, 0, len(r.st.cais))
	for _, c := range r.st.cais {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCAIRepo) Update(_ context.Context, c *model.CAI) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	copia := *c
	r.st.cais[c.ID] = &copia
	return nil
}

func (r *fakeCAIRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, f := range r.st.facturas {
		if f.CAIID == id {
			return &pgconn.PgError{Code: "23503"}
		}
	}
	delete(r.st.cais, id)
	return nil
}

func (r *fakeCAIRepo) Activar(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	target, ok := r.st.cais[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, c := range r.st.cais {
		c.Activo = false
	}
	target.Activo = true
	return nil
}

func (r *fakeCAIRepo) FindActivoForUpdate(_ context.Context, _ *gorm.DB) (*model.CAI, error) {
	return r.activo()
}

func (r *fakeCAIRepo) FindByIDForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.CAI, error) {
	c, ok := r.st.cais[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *c
	return &copia, nil
}

func (r *fakeCAIRepo) UpdateCorrelativoTx(_ context.Context, _ *gorm.DB, id uuid.UUID, correlativo int64) error {
	c, ok := r.st.cais[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.CorrelativoActual = correlativo
	return nil
}

var _ repository.CAIRepository = (*fakeCAIRepo)(nil)

// ── FacturaRepository fake ───────────────────────────────────────────────────

type fakeFacturaRepo struct{ st *fakeStore }

func (r *fakeFacturaRepo) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.st.runTx(fn)
}

func (r *fakeFacturaRepo) CreateTx(_ context.Context, _ *gorm.DB, f *model.Factura) error {
	if r.st.fallaCrearFactura {
		r.st.fallaCrearFactura = false
		return &pgconn.PgError{Code: "53300"} // too_many_connections, any non-conflict failure
	}
	if !f.EsCopia {
		for _, existing := range r.st.facturas {
			if !existing.EsCopia && existing.Numero == f.Numero {
				return &pgconn.PgError{Code: "23505"}
			}
		}
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.st.facturas = append(r.st.facturas, *f)
	return nil
}

func (r *fakeFacturaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Factura, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for i := range r.st.facturas {
		if r.st.facturas[i].ID == id {
			copia := r.st.facturas[i]
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFacturaRepo) ListBySesion(_ context.Context, sesionID uuid.UUID) ([]model.Factura, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.listBySesion(sesionID), nil
}

func (r *fakeFacturaRepo) ListBySesionTx(_ context.Context, _ *gorm.DB, sesionID uuid.UUID) ([]model.Factura, error) {
	return r.listBySesion(sesionID), nil
}

func (r *fakeFacturaRepo) listBySesion(sesionID uuid.UUID) []model.Factura {
	var out []model.Factura
	for _, f := range r.st.facturas {
		if f.SesionCajaID == sesionID {
			out = append(out, f)
		}
	}
	return out
}

func (r *fakeFacturaRepo) CountByCAI(_ context.Context, caiID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for _, f := range r.st.facturas {
		if f.CAIID == caiID {
			n++
		}
	}
	return n, nil
}

var _ repository.FacturaRepository = (*fakeFacturaRepo)(nil)

// ── CajaRepository fake ──────────────────────────────────────────────────────

type fakeCajaRepo struct{ st *fakeStore }

func (r *fakeCajaRepo) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.st.runTx(fn)
}

func (r *fakeCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.sesiones {
		if existing.CajeroID == s.CajeroID && existing.Estado == "abierta" {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	copia := *s
	r.st.sesiones[s.ID] = &copia
	return nil
}

func (r *fakeCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *s
	if c, ok := r.st.cuadres[id]; ok {
		cc := *c
		copia.Cuadre = &cc
	}
	return &copia, nil
}

func (r *fakeCajaRepo) FindSesionAbiertaPorCajero(_ context.Context, cajeroID uuid.UUID) (*model.SesionCaja, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range r.st.sesiones {
		if s.CajeroID == cajeroID && s.Estado == "abierta" {
			copia := *s
			return &copia, nil
		}
	}
	return nil, nil
}

func (r *fakeCajaRepo) FindSesionForShareTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := r.st.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *s
	return &copia, nil
}

func (r *fakeCajaRepo) FindSesionForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	return r.FindSesionForShareTx(ctx, tx, id)
}

func (r *fakeCajaRepo) UpdateSesionTx(_ context.Context, _ *gorm.DB, s *model.SesionCaja) error {
	copia := *s
	r.st.sesiones[s.ID] = &copia
	return nil
}

func (r *fakeCajaRepo) CreateCuadreTx(_ context.Context, _ *gorm.DB, c *model.Cuadre) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	copia := *c
	r.st.cuadres[c.SesionCajaID] = &copia
	return nil
}

func (r *fakeCajaRepo) ListSesiones(_ context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	all := make([]model.SesionCaja, 0, len(r.st.sesiones))
	for _, s := range r.st.sesiones {
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.CajaRepository = (*fakeCajaRepo)(nil)

// ── Seed helpers ─────────────────────────────────────────────────────────────

func seedCAI(st *fakeStore, inicio, fin, correlativo int64, fechaLimite time.Time, activo bool) *model.CAI {
	c := &model.CAI{
		ID:                uuid.New(),
		Codigo:            "254F8-612021-906A1-" + uuid.NewString()[:8],
		Establecimiento:   "001",
		PuntoEmision:      "002",
		TipoDocumento:     "01",
		RangoInicio:       inicio,
		RangoFin:          fin,
		CorrelativoActual: correlativo,
		FechaLimite:       fechaLimite,
		Activo:            activo,
		CreatedAt:         time.Now(),
	}
	st.cais[c.ID] = c
	return c
}

func seedSesionAbierta(st *fakeStore, apertura float64) *model.SesionCaja {
	s := &model.SesionCaja{
		ID:            uuid.New(),
		CajeroID:      uuid.New(),
		MontoApertura: decimalFrom(apertura),
		Estado:        "abierta",
		AbiertaEn:     time.Now(),
	}
	st.sesiones[s.ID] = s
	return s
}
