package infra

import (
	"fmt"

	"fiscalpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs
// AutoMigrate, then applies the idempotent SQL patches GORM cannot
// express: the partial unique indexes that back the core's invariants
// and the FK that blocks deleting a CAI with issued facturas.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Shared with integration
// tests so they run against the exact production constraints.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.CAI{},
		&model.SesionCaja{},
		&model.Cuadre{},
		&model.CuadreDetalle{},
		&model.CuadreDenominacion{},
		&model.Factura{},
		&model.FacturaPago{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL for constraints AutoMigrate
// cannot express. These indexes are not an optimization — they are the
// data-layer half of the core's invariants, the part that survives
// concurrent requests racing past the application checks.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one active CAI, enforced even against concurrent
		// activations from two admin terminals.
		{"uq_cais_activo",
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_cais_activo
			     ON cais (activo) WHERE activo`},

		// One open session per cashier.
		{"uq_sesiones_caja_cajero_abierta",
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_sesiones_caja_cajero_abierta
			     ON sesiones_caja (cajero_id) WHERE estado = 'abierta'`},

		// Original invoice numbers are globally unique for the lifetime
		// of the system; reprint copies share the original's número.
		{"uq_facturas_numero",
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_facturas_numero
			     ON facturas (numero) WHERE NOT es_copia`},

		// One original per correlative within an authorization.
		{"uq_facturas_cai_correlativo",
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_facturas_cai_correlativo
			     ON facturas (cai_id, correlativo) WHERE NOT es_copia`},

		// RESTRICT delete: a CAI with issued facturas cannot be removed.
		{"fk_facturas_cai", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_facturas_cai') THEN
    ALTER TABLE facturas
      ADD CONSTRAINT fk_facturas_cai
      FOREIGN KEY (cai_id) REFERENCES cais(id) ON DELETE RESTRICT;
  END IF;
END $$`},

		// Range sanity at the storage layer.
		{"chk_cais_rango", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cais_rango') THEN
    ALTER TABLE cais
      ADD CONSTRAINT chk_cais_rango
      CHECK (rango_inicio <= rango_fin
             AND correlativo_actual >= rango_inicio - 1
             AND correlativo_actual <= rango_fin);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}
