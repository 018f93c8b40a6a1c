package repository

import (
	"context"

	"fiscalpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FacturaRepository interface {
	// Transaction runs fn inside a single database transaction. The
	// issuer's session check, number allocation, and invoice insert all
	// ride the same tx — splitting them reintroduces the numbering race.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	CreateTx(ctx context.Context, tx *gorm.DB, f *model.Factura) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error)
	ListBySesion(ctx context.Context, sesionID uuid.UUID) ([]model.Factura, error)
	ListBySesionTx(ctx context.Context, tx *gorm.DB, sesionID uuid.UUID) ([]model.Factura, error)
	CountByCAI(ctx context.Context, caiID uuid.UUID) (int64, error)
}

type facturaRepo struct{ db *gorm.DB }

func NewFacturaRepository(db *gorm.DB) FacturaRepository { return &facturaRepo{db: db} }

func (r *facturaRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *facturaRepo) CreateTx(ctx context.Context, tx *gorm.DB, f *model.Factura) error {
	return tx.WithContext(ctx).Create(f).Error
}

func (r *facturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := r.db.WithContext(ctx).Preload("Pagos").First(&f, "id = ?", id).Error
	return &f, err
}

func (r *facturaRepo) ListBySesion(ctx context.Context, sesionID uuid.UUID) ([]model.Factura, error) {
	var facturas []model.Factura
	err := r.db.WithContext(ctx).Preload("Pagos").
		Where("sesion_caja_id = ?", sesionID).
		Order("emitida_en ASC").
		Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) ListBySesionTx(ctx context.Context, tx *gorm.DB, sesionID uuid.UUID) ([]model.Factura, error) {
	var facturas []model.Factura
	err := tx.WithContext(ctx).Preload("Pagos").
		Where("sesion_caja_id = ?", sesionID).
		Order("emitida_en ASC").
		Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) CountByCAI(ctx context.Context, caiID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Factura{}).
		Where("cai_id = ?", caiID).
		Count(&count).Error
	return count, err
}
