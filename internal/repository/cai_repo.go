package repository

import (
	"context"

	"fiscalpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CAIRepository interface {
	Create(ctx context.Context, c *model.CAI) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CAI, error)
	FindActivo(ctx context.Context) (*model.CAI, error)
	List(ctx context.Context) ([]model.CAI, error)
	Update(ctx context.Context, c *model.CAI) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Activar deactivates the current authorization and activates the
	// target in one transaction — there is never a window with zero or
	// two active rows.
	Activar(ctx context.Context, id uuid.UUID) error

	// FindActivoForUpdate locks the active CAI row (SELECT … FOR UPDATE)
	// inside tx. The lock must be held across the whole read-check-write
	// cycle of the allocator.
	FindActivoForUpdate(ctx context.Context, tx *gorm.DB) (*model.CAI, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CAI, error)
	UpdateCorrelativoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, correlativo int64) error
}

type caiRepo struct{ db *gorm.DB }

func NewCAIRepository(db *gorm.DB) CAIRepository { return &caiRepo{db: db} }

func (r *caiRepo) Create(ctx context.Context, c *model.CAI) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *caiRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CAI, error) {
	var c model.CAI
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *caiRepo) FindActivo(ctx context.Context) (*model.CAI, error) {
	var c model.CAI
	err := r.db.WithContext(ctx).Where("activo = true").First(&c).Error
	return &c, err
}

func (r *caiRepo) List(ctx context.Context) ([]model.CAI, error) {
	var cais []model.CAI
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&cais).Error
	return cais, err
}

func (r *caiRepo) Update(ctx context.Context, c *model.CAI) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *caiRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CAI{}, "id = ?", id).Error
}

func (r *caiRepo) Activar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CAI{}).
			Where("activo = true AND id <> ?", id).
			Update("activo", false).Error; err != nil {
			return err
		}
		res := tx.Model(&model.CAI{}).Where("id = ?", id).Update("activo", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *caiRepo) FindActivoForUpdate(ctx context.Context, tx *gorm.DB) (*model.CAI, error) {
	var c model.CAI
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("activo = true").
		First(&c).Error
	return &c, err
}

func (r *caiRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CAI, error) {
	var c model.CAI
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	return &c, err
}

func (r *caiRepo) UpdateCorrelativoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, correlativo int64) error {
	return tx.WithContext(ctx).Model(&model.CAI{}).
		Where("id = ?", id).
		Update("correlativo_actual", correlativo).Error
}
