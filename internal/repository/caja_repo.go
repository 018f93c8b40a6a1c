package repository

import (
	"context"
	"errors"

	"fiscalpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	CreateSesion(ctx context.Context, s *model.SesionCaja) error
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	// FindSesionAbiertaPorCajero returns (nil, nil) when the cashier has
	// no open session.
	FindSesionAbiertaPorCajero(ctx context.Context, cajeroID uuid.UUID) (*model.SesionCaja, error)
	// FindSesionForShareTx takes a shared lock on the session row so a
	// concurrent close blocks until the issuing transaction commits.
	FindSesionForShareTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	// FindSesionForUpdateTx takes the exclusive lock the close path uses.
	FindSesionForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	UpdateSesionTx(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	CreateCuadreTx(ctx context.Context, tx *gorm.DB, c *model.Cuadre) error
	ListSesiones(ctx context.Context, page, limit int) ([]model.SesionCaja, int64, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *cajaRepo) CreateSesion(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Preload("Cuadre.Detalles").
		Preload("Cuadre.Denominaciones").
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) FindSesionAbiertaPorCajero(ctx context.Context, cajeroID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("cajero_id = ? AND estado = 'abierta'", cajeroID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionForShareTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) FindSesionForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) UpdateSesionTx(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return tx.WithContext(ctx).Save(s).Error
}

func (r *cajaRepo) CreateCuadreTx(ctx context.Context, tx *gorm.DB, c *model.Cuadre) error {
	return tx.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) ListSesiones(ctx context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	var sesiones []model.SesionCaja
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.SesionCaja{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Cuadre.Detalles").
		Order("abierta_en DESC").
		Offset(offset).Limit(limit).
		Find(&sesiones).Error
	return sesiones, total, err
}
