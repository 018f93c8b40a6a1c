package service

import (
	"context"
	"errors"
	"time"

	"fiscalpos/internal/model"
	"fiscalpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecuenciaService reserves correlative numbers from a CAI range. Both
// methods MUST run inside a caller-owned transaction: they take an
// exclusive row lock on the CAI and hold it across the read-check-write
// cycle, so two terminals can never read the same counter value. The
// increment only becomes an issued number when the caller's transaction
// commits — a rollback releases it with no gap.
type SecuenciaService interface {
	// AllocateActivo locks the active CAI and reserves its next number.
	AllocateActivo(ctx context.Context, tx *gorm.DB) (*model.CAI, int64, error)
	// Allocate reserves the next number of a specific authorization.
	Allocate(ctx context.Context, tx *gorm.DB, caiID uuid.UUID) (int64, error)
}

type secuenciaService struct {
	repo repository.CAIRepository
	now  func() time.Time
}

func NewSecuenciaService(repo repository.CAIRepository) SecuenciaService {
	return &secuenciaService{repo: repo, now: time.Now}
}

func (s *secuenciaService) AllocateActivo(ctx context.Context, tx *gorm.DB) (*model.CAI, int64, error) {
	cai, err := s.repo.FindActivoForUpdate(ctx, tx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSinCAIActivo
		}
		return nil, 0, err
	}
	correlativo, err := s.reservar(ctx, tx, cai)
	if err != nil {
		return nil, 0, err
	}
	return cai, correlativo, nil
}

func (s *secuenciaService) Allocate(ctx context.Context, tx *gorm.DB, caiID uuid.UUID) (int64, error) {
	cai, err := s.repo.FindByIDForUpdate(ctx, tx, caiID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrSinCAIActivo
		}
		return 0, err
	}
	if !cai.Activo {
		return 0, ErrCAINoActivo
	}
	return s.reservar(ctx, tx, cai)
}

// reservar performs the check-then-increment under the row lock already
// held by the caller. Order matters: an expired CAI reports vencido even
// when the range also ran out.
func (s *secuenciaService) reservar(ctx context.Context, tx *gorm.DB, cai *model.CAI) (int64, error) {
	if cai.Vencido(s.now()) {
		return 0, ErrCAIVencido
	}
	siguiente := cai.CorrelativoActual + 1
	if siguiente > cai.RangoFin {
		return 0, ErrRangoAgotado
	}
	if err := s.repo.UpdateCorrelativoTx(ctx, tx, cai.ID, siguiente); err != nil {
		return 0, err
	}
	cai.CorrelativoActual = siguiente
	return siguiente, nil
}
