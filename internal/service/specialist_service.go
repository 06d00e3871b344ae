package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const maxSpecialistList = 100

// SpecialistService manages the specialist roster.
type SpecialistService struct {
	specialists repository.SpecialistRepository
	logger      *zap.Logger
}

// NewSpecialistService creates the service.
func NewSpecialistService(specialists repository.SpecialistRepository, logger *zap.Logger) *SpecialistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecialistService{specialists: specialists, logger: logger}
}

// Seed inserts every seed whose name is not stored yet and returns how many
// were inserted. Running it again is a no-op.
func (s *SpecialistService) Seed(ctx context.Context, seeds []domain.SpecialistSeed) (int, error) {
	inserted := 0
	for _, seed := range seeds {
		_, err := s.specialists.GetByName(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return inserted, apperrors.NewStoreUnavailable(err)
		}

		specialist := &domain.Specialist{
			ID:     uuid.NewString(),
			Name:   seed.Name,
			Role:   seed.Role,
			Active: true,
		}
		if err := s.specialists.Create(ctx, specialist); err != nil {
			// another instance seeded the same name first
			if errors.Is(err, repository.ErrDuplicateName) {
				continue
			}
			return inserted, apperrors.NewStoreUnavailable(err)
		}
		inserted++
	}

	s.logger.Info("specialists seeded", zap.Int("inserted", inserted), zap.Int("seed_size", len(seeds)))
	return inserted, nil
}

// ListActive returns active specialists.
func (s *SpecialistService) ListActive(ctx context.Context) ([]domain.Specialist, error) {
	specialists, err := s.specialists.ListActive(ctx, maxSpecialistList)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return specialists, nil
}
