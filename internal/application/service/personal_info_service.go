package service

import (
	"context"
	"fmt"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// PersonalInfoService stores the filer attributes used by computations
type PersonalInfoService interface {
	Commit(ctx context.Context, info entity.PersonalInfo) error
	Get(ctx context.Context) (*entity.PersonalInfo, error)
}

type personalInfoServiceImpl struct {
	repo   port.PersonalInfoRepository
	logger Logger
}

// NewPersonalInfoService creates a new PersonalInfoService
func NewPersonalInfoService(repo port.PersonalInfoRepository, logger Logger) PersonalInfoService {
	return &personalInfoServiceImpl{repo: repo, logger: orNop(logger)}
}

// Commit validates and replaces the stored personal info
func (s *personalInfoServiceImpl) Commit(ctx context.Context, info entity.PersonalInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPersonalInfo, err)
	}
	if err := s.repo.Save(ctx, &info); err != nil {
		s.logger.Error("Failed to commit personal info", "error", err)
		return err
	}
	s.logger.Info("Personal info committed",
		"filing_status", info.FilingStatus.String(),
		"dependent_children", info.DependentChildren,
		"other_dependents", info.OtherDependents)
	return nil
}

// Get returns the committed personal info or ErrPersonalInfoNotFound
func (s *personalInfoServiceImpl) Get(ctx context.Context) (*entity.PersonalInfo, error) {
	info, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrPersonalInfoNotFound
	}
	return info, nil
}
