package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/persistence/sqlite"
)

// PersonalInfoRepository implements port.PersonalInfoRepository on a single row
type PersonalInfoRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPersonalInfoRepository creates a new personal info repository
func NewPersonalInfoRepository(db *sql.DB, logger *zap.Logger) port.PersonalInfoRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonalInfoRepository{db: db, logger: logger}
}

// Save replaces the stored personal info
func (r *PersonalInfoRepository) Save(ctx context.Context, info *entity.PersonalInfo) error {
	info.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO personal_info (id, filing_status, dependent_children, other_dependents, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filing_status = excluded.filing_status,
			dependent_children = excluded.dependent_children,
			other_dependents = excluded.other_dependents,
			updated_at = excluded.updated_at
	`
	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		string(info.FilingStatus),
		info.DependentChildren,
		info.OtherDependents,
		info.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save personal info", zap.Error(err))
		return fmt.Errorf("failed to save personal info: %w", err)
	}
	return nil
}

// Get returns nil, nil when nothing has been saved
func (r *PersonalInfoRepository) Get(ctx context.Context) (*entity.PersonalInfo, error) {
	query := `
		SELECT filing_status, dependent_children, other_dependents, updated_at
		FROM personal_info WHERE id = 1
	`

	var info entity.PersonalInfo
	var status string
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&status,
		&info.DependentChildren,
		&info.OtherDependents,
		&info.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get personal info", zap.Error(err))
		return nil, fmt.Errorf("failed to get personal info: %w", err)
	}
	info.FilingStatus = entity.FilingStatus(status)
	return &info, nil
}

// Delete removes the stored personal info
func (r *PersonalInfoRepository) Delete(ctx context.Context) error {
	if _, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, "DELETE FROM personal_info"); err != nil {
		r.logger.Error("Failed to delete personal info", zap.Error(err))
		return fmt.Errorf("failed to delete personal info: %w", err)
	}
	return nil
}
