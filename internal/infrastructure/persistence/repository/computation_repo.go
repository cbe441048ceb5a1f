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

// ComputationRepository implements port.ComputationRepository
type ComputationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewComputationRepository creates a new computation repository
func NewComputationRepository(db *sql.DB, logger *zap.Logger) port.ComputationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComputationRepository{db: db, logger: logger}
}

// Save records a computation run and sets its ID
func (r *ComputationRepository) Save(ctx context.Context, c *entity.TaxComputation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tax_computations (
			filing_status, total_income, taxable_income, standard_deduction, tax_owed,
			self_employment_tax, credits_applied, federal_withheld, refund_or_due,
			wages, nec_income, interest_income, form_generated, artifact_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res := c.Result
	var artifact sql.NullString
	if c.ArtifactName != "" {
		artifact = sql.NullString{String: c.ArtifactName, Valid: true}
	}

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		string(c.FilingStatus),
		res.TotalIncome,
		res.TaxableIncome,
		res.StandardDeduction,
		res.TaxOwed,
		res.SelfEmploymentTax,
		res.CreditsApplied,
		res.FederalWithheld,
		res.RefundOrDue,
		res.Breakdown.Wages,
		res.Breakdown.NECIncome,
		res.Breakdown.InterestIncome,
		res.FormGenerated,
		artifact,
		c.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save computation", zap.Error(err))
		return fmt.Errorf("failed to save computation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// GetLatest returns the most recent computation or nil, nil when none exist
func (r *ComputationRepository) GetLatest(ctx context.Context) (*entity.TaxComputation, error) {
	query := `
		SELECT id, filing_status, total_income, taxable_income, standard_deduction, tax_owed,
			self_employment_tax, credits_applied, federal_withheld, refund_or_due,
			wages, nec_income, interest_income, form_generated, artifact_name, created_at
		FROM tax_computations
		ORDER BY id DESC
		LIMIT 1
	`

	var c entity.TaxComputation
	var status string
	var artifact sql.NullString
	res := &c.Result
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&c.ID,
		&status,
		&res.TotalIncome,
		&res.TaxableIncome,
		&res.StandardDeduction,
		&res.TaxOwed,
		&res.SelfEmploymentTax,
		&res.CreditsApplied,
		&res.FederalWithheld,
		&res.RefundOrDue,
		&res.Breakdown.Wages,
		&res.Breakdown.NECIncome,
		&res.Breakdown.InterestIncome,
		&res.FormGenerated,
		&artifact,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest computation", zap.Error(err))
		return nil, fmt.Errorf("failed to get latest computation: %w", err)
	}
	c.FilingStatus = entity.FilingStatus(status)
	c.ArtifactName = artifact.String
	return &c, nil
}

// DeleteAll removes the computation history
func (r *ComputationRepository) DeleteAll(ctx context.Context) error {
	if _, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, "DELETE FROM tax_computations"); err != nil {
		r.logger.Error("Failed to delete computations", zap.Error(err))
		return fmt.Errorf("failed to delete computations: %w", err)
	}
	return nil
}
