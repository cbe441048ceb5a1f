package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// ComputationService computes the tax result over the current registry and
// publishes the form artifact under its well-known name
type ComputationService interface {
	Compute(ctx context.Context) (*entity.TaxResult, error)
	Artifact(ctx context.Context) ([]byte, error)
}

type computationServiceImpl struct {
	docRepo    port.DocumentRepository
	infoRepo   port.PersonalInfoRepository
	compRepo   port.ComputationRepository
	calculator port.TaxCalculator
	renderer   port.FormRenderer
	storage    port.FileStorage
	metrics    MetricsRecorder
	layout     Layout
	logger     Logger
}

// NewComputationService creates a new ComputationService
func NewComputationService(
	docRepo port.DocumentRepository,
	infoRepo port.PersonalInfoRepository,
	compRepo port.ComputationRepository,
	calculator port.TaxCalculator,
	renderer port.FormRenderer,
	storage port.FileStorage,
	metrics MetricsRecorder,
	layout Layout,
	logger Logger,
) ComputationService {
	if layout == (Layout{}) {
		layout = DefaultLayout()
	}
	return &computationServiceImpl{
		docRepo:    docRepo,
		infoRepo:   infoRepo,
		compRepo:   compRepo,
		calculator: calculator,
		renderer:   renderer,
		storage:    storage,
		metrics:    metrics,
		layout:     layout,
		logger:     orNop(logger),
	}
}

// Aggregate sums the extracted fields of processed documents
func Aggregate(docs []*entity.Document) entity.IncomeSummary {
	var s entity.IncomeSummary
	for _, d := range docs {
		if d.Status != entity.DocumentStatusProcessed {
			continue
		}
		s.Breakdown.Wages += d.Fields.Wages
		s.Breakdown.NECIncome += d.Fields.NECIncome
		s.Breakdown.InterestIncome += d.Fields.InterestIncome
		s.FederalWithheld += d.Fields.FederalWithheld
		s.DocumentCount++
	}
	return s
}

// Compute returns ErrNoDocuments for an empty registry. A render or save failure
// of the form is not fatal: the result is returned with FormGenerated false.
func (s *computationServiceImpl) Compute(ctx context.Context) (*entity.TaxResult, error) {
	start := time.Now()

	docs, err := s.docRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	summary := Aggregate(docs)
	if summary.DocumentCount == 0 {
		return nil, ErrNoDocuments
	}

	info, err := s.infoRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil {
		d := entity.DefaultPersonalInfo()
		info = &d
		s.logger.Warn("No personal info committed, computing as single filer")
	}

	result, err := s.calculator.Calculate(*info, summary)
	if err != nil {
		s.logger.Error("Tax calculation failed", "error", err)
		return nil, err
	}

	result.FormGenerated = s.publishForm(ctx, *info, result)

	record := &entity.TaxComputation{FilingStatus: info.FilingStatus, Result: *result}
	if result.FormGenerated {
		record.ArtifactName = entity.ArtifactName
	}
	if err := s.compRepo.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to record computation", "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordComputation(ctx, info.FilingStatus, result.FormGenerated, time.Since(start))
	}
	s.logger.Info("Tax computed",
		"documents", summary.DocumentCount,
		"total_income", result.TotalIncome,
		"tax_owed", result.TaxOwed,
		"refund_or_due", result.RefundOrDue,
		"form_generated", result.FormGenerated)
	return result, nil
}

// publishForm renders and stores the artifact; any stale artifact is removed on failure
func (s *computationServiceImpl) publishForm(ctx context.Context, info entity.PersonalInfo, result *entity.TaxResult) bool {
	data, err := s.renderer.Render(ctx, info, result)
	if err == nil {
		err = s.storage.Save(ctx, s.layout.ArtifactPath(), data)
	}
	if err == nil {
		return true
	}

	s.logger.Error("Failed to generate form", "error", err)
	if delErr := s.storage.Delete(ctx, s.layout.ArtifactPath()); delErr != nil {
		s.logger.Warn("Failed to remove stale form", "error", delErr)
	}
	return false
}

// Artifact returns the generated form or ErrArtifactNotFound
func (s *computationServiceImpl) Artifact(ctx context.Context) ([]byte, error) {
	p := s.layout.ArtifactPath()
	if !s.storage.Exists(ctx, p) {
		return nil, ErrArtifactNotFound
	}
	data, err := s.storage.Read(ctx, p)
	if err != nil {
		// removed between Exists and Read by a concurrent clear
		if !s.storage.Exists(ctx, p) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}
