package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/pkg/utils"
)

// MetricsRecorder receives upload and computation events
type MetricsRecorder interface {
	RecordOutcome(ctx context.Context, outcome entity.UploadOutcome)
	RecordComputation(ctx context.Context, status entity.FilingStatus, formGenerated bool, duration time.Duration)
}

// RegistryConfig controls which uploads the registry accepts
type RegistryConfig struct {
	Layout            Layout
	AllowedExtensions []string
	MaxFileSize       int64
}

// RegistryService is the idempotent document registry. Submitting a document
// whose name or content is already registered yields Skipped without extraction.
type RegistryService interface {
	Submit(ctx context.Context, file entity.DocumentRef) entity.UploadOutcome
	UploadBatch(ctx context.Context, files []entity.DocumentRef) []entity.UploadOutcome
	List(ctx context.Context) ([]entity.UploadedFileRecord, error)
	ClearAll(ctx context.Context) error
}

type registryServiceImpl struct {
	docRepo   port.DocumentRepository
	infoRepo  port.PersonalInfoRepository
	compRepo  port.ComputationRepository
	txManager port.TransactionManager
	storage   port.FileStorage
	extractor port.DocumentExtractor
	metrics   MetricsRecorder
	cfg       RegistryConfig
	logger    Logger
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(
	docRepo port.DocumentRepository,
	infoRepo port.PersonalInfoRepository,
	compRepo port.ComputationRepository,
	txManager port.TransactionManager,
	storage port.FileStorage,
	extractor port.DocumentExtractor,
	metrics MetricsRecorder,
	cfg RegistryConfig,
	logger Logger,
) RegistryService {
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".pdf"}
	}
	if cfg.Layout == (Layout{}) {
		cfg.Layout = DefaultLayout()
	}
	return &registryServiceImpl{
		docRepo:   docRepo,
		infoRepo:  infoRepo,
		compRepo:  compRepo,
		txManager: txManager,
		storage:   storage,
		extractor: extractor,
		metrics:   metrics,
		cfg:       cfg,
		logger:    orNop(logger),
	}
}

// Fingerprint identifies document content
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Submit registers one document and reports what happened to it
func (s *registryServiceImpl) Submit(ctx context.Context, file entity.DocumentRef) entity.UploadOutcome {
	outcome := s.submit(ctx, file)
	if s.metrics != nil {
		s.metrics.RecordOutcome(ctx, outcome)
	}
	s.logger.Info("Document submitted", "name", outcome.Name, "outcome", outcome.Kind.String())
	return outcome
}

func (s *registryServiceImpl) submit(ctx context.Context, file entity.DocumentRef) entity.UploadOutcome {
	name := utils.SanitizeFilename(file.DisplayName)
	if name == "" {
		return entity.Errored(file.DisplayName, "No selected files")
	}
	if !utils.HasExtension(name, s.cfg.AllowedExtensions...) {
		return entity.Errored(name, fmt.Sprintf("Invalid file type for %s", file.DisplayName))
	}
	if len(file.Payload) == 0 {
		return entity.Errored(name, fmt.Sprintf("Error processing %s: empty file", name))
	}
	if s.cfg.MaxFileSize > 0 && int64(len(file.Payload)) > s.cfg.MaxFileSize {
		return entity.Errored(name, fmt.Sprintf("Error processing %s: file exceeds %d bytes", name, s.cfg.MaxFileSize))
	}

	fingerprint := Fingerprint(file.Payload)
	existing, err := s.lookup(ctx, name, fingerprint)
	if err != nil {
		s.logger.Error("Registry lookup failed", "name", name, "error", err)
		return entity.Errored(name, fmt.Sprintf("Error processing %s: registry unavailable", name))
	}
	if existing != nil {
		return entity.Skipped(name, entity.SkipReasonAlreadyUploaded)
	}

	storedName := uuid.NewString() + strings.ToLower(path.Ext(name))
	storedPath := s.cfg.Layout.UploadPath(storedName)
	if err := s.storage.Save(ctx, storedPath, file.Payload); err != nil {
		s.logger.Error("Failed to store upload", "name", name, "error", err)
		return entity.Errored(name, fmt.Sprintf("Error processing %s: could not store file", name))
	}

	extracted, err := s.extractor.Extract(ctx, name, file.Payload)
	if err != nil {
		s.discard(ctx, storedPath)
		s.logger.Warn("Extraction failed", "name", name, "error", err)
		return entity.Errored(name, fmt.Sprintf("Error processing %s: %v", name, err))
	}

	doc := &entity.Document{
		OriginalName: name,
		StoredName:   storedName,
		Fingerprint:  fingerprint,
		Kind:         extracted.Kind,
		SizeBytes:    int64(len(file.Payload)),
		Status:       entity.DocumentStatusProcessed,
		Fields:       extracted.Fields,
		UploadedAt:   time.Now().UTC(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// a concurrent submit may have registered the same document meanwhile
		dup, err := s.lookup(txCtx, name, fingerprint)
		if err != nil {
			return err
		}
		if dup != nil {
			return errAlreadyRegistered
		}
		return s.docRepo.Create(txCtx, doc)
	})
	switch {
	case err == nil:
		return entity.Processed(name, storedName)
	case errors.Is(err, errAlreadyRegistered), errors.Is(err, port.ErrDuplicateDocument):
		s.discard(ctx, storedPath)
		return entity.Skipped(name, entity.SkipReasonAlreadyUploaded)
	default:
		s.discard(ctx, storedPath)
		s.logger.Error("Failed to register document", "name", name, "error", err)
		return entity.Errored(name, fmt.Sprintf("Error processing %s: could not save record", name))
	}
}

// lookup finds a record sharing the name or the content of the document
func (s *registryServiceImpl) lookup(ctx context.Context, name, fingerprint string) (*entity.Document, error) {
	doc, err := s.docRepo.GetByFingerprint(ctx, fingerprint)
	if err != nil || doc != nil {
		return doc, err
	}
	return s.docRepo.GetByOriginalName(ctx, name)
}

func (s *registryServiceImpl) discard(ctx context.Context, storedPath string) {
	if err := s.storage.Delete(ctx, storedPath); err != nil {
		s.logger.Warn("Failed to remove stored upload", "path", storedPath, "error", err)
	}
}

// UploadBatch submits files sequentially and returns one outcome per file in order
func (s *registryServiceImpl) UploadBatch(ctx context.Context, files []entity.DocumentRef) []entity.UploadOutcome {
	outcomes := make([]entity.UploadOutcome, 0, len(files))
	for _, f := range files {
		outcomes = append(outcomes, s.Submit(ctx, f))
	}
	return outcomes
}

// List returns the registry records in upload order
func (s *registryServiceImpl) List(ctx context.Context) ([]entity.UploadedFileRecord, error) {
	docs, err := s.docRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]entity.UploadedFileRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.Record())
	}
	return records, nil
}

// ClearAll removes every record, the personal info, computation history, stored uploads and the artifact
func (s *registryServiceImpl) ClearAll(ctx context.Context) error {
	var deleted int64
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.docRepo.DeleteAll(txCtx)
		if err != nil {
			return err
		}
		deleted = n
		if err := s.infoRepo.Delete(txCtx); err != nil {
			return err
		}
		return s.compRepo.DeleteAll(txCtx)
	})
	if err != nil {
		s.logger.Error("Failed to clear registry", "error", err)
		return fmt.Errorf("failed to clear registry: %w", err)
	}

	fileErr := errors.Join(
		s.storage.DeleteDir(ctx, s.cfg.Layout.UploadDir),
		s.storage.Delete(ctx, s.cfg.Layout.ArtifactPath()),
	)
	if fileErr != nil {
		s.logger.Error("Failed to remove stored files", "error", fileErr)
		return fmt.Errorf("failed to remove stored files: %w", fileErr)
	}

	s.logger.Info("Registry cleared", "documents", deleted)
	return nil
}
