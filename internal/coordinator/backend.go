package coordinator

import (
	"context"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// Backend is the set of collaborator contracts the coordinator drives.
// Implementations classify failures with the error types of this package.
type Backend interface {
	// CommitPersonalInfo replaces the stored personal info
	CommitPersonalInfo(ctx context.Context, info entity.PersonalInfo) error

	// UploadDocuments submits a batch in one request and returns one outcome per file
	UploadDocuments(ctx context.Context, files []entity.DocumentRef) ([]entity.UploadOutcome, error)

	// ListUploadedFiles returns the registry's authoritative listing
	ListUploadedFiles(ctx context.Context) ([]entity.UploadedFileRecord, error)

	// ComputeTax computes over the current registry contents
	ComputeTax(ctx context.Context) (*entity.TaxResult, error)

	// ClearAll clears the registry and any generated artifact
	ClearAll(ctx context.Context) error

	// FetchArtifact downloads the artifact at a well-known path
	FetchArtifact(ctx context.Context, path string) ([]byte, error)
}

// Logger is the structured key/value logger used by the coordinator
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
