package port

import (
	"context"
	"errors"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// ErrDuplicateDocument is returned by DocumentRepository.Create when the name,
// stored name or fingerprint is already registered
var ErrDuplicateDocument = errors.New("document already registered")

// DocumentRepository defines persistence operations for registry documents
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByFingerprint(ctx context.Context, fingerprint string) (*entity.Document, error)
	GetByOriginalName(ctx context.Context, name string) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// PersonalInfoRepository stores the single personal info row.
// Get returns nil, nil when nothing has been committed.
type PersonalInfoRepository interface {
	Save(ctx context.Context, info *entity.PersonalInfo) error
	Get(ctx context.Context) (*entity.PersonalInfo, error)
	Delete(ctx context.Context) error
}

// ComputationRepository keeps the history of tax computations
type ComputationRepository interface {
	Save(ctx context.Context, c *entity.TaxComputation) error
	GetLatest(ctx context.Context) (*entity.TaxComputation, error)
	DeleteAll(ctx context.Context) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
