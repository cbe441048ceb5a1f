package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// fakeBackend is an in-memory registry keyed by file name; func fields override methods
type fakeBackend struct {
	mu       sync.Mutex
	records  []entity.UploadedFileRecord
	info     *entity.PersonalInfo
	artifact []byte
	calls    map[string]int

	commitFunc  func(ctx context.Context, info entity.PersonalInfo) error
	uploadFunc  func(ctx context.Context, files []entity.DocumentRef) ([]entity.UploadOutcome, error)
	listFunc    func(ctx context.Context) ([]entity.UploadedFileRecord, error)
	computeFunc func(ctx context.Context) (*entity.TaxResult, error)
	clearFunc   func(ctx context.Context) error
	fetchFunc   func(ctx context.Context, path string) ([]byte, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) record(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
}

func (b *fakeBackend) CommitPersonalInfo(ctx context.Context, info entity.PersonalInfo) error {
	b.record("commit")
	if b.commitFunc != nil {
		return b.commitFunc(ctx, info)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info = &info
	return nil
}

func (b *fakeBackend) UploadDocuments(ctx context.Context, files []entity.DocumentRef) ([]entity.UploadOutcome, error) {
	b.record("upload")
	if b.uploadFunc != nil {
		return b.uploadFunc(ctx, files)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.UploadOutcome, 0, len(files))
	for _, f := range files {
		if b.hasLocked(f.DisplayName) {
			out = append(out, entity.Skipped(f.DisplayName, entity.SkipReasonAlreadyUploaded))
			continue
		}
		b.records = append(b.records, entity.UploadedFileRecord{
			Name:            f.DisplayName,
			SizeBytes:       int64(len(f.Payload)),
			UploadTimestamp: time.Now().UTC(),
			Status:          entity.DocumentStatusProcessed,
		})
		out = append(out, entity.Processed(f.DisplayName, "stored-"+f.DisplayName))
	}
	return out, nil
}

func (b *fakeBackend) hasLocked(name string) bool {
	for _, r := range b.records {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (b *fakeBackend) ListUploadedFiles(ctx context.Context) ([]entity.UploadedFileRecord, error) {
	b.record("list")
	if b.listFunc != nil {
		return b.listFunc(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entity.UploadedFileRecord(nil), b.records...), nil
}

func (b *fakeBackend) ComputeTax(ctx context.Context) (*entity.TaxResult, error) {
	b.record("compute")
	if b.computeFunc != nil {
		return b.computeFunc(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) == 0 {
		return nil, &PreconditionError{Op: "compute tax", Err: ErrEmptyRegistry}
	}
	wages := 50000.0 * float64(len(b.records))
	b.artifact = []byte("form for " + b.records[0].Name)
	return &entity.TaxResult{
		TotalIncome:     wages,
		TaxOwed:         4016,
		FederalWithheld: 5000,
		RefundOrDue:     984,
		FormGenerated:   true,
		Breakdown:       entity.IncomeBreakdown{Wages: wages},
	}, nil
}

func (b *fakeBackend) ClearAll(ctx context.Context) error {
	b.record("clear")
	if b.clearFunc != nil {
		return b.clearFunc(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
	b.info = nil
	b.artifact = nil
	return nil
}

func (b *fakeBackend) FetchArtifact(ctx context.Context, path string) ([]byte, error) {
	b.record("fetch")
	if b.fetchFunc != nil {
		return b.fetchFunc(ctx, path)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.artifact == nil || path != entity.ArtifactPath {
		return nil, &NotFoundError{Resource: path}
	}
	return append([]byte(nil), b.artifact...), nil
}
