package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

type registryFixture struct {
	docs      *mockDocRepo
	info      *mockInfoRepo
	comps     *mockCompRepo
	storage   *mockStorage
	extractor *mockExtractor
	metrics   *mockMetrics
	svc       RegistryService
}

func newRegistryFixture(cfg RegistryConfig) *registryFixture {
	f := &registryFixture{
		docs:      &mockDocRepo{},
		info:      &mockInfoRepo{},
		comps:     &mockCompRepo{},
		storage:   newMockStorage(),
		extractor: &mockExtractor{},
		metrics:   &mockMetrics{},
	}
	f.svc = NewRegistryService(f.docs, f.info, f.comps, &mockTxManager{}, f.storage, f.extractor, f.metrics, cfg, &mockLogger{})
	return f
}

func w2(name string) entity.DocumentRef {
	return entity.DocumentRef{DisplayName: name, Payload: []byte("%PDF " + name)}
}

func TestRegistryService_Submit(t *testing.T) {
	tests := []struct {
		name        string
		file        entity.DocumentRef
		wantKind    entity.OutcomeKind
		wantMessage string
	}{
		{
			name:     "pdf is processed",
			file:     w2("w2.pdf"),
			wantKind: entity.OutcomeProcessed,
		},
		{
			name:     "upper case extension",
			file:     w2("W2.PDF"),
			wantKind: entity.OutcomeProcessed,
		},
		{
			name:        "non pdf rejected",
			file:        entity.DocumentRef{DisplayName: "notes.txt", Payload: []byte("x")},
			wantKind:    entity.OutcomeErrored,
			wantMessage: "Invalid file type for notes.txt",
		},
		{
			name:        "empty payload",
			file:        entity.DocumentRef{DisplayName: "empty.pdf"},
			wantKind:    entity.OutcomeErrored,
			wantMessage: "Error processing empty.pdf: empty file",
		},
		{
			name:        "blank name",
			file:        entity.DocumentRef{DisplayName: "  ", Payload: []byte("x")},
			wantKind:    entity.OutcomeErrored,
			wantMessage: "No selected files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistryFixture(RegistryConfig{})

			got := f.svc.Submit(context.Background(), tt.file)

			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, got.Message)
			}
			if tt.wantKind == entity.OutcomeProcessed {
				assert.True(t, strings.HasSuffix(got.StoredName, ".pdf"))
				assert.True(t, f.storage.Exists(context.Background(), "uploads/"+got.StoredName))
				assert.Len(t, f.docs.docs, 1)
			} else {
				assert.Empty(t, f.docs.docs)
				assert.Zero(t, f.storage.count())
			}
			require.Len(t, f.metrics.outcomes, 1)
			assert.Equal(t, tt.wantKind, f.metrics.outcomes[0].Kind)
		})
	}
}

func TestRegistryService_SubmitTwiceIsSkipped(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	ctx := context.Background()

	first := f.svc.Submit(ctx, w2("w2.pdf"))
	second := f.svc.Submit(ctx, w2("w2.pdf"))

	assert.Equal(t, entity.OutcomeProcessed, first.Kind)
	assert.Equal(t, entity.OutcomeSkipped, second.Kind)
	assert.Equal(t, entity.SkipReasonAlreadyUploaded, second.Reason)
	assert.Equal(t, 1, f.extractor.calls, "extraction must not run again")
	assert.Len(t, f.docs.docs, 1)
	assert.Equal(t, 1, f.storage.count())
}

func TestRegistryService_SameContentDifferentName(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	ctx := context.Background()

	f.svc.Submit(ctx, entity.DocumentRef{DisplayName: "a.pdf", Payload: []byte("same")})
	got := f.svc.Submit(ctx, entity.DocumentRef{DisplayName: "b.pdf", Payload: []byte("same")})

	assert.Equal(t, entity.OutcomeSkipped, got.Kind)
	assert.Len(t, f.docs.docs, 1)
}

func TestRegistryService_ExtractionFailureRemovesStoredFile(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	f.extractor.extractFunc = func(ctx context.Context, name string, content []byte) (*port.ExtractionResult, error) {
		return nil, errors.New("bad pdf")
	}

	got := f.svc.Submit(context.Background(), w2("broken.pdf"))

	assert.Equal(t, entity.OutcomeErrored, got.Kind)
	assert.Equal(t, "Error processing broken.pdf: bad pdf", got.Message)
	assert.Zero(t, f.storage.count())
	assert.Empty(t, f.docs.docs)
}

func TestRegistryService_ConcurrentDuplicateBecomesSkipped(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	f.docs.createFunc = func(ctx context.Context, doc *entity.Document) error {
		return port.ErrDuplicateDocument
	}

	got := f.svc.Submit(context.Background(), w2("w2.pdf"))

	assert.Equal(t, entity.OutcomeSkipped, got.Kind)
	assert.Zero(t, f.storage.count())
}

func TestRegistryService_LookupFailure(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	f.docs.lookupErr = errors.New("database is locked")

	got := f.svc.Submit(context.Background(), w2("w2.pdf"))

	assert.Equal(t, entity.OutcomeErrored, got.Kind)
	assert.Zero(t, f.extractor.calls)
}

func TestRegistryService_MaxFileSize(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{MaxFileSize: 4})

	got := f.svc.Submit(context.Background(), w2("big.pdf"))

	assert.Equal(t, entity.OutcomeErrored, got.Kind)
	assert.Contains(t, got.Message, "exceeds 4 bytes")
}

func TestRegistryService_UploadBatch(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	files := []entity.DocumentRef{
		w2("a.pdf"),
		{DisplayName: "b.doc", Payload: []byte("x")},
		w2("a.pdf"),
		w2("c.pdf"),
	}

	got := f.svc.UploadBatch(context.Background(), files)

	require.Len(t, got, len(files))
	kinds := []entity.OutcomeKind{got[0].Kind, got[1].Kind, got[2].Kind, got[3].Kind}
	assert.Equal(t, []entity.OutcomeKind{
		entity.OutcomeProcessed,
		entity.OutcomeErrored,
		entity.OutcomeSkipped,
		entity.OutcomeProcessed,
	}, kinds)
	assert.Equal(t, "b.doc", got[1].Name)
}

func TestRegistryService_List(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	ctx := context.Background()
	f.svc.Submit(ctx, w2("a.pdf"))
	f.svc.Submit(ctx, w2("b.pdf"))

	records, err := f.svc.List(ctx)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.pdf", records[0].Name)
	assert.Equal(t, entity.DocumentStatusProcessed, records[0].Status)
	assert.Equal(t, int64(len("%PDF a.pdf")), records[0].SizeBytes)
}

func TestRegistryService_ClearAll(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	ctx := context.Background()
	f.svc.Submit(ctx, w2("a.pdf"))
	f.info.info = &entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle}
	require.NoError(t, f.storage.Save(ctx, DefaultLayout().ArtifactPath(), []byte("form")))

	require.NoError(t, f.svc.ClearAll(ctx))

	assert.Empty(t, f.docs.docs)
	assert.True(t, f.info.deleted)
	assert.True(t, f.comps.cleared)
	assert.Zero(t, f.storage.count())
	assert.Equal(t, []string{"uploads"}, f.storage.dirCalls)

	// the same document is accepted again after a clear
	got := f.svc.Submit(ctx, w2("a.pdf"))
	assert.Equal(t, entity.OutcomeProcessed, got.Kind)
}

func TestRegistryService_ClearAllFailure(t *testing.T) {
	f := newRegistryFixture(RegistryConfig{})
	f.info.deleteErr = errors.New("disk I/O error")

	err := f.svc.ClearAll(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear registry")
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abc")))
	assert.NotEqual(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abd")))
	assert.Len(t, Fingerprint(nil), 64)
}
