package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// mockDocRepo keeps documents in memory; func fields override individual methods
type mockDocRepo struct {
	mu   sync.Mutex
	docs []*entity.Document

	createFunc func(ctx context.Context, doc *entity.Document) error
	listFunc   func(ctx context.Context) ([]*entity.Document, error)
	lookupErr  error
}

func (m *mockDocRepo) Create(ctx context.Context, doc *entity.Document) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Fingerprint == doc.Fingerprint || d.OriginalName == doc.OriginalName {
			return port.ErrDuplicateDocument
		}
	}
	doc.ID = int64(len(m.docs) + 1)
	m.docs = append(m.docs, doc)
	return nil
}

func (m *mockDocRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*entity.Document, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Fingerprint == fingerprint {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockDocRepo) GetByOriginalName(ctx context.Context, name string) (*entity.Document, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.OriginalName == name {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockDocRepo) List(ctx context.Context) ([]*entity.Document, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.Document(nil), m.docs...), nil
}

func (m *mockDocRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs), nil
}

func (m *mockDocRepo) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.docs))
	m.docs = nil
	return n, nil
}

type mockInfoRepo struct {
	info      *entity.PersonalInfo
	saveFunc  func(ctx context.Context, info *entity.PersonalInfo) error
	getErr    error
	deleted   bool
	deleteErr error
}

func (m *mockInfoRepo) Save(ctx context.Context, info *entity.PersonalInfo) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, info)
	}
	cp := *info
	m.info = &cp
	return nil
}

func (m *mockInfoRepo) Get(ctx context.Context) (*entity.PersonalInfo, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.info, nil
}

func (m *mockInfoRepo) Delete(ctx context.Context) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.info = nil
	m.deleted = true
	return nil
}

type mockCompRepo struct {
	saved   []*entity.TaxComputation
	saveErr error
	cleared bool
}

func (m *mockCompRepo) Save(ctx context.Context, c *entity.TaxComputation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, c)
	return nil
}

func (m *mockCompRepo) GetLatest(ctx context.Context) (*entity.TaxComputation, error) {
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockCompRepo) DeleteAll(ctx context.Context) error {
	m.saved = nil
	m.cleared = true
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// mockStorage is an in-memory FileStorage
type mockStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	saveErr  error
	readErr  error
	dirCalls []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), content...)
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *mockStorage) DeleteDir(ctx context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirCalls = append(m.dirCalls, dir)
	for p := range m.files {
		if len(p) > len(dir) && p[:len(dir)+1] == dir+"/" {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/mem/" + relativePath
}

func (m *mockStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type mockExtractor struct {
	calls       int
	extractFunc func(ctx context.Context, name string, content []byte) (*port.ExtractionResult, error)
}

func (m *mockExtractor) Extract(ctx context.Context, name string, content []byte) (*port.ExtractionResult, error) {
	m.calls++
	if m.extractFunc != nil {
		return m.extractFunc(ctx, name, content)
	}
	return &port.ExtractionResult{
		Kind:   entity.DocumentKindW2,
		Fields: entity.ExtractedFields{Wages: 50000, FederalWithheld: 5000},
		Source: "regex",
	}, nil
}

type mockMetrics struct {
	outcomes     []entity.UploadOutcome
	computations int
}

func (m *mockMetrics) RecordOutcome(ctx context.Context, outcome entity.UploadOutcome) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) RecordComputation(ctx context.Context, status entity.FilingStatus, formGenerated bool, duration time.Duration) {
	m.computations++
}

type mockCalculator struct {
	calculateFunc func(info entity.PersonalInfo, income entity.IncomeSummary) (*entity.TaxResult, error)
	gotInfo       entity.PersonalInfo
	gotIncome     entity.IncomeSummary
}

func (m *mockCalculator) Calculate(info entity.PersonalInfo, income entity.IncomeSummary) (*entity.TaxResult, error) {
	m.gotInfo = info
	m.gotIncome = income
	if m.calculateFunc != nil {
		return m.calculateFunc(info, income)
	}
	return &entity.TaxResult{
		TotalIncome:     income.Total(),
		FederalWithheld: income.FederalWithheld,
		Breakdown:       income.Breakdown,
	}, nil
}

type mockRenderer struct {
	renderFunc func(ctx context.Context, info entity.PersonalInfo, result *entity.TaxResult) ([]byte, error)
}

func (m *mockRenderer) Render(ctx context.Context, info entity.PersonalInfo, result *entity.TaxResult) ([]byte, error) {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, info, result)
	}
	return []byte("xlsx"), nil
}

type mockCompleter struct {
	completeFunc func(ctx context.Context, messages []entity.ChatMessage) (string, error)
	got          []entity.ChatMessage
}

func (m *mockCompleter) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	m.got = messages
	if m.completeFunc != nil {
		return m.completeFunc(ctx, messages)
	}
	return "ok", nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
