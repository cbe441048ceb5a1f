package backend_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/service"
	"github.com/garyjia/ai-tax-agent/internal/coordinator"
	"github.com/garyjia/ai-tax-agent/internal/coordinator/backend"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/internal/domain/workflow"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/extraction"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/form"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/persistence/repository"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/storage"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/taxcalc"
	httpserver "github.com/garyjia/ai-tax-agent/internal/interfaces/http"
	"github.com/garyjia/ai-tax-agent/migrations"
	"github.com/garyjia/ai-tax-agent/pkg/database"
	"github.com/garyjia/ai-tax-agent/pkg/utils"
)

const w2Text = `Form W-2 Wage and Tax Statement 2024
1 Wages, tips, other compensation $52,000.00
2 Federal income tax withheld $6,100.00`

// plainText treats the upload payload as the document text
type plainText struct{}

func (plainText) ExtractText(_ context.Context, content []byte) (string, error) {
	return string(content), nil
}

func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()
	kv := utils.NewKVLogger(logger)

	db, err := database.New(database.Config{Path: filepath.Join(dir, "tax_agent.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(migrations.FS))

	docRepo := repository.NewDocumentRepository(db.DB, logger)
	infoRepo := repository.NewPersonalInfoRepository(db.DB, logger)
	compRepo := repository.NewComputationRepository(db.DB, logger)
	files := storage.NewLocalFileStorage(dir, logger)
	layout := service.DefaultLayout()

	services := httpserver.Services{
		Registry: service.NewRegistryService(
			docRepo, infoRepo, compRepo,
			sqlite.NewDB(db.DB, logger),
			files,
			extraction.NewExtractor(plainText{}, nil, logger),
			nil,
			service.RegistryConfig{Layout: layout, MaxFileSize: 1 << 20},
			kv,
		),
		PersonalInfo: service.NewPersonalInfoService(infoRepo, kv),
		Computation: service.NewComputationService(
			docRepo, infoRepo, compRepo,
			taxcalc.NewCalculator2024(),
			form.NewExcelRenderer("", logger),
			files, nil, layout, kv,
		),
		Advisor: service.NewAdvisorService(nil, service.DefaultHistoryPolicy(), kv),
	}

	server := httpserver.NewServer(httpserver.DefaultServerConfig(), services, kv)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T) (*coordinator.Coordinator, *backend.Client) {
	t.Helper()
	srv := newBackendServer(t)
	client := backend.New(srv.URL, srv.Client(), zap.NewNop())
	c := coordinator.New(client, coordinator.Config{RequestTimeout: 10 * time.Second}, nil)
	require.NoError(t, c.StartSession(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c, client
}

func TestEndToEnd_SingleW2(t *testing.T) {
	c, client := newSession(t)
	ctx := context.Background()
	info := entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle}

	rec, err := c.SubmitWorkflow(ctx, info, []entity.DocumentRef{{DisplayName: "w2.pdf", Payload: []byte(w2Text)}})

	require.NoError(t, err)
	require.Len(t, rec.Outcomes, 1)
	assert.Equal(t, entity.OutcomeProcessed, rec.Outcomes[0].Kind)
	assert.Equal(t, "1 file(s) processed successfully.", c.State().StatusNarrative)

	records, err := client.ListUploadedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "w2.pdf", records[0].Name)
	assert.Equal(t, entity.DocumentStatusProcessed, records[0].Status)

	result, err := c.CalculateTax(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 52000, result.Breakdown.Wages, 0.001)
	assert.InDelta(t, 6100, result.FederalWithheld, 0.001)
	assert.True(t, result.FormGenerated)
	assert.Equal(t, workflow.StateResultReady, c.State().State)

	h, err := c.FetchArtifact(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.ArtifactName, h.Name())
	assert.Positive(t, h.Size())

	r, err := h.Reader()
	require.NoError(t, err)
	wb, err := excelize.OpenReader(r)
	require.NoError(t, err)
	assert.NotEmpty(t, wb.GetSheetList())
	require.NoError(t, wb.Close())

	c.CloseArtifact()
	assert.True(t, h.Released())
}

func TestEndToEnd_ResubmitIsSkipped(t *testing.T) {
	c, client := newSession(t)
	ctx := context.Background()
	info := entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle}
	w2 := []entity.DocumentRef{{DisplayName: "w2.pdf", Payload: []byte(w2Text)}}

	_, err := c.SubmitWorkflow(ctx, info, w2)
	require.NoError(t, err)
	rec, err := c.SubmitWorkflow(ctx, info, w2)
	require.NoError(t, err)

	require.Len(t, rec.Outcomes, 1)
	assert.Equal(t, entity.OutcomeSkipped, rec.Outcomes[0].Kind)
	assert.Equal(t, "1 file(s) skipped (already uploaded).", c.State().StatusNarrative)

	records, err := client.ListUploadedFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEndToEnd_MixedBatch(t *testing.T) {
	c, _ := newSession(t)
	ctx := context.Background()

	rec, err := c.SubmitWorkflow(ctx, entity.PersonalInfo{FilingStatus: entity.FilingStatusMarriedJoint, DependentChildren: 1}, []entity.DocumentRef{
		{DisplayName: "w2.pdf", Payload: []byte(w2Text)},
		{DisplayName: "notes.txt", Payload: []byte("hello")},
		{DisplayName: "blank.pdf", Payload: []byte("   ")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, rec.Processed)
	assert.Equal(t, 2, rec.Errored)
	assert.Equal(t, 3, rec.Total())
	assert.Contains(t, rec.Errors, "Invalid file type for notes.txt")
	assert.Len(t, c.State().RegistrySnapshot, 1)
}

func TestEndToEnd_ComputeNeedsDocuments(t *testing.T) {
	c, client := newSession(t)
	ctx := context.Background()

	_, err := client.ComputeTax(ctx)
	var pe *coordinator.PreconditionError
	require.ErrorAs(t, err, &pe)

	_, err = c.CalculateTax(ctx)
	require.ErrorAs(t, err, &pe)
	assert.Nil(t, c.State().LastResult)

	_, err = client.FetchArtifact(ctx, entity.ArtifactPath)
	var nf *coordinator.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestEndToEnd_ResetClearsServer(t *testing.T) {
	c, client := newSession(t)
	ctx := context.Background()
	_, err := c.SubmitWorkflow(ctx, entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle}, []entity.DocumentRef{{DisplayName: "w2.pdf", Payload: []byte(w2Text)}})
	require.NoError(t, err)
	_, err = c.CalculateTax(ctx)
	require.NoError(t, err)

	require.NoError(t, c.ResetAll(ctx))

	assert.Empty(t, c.State().Warning)
	records, err := client.ListUploadedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	_, err = client.FetchArtifact(ctx, entity.ArtifactPath)
	var nf *coordinator.NotFoundError
	assert.ErrorAs(t, err, &nf)

	var out bytes.Buffer
	_, err = c.DownloadArtifact(ctx, &out)
	assert.ErrorAs(t, err, &nf)
}

func TestEndToEnd_AdvisorFallback(t *testing.T) {
	_, client := newSession(t)

	reply, err := client.Ask(context.Background(), "How much is the child tax credit?", nil)

	require.NoError(t, err)
	assert.Equal(t, service.FallbackUnavailable, reply)
}
