// Package coordinator sequences a tax filing session against the backend:
// personal info commit, idempotent batch upload, registry refresh, tax
// computation and artifact retrieval.
package coordinator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/internal/domain/workflow"
)

// Config holds coordinator settings
type Config struct {
	// RequestTimeout bounds every backend round-trip so no state stays suspended
	RequestTimeout time.Duration
}

// DefaultConfig returns the default coordinator settings
func DefaultConfig() Config {
	return Config{RequestTimeout: 60 * time.Second}
}

// narrativeUploading is shown while a submission is in flight
const narrativeUploading = "Uploading files and submitting personal information..."

// WorkflowState is a snapshot of the coordinator's state
type WorkflowState struct {
	PersonalInfo     entity.PersonalInfo
	PendingFiles     []entity.DocumentRef
	RegistrySnapshot []entity.UploadedFileRecord
	LastResult       *entity.TaxResult
	// StatusNarrative reports the outcome of the last submission
	StatusNarrative string
	// ErrorNarrative reports the last computation failure
	ErrorNarrative string
	// Warning reports non-blocking problems such as a failed server reset
	Warning      string
	State        workflow.State
	Busy         bool
	ArtifactOpen bool
}

// Coordinator is the client-side submission workflow. Mutating commands are
// not queued: a second one issued while another is in flight fails with ErrBusy.
type Coordinator struct {
	backend Backend
	cfg     Config
	logger  Logger

	mu      sync.Mutex
	machine workflow.StateMachine
	state   WorkflowState
	busy    bool
	started bool
	ready   bool
	closed  bool
	// generation changes on every reset so late reads cannot resurrect cleared data
	generation uint64
	// resultGen changes whenever LastResult is replaced so a fetch cannot outlive its result
	resultGen uint64
	artifact  *ArtifactHandle
}

// New creates a coordinator. StartSession must be called before any other command.
func New(backend Backend, cfg Config, logger Logger) *Coordinator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if logger == nil {
		logger = nopLogger{}
	}
	c := &Coordinator{backend: backend, cfg: cfg, logger: logger}
	c.machine = workflow.NewSessionMachine(workflow.SessionMachineConfig{
		// invoked by Fire with c.mu held
		HasResult: func(context.Context) bool { return c.state.LastResult != nil },
		OnTransition: func(from, to workflow.State, trigger workflow.Trigger) {
			c.logger.Info("Workflow transition", "from", from.String(), "to", to.String(), "trigger", trigger.String())
		},
	})
	return c
}

// State returns a copy of the current workflow state
func (c *Coordinator) State() WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.PendingFiles = append([]entity.DocumentRef(nil), c.state.PendingFiles...)
	s.RegistrySnapshot = append([]entity.UploadedFileRecord(nil), c.state.RegistrySnapshot...)
	if c.state.LastResult != nil {
		r := *c.state.LastResult
		s.LastResult = &r
	}
	s.State = c.machine.State()
	s.Busy = c.busy
	s.ArtifactOpen = c.artifact != nil
	return s
}

// StartSession clears any data left by a previous session. It must be called
// exactly once; every other command fails with ErrSessionNotStarted until the
// reset has completed or failed.
func (c *Coordinator) StartSession(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return precondition("start session", ErrClosed)
	case c.started:
		c.mu.Unlock()
		return precondition("start session", ErrSessionAlreadyStarted)
	}
	c.started = true
	c.mu.Unlock()

	if err := c.beginReset("start session", false); err != nil {
		return err
	}
	c.finishReset(ctx, true)
	return nil
}

// SetPersonalInfo records a local edit of the personal info
func (c *Coordinator) SetPersonalInfo(info entity.PersonalInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.admitLocked("edit personal info", workflow.TriggerEditInfo); err != nil {
		return err
	}
	c.state.PersonalInfo = info
	c.fireLocked(workflow.TriggerEditInfo)
	return nil
}

// SelectFiles replaces the pending file selection
func (c *Coordinator) SelectFiles(files ...entity.DocumentRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.admitLocked("select files", workflow.TriggerSelectFiles); err != nil {
		return err
	}
	c.state.PendingFiles = append([]entity.DocumentRef(nil), files...)
	c.fireLocked(workflow.TriggerSelectFiles)
	return nil
}

// Submit runs SubmitWorkflow with the locally edited personal info and pending files
func (c *Coordinator) Submit(ctx context.Context) (Reconciliation, error) {
	s := c.State()
	return c.SubmitWorkflow(ctx, s.PersonalInfo, s.PendingFiles)
}

// SubmitWorkflow commits the personal info, uploads files as one batch and
// refreshes the registry snapshot. Invalid input fails with a ValidationError
// before any network call. A rejected info commit stops the workflow before
// upload. Per-file failures are reported in the Reconciliation, not as an error;
// a returned RemoteError has already been written to the status narrative.
func (c *Coordinator) SubmitWorkflow(ctx context.Context, info entity.PersonalInfo, files []entity.DocumentRef) (Reconciliation, error) {
	if err := ValidateSubmission(info, files); err != nil {
		return Reconciliation{}, err
	}

	c.mu.Lock()
	if err := c.admitLocked("submit", workflow.TriggerSubmit); err != nil {
		c.mu.Unlock()
		return Reconciliation{}, err
	}
	c.state.PersonalInfo = info
	c.state.PendingFiles = append([]entity.DocumentRef(nil), files...)
	c.state.StatusNarrative = narrativeUploading
	c.state.Warning = ""
	c.fireLocked(workflow.TriggerSubmit)
	c.busy = true
	gen := c.generation
	c.mu.Unlock()

	if err := c.call(ctx, func(ctx context.Context) error {
		return c.backend.CommitPersonalInfo(ctx, info)
	}); err != nil {
		err = asRemote("commit personal info", err)
		c.logger.Error("Personal info commit failed", "error", err)

		c.mu.Lock()
		defer c.mu.Unlock()
		// files stay pending: nothing was uploaded
		c.state.StatusNarrative = "Error: Failed to submit personal information: " + describe(err)
		c.fireLocked(workflow.TriggerFail)
		c.busy = false
		return Reconciliation{}, err
	}

	var outcomes []entity.UploadOutcome
	if err := c.call(ctx, func(ctx context.Context) error {
		var err error
		outcomes, err = c.backend.UploadDocuments(ctx, files)
		return err
	}); err != nil {
		err = asRemote("upload documents", err)
		c.logger.Error("Upload failed", "files", len(files), "error", err)

		// the server may have accepted part of the batch before failing
		records, listErr := c.listUploadedFiles(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.applySnapshotLocked(gen, records, listErr)
		c.state.StatusNarrative = "Error: " + describe(err)
		c.state.PendingFiles = nil
		c.fireLocked(workflow.TriggerFail)
		c.busy = false
		return Reconciliation{}, err
	}

	c.mu.Lock()
	c.fireLocked(workflow.TriggerUploadDone)
	c.mu.Unlock()

	rec := Reconcile(alignOutcomes(files, outcomes))
	records, listErr := c.listUploadedFiles(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applySnapshotLocked(gen, records, listErr)
	c.state.StatusNarrative = rec.Narrative()
	c.state.PendingFiles = nil
	c.fireLocked(workflow.TriggerReconciled)
	c.busy = false

	c.logger.Info("Submission reconciled",
		"processed", rec.Processed,
		"skipped", rec.Skipped,
		"errored", rec.Errored)
	return rec, nil
}

// ValidateSubmission checks submission input locally and returns a
// ValidationError describing the first problem found
func ValidateSubmission(info entity.PersonalInfo, files []entity.DocumentRef) error {
	if len(files) == 0 {
		return &ValidationError{Field: "files", Reason: "Please select at least one file"}
	}
	if !info.FilingStatus.IsSet() {
		return &ValidationError{Field: "filingStatus", Reason: "Please select a filing status"}
	}
	if err := info.Validate(); err != nil {
		return &ValidationError{Field: "personalInfo", Reason: err.Error()}
	}
	return nil
}

// alignOutcomes pairs outcomes with submitted files so every file yields exactly one outcome
func alignOutcomes(files []entity.DocumentRef, outcomes []entity.UploadOutcome) []entity.UploadOutcome {
	aligned := make([]entity.UploadOutcome, len(files))
	for i, f := range files {
		if i < len(outcomes) {
			aligned[i] = outcomes[i]
			continue
		}
		aligned[i] = entity.Errored(f.DisplayName, fmt.Sprintf("No result returned for %s", f.DisplayName))
	}
	return aligned
}

// CalculateTax asks the backend for a tax result. It fails with a
// PreconditionError when the registry snapshot is empty. On failure the
// previous result is kept and the error goes to ErrorNarrative.
func (c *Coordinator) CalculateTax(ctx context.Context) (*entity.TaxResult, error) {
	c.mu.Lock()
	if err := c.checkReadyLocked("calculate tax"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if len(c.state.RegistrySnapshot) == 0 {
		c.mu.Unlock()
		return nil, precondition("calculate tax", ErrEmptyRegistry)
	}
	if err := c.admitLocked("calculate tax", workflow.TriggerCompute); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.fireLocked(workflow.TriggerCompute)
	c.busy = true
	c.mu.Unlock()

	var result *entity.TaxResult
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		result, err = c.backend.ComputeTax(ctx)
		return err
	})
	if err == nil && result == nil {
		err = &RemoteError{Op: "compute tax", Message: "empty result"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		err = asRemote("compute tax", err)
		c.logger.Error("Tax calculation failed", "error", err)
		c.state.ErrorNarrative = "Tax calculation failed: " + describe(err)
		c.fireLocked(workflow.TriggerComputeFailed)
		return nil, err
	}

	r := *result
	c.state.LastResult = &r
	c.resultGen++
	c.state.ErrorNarrative = ""
	// a fetched form belongs to the previous result
	c.releaseArtifactLocked()
	c.fireLocked(workflow.TriggerComputeDone)

	out := r
	return &out, nil
}

// ResetAll clears local state optimistically, then asks the backend to clear
// its data. A backend failure is reported as a Warning and never returned.
func (c *Coordinator) ResetAll(ctx context.Context) error {
	if err := c.beginReset("reset", true); err != nil {
		return err
	}
	c.finishReset(ctx, false)
	return nil
}

func (c *Coordinator) beginReset(op string, requireReady bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if requireReady {
		if err := c.checkReadyLocked(op); err != nil {
			return err
		}
	} else if c.closed {
		return precondition(op, ErrClosed)
	}
	if c.busy {
		return precondition(op, ErrBusy)
	}
	if !c.machine.CanFire(context.Background(), workflow.TriggerReset) {
		return precondition(op, fmt.Errorf("cannot reset while %s", c.machine.State()))
	}

	c.releaseArtifactLocked()
	c.state.PendingFiles = nil
	c.state.LastResult = nil
	c.state.RegistrySnapshot = nil
	c.state.StatusNarrative = ""
	c.state.ErrorNarrative = ""
	c.state.Warning = ""
	c.generation++
	c.fireLocked(workflow.TriggerReset)
	c.busy = true
	return nil
}

func (c *Coordinator) finishReset(ctx context.Context, markReady bool) {
	err := c.call(ctx, c.backend.ClearAll)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("Backend reset failed, server keeps previous data", "error", err)
		c.state.Warning = "Could not clear previous data on the server: " + describe(asRemote("clear all", err))
	}
	c.fireLocked(workflow.TriggerResetDone)
	c.busy = false
	if markReady {
		c.ready = true
	}
}

// RefreshRegistry replaces the registry snapshot with the backend listing.
// It is read-only and may run alongside other commands.
func (c *Coordinator) RefreshRegistry(ctx context.Context) ([]entity.UploadedFileRecord, error) {
	c.mu.Lock()
	if err := c.checkReadyLocked("refresh registry"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	gen := c.generation
	c.mu.Unlock()

	records, err := c.listUploadedFiles(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applySnapshotLocked(gen, records, err)
	if err != nil {
		return nil, asRemote("list uploaded files", err)
	}
	return append([]entity.UploadedFileRecord(nil), records...), nil
}

func (c *Coordinator) listUploadedFiles(ctx context.Context) ([]entity.UploadedFileRecord, error) {
	var records []entity.UploadedFileRecord
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		records, err = c.backend.ListUploadedFiles(ctx)
		return err
	})
	return records, err
}

// applySnapshotLocked replaces the snapshot wholesale unless a reset began after the read started
func (c *Coordinator) applySnapshotLocked(gen uint64, records []entity.UploadedFileRecord, err error) {
	if err != nil {
		c.logger.Warn("Registry refresh failed", "error", err)
		c.state.Warning = "Could not refresh uploaded files: " + describe(asRemote("list uploaded files", err))
		return
	}
	if gen != c.generation || c.machine.State() == workflow.StateResetting {
		return
	}
	c.state.RegistrySnapshot = append([]entity.UploadedFileRecord(nil), records...)
}

// FetchArtifact downloads the generated form into a new handle, releasing the
// previous one. It fails with a NotFoundError, creating no handle, unless the
// last result reports a generated form.
func (c *Coordinator) FetchArtifact(ctx context.Context) (*ArtifactHandle, error) {
	c.mu.Lock()
	if err := c.checkReadyLocked("fetch artifact"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.state.LastResult == nil || !c.state.LastResult.FormGenerated {
		c.mu.Unlock()
		return nil, &NotFoundError{Resource: entity.ArtifactName}
	}
	c.releaseArtifactLocked()
	gen, resultGen := c.generation, c.resultGen
	c.mu.Unlock()

	var data []byte
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.backend.FetchArtifact(ctx, entity.ArtifactPath)
		return err
	})
	if err != nil {
		return nil, asRemote("fetch artifact", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		clear(data)
		return nil, precondition("fetch artifact", ErrClosed)
	case gen != c.generation, resultGen != c.resultGen,
		c.state.LastResult == nil, !c.state.LastResult.FormGenerated:
		clear(data)
		return nil, &NotFoundError{Resource: entity.ArtifactName}
	}
	c.releaseArtifactLocked()
	c.artifact = newArtifactHandle(entity.ArtifactName, data)
	return c.artifact, nil
}

// PreviewArtifact fetches the form and enters the preview state.
// CloseArtifact leaves it and releases the handle.
func (c *Coordinator) PreviewArtifact(ctx context.Context) (*ArtifactHandle, error) {
	c.mu.Lock()
	if err := c.checkReadyLocked("preview artifact"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.busy {
		c.mu.Unlock()
		return nil, precondition("preview artifact", ErrBusy)
	}
	if c.state.LastResult == nil || !c.state.LastResult.FormGenerated {
		c.mu.Unlock()
		return nil, &NotFoundError{Resource: entity.ArtifactName}
	}
	if !c.machine.CanFire(context.Background(), workflow.TriggerPreview) {
		st := c.machine.State()
		c.mu.Unlock()
		return nil, precondition("preview artifact", fmt.Errorf("cannot preview while %s", st))
	}
	c.mu.Unlock()

	h, err := c.FetchArtifact(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.artifact != h {
		return nil, precondition("preview artifact", ErrHandleReleased)
	}
	if !c.machine.CanFire(context.Background(), workflow.TriggerPreview) {
		c.releaseArtifactLocked()
		return nil, precondition("preview artifact", fmt.Errorf("cannot preview while %s", c.machine.State()))
	}
	c.fireLocked(workflow.TriggerPreview)
	return h, nil
}

// DownloadArtifact fetches the form, writes it to w and releases the handle
func (c *Coordinator) DownloadArtifact(ctx context.Context, w io.Writer) (int64, error) {
	h, err := c.FetchArtifact(ctx)
	if err != nil {
		return 0, err
	}
	defer c.release(h)
	return h.WriteTo(w)
}

// CloseArtifact releases the open handle and leaves the preview state
func (c *Coordinator) CloseArtifact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closePreviewLocked()
}

// Close releases the open artifact handle. The coordinator is unusable afterwards.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.releaseArtifactLocked()
	return nil
}

func (c *Coordinator) release(h *ArtifactHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.artifact == h {
		c.closePreviewLocked()
		return
	}
	_ = h.Close()
}

func (c *Coordinator) closePreviewLocked() {
	c.releaseArtifactLocked()
	if c.machine.State() == workflow.StatePreviewingArtifact {
		c.fireLocked(workflow.TriggerClosePreview)
	}
}

func (c *Coordinator) releaseArtifactLocked() {
	if c.artifact == nil {
		return
	}
	_ = c.artifact.Close()
	c.artifact = nil
}

func (c *Coordinator) checkReadyLocked(op string) error {
	switch {
	case c.closed:
		return precondition(op, ErrClosed)
	case !c.ready:
		return precondition(op, ErrSessionNotStarted)
	}
	return nil
}

// admitLocked checks that a mutating command may start now. An open preview
// is closed first since every editing state is reachable from its result.
func (c *Coordinator) admitLocked(op string, trigger workflow.Trigger) error {
	if err := c.checkReadyLocked(op); err != nil {
		return err
	}
	if c.busy {
		return precondition(op, ErrBusy)
	}
	c.closePreviewLocked()
	if !c.machine.CanFire(context.Background(), trigger) {
		return precondition(op, fmt.Errorf("cannot %s while %s", op, c.machine.State()))
	}
	return nil
}

func (c *Coordinator) fireLocked(trigger workflow.Trigger) {
	if err := c.machine.Fire(context.Background(), trigger); err != nil {
		c.logger.Error("Unexpected workflow transition", "state", c.machine.State().String(), "trigger", trigger.String(), "error", err)
	}
}

// call runs one backend round-trip under the request timeout
func (c *Coordinator) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return fn(ctx)
}
