package workflow

import "context"

// SessionMachineConfig supplies the runtime hooks of the submission workflow
type SessionMachineConfig struct {
	// HasResult reports whether a previous tax result is still held
	HasResult GuardFunc

	// OnTransition is called after each transition, may be nil
	OnTransition TransitionFunc
}

// editable states accept local edits and start new backend operations
var editableStates = []State{
	StateIdle,
	StateInfoPending,
	StateFilesPending,
	StateReady,
	StateResultReady,
	StateFailed,
}

// NewSessionMachine builds the submission workflow machine starting in Idle
func NewSessionMachine(cfg SessionMachineConfig) StateMachine {
	hasResult := cfg.HasResult
	if hasResult == nil {
		hasResult = never
	}

	builder := NewBuilder().OnTransition(cfg.OnTransition)

	for _, s := range editableStates {
		builder.Configure(s).
			Permit(TriggerEditInfo, StateInfoPending).
			Permit(TriggerSelectFiles, StateFilesPending).
			Permit(TriggerSubmit, StateUploading).
			Permit(TriggerCompute, StateComputing).
			Permit(TriggerReset, StateResetting)
	}

	builder.Configure(StateReady).
		PermitIf(TriggerPreview, StatePreviewingArtifact, hasResult)

	builder.Configure(StateResultReady).
		Permit(TriggerPreview, StatePreviewingArtifact)

	builder.Configure(StateUploading).
		Permit(TriggerUploadDone, StateReconciling).
		Permit(TriggerFail, StateFailed)

	builder.Configure(StateReconciling).
		Permit(TriggerReconciled, StateReady)

	// A failed computation falls back to the resting state matching the retained result
	builder.Configure(StateComputing).
		Permit(TriggerComputeDone, StateResultReady).
		PermitIf(TriggerComputeFailed, StateResultReady, hasResult).
		Permit(TriggerComputeFailed, StateReady)

	builder.Configure(StatePreviewingArtifact).
		PermitReentry(TriggerPreview).
		Permit(TriggerClosePreview, StateResultReady).
		Permit(TriggerReset, StateResetting)

	builder.Configure(StateResetting).
		Permit(TriggerResetDone, StateIdle)

	return builder.Build(StateIdle)
}

func never(_ context.Context) bool { return false }
