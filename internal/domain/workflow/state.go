package workflow

// State represents a step of the submission workflow
type State string

const (
	StateIdle               State = "IDLE"
	StateInfoPending        State = "INFO_PENDING"
	StateFilesPending       State = "FILES_PENDING"
	StateUploading          State = "UPLOADING"
	StateReconciling        State = "RECONCILING"
	StateReady              State = "READY"
	StateComputing          State = "COMPUTING"
	StateResultReady        State = "RESULT_READY"
	StatePreviewingArtifact State = "PREVIEWING_ARTIFACT"
	StateResetting          State = "RESETTING"
	StateFailed             State = "FAILED"
)

var validStates = map[State]bool{
	StateIdle:               true,
	StateInfoPending:        true,
	StateFilesPending:       true,
	StateUploading:          true,
	StateReconciling:        true,
	StateReady:              true,
	StateComputing:          true,
	StateResultReady:        true,
	StatePreviewingArtifact: true,
	StateResetting:          true,
	StateFailed:             true,
}

// Resting states wait for user input; the rest are suspended on a backend round-trip
var restingStates = map[State]bool{
	StateIdle:               true,
	StateInfoPending:        true,
	StateFilesPending:       true,
	StateReady:              true,
	StateResultReady:        true,
	StatePreviewingArtifact: true,
	StateFailed:             true,
}

// IsResting returns true if the workflow is waiting for user input
func (s State) IsResting() bool {
	return restingStates[s]
}

// IsSuspended returns true while a backend call is in flight
func (s State) IsSuspended() bool {
	return s.IsValid() && !s.IsResting()
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
