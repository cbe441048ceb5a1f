package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerEditInfo      Trigger = "EDIT_INFO"
	TriggerSelectFiles   Trigger = "SELECT_FILES"
	TriggerSubmit        Trigger = "SUBMIT"
	TriggerUploadDone    Trigger = "UPLOAD_DONE"
	TriggerReconciled    Trigger = "RECONCILED"
	TriggerFail          Trigger = "FAIL"
	TriggerCompute       Trigger = "COMPUTE"
	TriggerComputeDone   Trigger = "COMPUTE_DONE"
	TriggerComputeFailed Trigger = "COMPUTE_FAILED"
	TriggerPreview       Trigger = "PREVIEW"
	TriggerClosePreview  Trigger = "CLOSE_PREVIEW"
	TriggerReset         Trigger = "RESET"
	TriggerResetDone     Trigger = "RESET_DONE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
