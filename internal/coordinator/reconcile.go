package coordinator

import (
	"fmt"
	"strings"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// Reconciliation is the partition of one batch of upload outcomes.
// A batch with errors is a partial failure, reported through Narrative and never as an error.
type Reconciliation struct {
	Processed int
	Skipped   int
	Errored   int
	// Errors holds the distinct error messages in submission order
	Errors   []string
	Outcomes []entity.UploadOutcome
}

// Reconcile partitions outcomes by kind. Every outcome lands in exactly one
// category; an outcome of unknown kind counts as errored.
func Reconcile(outcomes []entity.UploadOutcome) Reconciliation {
	r := Reconciliation{Outcomes: append([]entity.UploadOutcome(nil), outcomes...)}
	seen := make(map[string]bool)
	for _, o := range outcomes {
		switch o.Kind {
		case entity.OutcomeProcessed:
			r.Processed++
		case entity.OutcomeSkipped:
			r.Skipped++
		default:
			r.Errored++
			msg := o.Message
			if msg == "" {
				msg = fmt.Sprintf("Error processing %s", o.Name)
			}
			if !seen[msg] {
				seen[msg] = true
				r.Errors = append(r.Errors, msg)
			}
		}
	}
	return r
}

// Total is the number of reconciled outcomes
func (r Reconciliation) Total() int {
	return r.Processed + r.Skipped + r.Errored
}

// HasErrors reports a partial or complete failure of the batch
func (r Reconciliation) HasErrors() bool {
	return r.Errored > 0
}

// Narrative composes the status line shown to the user
func (r Reconciliation) Narrative() string {
	var parts []string
	if r.Processed > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) processed successfully.", r.Processed))
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) skipped (already uploaded).", r.Skipped))
	}
	if len(r.Errors) > 0 {
		parts = append(parts, "Errors: "+strings.Join(r.Errors, "\n"))
	}
	return strings.Join(parts, " ")
}
