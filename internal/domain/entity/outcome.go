package entity

import "fmt"

// OutcomeKind tags an UploadOutcome
type OutcomeKind int

const (
	OutcomeProcessed OutcomeKind = iota + 1
	OutcomeSkipped
	OutcomeErrored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeProcessed:
		return "processed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeErrored:
		return "errored"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// UploadOutcome is the result of submitting one document. Exactly one of
// StoredName, Reason or Message is meaningful, selected by Kind.
type UploadOutcome struct {
	Kind       OutcomeKind
	Name       string
	StoredName string
	Reason     string
	Message    string
}

// Processed builds an outcome for a newly accepted document
func Processed(name, storedName string) UploadOutcome {
	return UploadOutcome{Kind: OutcomeProcessed, Name: name, StoredName: storedName}
}

// Skipped builds an outcome for a document the registry already holds
func Skipped(name, reason string) UploadOutcome {
	return UploadOutcome{Kind: OutcomeSkipped, Name: name, Reason: reason}
}

// Errored builds an outcome for a document that could not be processed
func Errored(name, message string) UploadOutcome {
	return UploadOutcome{Kind: OutcomeErrored, Name: name, Message: message}
}

func (o UploadOutcome) String() string {
	switch o.Kind {
	case OutcomeProcessed:
		return fmt.Sprintf("%s: processed as %s", o.Name, o.StoredName)
	case OutcomeSkipped:
		return fmt.Sprintf("%s: skipped (%s)", o.Name, o.Reason)
	case OutcomeErrored:
		return fmt.Sprintf("%s: error: %s", o.Name, o.Message)
	default:
		return o.Name + ": unknown outcome"
	}
}
