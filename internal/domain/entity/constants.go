package entity

// Document status constants for registry records
const (
	DocumentStatusProcessed = "processed"
	DocumentStatusSkipped   = "skipped"
)

// Artifact constants. The generated form is always published under one
// well-known name so clients never need to discover it.
const (
	ArtifactName     = "form_1040.xlsx"
	ArtifactPath     = "/download/" + ArtifactName
	ArtifactMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SkipReasonAlreadyUploaded is reported when a document matches an existing registry record
const SkipReasonAlreadyUploaded = "already uploaded"

// Chat roles accepted by the advisor
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
