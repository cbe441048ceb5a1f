package entity

import "time"

// DocumentKind identifies a supported source document
type DocumentKind string

const (
	DocumentKindW2      DocumentKind = "W-2"
	DocumentKind1099INT DocumentKind = "1099-INT"
	DocumentKind1099NEC DocumentKind = "1099-NEC"
	DocumentKindUnknown DocumentKind = "UNKNOWN"
)

// IsSupported returns true for the document kinds the registry accepts
func (k DocumentKind) IsSupported() bool {
	return k == DocumentKindW2 || k == DocumentKind1099INT || k == DocumentKind1099NEC
}

// ExtractedFields holds the amounts read from one source document
type ExtractedFields struct {
	Wages           float64 `json:"wages"`
	FederalWithheld float64 `json:"federal_withheld"`
	InterestIncome  float64 `json:"interest_income"`
	NECIncome       float64 `json:"nec_income"`
}

// Document is a registry record for an accepted source document
type Document struct {
	ID           int64           `json:"id"`
	OriginalName string          `json:"original_name"`
	StoredName   string          `json:"stored_name"`
	Fingerprint  string          `json:"fingerprint"`
	Kind         DocumentKind    `json:"kind"`
	SizeBytes    int64           `json:"size_bytes"`
	Status       string          `json:"status"`
	Fields       ExtractedFields `json:"fields"`
	UploadedAt   time.Time       `json:"uploaded_at"`
}

// Record returns the client-facing view of the document
func (d *Document) Record() UploadedFileRecord {
	return UploadedFileRecord{
		Name:            d.OriginalName,
		SizeBytes:       d.SizeBytes,
		UploadTimestamp: d.UploadedAt,
		Status:          d.Status,
	}
}

// DocumentRef is a client-held file selected for upload. It has no identity
// until the registry accepts it and is discarded after one upload attempt.
type DocumentRef struct {
	DisplayName string
	Payload     []byte
}

// UploadedFileRecord is the durable, server-owned view of an accepted document
type UploadedFileRecord struct {
	Name            string    `json:"name"`
	SizeBytes       int64     `json:"sizeBytes"`
	UploadTimestamp time.Time `json:"uploadTimestamp"`
	Status          string    `json:"status"`
}
