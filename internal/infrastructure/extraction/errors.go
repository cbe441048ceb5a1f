package extraction

import "errors"

var (
	// ErrUnreadablePDF is returned when the PDF cannot be opened or has no pages
	ErrUnreadablePDF = errors.New("unreadable pdf")

	// ErrNoText is returned when the PDF holds no extractable text
	ErrNoText = errors.New("no text found in document")

	// ErrUnsupportedDocument is returned when the text matches no known form
	ErrUnsupportedDocument = errors.New("unsupported document: expected W-2, 1099-INT or 1099-NEC")

	// ErrFieldsNotFound is returned when a form is recognized but its amounts are not
	ErrFieldsNotFound = errors.New("required amounts not found")
)
