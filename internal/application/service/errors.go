package service

import "errors"

var (
	// ErrInvalidPersonalInfo is returned when personal info fails validation
	ErrInvalidPersonalInfo = errors.New("invalid personal info")

	// ErrPersonalInfoNotFound is returned when nothing has been committed
	ErrPersonalInfoNotFound = errors.New("personal info not found")

	// ErrNoDocuments is returned when a computation is requested on an empty registry
	ErrNoDocuments = errors.New("no documents have been accepted")

	// ErrArtifactNotFound is returned when no form has been generated
	ErrArtifactNotFound = errors.New("artifact not found")

	errAlreadyRegistered = errors.New("already registered")
)
