package service

import (
	"path"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// Layout names the storage directories shared by the registry and computation services
type Layout struct {
	UploadDir   string
	ArtifactDir string
}

// DefaultLayout stores uploads and artifacts in sibling directories
func DefaultLayout() Layout {
	return Layout{UploadDir: "uploads", ArtifactDir: "artifacts"}
}

// UploadPath returns the storage path of a stored upload
func (l Layout) UploadPath(storedName string) string {
	return path.Join(l.UploadDir, storedName)
}

// ArtifactPath returns the storage path of the generated form
func (l Layout) ArtifactPath() string {
	return path.Join(l.ArtifactDir, entity.ArtifactName)
}
