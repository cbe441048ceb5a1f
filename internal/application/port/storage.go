package port

import "context"

// FileStorage defines file storage operations on paths relative to the storage root
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	// DeleteDir removes a directory and everything in it; missing directories are ignored
	DeleteDir(ctx context.Context, dir string) error
	GetFullPath(relativePath string) string
}
