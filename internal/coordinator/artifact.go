package coordinator

import (
	"bytes"
	"io"
	"sync"
)

// ArtifactHandle is a scoped view of a fetched form. It must be released with
// Close on every exit path; Close zeroes the buffer and is safe to call twice.
type ArtifactHandle struct {
	mu     sync.Mutex
	name   string
	data   []byte
	closed bool
}

func newArtifactHandle(name string, data []byte) *ArtifactHandle {
	return &ArtifactHandle{name: name, data: data}
}

// Name returns the artifact's well-known name
func (h *ArtifactHandle) Name() string {
	return h.name
}

// Bytes returns the artifact content. The slice is valid until Close.
func (h *ArtifactHandle) Bytes() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHandleReleased
	}
	return h.data, nil
}

// Reader returns a reader over the artifact content
func (h *ArtifactHandle) Reader() (io.Reader, error) {
	data, err := h.Bytes()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// WriteTo copies the artifact to w
func (h *ArtifactHandle) WriteTo(w io.Writer) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrHandleReleased
	}
	n, err := w.Write(h.data)
	return int64(n), err
}

// Size returns the content length, zero once released
func (h *ArtifactHandle) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.data)
}

// Released reports whether Close has been called
func (h *ArtifactHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close releases the buffer
func (h *ArtifactHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	clear(h.data)
	h.data = nil
	h.closed = true
	return nil
}
