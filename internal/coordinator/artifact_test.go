package coordinator

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactHandle(t *testing.T) {
	buf := []byte("form bytes")
	h := newArtifactHandle("form_1040.xlsx", buf)

	assert.Equal(t, "form_1040.xlsx", h.Name())
	assert.Equal(t, 10, h.Size())

	data, err := h.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("form bytes"), data)

	r, err := h.Reader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "form bytes", string(got))

	var out bytes.Buffer
	n, err := h.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	require.NoError(t, h.Close())
	assert.True(t, h.Released())
	assert.Zero(t, h.Size())
	assert.Equal(t, make([]byte, 10), buf, "buffer must be zeroed")

	_, err = h.Bytes()
	assert.ErrorIs(t, err, ErrHandleReleased)
	_, err = h.Reader()
	assert.ErrorIs(t, err, ErrHandleReleased)
	_, err = h.WriteTo(&out)
	assert.ErrorIs(t, err, ErrHandleReleased)

	assert.NoError(t, h.Close(), "close is idempotent")
}
