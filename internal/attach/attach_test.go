package attach

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoadValidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	writePNG(t, path, 8, 6)

	att, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pic.png", att.Name)
	assert.Equal(t, "image/png", att.ContentType)
	assert.Greater(t, att.Size(), 0)

	preview, err := att.Preview()
	require.NoError(t, err)
	assert.Equal(t, 8, preview.Width)
	assert.Equal(t, 6, preview.Height)
	assert.Equal(t, "png", preview.Format)
	assert.Equal(t, "8x6 png", preview.String())
}

func TestLoadRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not pixels"), 0o644))

	att, err := Load(path)
	require.ErrorIs(t, err, ErrNotImage)
	assert.Nil(t, att)
}

func TestLoadRejectsOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	// The size check runs before any read, so a sparse file works.
	require.NoError(t, f.Truncate(MaxSize+1))
	require.NoError(t, f.Close())

	att, err := Load(path)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Nil(t, att)
}

func TestLoadRejectsDirectory(t *testing.T) {
	att, err := Load(t.TempDir())
	require.ErrorIs(t, err, ErrNotImage)
	assert.Nil(t, att)
}

func TestLoadMissingFile(t *testing.T) {
	att, err := Load(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.Nil(t, att)
}

func TestSizeCeilingBoundary(t *testing.T) {
	// Exactly at the ceiling is accepted as long as it sniffs as an image.
	path := filepath.Join(t.TempDir(), "edge.png")
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, MaxSize-8)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	att, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MaxSize, att.Size())
}
