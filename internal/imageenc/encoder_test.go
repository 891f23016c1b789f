package imageenc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestEncodePNG(t *testing.T) {
	path := writeFile(t, "pixel.png", pngHeader)

	got, err := New(0).Encode(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"))
	assert.True(t, IsDataURL(got))

	mime, data, err := Decode(got)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngHeader, data)
}

func TestEncodeSniffsContentNotExtension(t *testing.T) {
	path := writeFile(t, "photo.png", []byte("just some text, not an image"))

	_, err := New(0).Encode(path)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestEncodeRejectsLargeFiles(t *testing.T) {
	path := writeFile(t, "pixel.png", pngHeader)

	_, err := New(8).Encode(path)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestEncodeMissingFile(t *testing.T) {
	_, err := New(0).Encode(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeBytesEmpty(t *testing.T) {
	_, err := New(0).EncodeBytes(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"hello", "data:image/png,AAAA", "data:image/png;base64"} {
		_, _, err := Decode(in)
		assert.Error(t, err, in)
	}
}
