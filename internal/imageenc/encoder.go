// Package imageenc turns local image files into inline data URLs.
package imageenc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes caps the size of an inline image.
const DefaultMaxBytes int64 = 5 << 20

var (
	ErrEmpty    = errors.New("image file is empty")
	ErrTooLarge = errors.New("image file is too large")
	ErrNotImage = errors.New("file is not an image")
)

// Encoder reads images from disk and encodes them as data URLs.
type Encoder struct {
	MaxBytes int64
}

// New returns an encoder with the given size limit; non-positive means DefaultMaxBytes.
func New(maxBytes int64) *Encoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Encoder{MaxBytes: maxBytes}
}

// Encode reads path and returns data:<mime>;base64,<payload>.
func (e *Encoder) Encode(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat image %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	if info.Size() > e.limit() {
		return "", fmt.Errorf("%s is %d bytes, limit %d: %w", path, info.Size(), e.limit(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return e.EncodeBytes(data)
}

// EncodeBytes sniffs data and returns its data URL.
func (e *Encoder) EncodeBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > e.limit() {
		return "", ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("detected %s: %w", mime.String(), ErrNotImage)
	}
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Decode splits a data URL back into its MIME type and payload.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data url without payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data url is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mime, data, nil
}

// IsDataURL reports whether content looks like an inline image.
func IsDataURL(content string) bool {
	return strings.HasPrefix(content, "data:image/")
}

func (e *Encoder) limit() int64 {
	if e.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return e.MaxBytes
}
