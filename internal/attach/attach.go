// Package attach validates and previews image attachments for the composer.
package attach

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize is the attachment size ceiling.
const MaxSize = 5 << 20 // 5 MB

var (
	ErrNotImage = errors.New("attachment is not an image")
	ErrTooLarge = errors.New("attachment exceeds the 5 MB limit")
)

// Attachment is a validated image file ready for multipart transport. Data
// is the original bytes; the preview decode never re-encodes them.
type Attachment struct {
	Name        string
	Data        []byte
	ContentType string
}

// Preview describes a decoded attachment for display.
type Preview struct {
	Width  int
	Height int
	Format string
}

func (p *Preview) String() string {
	return fmt.Sprintf("%dx%d %s", p.Width, p.Height, p.Format)
}

// Load reads and validates a candidate attachment. Violations are rejected
// with a typed error and nothing is stored.
func Load(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotImage
	}
	if info.Size() > MaxSize {
		return nil, ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}

	return &Attachment{
		Name:        filepath.Base(path),
		Data:        data,
		ContentType: contentType,
	}, nil
}

// Size returns the attachment size in bytes.
func (a *Attachment) Size() int {
	return len(a.Data)
}

// Preview decodes the image header for display. Callers run this off the UI
// goroutine; transport always uses Data directly.
func (a *Attachment) Preview() (*Preview, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(a.Data))
	if err != nil {
		return nil, err
	}
	return &Preview{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
