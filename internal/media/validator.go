package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Thumbnail uploads are JPEG or PNG; register their decoders.
	_ "image/jpeg"
	_ "image/png"
)

// YouTube's thumbnail contract: at most 2 MB, JPEG or PNG, at least 640px
// wide.
const (
	MaxBytes = 2 * 1024 * 1024
	MinWidth = 640
)

var (
	ErrTooLarge          = errors.New("image exceeds maximum upload size")
	ErrUnsupportedFormat = errors.New("image is not a supported format")
	ErrTooSmall          = errors.New("image is below the minimum width")
)

// Validator enforces the thumbnail contract on raw image bytes.
type Validator struct {
	maxBytes int
	minWidth int
}

func NewValidator() *Validator {
	return &Validator{maxBytes: MaxBytes, minWidth: MinWidth}
}

func (v *Validator) Validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrUnsupportedFormat)
	}
	if len(data) > v.maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if cfg.Width < v.minWidth {
		return fmt.Errorf("%w: width %d", ErrTooSmall, cfg.Width)
	}
	return nil
}
