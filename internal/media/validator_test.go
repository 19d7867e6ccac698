package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestValidateAcceptsPNGAndJPEG(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(encodePNG(t, 1280, 720)))
	assert.NoError(t, v.Validate(encodeJPEG(t, 1280, 720)))
	assert.NoError(t, v.Validate(encodePNG(t, MinWidth, 360)))
}

func TestValidateRejectsOversizedPayload(t *testing.T) {
	v := NewValidator()

	err := v.Validate(bytes.Repeat([]byte{0xff}, MaxBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestValidateRejectsNarrowImage(t *testing.T) {
	v := NewValidator()

	err := v.Validate(encodePNG(t, MinWidth-1, 360))
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	v := NewValidator()

	assert.ErrorIs(t, v.Validate([]byte("definitely not an image")), ErrUnsupportedFormat)
	assert.ErrorIs(t, v.Validate(nil), ErrUnsupportedFormat)
}
