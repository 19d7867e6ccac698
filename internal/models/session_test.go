package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestSessionImageMode(t *testing.T) {
	sess, err := NewTestSession("user-1", "vid-1", ModeImage, 45, CriterionViews,
		[]string{"img/a", "img/b"}, nil)
	require.NoError(t, err)

	assert.Equal(t, SessionPending, sess.State)
	assert.Equal(t, 45*time.Minute, sess.DwellDuration())
	require.Len(t, sess.Variants, 2)
	assert.Equal(t, 0, sess.Variants[0].Position)
	assert.Equal(t, 1, sess.Variants[1].Position)
	assert.Equal(t, "img/b", sess.Variants[1].ImageRef)
	assert.True(t, sess.NeedsImage())
	assert.False(t, sess.NeedsText())
}

func TestNewTestSessionImageTextPairsByIndex(t *testing.T) {
	sess, err := NewTestSession("user-1", "vid-1", ModeImageText, 30, CriterionCTR,
		[]string{"img/a", "img/b"}, []string{"Title A", "Title B"})
	require.NoError(t, err)

	require.Len(t, sess.Variants, 2)
	assert.Equal(t, "img/a", sess.Variants[0].ImageRef)
	assert.Equal(t, "Title A", sess.Variants[0].Text)
	assert.Equal(t, "img/b", sess.Variants[1].ImageRef)
	assert.Equal(t, "Title B", sess.Variants[1].Text)
	assert.True(t, sess.NeedsImage())
	assert.True(t, sess.NeedsText())
}

func TestNewTestSessionRejectsMismatchedCounts(t *testing.T) {
	_, err := NewTestSession("user-1", "vid-1", ModeImageText, 30, CriterionNone,
		[]string{"img/a", "img/b", "img/c"}, []string{"Title A", "Title B"})

	assert.ErrorIs(t, err, ErrMismatchedVariants)
}

func TestNewTestSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mode    TestMode
		dwell   int
		crit    WinnerCriterion
		images  []string
		texts   []string
		wantErr error
	}{
		{"no variants", ModeText, 30, CriterionNone, nil, nil, ErrNoVariants},
		{"zero dwell", ModeText, 0, CriterionNone, nil, []string{"Title"}, ErrDwellNotPositive},
		{"negative dwell", ModeText, -5, CriterionNone, nil, []string{"Title"}, ErrDwellNotPositive},
		{"unknown mode", TestMode("AUDIO"), 30, CriterionNone, nil, []string{"Title"}, ErrUnknownMode},
		{"unknown criterion", ModeText, 30, WinnerCriterion("BEST"), nil, []string{"Title"}, ErrUnknownCriterion},
		{"empty image ref", ModeImage, 30, CriterionNone, []string{""}, nil, ErrMissingImage},
		{"empty title", ModeText, 30, CriterionNone, nil, []string{"Title", ""}, ErrMissingText},
		{"image_text empty title", ModeImageText, 30, CriterionNone, []string{"img/a"}, []string{""}, ErrMissingText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTestSession("user-1", "vid-1", tt.mode, tt.dwell, tt.crit, tt.images, tt.texts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTextModeIgnoresImageRefs(t *testing.T) {
	sess, err := NewTestSession("user-1", "vid-1", ModeText, 30, CriterionNone,
		[]string{"img/a"}, []string{"Title A", "Title B"})
	require.NoError(t, err)

	require.Len(t, sess.Variants, 2)
	assert.Empty(t, sess.Variants[0].ImageRef)
}
