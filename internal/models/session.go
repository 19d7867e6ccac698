package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestMode string

const (
	ModeImage     TestMode = "IMAGE"
	ModeText      TestMode = "TEXT"
	ModeImageText TestMode = "IMAGE_TEXT"
)

type WinnerCriterion string

const (
	CriterionNone            WinnerCriterion = "NONE"
	CriterionViews           WinnerCriterion = "VIEWS"
	CriterionAvgViewDuration WinnerCriterion = "AVG_VIEW_DURATION"
	CriterionCTR             WinnerCriterion = "CTR"
	CriterionWatchTime       WinnerCriterion = "WATCH_TIME"
	CriterionCTRxAVD         WinnerCriterion = "CTR_X_AVD"
)

type SessionState string

const (
	SessionPending    SessionState = "PENDING"
	SessionValidating SessionState = "VALIDATING"
	SessionRunning    SessionState = "RUNNING"
	SessionFinalizing SessionState = "FINALIZING"
	SessionCompleted  SessionState = "COMPLETED"
	SessionFailed     SessionState = "FAILED"
)

// Session build failures. These reject the request before anything touches
// the live video.
var (
	ErrNoVariants         = errors.New("session has no variants")
	ErrDwellNotPositive   = errors.New("dwell duration must be positive")
	ErrUnknownMode        = errors.New("unknown test mode")
	ErrUnknownCriterion   = errors.New("unknown winner criterion")
	ErrMismatchedVariants = errors.New("image and text counts must match for IMAGE_TEXT mode")
	ErrMissingImage       = errors.New("variant is missing an image for this mode")
	ErrMissingText        = errors.New("variant is missing a title for this mode")
)

// TestSession is one A/B experiment over a single video's thumbnail and/or
// title. Variants are owned by the session and ordered by Position.
type TestSession struct {
	ID           string          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       string          `json:"user_id" gorm:"index;not null"`
	VideoID      string          `json:"video_id" gorm:"index;not null"`
	Mode         TestMode        `json:"mode" gorm:"not null"`
	DwellMinutes int             `json:"dwell_minutes" gorm:"not null"`
	Criterion    WinnerCriterion `json:"criterion" gorm:"default:NONE"`
	State        SessionState    `json:"state" gorm:"default:PENDING"`
	FailureKind  string          `json:"failure_kind,omitempty"`

	Variants []Variant `json:"variants" gorm:"foreignKey:SessionID"`

	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *TestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// DwellDuration is how long each variant stays live before sampling.
func (s *TestSession) DwellDuration() time.Duration {
	return time.Duration(s.DwellMinutes) * time.Minute
}

// NewTestSession builds a session from raw request inputs and validates the
// mode/variant contract. IMAGE pairs variants off imageRefs, TEXT off texts,
// IMAGE_TEXT zips both and requires equal counts. The returned session is
// PENDING; nothing has been persisted or applied yet.
func NewTestSession(userID, videoID string, mode TestMode, dwellMinutes int, criterion WinnerCriterion, imageRefs, texts []string) (*TestSession, error) {
	if dwellMinutes <= 0 {
		return nil, ErrDwellNotPositive
	}
	switch criterion {
	case CriterionNone, CriterionViews, CriterionAvgViewDuration, CriterionCTR, CriterionWatchTime, CriterionCTRxAVD:
	default:
		return nil, ErrUnknownCriterion
	}

	var variants []Variant
	switch mode {
	case ModeImage:
		for i, ref := range imageRefs {
			if ref == "" {
				return nil, ErrMissingImage
			}
			variants = append(variants, Variant{Position: i, ImageRef: ref})
		}
	case ModeText:
		for i, text := range texts {
			if text == "" {
				return nil, ErrMissingText
			}
			variants = append(variants, Variant{Position: i, Text: text})
		}
	case ModeImageText:
		if len(imageRefs) != len(texts) {
			return nil, ErrMismatchedVariants
		}
		for i, ref := range imageRefs {
			if ref == "" {
				return nil, ErrMissingImage
			}
			if texts[i] == "" {
				return nil, ErrMissingText
			}
			variants = append(variants, Variant{Position: i, ImageRef: ref, Text: texts[i]})
		}
	default:
		return nil, ErrUnknownMode
	}

	if len(variants) == 0 {
		return nil, ErrNoVariants
	}

	return &TestSession{
		UserID:       userID,
		VideoID:      videoID,
		Mode:         mode,
		DwellMinutes: dwellMinutes,
		Criterion:    criterion,
		State:        SessionPending,
		Variants:     variants,
	}, nil
}

// NeedsImage reports whether the session mode mutates the thumbnail.
func (s *TestSession) NeedsImage() bool {
	return s.Mode == ModeImage || s.Mode == ModeImageText
}

// NeedsText reports whether the session mode mutates the title.
func (s *TestSession) NeedsText() bool {
	return s.Mode == ModeText || s.Mode == ModeImageText
}
