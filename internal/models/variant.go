package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Variant is one candidate thumbnail image and/or title under test. Position
// is the insertion order inside its session; execution and progress reporting
// follow it. Stats is nil until the variant has gone through a full
// apply/dwell/sample cycle.
type Variant struct {
	ID        string `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID string `json:"session_id" gorm:"index;not null"`
	Position  int    `json:"position" gorm:"not null"`

	// ImageRef is the storage object path of the candidate image; bytes are
	// resolved only when the session mode requires an image mutation.
	ImageRef string `json:"image_ref"`
	Text     string `json:"text"`

	IsWinner bool             `json:"is_winner" gorm:"default:false"`
	Stats    *MetricsSnapshot `json:"stats" gorm:"foreignKey:VariantID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Variant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
