package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a channel owner authenticated through Google OAuth. RefreshToken is
// stored AES-GCM encrypted; it never leaves the service in plain text.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GoogleID     string    `json:"google_id" gorm:"uniqueIndex;not null"`
	ChannelID    string    `json:"channel_id"`
	RefreshToken string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
