package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielBelovol/ThumbnailTester/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// SessionStore persists test sessions together with their variants and
// measured stats. The orchestrator saves after validation, after every
// variant and at finalization, so a restart never loses completed
// measurements.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// SaveSession upserts the session row and its full variant tree.
func (s *SessionStore) SaveSession(ctx context.Context, sess *models.TestSession) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Omit("Variants").Create(sess).Error; err != nil {
			return err
		}
		for i := range sess.Variants {
			v := &sess.Variants[i]
			v.SessionID = sess.ID
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Omit("Stats").Create(v).Error; err != nil {
				return err
			}
			if v.Stats != nil {
				v.Stats.VariantID = v.ID
				if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(v.Stats).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession loads one session with variants and stats, ordered by variant
// position.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.TestSession, error) {
	var sess models.TestSession
	err := s.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants.Stats").
		Where("id = ?", id).
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &sess, nil
}

// ListSessions returns a user's sessions, newest first.
func (s *SessionStore) ListSessions(ctx context.Context, userID string) ([]models.TestSession, error) {
	var sessions []models.TestSession
	err := s.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants.Stats").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// UserStore persists connected accounts.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertByGoogleID creates the user on first connect and refreshes the stored
// channel ID and refresh token on reconnect.
func (s *UserStore) UpsertByGoogleID(ctx context.Context, googleID, channelID, encryptedRefreshToken string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			GoogleID:     googleID,
			ChannelID:    channelID,
			RefreshToken: encryptedRefreshToken,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user.ChannelID = channelID
	user.RefreshToken = encryptedRefreshToken
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// GetUser loads a user by ID.
func (s *UserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
