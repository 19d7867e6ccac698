package youtube

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/crypto"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"

	"gorm.io/gorm"
)

// ErrTokenRejected is returned when Google refuses a token grant; the stored
// refresh token is invalid or revoked.
var ErrTokenRejected = errors.New("token grant rejected")

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// Credentials resolves a user ID to a live access token: load the user, drop
// the stored refresh token through the cipher and trade it at Google's token
// endpoint. Tokens are cached until shortly before expiry.
type Credentials struct {
	db     *gorm.DB
	oauth  *OAuthService
	cipher *crypto.Cipher
	log    *logger.Logger

	mu    sync.Mutex
	cache map[string]cachedToken
}

func NewCredentials(db *gorm.DB, oauth *OAuthService, cipher *crypto.Cipher, log *logger.Logger) *Credentials {
	return &Credentials{
		db:     db,
		oauth:  oauth,
		cipher: cipher,
		log:    log,
		cache:  make(map[string]cachedToken),
	}
}

// AccessToken returns a valid access token for the user, refreshing if the
// cached one is close to expiry.
func (c *Credentials) AccessToken(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	if cached, ok := c.cache[userID]; ok && time.Now().Before(cached.expiresAt) {
		c.mu.Unlock()
		return cached.token, nil
	}
	c.mu.Unlock()

	var user models.User
	if err := c.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("unknown user %s: %w", userID, orchestrator.ErrUnauthorized)
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	refreshToken, err := c.cipher.Decrypt(user.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypt refresh token: %w", err)
	}

	resp, err := c.oauth.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenRejected) {
			return "", fmt.Errorf("refresh token revoked: %w", orchestrator.ErrUnauthorized)
		}
		return "", fmt.Errorf("refresh access token: %w", orchestrator.ErrTransient)
	}

	expiry := time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - time.Minute)
	c.mu.Lock()
	c.cache[userID] = cachedToken{token: resp.AccessToken, expiresAt: expiry}
	c.mu.Unlock()

	return resp.AccessToken, nil
}

// Invalidate drops a user's cached token, e.g. after a 401 from the API.
func (c *Credentials) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.cache, userID)
	c.mu.Unlock()
}
