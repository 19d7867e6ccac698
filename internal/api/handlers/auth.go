package handlers

import (
	"net/http"

	"github.com/DanielBelovol/ThumbnailTester/internal/crypto"
	"github.com/DanielBelovol/ThumbnailTester/internal/database"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/services/youtube"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	oauth  *youtube.OAuthService
	client *youtube.Client
	cipher *crypto.Cipher
	users  *database.UserStore
	logger *logger.Logger
}

func NewAuthHandler(oauth *youtube.OAuthService, client *youtube.Client, cipher *crypto.Cipher, users *database.UserStore, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		oauth:  oauth,
		client: client,
		cipher: cipher,
		users:  users,
		logger: logger,
	}
}

// Connect returns the Google consent URL the frontend redirects to.
func (h *AuthHandler) Connect(c *gin.Context) {
	authURL, state, err := h.oauth.GenerateAuthURL()
	if err != nil {
		h.logger.Error("Failed to generate auth URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate auth URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"auth_url": authURL, "state": state}})
}

// Callback completes the OAuth flow: trade the code for tokens, resolve the
// account and channel, and store the refresh token encrypted.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	ctx := c.Request.Context()

	tokens, err := h.oauth.ExchangeCodeForToken(ctx, code)
	if err != nil {
		h.logger.Error("Code exchange failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to exchange authorization code"})
		return
	}
	if tokens.RefreshToken == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Google did not return a refresh token"})
		return
	}

	googleID, err := h.oauth.FetchGoogleID(ctx, tokens.AccessToken)
	if err != nil {
		h.logger.Error("Userinfo lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resolve Google account"})
		return
	}

	channelID, err := h.client.ChannelIDFor(ctx, tokens.AccessToken)
	if err != nil {
		h.logger.Error("Channel lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resolve YouTube channel"})
		return
	}

	encrypted, err := h.cipher.Encrypt(tokens.RefreshToken)
	if err != nil {
		h.logger.Error("Failed to encrypt refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
		return
	}

	user, err := h.users.UpsertByGoogleID(ctx, googleID, channelID, encrypted)
	if err != nil {
		h.logger.Error("Failed to upsert user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}
