package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/DanielBelovol/ThumbnailTester/internal/config"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOAuth(tokenURL, userinfoURL string) *OAuthService {
	s := NewOAuthService(&config.Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		GoogleRedirectURL:  "http://localhost/callback",
	}, logger.New("error"))
	if tokenURL != "" {
		s.tokenURL = tokenURL
	}
	if userinfoURL != "" {
		s.userinfoURL = userinfoURL
	}
	return s
}

func TestGenerateAuthURLRequestsOfflineAccess(t *testing.T) {
	s := newTestOAuth("", "")

	authURL, state, err := s.GenerateAuthURL()
	require.NoError(t, err)
	require.NotEmpty(t, state)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, state, q.Get("state"))
	assert.Contains(t, q.Get("scope"), "yt-analytics.readonly")
}

func TestGenerateAuthURLStateIsUnique(t *testing.T) {
	s := newTestOAuth("", "")

	_, a, err := s.GenerateAuthURL()
	require.NoError(t, err)
	_, b, err := s.GenerateAuthURL()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestExchangeCodeForToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3599,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	s := newTestOAuth(srv.URL, "")
	resp, err := s.ExchangeCodeForToken(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", resp.AccessToken)
	assert.Equal(t, "rt", resp.RefreshToken)
	assert.Equal(t, 3599, resp.ExpiresIn)
}

func TestRefreshAccessTokenRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	s := newTestOAuth(srv.URL, "")
	_, err := s.RefreshAccessToken(context.Background(), "revoked-token")
	assert.ErrorIs(t, err, ErrTokenRejected)
}

func TestFetchGoogleID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"google-123","email":"a@b.c"}`))
	}))
	defer srv.Close()

	s := newTestOAuth("", srv.URL)
	id, err := s.FetchGoogleID(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "google-123", id)
}
