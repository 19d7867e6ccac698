package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) AccessToken(ctx context.Context, userID string) (string, error) {
	return string(s), nil
}

func newTestClient(baseURL string) *Client {
	c := NewClient(staticTokens("test-token"), logger.New("error"))
	c.baseURL = baseURL
	c.uploadURL = baseURL
	return c
}

func TestApplyTextPreservesSnippetFields(t *testing.T) {
	var updated videoResource
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(videoListResponse{Items: []videoResource{{
				ID: "vid-1",
				Snippet: videoSnippet{
					Title:      "Old Title",
					CategoryID: "22",
					ChannelID:  "chan-1",
					Tags:       []string{"go", "testing"},
				},
			}}})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	require.NoError(t, c.ApplyText(context.Background(), "user-1", "vid-1", "New Title"))

	assert.Equal(t, "vid-1", updated.ID)
	assert.Equal(t, "New Title", updated.Snippet.Title)
	// The update replaces the whole snippet; everything else must survive.
	assert.Equal(t, "22", updated.Snippet.CategoryID)
	assert.Equal(t, []string{"go", "testing"}, updated.Snippet.Tags)
}

func TestApplyImageSendsBearerAndBody(t *testing.T) {
	var gotLen int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "vid-1", r.URL.Query().Get("videoId"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		gotLen = r.ContentLength
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	require.NoError(t, c.ApplyImage(context.Background(), "user-1", "vid-1", []byte("jpegbytes")))
	assert.Equal(t, int64(9), gotLen)
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, orchestrator.ErrRateLimited},
		{http.StatusUnauthorized, orchestrator.ErrUnauthorized},
		{http.StatusForbidden, orchestrator.ErrUnauthorized},
		{http.StatusNotFound, orchestrator.ErrVideoNotFound},
		{http.StatusInternalServerError, orchestrator.ErrTransient},
		{http.StatusBadGateway, orchestrator.ErrTransient},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		c := newTestClient(srv.URL)
		err := c.ApplyImage(context.Background(), "user-1", "vid-1", []byte("x"))
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		srv.Close()
	}
}

func TestFetchVideoEmptyItemsMeansNotFound(t *testing.T) {
	// The list endpoint answers 200 with no items for unknown IDs.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(videoListResponse{})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CurrentTitle(context.Background(), "user-1", "ghost")
	assert.ErrorIs(t, err, orchestrator.ErrVideoNotFound)
}

func TestIsOwnerComparesChannelIDs(t *testing.T) {
	makeServer := func(videoChannel string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/channels":
				w.Write([]byte(`{"items":[{"id":"chan-mine"}]}`))
			case "/videos":
				json.NewEncoder(w).Encode(videoListResponse{Items: []videoResource{{
					ID:      "vid-1",
					Snippet: videoSnippet{Title: "t", ChannelID: videoChannel},
				}}})
			}
		}))
	}

	srv := makeServer("chan-mine")
	c := newTestClient(srv.URL)
	owns, err := c.IsOwner(context.Background(), "user-1", "vid-1")
	require.NoError(t, err)
	assert.True(t, owns)
	srv.Close()

	srv = makeServer("chan-other")
	c = newTestClient(srv.URL)
	owns, err = c.IsOwner(context.Background(), "user-1", "vid-1")
	require.NoError(t, err)
	assert.False(t, owns)
	srv.Close()
}

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/abc123def45", "abc123def45", false},
		{"https://www.youtube.com/embed/abc123def45", "abc123def45", false},
		{"", "", true},
		{"https://www.youtube.com/feed/library", "", true},
	}
	for _, tt := range tests {
		got, err := VideoIDFromURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
