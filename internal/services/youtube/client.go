package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"
)

const (
	dataAPIBase   = "https://www.googleapis.com/youtube/v3"
	uploadAPIBase = "https://www.googleapis.com/upload/youtube/v3"
)

// TokenSource resolves a user ID to a live access token.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// Client talks to the YouTube Data API v3. It implements the orchestrator's
// Applier and OwnershipChecker contracts: thumbnail upload, title update,
// title readback and ownership checks, all on behalf of a stored user.
type Client struct {
	tokens     TokenSource
	logger     *logger.Logger
	httpClient *http.Client

	baseURL   string
	uploadURL string
}

func NewClient(tokens TokenSource, log *logger.Logger) *Client {
	return &Client{
		tokens:     tokens,
		logger:     log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    dataAPIBase,
		uploadURL:  uploadAPIBase,
	}
}

type videoSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CategoryID  string   `json:"categoryId"`
	ChannelID   string   `json:"channelId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type videoResource struct {
	ID      string       `json:"id"`
	Snippet videoSnippet `json:"snippet"`
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

// ApplyImage uploads image bytes as the video's thumbnail.
func (c *Client) ApplyImage(ctx context.Context, userID, videoID string, image []byte) error {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/thumbnails/set?videoId=%s", c.uploadURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("thumbnail upload: %w", wrapNetErr(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thumbnail upload for %s: %w", videoID, classifyStatus(resp.StatusCode))
	}

	c.logger.Debug("Thumbnail set for video %s", videoID)
	return nil
}

// ApplyText sets the video title. The Data API update call replaces the whole
// snippet, so the current one is read first and written back with only the
// title changed.
func (c *Client) ApplyText(ctx context.Context, userID, videoID, title string) error {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return err
	}

	video, err := c.fetchVideo(ctx, token, videoID)
	if err != nil {
		return err
	}
	video.Snippet.Title = title
	video.Snippet.ChannelID = ""

	body, err := json.Marshal(videoResource{ID: video.ID, Snippet: video.Snippet})
	if err != nil {
		return fmt.Errorf("failed to marshal video resource: %w", err)
	}

	endpoint := c.baseURL + "/videos?part=snippet"
	req, err := http.NewRequestWithContext(ctx, "PUT", endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("title update: %w", wrapNetErr(err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("title update for %s: %w", videoID, classifyStatus(resp.StatusCode))
	}

	c.logger.Debug("Title set for video %s", videoID)
	return nil
}

// CurrentTitle reads the video's live title.
func (c *Client) CurrentTitle(ctx context.Context, userID, videoID string) (string, error) {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return "", err
	}
	video, err := c.fetchVideo(ctx, token, videoID)
	if err != nil {
		return "", err
	}
	return video.Snippet.Title, nil
}

// IsOwner reports whether the video belongs to the user's channel.
func (c *Client) IsOwner(ctx context.Context, userID, videoID string) (bool, error) {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return false, err
	}

	channelID, err := c.myChannelID(ctx, token)
	if err != nil {
		return false, err
	}

	video, err := c.fetchVideo(ctx, token, videoID)
	if err != nil {
		return false, err
	}

	return video.Snippet.ChannelID == channelID, nil
}

// ChannelIDFor returns the channel ID of the authorized user, used when a new
// account connects.
func (c *Client) ChannelIDFor(ctx context.Context, accessToken string) (string, error) {
	return c.myChannelID(ctx, accessToken)
}

func (c *Client) fetchVideo(ctx context.Context, token, videoID string) (*videoResource, error) {
	endpoint := fmt.Sprintf("%s/videos?part=snippet&id=%s", c.baseURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch video: %w", wrapNetErr(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch video %s: %w", videoID, classifyStatus(resp.StatusCode))
	}

	var list videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse video response: %w", err)
	}
	// The list endpoint returns 200 with an empty items array for unknown IDs.
	if len(list.Items) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, orchestrator.ErrVideoNotFound)
	}
	return &list.Items[0], nil
}

func (c *Client) myChannelID(ctx context.Context, token string) (string, error) {
	endpoint := c.baseURL + "/channels?part=id&mine=true"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch channel: %w", wrapNetErr(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch channel: %w", classifyStatus(resp.StatusCode))
	}

	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", fmt.Errorf("failed to parse channel response: %w", err)
	}
	if len(list.Items) == 0 {
		return "", fmt.Errorf("no channel for token: %w", orchestrator.ErrUnauthorized)
	}
	return list.Items[0].ID, nil
}

// classifyStatus maps Data API status codes onto the orchestrator's error
// taxonomy so retry and failure policy live in one place.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", status, orchestrator.ErrRateLimited)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", status, orchestrator.ErrUnauthorized)
	case status == http.StatusNotFound:
		return fmt.Errorf("status %d: %w", status, orchestrator.ErrVideoNotFound)
	default:
		return fmt.Errorf("status %d: %w", status, orchestrator.ErrTransient)
	}
}

func wrapNetErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%v: %w", err, orchestrator.ErrTransient)
}

// VideoIDFromURL accepts either a bare video ID or a full watch URL
// (youtube.com/watch?v=..., youtu.be/...) and returns the ID.
func VideoIDFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty video reference")
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid video URL: %w", err)
	}
	if id := u.Query().Get("v"); id != "" {
		return id, nil
	}
	if strings.Contains(u.Host, "youtu.be") {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	}
	// Shorts and embed URLs carry the ID as the last path segment.
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "embed") {
		return parts[len(parts)-1], nil
	}
	return "", fmt.Errorf("could not extract video id from %q", raw)
}
