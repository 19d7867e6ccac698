package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"
)

const analyticsAPIBase = "https://youtubeanalytics.googleapis.com/v2"

// reportMetrics is the fixed metrics list requested from the Analytics API.
// Row columns come back in this order.
const reportMetrics = "views,comments,likes,subscribersGained,shares,estimatedMinutesWatched,averageViewDuration,averageViewPercentage,impressions,impressionsClickThroughRate"

// Analytics reads cumulative per-video engagement numbers from the YouTube
// Analytics API. It implements the orchestrator's Collector contract; the
// orchestrator turns consecutive absolute readings into per-variant deltas.
type Analytics struct {
	tokens     TokenSource
	logger     *logger.Logger
	httpClient *http.Client

	baseURL string
}

func NewAnalytics(tokens TokenSource, log *logger.Logger) *Analytics {
	return &Analytics{
		tokens:     tokens,
		logger:     log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    analyticsAPIBase,
	}
}

type reportResponse struct {
	Rows [][]json.Number `json:"rows"`
}

// Sample reads the video's absolute metrics for the window from windowStart
// to now. Returns ErrNoData when the API has no rows for the window yet,
// which is normal for a freshly started test.
func (a *Analytics) Sample(ctx context.Context, userID, videoID string, windowStart time.Time) (*models.MetricsSnapshot, error) {
	token, err := a.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("analytics token: %w", orchestrator.ErrAuthFailure)
	}

	now := time.Now().UTC()
	params := url.Values{}
	params.Set("ids", "channel==MINE")
	params.Set("startDate", windowStart.UTC().Format("2006-01-02"))
	params.Set("endDate", now.Format("2006-01-02"))
	params.Set("metrics", reportMetrics)
	params.Set("filters", "video=="+videoID)

	endpoint := a.baseURL + "/reports?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analytics query: %w", wrapNetErr(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("analytics query for %s: status %d: %w", videoID, resp.StatusCode, orchestrator.ErrAuthFailure)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("analytics query for %s: status %d: %w", videoID, resp.StatusCode, orchestrator.ErrTransient)
	}

	var report reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if len(report.Rows) == 0 {
		return nil, fmt.Errorf("no rows for video %s: %w", videoID, orchestrator.ErrNoData)
	}

	snap, err := snapshotFromRow(report.Rows[0])
	if err != nil {
		return nil, fmt.Errorf("malformed report row for %s: %w", videoID, err)
	}
	snap.SampledAt = now
	return snap, nil
}

func snapshotFromRow(row []json.Number) (*models.MetricsSnapshot, error) {
	if len(row) < 10 {
		return nil, fmt.Errorf("expected 10 columns, got %d", len(row))
	}
	var convErr error
	intCol := func(i int) int64 {
		n, err := row[i].Int64()
		if err != nil && convErr == nil {
			convErr = fmt.Errorf("column %d: %w", i, err)
		}
		return n
	}
	floatCol := func(i int) float64 {
		f, err := row[i].Float64()
		if err != nil && convErr == nil {
			convErr = fmt.Errorf("column %d: %w", i, err)
		}
		return f
	}
	snap := &models.MetricsSnapshot{
		Views:             intCol(0),
		Comments:          intCol(1),
		Likes:             intCol(2),
		SubscribersGained: intCol(3),
		Shares:            intCol(4),
		// estimatedMinutesWatched comes back in minutes; stored as-is.
		TotalWatchTime:        intCol(5),
		AverageViewDuration:   floatCol(6),
		AverageViewPercentage: floatCol(7),
		Impressions:           intCol(8),
		CTR:                   floatCol(9),
	}
	if convErr != nil {
		return nil, convErr
	}
	return snap, nil
}
