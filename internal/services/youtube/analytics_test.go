package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalytics(baseURL string) *Analytics {
	a := NewAnalytics(staticTokens("test-token"), logger.New("error"))
	a.baseURL = baseURL
	return a
}

func TestSampleParsesReportRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "channel==MINE", r.URL.Query().Get("ids"))
		assert.Equal(t, "video==vid-1", r.URL.Query().Get("filters"))
		assert.Equal(t, reportMetrics, r.URL.Query().Get("metrics"))
		w.Write([]byte(`{"rows":[[1500,12,80,5,9,4200,95.4,41.2,30000,0.05]]}`))
	}))
	defer srv.Close()

	a := newTestAnalytics(srv.URL)
	snap, err := a.Sample(context.Background(), "user-1", "vid-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(1500), snap.Views)
	assert.Equal(t, int64(12), snap.Comments)
	assert.Equal(t, int64(80), snap.Likes)
	assert.Equal(t, int64(5), snap.SubscribersGained)
	assert.Equal(t, int64(9), snap.Shares)
	assert.Equal(t, int64(4200), snap.TotalWatchTime)
	assert.Equal(t, 95.4, snap.AverageViewDuration)
	assert.Equal(t, 41.2, snap.AverageViewPercentage)
	assert.Equal(t, int64(30000), snap.Impressions)
	assert.Equal(t, 0.05, snap.CTR)
	assert.False(t, snap.SampledAt.IsZero())
}

func TestSampleNoRowsIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer srv.Close()

	a := newTestAnalytics(srv.URL)
	_, err := a.Sample(context.Background(), "user-1", "vid-1", time.Now())
	assert.ErrorIs(t, err, orchestrator.ErrNoData)
}

func TestSampleAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		a := newTestAnalytics(srv.URL)
		_, err := a.Sample(context.Background(), "user-1", "vid-1", time.Now())
		assert.ErrorIs(t, err, orchestrator.ErrAuthFailure, "status %d", status)
		srv.Close()
	}
}

func TestSampleServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := newTestAnalytics(srv.URL)
	_, err := a.Sample(context.Background(), "user-1", "vid-1", time.Now())
	assert.ErrorIs(t, err, orchestrator.ErrTransient)
}

func TestSampleRejectsMalformedCounterColumn(t *testing.T) {
	// A fractional value in a counter column is a malformed report, not a
	// zero; the error must surface instead of being swallowed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[[1.5,12,80,5,9,4200,95.4,41.2,30000,0.05]]}`))
	}))
	defer srv.Close()

	a := newTestAnalytics(srv.URL)
	_, err := a.Sample(context.Background(), "user-1", "vid-1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 0")
}

func TestSampleRejectsShortRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[[1,2,3]]}`))
	}))
	defer srv.Close()

	a := newTestAnalytics(srv.URL)
	_, err := a.Sample(context.Background(), "user-1", "vid-1", time.Now())
	assert.Error(t, err)
}
