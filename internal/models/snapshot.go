package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MetricsSnapshot is one engagement measurement for a video. A snapshot is
// either absolute (cumulative counters reported by the analytics backend) or
// a delta attributed to a single variant. Only deltas are persisted.
//
// Counter fields (views, comments, shares, likes, subscribers gained, watch
// time, impressions) are differenced between samples. Duration, percentage
// and CTR fields are running averages, not counters; a delta carries the
// latest absolute reading for those.
type MetricsSnapshot struct {
	ID        string `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	VariantID string `json:"variant_id" gorm:"index"`

	Views                 int64   `json:"views" gorm:"default:0"`
	Comments              int64   `json:"comments" gorm:"default:0"`
	Shares                int64   `json:"shares" gorm:"default:0"`
	Likes                 int64   `json:"likes" gorm:"default:0"`
	SubscribersGained     int64   `json:"subscribers_gained" gorm:"default:0"`
	Impressions           int64   `json:"impressions" gorm:"default:0"`
	TotalWatchTime        int64   `json:"total_watch_time" gorm:"default:0"`
	AverageViewDuration   float64 `json:"average_view_duration" gorm:"default:0"`
	AverageViewPercentage float64 `json:"average_view_percentage" gorm:"default:0"`
	CTR                   float64 `json:"ctr" gorm:"default:0"`

	SampledAt time.Time `json:"sampled_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *MetricsSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ZeroSnapshot returns an all-zero delta. Used when a variant could not be
// measured so consumers always see a snapshot, never an absent value.
func ZeroSnapshot(sampledAt time.Time) *MetricsSnapshot {
	return &MetricsSnapshot{SampledAt: sampledAt}
}
