package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type ChannelStats struct {
	TotalVideos     int     `json:"totalVideos"`
	PublishedVideos int     `json:"publishedVideos"`
	TotalDuration   float64 `json:"totalDuration"`
	TotalViews      int64   `json:"totalViews"`
}

type PostgresDashboardStore struct {
	db *sql.DB
}

func NewPostgresDashboardStore(db *sql.DB) *PostgresDashboardStore {
	return &PostgresDashboardStore{db: db}
}

type DashboardStore interface {
	GetChannelStatsByUserID(ctx context.Context, userID uuid.UUID) (*ChannelStats, error)
}

func (pg *PostgresDashboardStore) GetChannelStatsByUserID(ctx context.Context, userID uuid.UUID) (*ChannelStats, error) {
	var stats ChannelStats

	query := `
		SELECT
			COUNT(*) AS total_videos,
			COUNT(*) FILTER (WHERE is_published) AS published_videos,
			COALESCE(SUM(duration), 0) AS total_duration,
			COALESCE(SUM(views), 0) AS total_views
		FROM videos
		WHERE owner = $1;
	`

	err := pg.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalVideos,
		&stats.PublishedVideos,
		&stats.TotalDuration,
		&stats.TotalViews,
	)
	if err != nil {
		return nil, fmt.Errorf("error getting channel stats: %w", err)
	}

	return &stats, nil
}
