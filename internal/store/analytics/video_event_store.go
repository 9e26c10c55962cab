package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
)

type EventType string

const (
	EventPublished      EventType = "published"
	EventUpdated        EventType = "updated"
	EventDeleted        EventType = "deleted"
	EventPublishToggled EventType = "publish_toggled"
	EventCleanupFailed  EventType = "asset_cleanup_failed"
)

type VideoEvent struct {
	VideoID    string    `json:"videoId"`
	OwnerID    string    `json:"ownerId"`
	ActorID    string    `json:"actorId"`
	Type       EventType `json:"type"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurredAt"`
}

type VideoEventStore interface {
	RecordEvent(ctx context.Context, event VideoEvent) error
	GetEventsByVideoID(ctx context.Context, videoID uuid.UUID) ([]VideoEvent, error)
}

type ClickhouseVideoEventStore struct {
	conn driver.Conn
}

func NewClickhouseVideoEventStore(conn driver.Conn) *ClickhouseVideoEventStore {
	return &ClickhouseVideoEventStore{conn: conn}
}

func (c *ClickhouseVideoEventStore) RecordEvent(ctx context.Context, event VideoEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO video_events (video_id, owner_id, actor_id, event_type, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		event.VideoID,
		event.OwnerID,
		event.ActorID,
		string(event.Type),
		event.Detail,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record video event: %w", err)
	}
	return nil
}

func (c *ClickhouseVideoEventStore) GetEventsByVideoID(ctx context.Context, videoID uuid.UUID) ([]VideoEvent, error) {
	query := `
		SELECT video_id, owner_id, actor_id, event_type, detail, occurred_at
		FROM video_events
		WHERE video_id = ?
		ORDER BY occurred_at DESC
	`

	rows, err := c.conn.Query(ctx, query, videoID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get video events: %w", err)
	}
	defer rows.Close()

	events := []VideoEvent{}
	for rows.Next() {
		var event VideoEvent
		var eventType string

		err := rows.Scan(
			&event.VideoID,
			&event.OwnerID,
			&event.ActorID,
			&eventType,
			&event.Detail,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video event: %w", err)
		}
		event.Type = EventType(eventType)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over video events: %w", err)
	}

	return events, nil
}

// LogVideoEventStore writes events to a logger. It is used when no
// ClickHouse connection is configured and keeps no history.
type LogVideoEventStore struct {
	Logger *log.Logger
}

func (l *LogVideoEventStore) RecordEvent(ctx context.Context, event VideoEvent) error {
	l.Logger.Printf("Video event: type=%s video=%s owner=%s actor=%s detail=%q",
		event.Type, event.VideoID, event.OwnerID, event.ActorID, event.Detail)
	return nil
}

func (l *LogVideoEventStore) GetEventsByVideoID(ctx context.Context, videoID uuid.UUID) ([]VideoEvent, error) {
	return []VideoEvent{}, nil
}
