package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/models"
)

type SortBy string
type SortType string

const (
	SortByCreatedAt SortBy = "createdAt"
	SortByUpdatedAt SortBy = "updatedAt"
	SortByTitle     SortBy = "title"
	SortByDuration  SortBy = "duration"
	SortByViews     SortBy = "views"

	SortAsc  SortType = "asc"
	SortDesc SortType = "desc"
)

var ErrInvalidPage = errors.New("page or limit out of range")

var sortColumns = map[SortBy]string{
	SortByCreatedAt: "v.created_at",
	SortByUpdatedAt: "v.updated_at",
	SortByTitle:     "v.title",
	SortByDuration:  "v.duration",
	SortByViews:     "v.views",
}

type GetVideosParams struct {
	Page     int
	Limit    int
	Query    string
	SortBy   SortBy
	SortType SortType
	OwnerID  *uuid.UUID
	// IncludeUnpublished lists videos whose isPublished flag is false.
	IncludeUnpublished bool
}

type VideosResponse struct {
	Videos  []models.Video `json:"videos"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	HasMore bool           `json:"hasMore"`
}

type VideoStore interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error)
	UpdateVideoByID(ctx context.Context, videoID uuid.UUID, patch models.VideoPatch) (*models.Video, error)
	DeleteVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error)
	SaveVideo(ctx context.Context, video *models.Video) error
	GetVideos(ctx context.Context, params GetVideosParams) (*VideosResponse, error)
	IncrementViews(ctx context.Context, videoID uuid.UUID) error
}

type PostgresVideoStore struct {
	db *sql.DB
}

func NewPostgresVideoStore(db *sql.DB) *PostgresVideoStore {
	if db == nil {
		panic("db cannot be nil for PostgresVideoStore")
	}
	return &PostgresVideoStore{db: db}
}

const videoColumns = `v.id, v.title, v.description, v.video_file, v.thumbnail, v.duration,
	v.owner, v.is_published, v.views, v.created_at, v.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID,
		&v.Title,
		&v.Description,
		&v.VideoFile,
		&v.Thumbnail,
		&v.Duration,
		&v.Owner,
		&v.IsPublished,
		&v.Views,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (pg *PostgresVideoStore) CreateVideo(ctx context.Context, video *models.Video) error {
	query := `
	INSERT INTO videos (title, description, video_file, thumbnail, duration, owner, is_published)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, views, created_at, updated_at
	`

	err := pg.db.QueryRowContext(ctx, query,
		video.Title,
		video.Description,
		video.VideoFile,
		video.Thumbnail,
		video.Duration,
		video.Owner,
		video.IsPublished,
	).Scan(&video.ID, &video.Views, &video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}

	return nil
}

func (pg *PostgresVideoStore) GetVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos v WHERE v.id = $1`

	video, err := scanVideo(pg.db.QueryRowContext(ctx, query, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return video, nil
}

func (pg *PostgresVideoStore) UpdateVideoByID(ctx context.Context, videoID uuid.UUID, patch models.VideoPatch) (*models.Video, error) {
	query := `
	UPDATE videos v
	SET title = COALESCE($2, v.title),
		description = COALESCE($3, v.description),
		thumbnail = COALESCE($4, v.thumbnail),
		updated_at = NOW()
	WHERE v.id = $1
	RETURNING ` + videoColumns

	video, err := scanVideo(pg.db.QueryRowContext(ctx, query, videoID, patch.Title, patch.Description, patch.Thumbnail))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}

	return video, nil
}

func (pg *PostgresVideoStore) DeleteVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	query := `DELETE FROM videos v WHERE v.id = $1 RETURNING ` + videoColumns

	video, err := scanVideo(pg.db.QueryRowContext(ctx, query, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete video: %w", err)
	}

	return video, nil
}

func (pg *PostgresVideoStore) SaveVideo(ctx context.Context, video *models.Video) error {
	query := `
	UPDATE videos
	SET title = $2, description = $3, video_file = $4, thumbnail = $5,
		duration = $6, is_published = $7, updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	err := pg.db.QueryRowContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.VideoFile,
		video.Thumbnail,
		video.Duration,
		video.IsPublished,
	).Scan(&video.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}

	return nil
}

func (pg *PostgresVideoStore) IncrementViews(ctx context.Context, videoID uuid.UUID) error {
	query := `
		UPDATE videos
		SET views = views + 1
		WHERE id = $1
	`

	_, err := pg.db.ExecContext(ctx, query, videoID)
	if err != nil {
		return fmt.Errorf("failed to update video views: %w", err)
	}
	return nil
}

func (pg *PostgresVideoStore) GetVideos(ctx context.Context, params GetVideosParams) (*VideosResponse, error) {
	if params.Page < 1 || params.Limit < 1 || params.Page > math.MaxInt/params.Limit {
		return nil, ErrInvalidPage
	}
	offset := (params.Page - 1) * params.Limit

	whereClauses := []string{}
	args := []interface{}{}

	if !params.IncludeUnpublished {
		whereClauses = append(whereClauses, "v.is_published = true")
	}

	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		whereClauses = append(whereClauses, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args)))
	}

	if params.OwnerID != nil {
		args = append(args, *params.OwnerID)
		whereClauses = append(whereClauses, fmt.Sprintf("v.owner = $%d", len(args)))
	}

	where := ""
	if len(whereClauses) > 0 {
		where = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM videos v ` + where

	var total int
	if err := pg.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to get total video count: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM videos v
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, videoColumns, where, OrderClause(params.SortBy, params.SortType), len(args)+1, len(args)+2)

	rows, err := pg.db.QueryContext(ctx, selectQuery, append(args, params.Limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over video rows: %w", err)
	}

	return &VideosResponse{
		Videos:  videos,
		Page:    params.Page,
		Limit:   params.Limit,
		Total:   total,
		HasMore: offset+len(videos) < total,
	}, nil
}

// OrderClause builds the ORDER BY for a listing. Ties always fall back to
// newest first so pages stay stable.
func OrderClause(sortBy SortBy, sortType SortType) string {
	const tieBreak = "v.created_at DESC, v.id DESC"

	column, ok := sortColumns[sortBy]
	if !ok {
		return "ORDER BY " + tieBreak
	}

	dir := "DESC"
	if sortType == SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, %s", column, dir, tieBreak)
}

func ValidateSortBy(sortBy string) (SortBy, bool) {
	if sortBy == "" {
		return "", true
	}
	_, ok := sortColumns[SortBy(sortBy)]
	return SortBy(sortBy), ok
}

func ValidateSortType(sortType string) (SortType, bool) {
	switch SortType(strings.ToLower(sortType)) {
	case "", SortDesc:
		return SortDesc, true
	case SortAsc:
		return SortAsc, true
	default:
		return "", false
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
