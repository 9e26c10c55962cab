package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/media"
	"github.com/grvbrk/vidtube_server/internal/metrics"
	"github.com/grvbrk/vidtube_server/internal/models"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/store/analytics"
	"github.com/grvbrk/vidtube_server/internal/utils"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListVideosInput carries the raw query parameters of a listing request.
type ListVideosInput struct {
	Page     string
	Limit    string
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

type PublishVideoInput struct {
	Title         string
	Description   string
	VideoFilePath string
	ThumbnailPath string
}

type UpdateVideoInput struct {
	VideoID       string
	Title         *string
	Description   *string
	ThumbnailPath string
}

type VideoService struct {
	videos    store.VideoStore
	media     media.MediaStore
	events    analytics.VideoEventStore
	logger    *log.Logger
	metrics   *metrics.Metrics
	dbTimeout time.Duration
}

func NewVideoService(videos store.VideoStore, mediaStore media.MediaStore, events analytics.VideoEventStore, logger *log.Logger, m *metrics.Metrics, dbTimeout time.Duration) *VideoService {
	return &VideoService{
		videos:    videos,
		media:     mediaStore,
		events:    events,
		logger:    logger,
		metrics:   m,
		dbTimeout: dbTimeout,
	}
}

func (s *VideoService) ListVideos(ctx context.Context, in ListVideosInput, caller *models.User) (*store.VideosResponse, error) {
	page, err := parsePositive(in.Page, DefaultPage)
	if err != nil {
		return nil, utils.Validation("page must be a positive integer")
	}

	limit, err := parsePositive(in.Limit, DefaultLimit)
	if err != nil || limit > MaxLimit {
		return nil, utils.Validation("limit must be an integer between 1 and 100")
	}
	if page > math.MaxInt/limit {
		return nil, utils.Validation("page is out of range")
	}

	sortBy, ok := store.ValidateSortBy(strings.TrimSpace(in.SortBy))
	if !ok {
		return nil, utils.Validation("sortBy must be one of createdAt, updatedAt, title, duration, views")
	}

	sortType, ok := store.ValidateSortType(strings.TrimSpace(in.SortType))
	if !ok {
		return nil, utils.Validation("sortType must be asc or desc")
	}

	params := store.GetVideosParams{
		Page:     page,
		Limit:    limit,
		Query:    strings.TrimSpace(in.Query),
		SortBy:   sortBy,
		SortType: sortType,
	}

	if raw := strings.TrimSpace(in.UserID); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			return nil, utils.InvalidID("Invalid user ID")
		}
		params.OwnerID = &ownerID
		params.IncludeUnpublished = caller.CanModify(ownerID)
	} else {
		params.IncludeUnpublished = caller.IsAdmin()
	}

	ctx, cancel := s.dbCtx(ctx)
	defer cancel()

	response, err := s.videos.GetVideos(ctx, params)
	if err != nil {
		return nil, utils.Persistence("Failed to fetch videos", err)
	}
	return response, nil
}

// PublishVideo uploads both assets and then inserts the record. Uploads that
// end up unused because a later step failed are destroyed again.
func (s *VideoService) PublishVideo(ctx context.Context, in PublishVideoInput, caller *models.User) (*models.Video, error) {
	if caller == nil {
		return nil, utils.Unauthorized("Not Authorized")
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, utils.Validation("Title and description are both required")
	}
	if in.VideoFilePath == "" {
		return nil, utils.MissingAsset("Video file is missing")
	}
	if in.ThumbnailPath == "" {
		return nil, utils.MissingAsset("Thumbnail file is missing")
	}

	videoAsset, err := s.upload(ctx, in.VideoFilePath, media.ResourceVideo)
	if err != nil {
		return nil, utils.Upload("Error while uploading the video", err)
	}

	thumbAsset, err := s.upload(ctx, in.ThumbnailPath, media.ResourceImage)
	if err != nil {
		s.compensate(ctx, "publish", uuid.Nil, caller, videoAsset)
		return nil, utils.Upload("Error while uploading the thumbnail", err)
	}

	video := &models.Video{
		Title:       title,
		Description: description,
		VideoFile:   videoAsset.URL,
		Thumbnail:   thumbAsset.URL,
		Duration:    videoAsset.Duration,
		Owner:       caller.ID,
		IsPublished: true,
	}

	dbCtx, cancel := s.dbCtx(ctx)
	err = s.videos.CreateVideo(dbCtx, video)
	cancel()
	if err != nil {
		s.compensate(ctx, "publish", uuid.Nil, caller, videoAsset, thumbAsset)
		return nil, utils.Persistence("Video could not be created", err)
	}

	s.logger.Printf("Video %s published by %s", video.ID, caller.ID)
	s.recordEvent(ctx, video, caller, analytics.EventPublished, video.Title)

	return video, nil
}

func (s *VideoService) GetVideo(ctx context.Context, rawID string) (*models.Video, error) {
	videoID, err := parseVideoID(rawID)
	if err != nil {
		return nil, err
	}

	video, err := s.findVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := s.dbCtx(ctx)
	defer cancel()
	if err := s.videos.IncrementViews(dbCtx, videoID); err != nil {
		s.logger.Printf("Error incrementing views of video %s: %v", videoID, err)
	}

	return video, nil
}

// UpdateVideo applies a partial update. A replacement thumbnail is uploaded
// first, the record is patched, and only then is the old thumbnail removed.
func (s *VideoService) UpdateVideo(ctx context.Context, in UpdateVideoInput, caller *models.User) (*models.Video, error) {
	videoID, err := parseVideoID(in.VideoID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, utils.Unauthorized("Not Authorized")
	}

	patch := models.VideoPatch{
		Title:       nonBlank(in.Title),
		Description: nonBlank(in.Description),
	}
	if patch.Empty() && in.ThumbnailPath == "" {
		return nil, utils.Validation("Provide a title, description or thumbnail to update")
	}

	existing, err := s.findVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(existing.Owner) {
		return nil, utils.Unauthorized("Only the owner can update this video")
	}

	var newThumb *media.Asset
	if in.ThumbnailPath != "" {
		newThumb, err = s.upload(ctx, in.ThumbnailPath, media.ResourceImage)
		if err != nil {
			return nil, utils.Upload("Error while uploading the thumbnail", err)
		}
		patch.Thumbnail = &newThumb.URL
	}

	dbCtx, cancel := s.dbCtx(ctx)
	updated, err := s.videos.UpdateVideoByID(dbCtx, videoID, patch)
	cancel()
	if err != nil {
		if newThumb != nil {
			s.compensate(ctx, "update", videoID, caller, newThumb)
		}
		return nil, utils.Persistence("Video details did not update", err)
	}

	if newThumb != nil {
		result := s.cleanupURLs(ctx, existing.Thumbnail)
		s.reportCleanup(ctx, "update", existing, caller, result)
	}

	s.recordEvent(ctx, updated, caller, analytics.EventUpdated, "")
	return updated, nil
}

// DeleteVideo removes both remote assets and then the record. Asset removal
// is best effort and reported in the returned CleanupResult.
func (s *VideoService) DeleteVideo(ctx context.Context, rawID string, caller *models.User) (media.CleanupResult, error) {
	videoID, err := parseVideoID(rawID)
	if err != nil {
		return media.CleanupResult{}, err
	}
	if caller == nil {
		return media.CleanupResult{}, utils.Unauthorized("Not Authorized")
	}

	video, err := s.findVideo(ctx, videoID)
	if err != nil {
		return media.CleanupResult{}, err
	}
	if !caller.CanModify(video.Owner) {
		return media.CleanupResult{}, utils.Unauthorized("Only the owner can delete this video")
	}

	result := s.cleanup(ctx,
		urlTarget{url: video.VideoFile, resourceType: media.ResourceVideo},
		urlTarget{url: video.Thumbnail, resourceType: media.ResourceImage},
	)

	dbCtx, cancel := s.dbCtx(ctx)
	_, err = s.videos.DeleteVideoByID(dbCtx, videoID)
	cancel()
	if err != nil {
		s.reportCleanup(ctx, "delete", video, caller, result)
		return result, utils.Persistence("Video could not be deleted", err)
	}

	s.reportCleanup(ctx, "delete", video, caller, result)
	s.logger.Printf("Video %s deleted by %s", video.ID, caller.ID)
	s.recordEvent(ctx, video, caller, analytics.EventDeleted, "")

	return result, nil
}

func (s *VideoService) TogglePublish(ctx context.Context, rawID string, caller *models.User) (*models.Video, error) {
	videoID, err := parseVideoID(rawID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, utils.Unauthorized("Not Authorized")
	}

	video, err := s.findVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(video.Owner) {
		return nil, utils.Unauthorized("Only the owner can change the publish status")
	}

	video.IsPublished = !video.IsPublished

	dbCtx, cancel := s.dbCtx(ctx)
	err = s.videos.SaveVideo(dbCtx, video)
	cancel()
	if err != nil {
		return nil, utils.Persistence("Publish status did not update", err)
	}

	s.recordEvent(ctx, video, caller, analytics.EventPublishToggled, strconv.FormatBool(video.IsPublished))
	return video, nil
}

func (s *VideoService) findVideo(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	ctx, cancel := s.dbCtx(ctx)
	defer cancel()

	video, err := s.videos.GetVideoByID(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("Video not found")
	}
	if err != nil {
		return nil, utils.Persistence("Failed to fetch video", err)
	}
	return video, nil
}

// upload treats an asset without a URL as a failed upload.
func (s *VideoService) upload(ctx context.Context, localPath string, resourceType media.ResourceType) (*media.Asset, error) {
	asset, err := s.media.Upload(ctx, localPath, resourceType)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.URL == "" {
		if asset != nil && asset.AssetID != "" {
			s.compensate(ctx, "upload", uuid.Nil, nil, asset)
		}
		return nil, errors.New("media host returned no url")
	}
	return asset, nil
}

type urlTarget struct {
	url          string
	resourceType media.ResourceType
}

func (s *VideoService) cleanup(ctx context.Context, targets ...urlTarget) media.CleanupResult {
	ctx = context.WithoutCancel(ctx)

	var result media.CleanupResult
	for _, t := range targets {
		target, err := media.TargetFromURL(t.url, t.resourceType)
		if err != nil {
			result.Fail(media.Target{AssetID: t.url, ResourceType: t.resourceType}, err)
			continue
		}
		result.Merge(media.Cleanup(ctx, s.media, target))
	}
	return result
}

func (s *VideoService) cleanupURLs(ctx context.Context, thumbnailURL string) media.CleanupResult {
	return s.cleanup(ctx, urlTarget{url: thumbnailURL, resourceType: media.ResourceImage})
}

// compensate destroys assets uploaded during an operation that failed.
func (s *VideoService) compensate(ctx context.Context, op string, videoID uuid.UUID, caller *models.User, assets ...*media.Asset) {
	targets := make([]media.Target, 0, len(assets))
	for _, a := range assets {
		targets = append(targets, media.Target{AssetID: a.AssetID, ResourceType: a.ResourceType})
	}

	result := media.Cleanup(context.WithoutCancel(ctx), s.media, targets...)

	video := &models.Video{ID: videoID}
	if caller != nil {
		video.Owner = caller.ID
	}
	s.reportCleanup(ctx, op+"_compensation", video, caller, result)
}

func (s *VideoService) reportCleanup(ctx context.Context, op string, video *models.Video, caller *models.User, result media.CleanupResult) {
	if result.OK() {
		return
	}

	s.logger.Printf("WARNING: %s left %d remote asset(s) behind for video %s: %v", op, len(result.Failed), video.ID, result.Err)
	if s.metrics != nil {
		s.metrics.CleanupFailures.WithLabelValues(op).Add(float64(len(result.Failed)))
	}

	for _, target := range result.Failed {
		s.recordEvent(ctx, video, caller, analytics.EventCleanupFailed,
			op+": "+string(target.ResourceType)+" "+target.AssetID)
	}
}

func (s *VideoService) recordEvent(ctx context.Context, video *models.Video, caller *models.User, eventType analytics.EventType, detail string) {
	if s.events == nil {
		return
	}

	event := analytics.VideoEvent{
		VideoID:    video.ID.String(),
		OwnerID:    video.Owner.String(),
		Type:       eventType,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if caller != nil {
		event.ActorID = caller.ID.String()
	}

	ctx, cancel := s.dbCtx(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.events.RecordEvent(ctx, event); err != nil {
		s.logger.Printf("Error recording %s event for video %s: %v", eventType, video.ID, err)
	}
}

func (s *VideoService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return utils.WithTimeout(ctx, s.dbTimeout)
}

func parseVideoID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, utils.Validation("VideoId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, utils.InvalidID("Invalid Video ID")
	}
	return id, nil
}

func parsePositive(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("must be >= 1")
	}
	return n, nil
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
