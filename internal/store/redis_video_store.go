package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisVideoStore caches single-video lookups in front of another
// VideoStore. Every mutation evicts the cached entry; cache failures are
// logged and fall through to the underlying store.
type RedisVideoStore struct {
	VideoStore
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewRedisVideoStore(next VideoStore, client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisVideoStore {
	return &RedisVideoStore{
		VideoStore: next,
		client:     client,
		ttl:        ttl,
		logger:     logger,
	}
}

func videoCacheKey(videoID uuid.UUID) string {
	return "video:" + videoID.String()
}

func (rs *RedisVideoStore) GetVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	key := videoCacheKey(videoID)

	raw, err := rs.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var video models.Video
		if jsonErr := json.Unmarshal(raw, &video); jsonErr == nil {
			return &video, nil
		}
		rs.logger.Printf("Discarding corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		rs.logger.Printf("Error reading cache entry %s: %v", key, err)
	}

	video, err := rs.VideoStore.GetVideoByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	rs.set(ctx, video)
	return video, nil
}

func (rs *RedisVideoStore) UpdateVideoByID(ctx context.Context, videoID uuid.UUID, patch models.VideoPatch) (*models.Video, error) {
	video, err := rs.VideoStore.UpdateVideoByID(ctx, videoID, patch)
	rs.evict(ctx, videoID)
	return video, err
}

func (rs *RedisVideoStore) DeleteVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	video, err := rs.VideoStore.DeleteVideoByID(ctx, videoID)
	rs.evict(ctx, videoID)
	return video, err
}

func (rs *RedisVideoStore) SaveVideo(ctx context.Context, video *models.Video) error {
	err := rs.VideoStore.SaveVideo(ctx, video)
	rs.evict(ctx, video.ID)
	return err
}

func (rs *RedisVideoStore) set(ctx context.Context, video *models.Video) {
	raw, err := json.Marshal(video)
	if err != nil {
		rs.logger.Printf("Error encoding cache entry for video %s: %v", video.ID, err)
		return
	}
	if err := rs.client.Set(ctx, videoCacheKey(video.ID), raw, rs.ttl).Err(); err != nil {
		rs.logger.Printf("Error writing cache entry for video %s: %v", video.ID, err)
	}
}

func (rs *RedisVideoStore) evict(ctx context.Context, videoID uuid.UUID) {
	if err := rs.client.Del(ctx, videoCacheKey(videoID)).Err(); err != nil {
		rs.logger.Printf("Error evicting cache entry for video %s: %v", videoID, err)
	}
}
