package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/media"
	"github.com/grvbrk/vidtube_server/internal/models"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/store/analytics"
)

// recorder keeps the order of side effects across fakes.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

type fakeVideoStore struct {
	rec    *recorder
	videos map[uuid.UUID]*models.Video

	createErr error
	updateErr error
	deleteErr error
	saveErr   error
	listErr   error

	lastParams store.GetVideosParams
	views      map[uuid.UUID]int
}

func newFakeVideoStore(rec *recorder) *fakeVideoStore {
	return &fakeVideoStore{
		rec:    rec,
		videos: map[uuid.UUID]*models.Video{},
		views:  map[uuid.UUID]int{},
	}
}

func (f *fakeVideoStore) put(v models.Video) *models.Video {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.videos[v.ID] = &v
	return &v
}

func (f *fakeVideoStore) CreateVideo(ctx context.Context, video *models.Video) error {
	f.rec.add("db create")
	if f.createErr != nil {
		return f.createErr
	}
	video.ID = uuid.New()
	video.CreatedAt = time.Now()
	video.UpdatedAt = video.CreatedAt
	cp := *video
	f.videos[video.ID] = &cp
	return nil
}

func (f *fakeVideoStore) GetVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	v, ok := f.videos[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideoStore) UpdateVideoByID(ctx context.Context, videoID uuid.UUID, patch models.VideoPatch) (*models.Video, error) {
	f.rec.add("db update")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	v, ok := f.videos[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		v.Thumbnail = *patch.Thumbnail
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideoStore) DeleteVideoByID(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	f.rec.add("db delete")
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	v, ok := f.videos[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.videos, videoID)
	return v, nil
}

func (f *fakeVideoStore) SaveVideo(ctx context.Context, video *models.Video) error {
	f.rec.add("db save")
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.videos[video.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *video
	f.videos[video.ID] = &cp
	return nil
}

func (f *fakeVideoStore) GetVideos(ctx context.Context, params store.GetVideosParams) (*store.VideosResponse, error) {
	f.lastParams = params
	if f.listErr != nil {
		return nil, f.listErr
	}

	videos := []models.Video{}
	for _, v := range f.videos {
		if !v.IsPublished && !params.IncludeUnpublished {
			continue
		}
		if params.OwnerID != nil && v.Owner != *params.OwnerID {
			continue
		}
		videos = append(videos, *v)
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].CreatedAt.After(videos[j].CreatedAt) })

	return &store.VideosResponse{
		Videos: videos,
		Page:   params.Page,
		Limit:  params.Limit,
		Total:  len(videos),
	}, nil
}

func (f *fakeVideoStore) IncrementViews(ctx context.Context, videoID uuid.UUID) error {
	f.views[videoID]++
	return nil
}

type fakeMedia struct {
	rec *recorder

	uploadErr  map[media.ResourceType]error
	noURL      map[media.ResourceType]bool
	destroyErr map[string]error

	next     int
	uploads  []*media.Asset
	destroys []media.Target
}

func newFakeMedia(rec *recorder) *fakeMedia {
	return &fakeMedia{
		rec:        rec,
		uploadErr:  map[media.ResourceType]error{},
		noURL:      map[media.ResourceType]bool{},
		destroyErr: map[string]error{},
	}
}

func (f *fakeMedia) Upload(ctx context.Context, localPath string, resourceType media.ResourceType) (*media.Asset, error) {
	f.rec.add("upload %s", resourceType)
	if err := f.uploadErr[resourceType]; err != nil {
		return nil, err
	}

	f.next++
	id := fmt.Sprintf("%s%d", resourceType, f.next)
	asset := &media.Asset{
		AssetID:      id,
		ResourceType: resourceType,
	}
	if !f.noURL[resourceType] {
		asset.URL = fmt.Sprintf("https://cdn.test/%s/upload/v1700000000/%s.bin", resourceType, id)
	}
	if resourceType == media.ResourceVideo {
		asset.Duration = 12.5
	}
	f.uploads = append(f.uploads, asset)
	return asset, nil
}

func (f *fakeMedia) Destroy(ctx context.Context, assetID string, resourceType media.ResourceType) error {
	f.rec.add("destroy %s %s", resourceType, assetID)
	f.destroys = append(f.destroys, media.Target{AssetID: assetID, ResourceType: resourceType})
	return f.destroyErr[assetID]
}

type fakeEvents struct {
	events []analytics.VideoEvent
}

func (f *fakeEvents) RecordEvent(ctx context.Context, event analytics.VideoEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) GetEventsByVideoID(ctx context.Context, videoID uuid.UUID) ([]analytics.VideoEvent, error) {
	return f.events, nil
}

func (f *fakeEvents) ofType(t analytics.EventType) []analytics.VideoEvent {
	var out []analytics.VideoEvent
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
