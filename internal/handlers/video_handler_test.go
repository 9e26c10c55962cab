package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/media"
	"github.com/grvbrk/vidtube_server/internal/middlewares"
	"github.com/grvbrk/vidtube_server/internal/models"
	"github.com/grvbrk/vidtube_server/internal/services"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryVideoStore struct {
	videos map[uuid.UUID]*models.Video
	params store.GetVideosParams
}

func (m *memoryVideoStore) CreateVideo(ctx context.Context, video *models.Video) error {
	video.ID = uuid.New()
	cp := *video
	m.videos[video.ID] = &cp
	return nil
}

func (m *memoryVideoStore) GetVideoByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, ok := m.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memoryVideoStore) UpdateVideoByID(ctx context.Context, id uuid.UUID, patch models.VideoPatch) (*models.Video, error) {
	v, ok := m.videos[id]
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

func (m *memoryVideoStore) DeleteVideoByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, ok := m.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.videos, id)
	return v, nil
}

func (m *memoryVideoStore) SaveVideo(ctx context.Context, video *models.Video) error {
	cp := *video
	m.videos[video.ID] = &cp
	return nil
}

func (m *memoryVideoStore) GetVideos(ctx context.Context, params store.GetVideosParams) (*store.VideosResponse, error) {
	m.params = params
	return &store.VideosResponse{Videos: []models.Video{}, Page: params.Page, Limit: params.Limit}, nil
}

func (m *memoryVideoStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return nil
}

// memoryMedia checks that uploaded temp files exist and records their content.
type memoryMedia struct {
	contents map[media.ResourceType]string
	destroys []string
	n        int
}

func (m *memoryMedia) Upload(ctx context.Context, localPath string, rt media.ResourceType) (*media.Asset, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrLocalFile, err)
	}
	m.contents[rt] = string(data)
	m.n++
	id := fmt.Sprintf("%s%d", rt, m.n)
	return &media.Asset{
		URL:          "https://cdn.test/" + string(rt) + "/upload/v1/" + id + ".bin",
		AssetID:      id,
		ResourceType: rt,
		Duration:     3,
	}, nil
}

func (m *memoryMedia) Destroy(ctx context.Context, assetID string, rt media.ResourceType) error {
	m.destroys = append(m.destroys, string(rt)+"/"+assetID)
	return nil
}

type handlerFixture struct {
	videos *memoryVideoStore
	media  *memoryMedia
	router chi.Router
	owner  *models.User
	user   *models.User
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		videos: &memoryVideoStore{videos: map[uuid.UUID]*models.Video{}},
		media:  &memoryMedia{contents: map[media.ResourceType]string{}},
		owner:  &models.User{ID: uuid.New(), Role: models.RoleUser},
	}
	f.user = f.owner

	logger := log.New(io.Discard, "", 0)
	svc := services.NewVideoService(f.videos, f.media, nil, logger, nil, time.Second)
	vh := NewVideoHandler(svc, logger, 1<<20, t.TempDir())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if f.user != nil {
				req = middlewares.WithUser(req, f.user)
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/videos", vh.HandlerGetVideos)
	r.Post("/videos", vh.HandlerPublishVideo)
	r.Get("/videos/{videoId}", vh.HandlerGetVideoByID)
	r.Patch("/videos/{videoId}", vh.HandlerUpdateVideo)
	r.Delete("/videos/{videoId}", vh.HandlerDeleteVideo)
	r.Patch("/videos/toggle/publish/{videoId}", vh.HandlerTogglePublish)

	f.router = r
	return f
}

func (f *handlerFixture) do(req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	var body map[string]interface{}
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func (f *handlerFixture) storedVideo() *models.Video {
	v := &models.Video{
		ID:          uuid.New(),
		Title:       "Title",
		Description: "Description",
		VideoFile:   "https://cdn.test/video/upload/v1/vid.mp4",
		Thumbnail:   "https://cdn.test/image/upload/v1/thumb.png",
		Owner:       f.owner.ID,
		IsPublished: true,
	}
	f.videos.videos[v.ID] = v
	return v
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandlerPublishVideo(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{"title": "Hello", "description": "World"},
		map[string]string{"videoFile": "video-bytes", "thumbnail": "thumb-bytes"},
	)
	req := httptest.NewRequest(http.MethodPost, "/videos", body)
	req.Header.Set("Content-Type", contentType)

	rr, resp := f.do(req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(http.StatusCreated), resp["statusCode"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Hello", data["title"])
	assert.Equal(t, f.owner.ID.String(), data["owner"])
	assert.Equal(t, true, data["isPublished"])
	assert.NotEmpty(t, data["videoFile"])

	assert.Equal(t, "video-bytes", f.media.contents[media.ResourceVideo])
	assert.Equal(t, "thumb-bytes", f.media.contents[media.ResourceImage])
	assert.Len(t, f.videos.videos, 1)
}

func TestHandlerPublishVideoMissingThumbnail(t *testing.T) {
	f := newHandlerFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{"title": "Hello", "description": "World"},
		map[string]string{"videoFile": "video-bytes"},
	)
	req := httptest.NewRequest(http.MethodPost, "/videos", body)
	req.Header.Set("Content-Type", contentType)

	rr, resp := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Thumbnail file is missing", resp["message"])
	assert.Empty(t, f.media.contents)
	assert.Empty(t, f.videos.videos)
}

func TestHandlerPublishVideoRequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)
	f.user = nil

	req := httptest.NewRequest(http.MethodPost, "/videos", strings.NewReader(""))
	rr, resp := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, false, resp["success"])
}

func TestHandlerGetVideoByID(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.storedVideo()

	rr, resp := f.do(httptest.NewRequest(http.MethodGet, "/videos/"+stored.ID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, stored.ID.String(), data["_id"])

	rr, resp = f.do(httptest.NewRequest(http.MethodGet, "/videos/not-an-id", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid Video ID", resp["message"])
	assert.NotContains(t, resp, "data")

	rr, _ = f.do(httptest.NewRequest(http.MethodGet, "/videos/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerUpdateVideoJSON(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.storedVideo()

	req := httptest.NewRequest(http.MethodPatch, "/videos/"+stored.ID.String(), strings.NewReader(`{"title":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")

	rr, resp := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Renamed", data["title"])
	assert.Equal(t, "Description", data["description"])
	assert.Empty(t, f.media.destroys)
}

func TestHandlerUpdateVideoMultipartThumbnail(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.storedVideo()

	body, contentType := multipartBody(t, nil, map[string]string{"thumbnail": "new-thumb"})
	req := httptest.NewRequest(http.MethodPatch, "/videos/"+stored.ID.String(), body)
	req.Header.Set("Content-Type", contentType)

	rr, _ := f.do(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "new-thumb", f.media.contents[media.ResourceImage])
	assert.Equal(t, []string{"image/thumb"}, f.media.destroys)
	assert.Equal(t, "https://cdn.test/image/upload/v1/image1.bin", f.videos.videos[stored.ID].Thumbnail)
}

func TestHandlerUpdateVideoInvalidJSON(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.storedVideo()

	req := httptest.NewRequest(http.MethodPatch, "/videos/"+stored.ID.String(), strings.NewReader(`{"title":`))
	rr, resp := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", resp["message"])
}

func TestHandlerDeleteVideo(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.storedVideo()

	f.user = &models.User{ID: uuid.New(), Role: models.RoleUser}
	rr, _ := f.do(httptest.NewRequest(http.MethodDelete, "/videos/"+stored.ID.String(), nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, f.videos.videos, stored.ID)
	assert.Empty(t, f.media.destroys)

	f.user = f.owner
	rr, resp := f.do(httptest.NewRequest(http.MethodDelete, "/videos/"+stored.ID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]interface{}{}, resp["data"])
	assert.Equal(t, []string{"video/vid", "image/thumb"}, f.media.destroys)
	assert.Empty(t, f.videos.videos)
}

func TestHandlerTogglePublish(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.storedVideo()

	rr, resp := f.do(httptest.NewRequest(http.MethodPatch, "/videos/toggle/publish/"+stored.ID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, resp["data"].(map[string]interface{})["isPublished"])
}

func TestHandlerGetVideosQuery(t *testing.T) {
	f := newHandlerFixture(t)
	f.user = nil

	rr, resp := f.do(httptest.NewRequest(http.MethodGet, "/videos?page=3&limit=20&query=go&sortBy=title&sortType=asc", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, resp["success"])

	assert.Equal(t, 3, f.videos.params.Page)
	assert.Equal(t, 20, f.videos.params.Limit)
	assert.Equal(t, "go", f.videos.params.Query)
	assert.Equal(t, store.SortByTitle, f.videos.params.SortBy)
	assert.Equal(t, store.SortAsc, f.videos.params.SortType)

	rr, _ = f.do(httptest.NewRequest(http.MethodGet, "/videos?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
