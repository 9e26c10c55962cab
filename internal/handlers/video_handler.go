package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/grvbrk/vidtube_server/internal/middlewares"
	"github.com/grvbrk/vidtube_server/internal/services"
	"github.com/grvbrk/vidtube_server/internal/utils"
)

// multipart parts beyond this size spill to disk inside ParseMultipartForm
const multipartMemory = 32 << 20

type VideoHandler struct {
	VideoService   *services.VideoService
	Logger         *log.Logger
	MaxUploadBytes int64
	UploadDir      string
}

func NewVideoHandler(videoService *services.VideoService, logger *log.Logger, maxUploadBytes int64, uploadDir string) *VideoHandler {
	return &VideoHandler{
		VideoService:   videoService,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
		UploadDir:      uploadDir,
	}
}

func (vh *VideoHandler) HandlerGetVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := services.ListVideosInput{
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   q.Get("userId"),
	}

	user, _ := middlewares.GetUserFromContext(r)

	response, err := vh.VideoService.ListVideos(r.Context(), in, user)
	if err != nil {
		vh.fail(w, "listing videos", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, response, "Videos fetched successfully")
}

func (vh *VideoHandler) HandlerPublishVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteError(w, utils.Unauthorized("Not Authorized"))
		return
	}

	if err := vh.parseMultipart(w, r); err != nil {
		vh.fail(w, "parsing publish form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	videoPath, removeVideo, err := vh.saveFormFile(r, "videoFile")
	if err != nil {
		vh.fail(w, "saving video file", err)
		return
	}
	defer removeVideo()

	thumbPath, removeThumb, err := vh.saveFormFile(r, "thumbnail")
	if err != nil {
		vh.fail(w, "saving thumbnail", err)
		return
	}
	defer removeThumb()

	video, err := vh.VideoService.PublishVideo(r.Context(), services.PublishVideoInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		VideoFilePath: videoPath,
		ThumbnailPath: thumbPath,
	}, user)
	if err != nil {
		vh.fail(w, "publishing video", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, video, "Video published successfully")
}

func (vh *VideoHandler) HandlerGetVideoByID(w http.ResponseWriter, r *http.Request) {
	video, err := vh.VideoService.GetVideo(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		vh.fail(w, "fetching video", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, video, "Video fetched successfully")
}

// HandlerUpdateVideo accepts either a multipart form carrying an optional
// thumbnail or a JSON body with title and description.
func (vh *VideoHandler) HandlerUpdateVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteError(w, utils.Unauthorized("Not Authorized"))
		return
	}

	in := services.UpdateVideoInput{VideoID: chi.URLParam(r, "videoId")}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := vh.parseMultipart(w, r); err != nil {
			vh.fail(w, "parsing update form", err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		in.Title = formField(r.MultipartForm, "title")
		in.Description = formField(r.MultipartForm, "description")

		thumbPath, removeThumb, err := vh.saveFormFile(r, "thumbnail")
		if err != nil {
			vh.fail(w, "saving thumbnail", err)
			return
		}
		defer removeThumb()
		in.ThumbnailPath = thumbPath
	} else {
		var body struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
		}
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body)
		if err != nil && !errors.Is(err, io.EOF) {
			vh.fail(w, "decoding update body", utils.Validation("Invalid request body"))
			return
		}
		in.Title = body.Title
		in.Description = body.Description
	}

	video, err := vh.VideoService.UpdateVideo(r.Context(), in, user)
	if err != nil {
		vh.fail(w, "updating video", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, video, "Video updated successfully")
}

func (vh *VideoHandler) HandlerDeleteVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteError(w, utils.Unauthorized("Not Authorized"))
		return
	}

	_, err := vh.VideoService.DeleteVideo(r.Context(), chi.URLParam(r, "videoId"), user)
	if err != nil {
		vh.fail(w, "deleting video", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.Envelope{}, "Video deleted successfully")
}

func (vh *VideoHandler) HandlerTogglePublish(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteError(w, utils.Unauthorized("Not Authorized"))
		return
	}

	video, err := vh.VideoService.TogglePublish(r.Context(), chi.URLParam(r, "videoId"), user)
	if err != nil {
		vh.fail(w, "toggling publish status", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, video, "Publish status toggled successfully")
}

func (vh *VideoHandler) fail(w http.ResponseWriter, action string, err error) {
	vh.Logger.Printf("Error %s: %v", action, err)
	utils.WriteError(w, err)
}

func (vh *VideoHandler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if vh.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, vh.MaxUploadBytes)
	}

	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return utils.Validation("Upload is too large")
	}
	return utils.Validation("Request must be a multipart form")
}

// saveFormFile copies an uploaded part to a temp file. A part that was not
// sent yields an empty path and no error.
func (vh *VideoHandler) saveFormFile(r *http.Request, field string) (string, func(), error) {
	noop := func() {}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", noop, nil
	}
	if err != nil {
		return "", noop, utils.Validation("Could not read " + field)
	}
	defer file.Close()

	if header.Size == 0 {
		return "", noop, nil
	}

	tmp, err := os.CreateTemp(vh.UploadDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", noop, utils.Internal("Internal Server Error", err)
	}

	remove := func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			vh.Logger.Printf("Error removing temp file %s: %v", tmp.Name(), err)
		}
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		remove()
		return "", noop, utils.Internal("Internal Server Error", err)
	}
	if err := tmp.Close(); err != nil {
		remove()
		return "", noop, utils.Internal("Internal Server Error", err)
	}

	return tmp.Name(), remove, nil
}

func formField(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
