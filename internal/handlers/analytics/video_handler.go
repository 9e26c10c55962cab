package analytics

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/middlewares"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/store/analytics"
	"github.com/grvbrk/vidtube_server/internal/utils"
)

type VideoEventHandler struct {
	EventStore analytics.VideoEventStore
	VideoStore store.VideoStore
	Logger     *log.Logger
	dbTimeout  time.Duration
}

func NewVideoEventHandler(eventStore analytics.VideoEventStore, videoStore store.VideoStore, logger *log.Logger, dbTimeout time.Duration) *VideoEventHandler {
	return &VideoEventHandler{
		EventStore: eventStore,
		VideoStore: videoStore,
		Logger:     logger,
		dbTimeout:  dbTimeout,
	}
}

// HandlerGetVideoEvents lists lifecycle events of a video to its owner or an admin.
func (vh *VideoEventHandler) HandlerGetVideoEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteError(w, utils.Unauthorized("Not Authorized"))
		return
	}

	id := chi.URLParam(r, "videoId")
	if id == "" {
		utils.WriteError(w, utils.Validation("VideoId is required"))
		return
	}

	videoID, err := uuid.Parse(id)
	if err != nil {
		utils.WriteError(w, utils.InvalidID("Invalid Video ID"))
		return
	}

	ctx, cancel := utils.WithTimeout(r.Context(), vh.dbTimeout)
	defer cancel()

	video, err := vh.VideoStore.GetVideoByID(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, utils.NotFound("Video not found"))
		return
	}
	if err != nil {
		vh.Logger.Println("Error getting video for events:", err)
		utils.WriteError(w, utils.Persistence("Failed to fetch video", err))
		return
	}

	if !user.CanModify(video.Owner) {
		utils.WriteError(w, utils.Unauthorized("Only the owner can view video events"))
		return
	}

	events, err := vh.EventStore.GetEventsByVideoID(ctx, videoID)
	if err != nil {
		vh.Logger.Println("Error getting video events from store:", err)
		utils.WriteError(w, utils.Persistence("Failed to fetch video events", err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, events, "Video events fetched successfully")
}
