package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/utils"
)

type UserHandler struct {
	UserStore store.UserStore
	Logger    *log.Logger
	dbTimeout time.Duration
}

func NewUserHandler(userStore store.UserStore, logger *log.Logger, dbTimeout time.Duration) *UserHandler {
	return &UserHandler{
		UserStore: userStore,
		Logger:    logger,
		dbTimeout: dbTimeout,
	}
}

// channel is the public view of a user shown next to their videos.
type channel struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
}

func (uh *UserHandler) HandlerGetChannel(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		utils.WriteError(w, utils.InvalidID("Invalid user ID"))
		return
	}

	ctx, cancel := utils.WithTimeout(r.Context(), uh.dbTimeout)
	defer cancel()

	user, err := uh.UserStore.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, utils.NotFound("User not found"))
		return
	}
	if err != nil {
		uh.Logger.Println("Error getting user:", err)
		utils.WriteError(w, utils.Persistence("Failed to fetch user", err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, channel{
		ID:    user.ID,
		Name:  user.Name,
		Image: user.ImageSrc,
	}, "Channel fetched successfully")
}
