package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/grvbrk/vidtube_server/internal/middlewares"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/utils"
)

type DashboardHandler struct {
	dashboardStore store.DashboardStore
	Logger         *log.Logger
	dbTimeout      time.Duration
}

func NewDashboardHandler(dashboardStore store.DashboardStore, logger *log.Logger, dbTimeout time.Duration) *DashboardHandler {
	return &DashboardHandler{
		dashboardStore: dashboardStore,
		Logger:         logger,
		dbTimeout:      dbTimeout,
	}
}

func (dh *DashboardHandler) HandlerGetChannelStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		dh.Logger.Println("No user found in context.")
		utils.WriteError(w, utils.Unauthorized("Not Authorized"))
		return
	}

	ctx, cancel := utils.WithTimeout(r.Context(), dh.dbTimeout)
	defer cancel()

	stats, err := dh.dashboardStore.GetChannelStatsByUserID(ctx, user.ID)
	if err != nil {
		dh.Logger.Println("Error getting channel stats:", err)
		utils.WriteError(w, utils.Persistence("Failed to fetch channel stats", err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, stats, "Channel stats fetched successfully")
}
