package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/grvbrk/vidtube_server/internal/app"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *app.Application) *chi.Mux {
	r := chi.NewRouter()

	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(app.MiddlewareHandler.Instrument)
	r.Use(app.MiddlewareHandler.RequestLogger)
	r.Use(app.MiddlewareHandler.Security)

	r.Get("/healthz", app.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(100, time.Minute))

		// Auth routes without CORS
		r.Get("/google/login", app.Oauth.Login)
		r.Get("/google/logout", app.Oauth.Logout)
		r.Get("/google/callback", app.Oauth.Callback)

		// Auth routes with CORS
		r.Group(func(r chi.Router) {
			r.Use(app.MiddlewareHandler.Cors)
			r.Get("/user", app.Oauth.AuthUser)
			r.Get("/token", app.Oauth.Token)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(100, time.Minute))
		r.Use(app.MiddlewareHandler.Cors)

		// public routes
		r.Group(func(r chi.Router) {
			r.Use(app.MiddlewareHandler.OptionalAuthenticate)

			r.Get("/videos", app.VideoHandler.HandlerGetVideos)
			r.Get("/videos/{videoId}", app.VideoHandler.HandlerGetVideoByID)
			r.Get("/users/{userId}", app.UserHandler.HandlerGetChannel)
		})

		// auth routes
		r.Group(func(r chi.Router) {
			r.Use(app.MiddlewareHandler.Authenticate)

			r.Post("/videos", app.VideoHandler.HandlerPublishVideo)
			r.Patch("/videos/{videoId}", app.VideoHandler.HandlerUpdateVideo)
			r.Delete("/videos/{videoId}", app.VideoHandler.HandlerDeleteVideo)
			r.Patch("/videos/toggle/publish/{videoId}", app.VideoHandler.HandlerTogglePublish)
			r.Get("/videos/{videoId}/events", app.VideoEventHandler.HandlerGetVideoEvents)

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", app.DashboardHandler.HandlerGetChannelStats)
			})
		})
	})

	return r
}
