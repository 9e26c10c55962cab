package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grvbrk/vidtube_server/internal/app"
	"github.com/grvbrk/vidtube_server/internal/config"
	"github.com/grvbrk/vidtube_server/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	app, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatal("Failed to start application:", err)
	}
	defer app.Close()

	r := routes.SetupRoutes(app)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		app.Logger.Println("Server started on port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Fatal("Error starting server", err)
		}
	}()

	<-ctx.Done()
	app.Logger.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Println("Error during shutdown:", err)
	}
}
