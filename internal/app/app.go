package app

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/grvbrk/vidtube_server/internal/auth"
	"github.com/grvbrk/vidtube_server/internal/config"
	"github.com/grvbrk/vidtube_server/internal/handlers"
	handler_analytics "github.com/grvbrk/vidtube_server/internal/handlers/analytics"
	"github.com/grvbrk/vidtube_server/internal/media"
	"github.com/grvbrk/vidtube_server/internal/metrics"
	"github.com/grvbrk/vidtube_server/internal/middlewares"
	"github.com/grvbrk/vidtube_server/internal/services"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/store/analytics"
	"github.com/grvbrk/vidtube_server/internal/utils"
	"github.com/grvbrk/vidtube_server/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

type Application struct {
	Config            *config.Config
	Logger            *log.Logger
	Registry          *prometheus.Registry
	Oauth             *auth.GoogleOauth
	SessionStore      *sessions.CookieStore
	db                *sql.DB
	RedisClient       *redis.Client
	DBConn            driver.Conn
	MiddlewareHandler *middlewares.MiddlewareHandler
	UserHandler       *handlers.UserHandler
	DashboardHandler  *handlers.DashboardHandler
	VideoHandler      *handlers.VideoHandler
	VideoEventHandler *handler_analytics.VideoEventHandler
}

func NewApplication(cfg *config.Config) (*Application, error) {
	logger := log.New(os.Stdout, "LOGGING: ", log.Ldate|log.Ltime)

	pgDB, err := store.ConnectPGDB(cfg.DBURL, logger)
	if err != nil {
		logger.Println("Error connecting to db")
		return nil, err
	}

	err = store.MigrateFS(pgDB, migrations.FS, ".")
	if err != nil {
		logger.Println("PANIC: Postgresql migration failed, exiting...")
		pgDB.Close()
		return nil, err
	}
	logger.Println("Database migrated...")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		db:       pgDB,
	}

	var videoStore store.VideoStore = store.NewPostgresVideoStore(pgDB)
	if cfg.RedisAddr != "" {
		redisClient, err := store.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			app.Close()
			return nil, err
		}
		logger.Println("Connected to Redis!")
		app.RedisClient = redisClient
		videoStore = store.NewRedisVideoStore(videoStore, redisClient, cfg.CacheTTL, logger)
	}

	var eventStore analytics.VideoEventStore = &analytics.LogVideoEventStore{Logger: logger}
	if cfg.ClickhouseURL != "" {
		chOpts := store.ClickhouseOptions{
			Addr:     cfg.ClickhouseURL,
			Database: cfg.ClickhouseDatabase,
			Username: cfg.ClickhouseUsername,
			Password: cfg.ClickhousePassword,
		}
		dbConn, err := store.ConnectClickhouse(chOpts, logger)
		if err != nil {
			logger.Println("Error connecting to clickhouse")
			app.Close()
			return nil, err
		}
		app.DBConn = dbConn

		err = store.MigrateClickhouse(migrations.AnalyticsFS, "analytics", chOpts)
		if err != nil {
			logger.Println("PANIC: Clickhouse migration failed, exiting...")
			app.Close()
			return nil, err
		}
		logger.Println("Clickhouse migrated...")
		eventStore = analytics.NewClickhouseVideoEventStore(dbConn)
	}

	s3Client, err := media.NewS3Client(context.Background(), cfg.MediaEndpoint)
	if err != nil {
		app.Close()
		return nil, err
	}
	mediaStore := media.NewRetryingStore(
		media.NewS3MediaStore(s3Client, cfg.MediaBucket, cfg.MediaBaseURL, media.FFProbe{Path: cfg.FFProbePath}),
		cfg.MediaMaxRetries,
		cfg.MediaTimeout,
		logger,
		m,
	)

	sessionStore := newSessionStore(cfg, logger)

	userStore := store.NewPostgresUserStore(pgDB)
	dashboardStore := store.NewPostgresDashboardStore(pgDB)

	jwtSecret := []byte(cfg.JWTSecret)

	app.SessionStore = sessionStore
	app.Oauth = auth.NewGoogleOauth(logger, sessionStore, userStore,
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BackendURL, cfg.FrontendURL, jwtSecret)

	videoService := services.NewVideoService(videoStore, mediaStore, eventStore, logger, m, cfg.DBTimeout)

	app.UserHandler = handlers.NewUserHandler(userStore, logger, cfg.DBTimeout)
	app.DashboardHandler = handlers.NewDashboardHandler(dashboardStore, logger, cfg.DBTimeout)
	app.VideoHandler = handlers.NewVideoHandler(videoService, logger, cfg.MaxUploadBytes, cfg.UploadDir)
	app.VideoEventHandler = handler_analytics.NewVideoEventHandler(eventStore, videoStore, logger, cfg.DBTimeout)
	app.MiddlewareHandler = middlewares.NewMiddlewareHandler(logger, sessionStore, jwtSecret, m, cfg.AllowedOrigins)

	return app, nil
}

// newSessionStore builds the cookie store. Without configured keys a random
// pair is generated, so sessions do not survive a restart.
func newSessionStore(cfg *config.Config, logger *log.Logger) *sessions.CookieStore {
	authKey := []byte(cfg.SessionAuthKey)
	encryptionKey := []byte(cfg.SessionEncryptionKey)
	if len(authKey) == 0 || len(encryptionKey) == 0 {
		logger.Println("WARNING: session keys not configured, generating ephemeral keys")
		authKey = securecookie.GenerateRandomKey(64)
		encryptionKey = securecookie.GenerateRandomKey(32)
	}

	options := &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}

	if cfg.IsProduction() {
		options.Secure = true
		options.SameSite = http.SameSiteNoneMode
	} else {
		options.Secure = false
		options.SameSite = http.SameSiteLaxMode
	}

	sessionStore := sessions.NewCookieStore(authKey, encryptionKey)
	sessionStore.Options = options
	return sessionStore
}

func (a *Application) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		a.Logger.Println("Health check failed:", err)
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.Envelope{"status": "unavailable"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"status": "ok"})
}

func (a *Application) Close() error {
	var err error
	if a.RedisClient != nil {
		err = multierr.Append(err, a.RedisClient.Close())
	}
	if a.DBConn != nil {
		err = multierr.Append(err, a.DBConn.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}
