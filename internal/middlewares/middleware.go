package middlewares

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/grvbrk/vidtube_server/internal/auth"
	"github.com/grvbrk/vidtube_server/internal/metrics"
	"github.com/grvbrk/vidtube_server/internal/models"
	"github.com/grvbrk/vidtube_server/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

type MiddlewareHandler struct {
	Logger       *log.Logger
	SessionStore sessions.Store
	JWTSecret    []byte
	Metrics      *metrics.Metrics
	cors         func(http.Handler) http.Handler
}

func NewMiddlewareHandler(logger *log.Logger, store sessions.Store, jwtSecret []byte, m *metrics.Metrics, allowedOrigins []string) *MiddlewareHandler {
	return &MiddlewareHandler{
		Logger:       logger,
		SessionStore: store,
		JWTSecret:    jwtSecret,
		Metrics:      m,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
			ExposedHeaders:   []string{"Authorization"},
			AllowCredentials: true,
			MaxAge:           86400,
		}),
	}
}

// identify resolves the caller from a bearer token, falling back to the
// session cookie when no Authorization header is sent.
func (mh *MiddlewareHandler) identify(r *http.Request) (*models.User, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return nil, auth.ErrInvalidToken
		}
		return auth.ParseToken(mh.JWTSecret, token)
	}
	return auth.UserFromSession(mh.SessionStore, r)
}

func (mh *MiddlewareHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := mh.identify(r)
		if err != nil {
			mh.Logger.Println("Rejected unauthenticated request:", err)
			utils.WriteError(w, utils.Unauthorized("Not Authorized"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attaches the caller when one can be identified and
// lets anonymous requests through.
func (mh *MiddlewareHandler) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := mh.identify(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (mh *MiddlewareHandler) Cors(next http.Handler) http.Handler {
	return mh.cors(next)
}

func (mh *MiddlewareHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		mh.Logger.Printf("Request: %s %s | Status: %d | Latency: %s | Origin: %s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), r.Header.Get("Origin"))
	})
}

// Instrument records request counts and latency keyed by the matched chi
// route pattern.
func (mh *MiddlewareHandler) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mh.Metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		mh.Metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		mh.Metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (mh *MiddlewareHandler) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}

// WithUser returns a copy of r carrying user as the authenticated caller.
func WithUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
}
