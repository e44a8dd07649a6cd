// Package http provides the application router. It mounts the model routers
// under the base path and serves health, docs and metrics endpoints.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	chanhttp "github.com/artpar/modelgate/core/channel/http"
	"github.com/artpar/modelgate/pkg/jsonapi"
)

// HealthChecker is implemented by dependencies readiness depends on.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	store HealthChecker
}

// NewHealthHandler creates a new health handler. A nil store is always ready.
func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	jsonapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks if the database can serve requests.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			jsonapi.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	jsonapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IndexResponse is served at the base path.
type IndexResponse struct {
	Name    string    `json:"name"`
	Started time.Time `json:"started"`
}

// VersionResponse represents the version response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// RouterConfig holds the parts the router mounts.
type RouterConfig struct {
	Name    string
	Version string
	Started time.Time

	// BasePath prefixes every model router, e.g. "/api/v1". Empty mounts at the root.
	BasePath string
	Models   []*chanhttp.Model

	// AuthHandler is mounted at BasePath + "/auth" when set.
	AuthHandler http.Handler

	Health *HealthHandler

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string

	// OpenAPIHandler serves the document at /openapi.json when set; the
	// Swagger UI at /swagger/ reads the swag instance SwaggerInstance.
	OpenAPIHandler  http.Handler
	SwaggerInstance string

	RequestTimeout time.Duration
}

// NewRouter creates the main HTTP router.
func NewRouter(logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteNotFound(w, "resource "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed").
			Detail(r.Method+" is not allowed on "+r.URL.Path).Build())
	})

	// Health endpoints
	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil)
	}
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteJSON(w, http.StatusOK, VersionResponse{Version: cfg.Version, Service: cfg.Name})
	})

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	if cfg.OpenAPIHandler != nil {
		r.Get("/openapi.json", cfg.OpenAPIHandler.ServeHTTP)
		r.Get("/swagger", http.RedirectHandler("/swagger/index.html", http.StatusMovedPermanently).ServeHTTP)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
			httpSwagger.InstanceName(cfg.SwaggerInstance),
		))
	}

	base := strings.TrimSuffix(cfg.BasePath, "/")
	api := chi.NewRouter()
	api.Get("/", func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteJSON(w, http.StatusOK, IndexResponse{Name: cfg.Name, Started: cfg.Started})
	})
	for _, m := range cfg.Models {
		api.Mount(m.Path, m.Router)
	}
	if cfg.AuthHandler != nil {
		api.Mount(chanhttp.AuthPath, cfg.AuthHandler)
	}

	if base == "" {
		r.Mount("/", api)
	} else {
		r.Mount(base, api)
	}

	return r
}

// NewLoggingMiddleware logs every request at debug level with its request id.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
