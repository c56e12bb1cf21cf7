package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/picbed/service/internal/config"
	"github.com/picbed/service/internal/metrics"
	appMiddleware "github.com/picbed/service/internal/middleware"
	"github.com/picbed/service/internal/tracing"
)

// newRouter mounts the operational endpoints and sends every other path to
// uploads. The upload handler does its own method dispatch, so chi's 405 is
// routed there too.
func newRouter(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, uploads http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(tracing.Middleware)
	if cfg.MetricsEnabled {
		r.Use(m.Middleware)
	}

	r.Get("/health", health)

	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	if cfg.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Handle("/*", uploads)
	r.MethodNotAllowed(uploads.ServeHTTP)

	return r
}

// health godoc
//
//	@Summary		Health check
//	@Description	Liveness probe.
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
