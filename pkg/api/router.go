// Package api provides the REST surface of the ingest pipeline: uploads,
// ingest jobs, event queries, evidence lookup, report packs and search.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/pkg/api/handlers"
	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/config"
	"github.com/caseforge/caseforge/pkg/metrics"
	"github.com/caseforge/caseforge/pkg/reportpack"
	"github.com/caseforge/caseforge/pkg/store"
	"github.com/caseforge/caseforge/pkg/upload"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - CORS per configuration
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (when enabled)
//   - POST /uploads/create - Open an upload session
//   - PUT /uploads/{id}/chunk?index=N - Store one chunk (raw body)
//   - POST /uploads/{id}/finalize - Assemble and intern the source file
//   - POST /ingest-jobs - Queue an ingest job
//   - GET /ingest-jobs - List jobs
//   - GET /ingest-jobs/{id} - Job detail
//   - GET /ingest-jobs/{id}/preview - Job detail plus recent events and
//     unknown signatures
//   - GET /events - Filtered event listing
//   - GET /events/{id} - Event detail
//   - GET /evidence/raw-line - Raw source line with context
//   - POST /report-packs - Build a ZIP bundle
//   - GET /report-packs - List packs
//   - GET /report-packs/{id} - Pack detail
//   - GET /report-packs/{id}/download - Serve the ZIP
//   - GET /search?q= - Player and alias search
func NewRouter(cfg config.APIConfig, st store.Store, blobs *blobstore.Store) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	healthHandler := handlers.NewHealthHandler(st, blobs)
	uploadHandler := handlers.NewUploadHandler(upload.NewCoordinator(st, blobs), int64(cfg.MaxChunkSize))
	jobHandler := handlers.NewJobHandler(st)
	eventHandler := handlers.NewEventHandler(st, blobs)
	reportHandler := handlers.NewReportPackHandler(st, reportpack.NewBuilder(st, blobs))
	searchHandler := handlers.NewSearchHandler(st)

	// Health routes
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if reg := metrics.GetRegistry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	r.Route("/uploads", func(r chi.Router) {
		r.Post("/create", uploadHandler.Create)
		r.Put("/{id}/chunk", uploadHandler.PutChunk)
		r.Post("/{id}/finalize", uploadHandler.Finalize)
	})

	r.Route("/ingest-jobs", func(r chi.Router) {
		r.Post("/", jobHandler.Create)
		r.Get("/", jobHandler.List)
		r.Get("/{id}", jobHandler.Get)
		r.Get("/{id}/preview", jobHandler.Preview)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{id}", eventHandler.Get)
	})

	r.Get("/evidence/raw-line", eventHandler.RawLine)

	r.Route("/report-packs", func(r chi.Router) {
		r.Post("/", reportHandler.Create)
		r.Get("/", reportHandler.List)
		r.Get("/{id}", reportHandler.Get)
		r.Get("/{id}/download", reportHandler.Download)
	})

	r.Get("/search", searchHandler.Search)

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
