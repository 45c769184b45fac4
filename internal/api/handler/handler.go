// Package handler provides HTTP handlers for all API endpoints.
// Handlers read the archive straight from Postgres; the database returns
// complete JSON and handlers pass raw bytes through.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-averages/internal/api/respond"
	"github.com/albapepper/scoracle-averages/internal/cache"
	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/db"
)

// Archive is the read side of the loaded archive. *db.Pool implements it.
type Archive interface {
	HealthCheck(ctx context.Context) error
	Sources(ctx context.Context) ([]byte, error)
	Records(ctx context.Context, source, kind string) ([]byte, error)
	Record(ctx context.Context, source, ref string) ([]byte, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	archive Archive
	cache   *cache.Cache
	cfg     *config.Config
}

// New creates a Handler with shared dependencies.
func New(archive Archive, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		archive: archive,
		cache:   c,
		cfg:     cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and available optimizations.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Scoracle Averages API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"optimizations": []string{
			"pgxpool_connection_pooling",
			"prepared_statements",
			"postgres_json_passthrough",
			"gzip_compression",
			"in_memory_cache",
			"etag_support",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.archive.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// serveCached answers from the cache when possible and otherwise runs
// fetch, caching its result. db.ErrNotFound becomes a 404 with notFound as
// the message.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, notFound string, fetch func(ctx context.Context) ([]byte, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		respond.WriteArchive(w, r, respond.Archive{Data: data, ETag: etag, TTL: ttl, Hit: true})
		return
	}

	raw, err := fetch(r.Context())
	if errors.Is(err, db.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, notFound)
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, respond.CodeInternal, "Archive query failed", err.Error())
		return
	}

	etag := h.cache.Set(key, raw, ttl)
	respond.WriteArchive(w, r, respond.Archive{Data: raw, ETag: etag, TTL: ttl})
}
