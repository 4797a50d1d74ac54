// Package admin exposes the coordinator's administrative surface over
// HTTP for operator tooling: per-namespace versions, key dumps,
// invalidation triggers, statistics and Prometheus metrics.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edukit/versioned-cache/cache"
	"github.com/edukit/versioned-cache/metrics"
)

// Handler serves the administrative endpoints for one coordinator.
type Handler struct {
	coordinator *cache.Coordinator
	logger      *zap.Logger
	registry    *prometheus.Registry
}

// NewHandler builds the handler. A nil logger disables request logging.
func NewHandler(coordinator *cache.Coordinator, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics.NewCollector(coordinator)); err != nil {
		return nil, err
	}

	return &Handler{
		coordinator: coordinator,
		logger:      logger,
		registry:    registry,
	}, nil
}

// Routes returns the chi router for mounting under an admin prefix.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.logRequests)

	r.Get("/namespaces/{namespace}/version", h.getVersion)
	r.Get("/namespaces/{namespace}/keys", h.getKeys)
	r.Post("/namespaces/{namespace}/invalidate", h.invalidateNamespace)
	r.Post("/namespaces/{namespace}/reset", h.resetNamespace)
	r.Post("/invalidate", h.invalidateAll)
	r.Get("/stats", h.getStats)
	r.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))

	return r
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	version, err := h.coordinator.CurrentVersion(r.Context(), namespace)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, map[string]any{"namespace": namespace, "version": version})
}

func (h *Handler) getKeys(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	keys, err := h.coordinator.DumpKeys(r.Context(), namespace)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, map[string]any{"namespace": namespace, "keys": keys})
}

func (h *Handler) invalidateNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	if err := h.coordinator.InvalidateNamespace(r.Context(), namespace); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, map[string]any{"namespace": namespace, "invalidated": true})
}

func (h *Handler) resetNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	if err := h.coordinator.ResetNamespace(r.Context(), namespace); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, map[string]any{"namespace": namespace, "reset": true})
}

func (h *Handler) invalidateAll(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.InvalidateAll(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, map[string]any{"invalidated": true})
}

func (h *Handler) getStats(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, h.coordinator.Stats())
}

func (h *Handler) respond(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode admin response", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Warn("admin request failed", zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debug("admin request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
