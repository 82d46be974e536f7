package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/api/middleware"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/infrastructure/postgres"
)

// CatalogHandler serves and publishes question catalogs. The follow-up API
// reads through here (with a Redis cache in front); publishing is an
// operator action behind API key auth.
type CatalogHandler struct {
	store  *postgres.CatalogStore
	cache  *redis.Client
	logger *zap.Logger
}

// NewCatalogHandler creates a handler. cache may be nil.
func NewCatalogHandler(store *postgres.CatalogStore, cache *redis.Client, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Routes returns the handler routes
func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{form}", h.Get)
	r.Get("/{form}/versions", h.Versions)
	r.Put("/{form}", h.Publish)
	return r
}

// Get handles GET /catalogs/{form}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := chi.URLParam(r, "form")

	c, err := h.store.Load(ctx, form)
	if err != nil {
		if errors.Is(err, postgres.ErrCatalogNotFound) {
			h.jsonError(w, "catalog not found", http.StatusNotFound)
			return
		}
		h.logger.Error("catalog load failed", zap.String("form", form), zap.Error(err))
		h.jsonError(w, "failed to load catalog", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// Versions handles GET /catalogs/{form}/versions
func (h *CatalogHandler) Versions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := chi.URLParam(r, "form")

	versions, err := h.store.Versions(ctx, form)
	if err != nil {
		h.logger.Error("version list failed", zap.String("form", form), zap.Error(err))
		h.jsonError(w, "failed to list versions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"form":     form,
		"versions": versions,
	})
}

// Publish handles PUT /catalogs/{form}. The body is a full catalog
// definition; the path form must match the definition's form.
func (h *CatalogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := chi.URLParam(r, "form")

	var c catalog.Catalog
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.jsonError(w, "invalid catalog body", http.StatusBadRequest)
		return
	}
	if c.Form != form {
		h.jsonError(w, "catalog form does not match path", http.StatusBadRequest)
		return
	}
	if err := c.Validate(); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.Publish(ctx, &c); err != nil {
		h.logger.Error("catalog publish failed",
			zap.String("form", form),
			zap.String("version", c.Version),
			zap.Error(err))
		if errors.Is(err, postgres.ErrVersionExists) {
			h.jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.jsonError(w, "publish failed", http.StatusInternalServerError)
		return
	}

	// Drop the read-through cache entry so the API picks up the new
	// version on its next load.
	if h.cache != nil {
		if err := h.cache.Del(ctx, "catalog:"+form).Err(); err != nil {
			h.logger.Warn("cache invalidation failed", zap.String("form", form), zap.Error(err))
		}
	}

	h.logger.Info("catalog published",
		zap.String("form", form),
		zap.String("version", c.Version),
		zap.String("client_id", middleware.GetClientID(ctx)),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"form":    c.Form,
		"version": c.Version,
	})
}

func (h *CatalogHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
