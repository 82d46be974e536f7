package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RemoteConfig holds configuration for the remote catalog source.
type RemoteConfig struct {
	// BaseURL is the catalog-service base URL.
	BaseURL string
	// APIKey authenticates against the catalog-service.
	APIKey string
	// CacheTTL is how long a fetched catalog is served from cache.
	CacheTTL time.Duration
	// RequestTimeout bounds a single fetch.
	RequestTimeout time.Duration
}

// DefaultRemoteConfig returns sensible defaults.
func DefaultRemoteConfig(baseURL string) RemoteConfig {
	return RemoteConfig{
		BaseURL:        baseURL,
		CacheTTL:       5 * time.Minute,
		RequestTimeout: 5 * time.Second,
	}
}

// RemoteSource fetches catalogs from the catalog-service with a Redis
// read-through cache. This is the "server-delivered question list" backend
// used for the adverse-event form; it satisfies the same Source contract as
// the static catalogs.
type RemoteSource struct {
	config RemoteConfig
	client *http.Client
	cache  *redis.Client
	logger *zap.Logger
}

// NewRemoteSource creates a remote source. cache may be nil to disable caching.
func NewRemoteSource(cfg RemoteConfig, cache *redis.Client, logger *zap.Logger) *RemoteSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSource{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		cache:  cache,
		logger: logger,
	}
}

// Load returns the catalog for the form, from cache when fresh.
func (r *RemoteSource) Load(ctx context.Context, form string) (*Catalog, error) {
	cacheKey := "catalog:" + form

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var c Catalog
			if err := json.Unmarshal([]byte(cached), &c); err == nil {
				return &c, nil
			}
			// Corrupt cache entry; fall through to a fresh fetch.
			r.cache.Del(ctx, cacheKey)
		} else if err != redis.Nil {
			r.logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	c, err := r.fetch(ctx, form)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(c); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, r.config.CacheTTL).Err(); err != nil {
				r.logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}

	return c, nil
}

func (r *RemoteSource) fetch(ctx context.Context, form string) (*Catalog, error) {
	url := fmt.Sprintf("%s/api/v1/catalogs/%s", r.config.BaseURL, form)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	if r.config.APIKey != "" {
		req.Header.Set("X-API-Key", r.config.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", form, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch catalog %s: status %d: %s", form, resp.StatusCode, body)
	}

	var c Catalog
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", form, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("remote catalog %s: %w", form, err)
	}

	r.logger.Debug("catalog fetched",
		zap.String("form", c.Form),
		zap.String("version", c.Version),
		zap.Int("questions", len(c.Questions)))

	return &c, nil
}
