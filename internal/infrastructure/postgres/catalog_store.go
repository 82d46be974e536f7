// Package postgres provides PostgreSQL infrastructure for the catalog
// service: versioned question catalogs published for the follow-up forms.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
)

// ErrCatalogNotFound is returned when no published catalog exists for a form.
var ErrCatalogNotFound = errors.New("catalog not found")

// ErrVersionExists is returned when publishing a form+version that is
// already in the store. Published versions are immutable.
var ErrVersionExists = errors.New("catalog version already published")

// CatalogStore persists versioned catalog definitions. The whole definition
// is stored as one jsonb document per version; catalogs are small and always
// read whole.
type CatalogStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

// NewCatalogStore creates a store.
func NewCatalogStore(pool *pgxpool.Pool, logger *zap.Logger) *CatalogStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogStore{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("catalog-store"),
	}
}

// Load returns the latest published catalog for a form. Satisfies
// catalog.Source.
func (s *CatalogStore) Load(ctx context.Context, form string) (*catalog.Catalog, error) {
	ctx, span := s.tracer.Start(ctx, "catalog_load",
		trace.WithAttributes(attribute.String("form", form)))
	defer span.End()

	query := `
		SELECT definition
		FROM followup_catalogs
		WHERE form = $1
		ORDER BY published_at DESC
		LIMIT 1
	`

	var definition []byte
	err := s.pool.QueryRow(ctx, query, form).Scan(&definition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: form %s", ErrCatalogNotFound, form)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return decodeCatalog(definition)
}

// LoadVersion returns a specific catalog version, used when re-reading a
// submission against the rule set that flagged it.
func (s *CatalogStore) LoadVersion(ctx context.Context, form, version string) (*catalog.Catalog, error) {
	query := `
		SELECT definition
		FROM followup_catalogs
		WHERE form = $1 AND version = $2
	`

	var definition []byte
	err := s.pool.QueryRow(ctx, query, form, version).Scan(&definition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: form %s version %s", ErrCatalogNotFound, form, version)
		}
		return nil, fmt.Errorf("load catalog version: %w", err)
	}

	return decodeCatalog(definition)
}

// Publish stores a new catalog version. Re-publishing an existing
// form+version pair is rejected; versions are immutable once out.
func (s *CatalogStore) Publish(ctx context.Context, c *catalog.Catalog) error {
	ctx, span := s.tracer.Start(ctx, "catalog_publish",
		trace.WithAttributes(
			attribute.String("form", c.Form),
			attribute.String("version", c.Version),
		))
	defer span.End()

	if err := c.Validate(); err != nil {
		return fmt.Errorf("refusing to publish invalid catalog: %w", err)
	}

	definition, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	query := `
		INSERT INTO followup_catalogs (form, version, definition, published_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (form, version) DO NOTHING
		RETURNING published_at
	`

	var publishedAt time.Time
	err = s.pool.QueryRow(ctx, query, c.Form, c.Version, definition).Scan(&publishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("catalog %s version %s: %w", c.Form, c.Version, ErrVersionExists)
		}
		span.RecordError(err)
		return fmt.Errorf("publish catalog: %w", err)
	}

	s.logger.Info("catalog published",
		zap.String("form", c.Form),
		zap.String("version", c.Version),
		zap.Int("questions", len(c.Questions)))

	return nil
}

// Versions lists the published versions for a form, newest first.
func (s *CatalogStore) Versions(ctx context.Context, form string) ([]string, error) {
	query := `
		SELECT version
		FROM followup_catalogs
		WHERE form = $1
		ORDER BY published_at DESC
	`

	rows, err := s.pool.Query(ctx, query, form)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Seed publishes the built-in catalogs when the store is empty for their
// forms, so a fresh deployment serves questions immediately.
func (s *CatalogStore) Seed(ctx context.Context, catalogs ...*catalog.Catalog) error {
	for _, c := range catalogs {
		_, err := s.Load(ctx, c.Form)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrCatalogNotFound) {
			return err
		}
		if err := s.Publish(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func decodeCatalog(definition []byte) (*catalog.Catalog, error) {
	var c catalog.Catalog
	if err := json.Unmarshal(definition, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("stored catalog invalid: %w", err)
	}
	return &c, nil
}
