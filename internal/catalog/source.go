package catalog

import (
	"context"
	"fmt"
)

// Source loads the catalog for a given form. Implementations must return a
// validated catalog; resolvers treat the result as immutable.
type Source interface {
	Load(ctx context.Context, form string) (*Catalog, error)
}

// StaticSource serves the built-in in-process catalogs.
type StaticSource struct {
	catalogs map[string]*Catalog
}

// NewStaticSource creates a source holding the built-in catalogs plus any
// extras (e.g. loaded from YAML files at startup).
func NewStaticSource(extra ...*Catalog) (*StaticSource, error) {
	s := &StaticSource{catalogs: map[string]*Catalog{}}
	for _, c := range append([]*Catalog{Standard(), AdverseEvent()}, extra...) {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		s.catalogs[c.Form] = c
	}
	return s, nil
}

// Load returns the catalog for the form.
func (s *StaticSource) Load(_ context.Context, form string) (*Catalog, error) {
	c, ok := s.catalogs[form]
	if !ok {
		return nil, fmt.Errorf("no catalog for form %q", form)
	}
	return c, nil
}

// FallbackSource tries a primary source and falls back to a secondary one.
// Used so followup-api keeps working when the catalog-service is down.
type FallbackSource struct {
	Primary  Source
	Fallback Source
}

// Load tries the primary source first.
func (f *FallbackSource) Load(ctx context.Context, form string) (*Catalog, error) {
	c, err := f.Primary.Load(ctx, form)
	if err == nil {
		return c, nil
	}
	c, ferr := f.Fallback.Load(ctx, form)
	if ferr != nil {
		return nil, fmt.Errorf("primary: %v, fallback: %w", err, ferr)
	}
	return c, nil
}
