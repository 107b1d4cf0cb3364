// Package registry binds every source's endpoint set under a unique path
// prefix and keeps the discovery endpoint in lockstep with routing.
package registry

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Feature is one entry of the /features discovery map.
type Feature struct {
	ExampleEndpoint string `json:"example_endpoint"`
	Description     string `json:"description"`
}

// Source is one upstream adapter's endpoint set.
type Source interface {
	// Prefix is the top-level path segment the source is mounted under,
	// without slashes.
	Prefix() string
	Feature() Feature
	Bind(g *echo.Group)
}

type Registry struct {
	sources  []Source
	byPrefix map[string]Source
}

func New() *Registry {
	return &Registry{byPrefix: make(map[string]Source)}
}

// Register reserves the source's prefix. A second registration for the same
// prefix is rejected rather than silently shadowing the first.
func (r *Registry) Register(s Source) error {
	prefix := s.Prefix()
	if prefix == "" {
		return fmt.Errorf("source has an empty prefix")
	}
	if _, taken := r.byPrefix[prefix]; taken {
		return fmt.Errorf("prefix %q is already registered", prefix)
	}
	r.byPrefix[prefix] = s
	r.sources = append(r.sources, s)
	return nil
}

// Mount binds every registered source under its prefix and exposes the
// discovery endpoint built from the same registration list.
func (r *Registry) Mount(e *echo.Echo) {
	for _, s := range r.sources {
		s.Bind(e.Group("/" + s.Prefix()))
	}
	e.GET("/features", func(c echo.Context) error {
		return c.JSON(http.StatusOK, r.Features())
	})
}

// Features maps every registered prefix to its discovery entry.
func (r *Registry) Features() map[string]Feature {
	features := make(map[string]Feature, len(r.sources))
	for _, s := range r.sources {
		features[s.Prefix()] = s.Feature()
	}
	return features
}
