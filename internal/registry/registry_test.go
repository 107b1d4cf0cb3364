package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	prefix  string
	feature Feature
	bound   bool
}

func (f *fakeSource) Prefix() string   { return f.prefix }
func (f *fakeSource) Feature() Feature { return f.feature }
func (f *fakeSource) Bind(g *echo.Group) {
	f.bound = true
	g.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, f.prefix)
	})
}

func TestRegistry_RejectsDuplicatePrefix(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(&fakeSource{prefix: "github"}))

	err := r.Register(&fakeSource{prefix: "github"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github")
}

func TestRegistry_RejectsEmptyPrefix(t *testing.T) {
	r := New()
	require.Error(t, r.Register(&fakeSource{prefix: ""}))
}

func TestRegistry_MountBindsEverySource(t *testing.T) {
	r := New()
	a := &fakeSource{prefix: "alpha"}
	b := &fakeSource{prefix: "beta"}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	e := echo.New()
	r.Mount(e)

	assert.True(t, a.bound)
	assert.True(t, b.bound)

	req := httptest.NewRequest(http.MethodGet, "/beta/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "beta", rec.Body.String())
}

func TestRegistry_FeaturesMatchRegisteredPrefixes(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeSource{
		prefix:  "alpha",
		feature: Feature{ExampleEndpoint: "/alpha/ping", Description: "Alpha things"},
	}))
	require.NoError(t, r.Register(&fakeSource{
		prefix:  "beta",
		feature: Feature{ExampleEndpoint: "/beta/ping", Description: "Beta things"},
	}))

	e := echo.New()
	r.Mount(e)

	req := httptest.NewRequest(http.MethodGet, "/features", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var features map[string]Feature
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &features))

	// Discovery must list exactly the registered prefixes, no more, no fewer.
	require.Len(t, features, 2)
	assert.Equal(t, "/alpha/ping", features["alpha"].ExampleEndpoint)
	assert.Equal(t, "Beta things", features["beta"].Description)
}
