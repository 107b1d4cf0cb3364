package reddit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, handler http.Handler) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := New(srv.Client())
	s.BaseURL = srv.URL
	return s
}

func newContext(subreddit, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("subreddit")
	c.SetParamValues(subreddit)
	return c, rec
}

func TestSearchSubreddit(t *testing.T) {
	s := newSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/golang/search.json", r.URL.Path)
		assert.Equal(t, "generics", r.URL.Query().Get("q"))
		assert.Equal(t, "on", r.URL.Query().Get("restrict_sr"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "devpulse-gateway/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"data":{"children":[
			{"data":{"id":"abc","title":"Go generics tips","subreddit":"golang","permalink":"/r/golang/comments/abc/go_generics_tips/","author":"gopher","score":120}},
			{"data":{"id":"def","title":"","subreddit":"","permalink":"/r/golang/comments/def/","author":"","score":3}}
		]}}`))
	}))

	c, rec := newContext("golang", "/reddit/r/golang/search?query=generics")
	require.NoError(t, s.searchSubreddit(c))

	var got []Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, s.BaseURL+"/r/golang/comments/abc/go_generics_tips/", got[0].URL)
	assert.Equal(t, "No Title", got[1].Title)
	assert.Equal(t, "golang", got[1].Subreddit)
	assert.Equal(t, "No Author", got[1].Author)
}

func TestSearchSubreddit_MissingQueryIsBadRequest(t *testing.T) {
	called := false
	s := newSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	c, _ := newContext("golang", "/reddit/r/golang/search")
	err := s.searchSubreddit(c)

	var ue *upstream.Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, upstream.KindBadRequest, ue.Kind)
	assert.Equal(t, "Query parameter 'query' is required.", ue.Detail)
	assert.False(t, called)
}

func TestSearchSubreddit_EmptyListing(t *testing.T) {
	s := newSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"children":[]}}`))
	}))

	c, rec := newContext("golang", "/reddit/r/golang/search?query=zzz")
	require.NoError(t, s.searchSubreddit(c))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearchSubreddit_UpstreamErrorPassesThrough(t *testing.T) {
	s := newSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))

	c, _ := newContext("golang", "/reddit/r/golang/search?query=go")
	err := s.searchSubreddit(c)

	var ue *upstream.Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, upstream.KindUpstream, ue.Kind)
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
}
