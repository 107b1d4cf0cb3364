package stackoverflow

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, defaultUserID int, defaultUsername string, handler http.Handler) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := New(srv.Client(), defaultUserID, defaultUsername)
	s.BaseURL = srv.URL
	return s
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestResolveUserID_ChainOrder(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		defaultUserID   int
		defaultUsername string
		wantID          int
		wantLookups     int32
	}{
		{
			name:   "explicit user_id wins",
			target: "/stackoverflow/questions?user_id=42&username=ignored",
			wantID: 42,
		},
		{
			name:          "default user id beats username parameter",
			target:        "/stackoverflow/questions?username=ignored",
			defaultUserID: 7,
			wantID:        7,
		},
		{
			name:        "username parameter resolved via lookup",
			target:      "/stackoverflow/questions?username=someone",
			wantID:      99,
			wantLookups: 1,
		},
		{
			name:            "default username resolved via lookup",
			target:          "/stackoverflow/questions",
			defaultUsername: "fallback",
			wantID:          99,
			wantLookups:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lookups atomic.Int32
			s := newSource(t, tt.defaultUserID, tt.defaultUsername, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/users", r.URL.Path)
				lookups.Add(1)
				w.Write([]byte(`{"items":[{"user_id":99}]}`))
			}))

			c, _ := newContext(tt.target)
			id, err := s.resolveUserID(c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantLookups, lookups.Load())
		})
	}
}

func TestResolveUserID_ExhaustedChainIs400BeforeNetwork(t *testing.T) {
	called := false
	s := newSource(t, 0, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	c, _ := newContext("/stackoverflow/questions")
	_, err := s.resolveUserID(c)

	var ue *upstream.Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, upstream.KindBadRequest, ue.Kind)
	assert.Equal(t, "A Stack Overflow user_id or username must be provided.", ue.Detail)
	assert.False(t, called)
}

func TestResolveUserID_UnknownUsername(t *testing.T) {
	s := newSource(t, 0, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))

	c, _ := newContext("/stackoverflow/questions?username=ghost")
	_, err := s.resolveUserID(c)

	var ue *upstream.Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, upstream.KindNotFound, ue.Kind)
	assert.Contains(t, ue.Detail, "ghost")
}

func TestListQuestions_CapsAtTen(t *testing.T) {
	s := newSource(t, 42, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42/questions", r.URL.Path)
		var items []string
		for i := 0; i < 12; i++ {
			items = append(items, fmt.Sprintf(`{"question_id":%d,"title":"q%d","link":"https://stackoverflow.com/q/%d"}`, i, i, i))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, joinItems(items))
	}))

	c, rec := newContext("/stackoverflow/questions")
	require.NoError(t, s.listQuestions(c))

	var questions []Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &questions))
	assert.Len(t, questions, 10)
}

func TestListAnswers_SynthesizesLink(t *testing.T) {
	s := newSource(t, 42, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"answer_id":123,"question_id":456}]}`))
	}))

	c, rec := newContext("/stackoverflow/answers")
	require.NoError(t, s.listAnswers(c))

	var answers []Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answers))
	require.Len(t, answers, 1)
	assert.Equal(t, "https://stackoverflow.com/a/123", answers[0].Link)
}

func TestListFeatured_CapsAtFifteen(t *testing.T) {
	s := newSource(t, 0, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 20; i++ {
			items = append(items, fmt.Sprintf(`{"title":"q%d","link":"l","bounty_amount":50,"answer_count":1,"owner":{"display_name":"o"}}`, i))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, joinItems(items))
	}))

	c, rec := newContext("/stackoverflow/featured")
	require.NoError(t, s.listFeatured(c))

	var featured []FeaturedQuestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &featured))
	assert.Len(t, featured, 15)
	assert.Equal(t, "o", featured[0].OwnerDisplayName)
}

func TestSearch_RequiresParameters(t *testing.T) {
	s := newSource(t, 0, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no network call expected")
	}))

	c, _ := newContext("/stackoverflow/search?q=generics")
	err := s.search(c)

	var ue *upstream.Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, upstream.KindBadRequest, ue.Kind)
	assert.Contains(t, ue.Detail, "tagged")
}

func joinItems(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}
