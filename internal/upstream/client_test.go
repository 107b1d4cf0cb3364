package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.Client(), "the test API"), srv
}

func TestGetJSON_Success(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bar", r.URL.Query().Get("foo"))
		assert.Equal(t, "token abc", r.Header.Get("Authorization"))
		w.Write([]byte(`{"name":"x"}`))
	})
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := c.GetJSON(context.Background(), Request{
		URL:    srv.URL,
		Query:  map[string][]string{"foo": {"bar"}},
		Header: http.Header{"Authorization": {"token abc"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "x", out.Name)
}

func TestGetJSON_BasicAuth(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "key", pass)
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	var out map[string]any
	err := c.GetJSON(context.Background(), Request{
		URL:  srv.URL,
		Auth: &BasicAuth{Username: "user", Password: "key"},
	}, &out)
	require.NoError(t, err)
}

func TestGetJSON_LargePayloadDecodesFully(t *testing.T) {
	// Some upstreams answer with multi-hundred-KB lists; the body must
	// arrive whole, not clipped at the error-body cap.
	const items = 5000
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		sb.WriteString("[")
		for i := 0; i < items; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"id":%d,"name":"Round %d padding padding padding padding padding"}`, i, i)
		}
		sb.WriteString("]")
		require.Greater(t, sb.Len(), maxErrBody)
		w.Write([]byte(sb.String()))
	})
	defer srv.Close()

	var out []struct {
		ID int `json:"id"`
	}
	err := c.GetJSON(context.Background(), Request{URL: srv.URL}, &out)
	require.NoError(t, err)
	require.Len(t, out, items)
	assert.Equal(t, items-1, out[items-1].ID)
}

func TestGetJSON_NotFoundMapping(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	defer srv.Close()

	var out any
	err := c.GetJSON(context.Background(), Request{
		URL:      srv.URL,
		NotFound: "Thing 'x' not found.",
	}, &out)

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindNotFound, ue.Kind)
	assert.Equal(t, http.StatusNotFound, ue.Status)
	assert.Equal(t, "Thing 'x' not found.", ue.Detail)
}

func TestGetJSON_NotFoundWithoutMessageIsUpstream(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	defer srv.Close()

	var out any
	err := c.GetJSON(context.Background(), Request{URL: srv.URL, FailMsg: "Failed"}, &out)

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindUpstream, ue.Kind)
}

func TestGetJSON_UpstreamStatusPropagatedVerbatim(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("backend exploded"))
	})
	defer srv.Close()

	var out any
	err := c.GetJSON(context.Background(), Request{URL: srv.URL, FailMsg: "Failed to fetch things"}, &out)

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindUpstream, ue.Kind)
	assert.Equal(t, http.StatusBadGateway, ue.Status)
	assert.Equal(t, "Failed to fetch things: backend exploded", ue.Detail)
}

func TestGetJSON_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	c := NewClient(&http.Client{Timeout: time.Second}, "the test API")

	var out any
	err := c.GetJSON(context.Background(), Request{URL: url}, &out)

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindUnavailable, ue.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ue.Status)
	assert.Equal(t, "Could not connect to the test API.", ue.Detail)
}

func TestGetJSON_MalformedPayloadIsParseFailure(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})
	defer srv.Close()

	var out map[string]any
	err := c.GetJSON(context.Background(), Request{URL: srv.URL}, &out)

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindParse, ue.Kind)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
}

func TestConfigError(t *testing.T) {
	err := ConfigError("GITHUB_TOKEN")
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "GITHUB_TOKEN not found in environment.", err.Detail)
}
