package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrBody caps how much of an upstream error body is echoed back to the
// caller.
const maxErrBody = 64 << 10

// NewHTTPClient builds the process-wide HTTP client shared by all adapters.
// Every upstream call gets one attempt bounded by the client timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Client wraps the shared HTTP client for one upstream platform and maps its
// failures into the gateway error taxonomy. The service name only feeds the
// "could not connect" message.
type Client struct {
	hc      *http.Client
	service string
}

func NewClient(hc *http.Client, service string) *Client {
	return &Client{hc: hc, service: service}
}

// BasicAuth carries a username/key pair for upstreams using basic auth.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes one upstream GET plus the source-specific messages used
// when it fails.
type Request struct {
	URL    string
	Query  url.Values
	Header http.Header
	Auth   *BasicAuth

	// NotFound, when non-empty, is the message for an upstream 404. An
	// empty value makes a 404 propagate like any other error status.
	NotFound string
	// FailMsg prefixes the upstream body text on any other non-2xx status.
	FailMsg string
}

// Get performs a single upstream call and returns the raw response body.
// Transport failures map to KindUnavailable, a 404 to KindNotFound when a
// message is supplied, and any other non-2xx to KindUpstream carrying the
// upstream status and body verbatim.
func (c *Client) Get(ctx context.Context, r Request) ([]byte, error) {
	target := r.URL
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, ParseFailure(fmt.Sprintf("Invalid upstream request: %v.", err))
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Auth != nil {
		req.SetBasicAuth(r.Auth.Username, r.Auth.Password)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, Unavailable(c.service)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && r.NotFound != "" {
		return nil, NotFound(r.NotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Only error bodies are bounded; they get echoed into the detail.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		prefix := r.FailMsg
		if prefix == "" {
			prefix = "Upstream request failed"
		}
		return nil, StatusError(resp.StatusCode, fmt.Sprintf("%s: %s", prefix, strings.TrimSpace(string(body))))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Unavailable(c.service)
	}
	return body, nil
}

// GetJSON performs Get and decodes the body into out. A payload that does
// not decode maps to KindParse.
func (c *Client) GetJSON(ctx context.Context, r Request, out any) error {
	body, err := c.Get(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return ParseFailure(fmt.Sprintf("Unexpected response from %s.", c.service))
	}
	return nil
}
