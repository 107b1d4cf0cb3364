package upstream

import (
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure the way it is reported to the caller.
type Kind int

const (
	// KindConfig means a required secret or default is missing from the
	// environment.
	KindConfig Kind = iota
	// KindBadRequest means the caller's parameters were invalid or the
	// identity-resolution chain was exhausted.
	KindBadRequest
	// KindNotFound means the upstream confirmed the resource does not exist.
	KindNotFound
	// KindUpstream means the upstream returned a non-success status; the
	// status and body are propagated verbatim.
	KindUpstream
	// KindUnavailable means the upstream could not be reached at all.
	KindUnavailable
	// KindParse means the upstream payload could not be decoded or scraped.
	KindParse
)

// Error is the single error type crossing the adapter boundary. The server's
// error handler renders it as {"detail": <Detail>} with the carried status.
type Error struct {
	Kind   Kind
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// ConfigError reports a missing environment setting by name.
func ConfigError(setting string) *Error {
	return &Error{
		Kind:   KindConfig,
		Status: http.StatusInternalServerError,
		Detail: fmt.Sprintf("%s not found in environment.", setting),
	}
}

func BadRequest(detail string) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Detail: detail}
}

func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Detail: detail}
}

// StatusError propagates an upstream non-2xx status verbatim.
func StatusError(status int, detail string) *Error {
	return &Error{Kind: KindUpstream, Status: status, Detail: detail}
}

func Unavailable(service string) *Error {
	return &Error{
		Kind:   KindUnavailable,
		Status: http.StatusServiceUnavailable,
		Detail: fmt.Sprintf("Could not connect to %s.", service),
	}
}

func ParseFailure(detail string) *Error {
	return &Error{Kind: KindParse, Status: http.StatusInternalServerError, Detail: detail}
}
