package stackoverflow

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
)

// resolveUserID decides whose data an endpoint serves, in fixed priority
// order: explicit user_id parameter, configured default ID, explicit
// username parameter, configured default username. Username resolution
// costs one extra upstream lookup. Exhausting the chain is a bad request,
// reported before any network call.
func (s *Source) resolveUserID(c echo.Context) (int, error) {
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, upstream.BadRequest("Query parameter 'user_id' must be a number.")
		}
		return id, nil
	}
	if s.defaultUserID != 0 {
		return s.defaultUserID, nil
	}
	if username := c.QueryParam("username"); username != "" {
		return s.lookupUserID(c, username)
	}
	if s.defaultUsername != "" {
		return s.lookupUserID(c, s.defaultUsername)
	}
	return 0, upstream.BadRequest("A Stack Overflow user_id or username must be provided.")
}

// lookupUserID maps a display name onto the highest-reputation matching ID.
func (s *Source) lookupUserID(c echo.Context, username string) (int, error) {
	var resp soItems[struct {
		UserID int `json:"user_id"`
	}]
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL: s.BaseURL + "/users",
		Query: url.Values{
			"order":  {"desc"},
			"sort":   {"reputation"},
			"inname": {username},
			"site":   {site},
		},
		FailMsg: "Failed to fetch user ID",
	}, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Items) == 0 {
		return 0, upstream.NotFound(fmt.Sprintf("Stack Overflow user '%s' not found", username))
	}
	return resp.Items[0].UserID, nil
}
