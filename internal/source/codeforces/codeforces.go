// Package codeforces adapts the Codeforces API. Every response arrives in
// a {status, result} envelope; profile and contest links are synthesized
// from upstream-confirmed identifiers.
package codeforces

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
)

const (
	defaultBaseURL = "https://codeforces.com/api"
	webBaseURL     = "https://codeforces.com"

	contestCap = 10
)

type Contest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phase string `json:"phase"`
	Link  string `json:"link"`
}

type UserInfo struct {
	Handle       string `json:"handle"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Country      string `json:"country,omitempty"`
	Organization string `json:"organization,omitempty"`
	Rating       *int   `json:"rating,omitempty"`
	MaxRating    *int   `json:"maxRating,omitempty"`
	Rank         string `json:"rank,omitempty"`
	MaxRank      string `json:"maxRank,omitempty"`
	LastOnline   string `json:"lastOnline,omitempty"`
	ProfileLink  string `json:"profileLink"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api           *upstream.Client
	defaultHandle string
}

func New(hc *http.Client, defaultHandle string) *Source {
	return &Source{
		BaseURL:       defaultBaseURL,
		api:           upstream.NewClient(hc, "the Codeforces API"),
		defaultHandle: defaultHandle,
	}
}

func (s *Source) Prefix() string { return "codeforces" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/codeforces/contests",
		Description:     "Get upcoming Codeforces contests",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/contests", s.listContests)
	g.GET("/userinfo/me", s.getDefaultUserInfo)
	g.GET("/userinfo/:handle", s.getUserInfo)
}

type cfEnvelope[T any] struct {
	Status string `json:"status"`
	Result []T    `json:"result"`
}

// listContests returns the upcoming contests: phase filter first, then the
// cap, so 12 upcoming out of 200 still yields at most 10.
func (s *Source) listContests(c echo.Context) error {
	var resp cfEnvelope[struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Phase string `json:"phase"`
	}]
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/contest.list",
		FailMsg: "Failed to fetch or parse contests",
	}, &resp)
	if err != nil {
		var ue *upstream.Error
		if errors.As(err, &ue) && ue.Kind == upstream.KindUpstream {
			return upstream.ParseFailure("Failed to fetch or parse contests.")
		}
		return err
	}

	upcoming := make([]Contest, 0, contestCap)
	for _, contest := range resp.Result {
		if contest.Phase != "BEFORE" {
			continue
		}
		upcoming = append(upcoming, Contest{
			ID:    contest.ID,
			Name:  contest.Name,
			Phase: contest.Phase,
			Link:  fmt.Sprintf("%s/contest/%d", webBaseURL, contest.ID),
		})
		if len(upcoming) == contestCap {
			break
		}
	}
	return c.JSON(http.StatusOK, upcoming)
}

func (s *Source) getDefaultUserInfo(c echo.Context) error {
	if s.defaultHandle == "" {
		return upstream.BadRequest("CODEFORCES_HANDLE is not set in the environment file.")
	}
	return s.userInfo(c, s.defaultHandle, "Default Codeforces user")
}

func (s *Source) getUserInfo(c echo.Context) error {
	return s.userInfo(c, c.Param("handle"), "Codeforces user")
}

type cfUser struct {
	Handle                string `json:"handle"`
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	Country               string `json:"country"`
	Organization          string `json:"organization"`
	Rating                *int   `json:"rating"`
	MaxRating             *int   `json:"maxRating"`
	Rank                  string `json:"rank"`
	MaxRank               string `json:"maxRank"`
	LastOnlineTimeSeconds int64  `json:"lastOnlineTimeSeconds"`
}

// who distinguishes the message texture of the default-handle endpoint
// ("Default Codeforces user") from the explicit one ("Codeforces user").
func (s *Source) userInfo(c echo.Context, handle, who string) error {
	notFound := fmt.Sprintf("%s '%s' not found or API error.", who, handle)

	var resp cfEnvelope[cfUser]
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      s.BaseURL + "/user.info",
		Query:    url.Values{"handles": {handle}},
		NotFound: notFound,
		FailMsg:  "Failed to fetch user info",
	}, &resp)
	if err != nil {
		// The API reports unknown handles as an error status; surface
		// those as not-found rather than an upstream error.
		var ue *upstream.Error
		if errors.As(err, &ue) && ue.Kind == upstream.KindUpstream {
			return upstream.NotFound(notFound)
		}
		return err
	}
	if len(resp.Result) == 0 {
		return upstream.NotFound(fmt.Sprintf("%s '%s' not found.", who, handle))
	}

	u := resp.Result[0]
	return c.JSON(http.StatusOK, UserInfo{
		Handle:       u.Handle,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Country:      u.Country,
		Organization: u.Organization,
		Rating:       u.Rating,
		MaxRating:    u.MaxRating,
		Rank:         u.Rank,
		MaxRank:      u.MaxRank,
		LastOnline:   formatTime(u.LastOnlineTimeSeconds),
		// Built from the handle the API confirmed, not the path parameter.
		ProfileLink: fmt.Sprintf("%s/profile/%s", webBaseURL, u.Handle),
	})
}

func formatTime(epoch int64) string {
	if epoch == 0 {
		return ""
	}
	return time.Unix(epoch, 0).Format("2006-01-02 15:04:05")
}
