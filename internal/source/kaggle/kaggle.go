// Package kaggle adapts the Kaggle public API, authenticated with a
// username/key basic-auth pair.
package kaggle

import (
	"net/http"
	"net/url"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
)

const defaultBaseURL = "https://www.kaggle.com/api/v1"

type Dataset struct {
	Title string `json:"title"`
	Ref   string `json:"ref"`
	URL   string `json:"url"`
}

type Competition struct {
	Ref      string `json:"ref"`
	Title    string `json:"title"`
	Deadline string `json:"deadline"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api      *upstream.Client
	username string
	key      string
}

func New(hc *http.Client, username, key string) *Source {
	return &Source{
		BaseURL:  defaultBaseURL,
		api:      upstream.NewClient(hc, "the Kaggle API"),
		username: username,
		key:      key,
	}
}

func (s *Source) Prefix() string { return "kaggle" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/kaggle/datasets",
		Description:     "List trending Kaggle datasets",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/datasets", s.listDatasets)
	g.GET("/competitions", s.listCompetitions)
}

func (s *Source) auth() (*upstream.BasicAuth, error) {
	if s.username == "" || s.key == "" {
		return nil, upstream.ConfigError("KAGGLE_USERNAME or KAGGLE_KEY")
	}
	return &upstream.BasicAuth{Username: s.username, Password: s.key}, nil
}

func (s *Source) listDatasets(c echo.Context) error {
	auth, err := s.auth()
	if err != nil {
		return err
	}

	var datasets []struct {
		Title string `json:"title"`
		Ref   string `json:"ref"`
	}
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/datasets/list",
		Query:   url.Values{"sort_by": {"updated"}, "page_size": {"10"}},
		Auth:    auth,
		FailMsg: "Failed to fetch Kaggle datasets",
	}, &datasets)
	if err != nil {
		return err
	}

	out := make([]Dataset, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, Dataset{
			Title: d.Title,
			Ref:   d.Ref,
			URL:   "https://www.kaggle.com/datasets/" + d.Ref,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Source) listCompetitions(c echo.Context) error {
	auth, err := s.auth()
	if err != nil {
		return err
	}

	var competitions []Competition
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/competitions/list",
		Query:   url.Values{"sort_by": {"latestDeadline"}, "page_size": {"10"}},
		Auth:    auth,
		FailMsg: "Failed to fetch Kaggle competitions",
	}, &competitions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, competitions)
}
