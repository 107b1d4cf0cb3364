// Package devto adapts the DEV.to (Forem) API.
package devto

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/devpulse/gateway/pkg/utils"
	"github.com/labstack/echo/v4"
)

const defaultBaseURL = "https://dev.to/api"

type Article struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Author string `json:"author,omitempty"`
	Tags   string `json:"tags,omitempty"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api    *upstream.Client
	apiKey string
}

func New(hc *http.Client, apiKey string) *Source {
	return &Source{
		BaseURL: defaultBaseURL,
		api:     upstream.NewClient(hc, "the DEV.to API"),
		apiKey:  apiKey,
	}
}

func (s *Source) Prefix() string { return "devto" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/devto/articles",
		Description:     "Fetch latest DEV.to articles",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/articles", s.listArticles)
	g.GET("/article/:id", s.getArticle)
}

func (s *Source) headers() (http.Header, error) {
	if s.apiKey == "" {
		return nil, upstream.ConfigError("DEVTO_API_KEY")
	}
	return http.Header{
		"Api-Key": {s.apiKey},
		"Accept":  {"application/vnd.forem.api-v1+json"},
	}, nil
}

type devtoArticle struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	TagList []string `json:"tag_list"`
	User    struct {
		Name string `json:"name"`
	} `json:"user"`
}

func (a *devtoArticle) toArticle() Article {
	return Article{
		ID:     a.ID,
		Title:  utils.OrDefault(a.Title, "No Title"),
		URL:    a.URL,
		Author: a.User.Name,
		Tags:   strings.Join(a.TagList, ", "),
	}
}

func (s *Source) listArticles(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}

	var articles []devtoArticle
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/articles/latest",
		Query:   url.Values{"per_page": {"10"}},
		Header:  header,
		FailMsg: "Error fetching articles",
	}, &articles)
	if err != nil {
		return err
	}

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.toArticle())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Source) getArticle(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}
	id := c.Param("id")

	var article devtoArticle
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      fmt.Sprintf("%s/articles/%s", s.BaseURL, id),
		Header:   header,
		NotFound: fmt.Sprintf("Article with ID %s not found.", id),
		FailMsg:  "Error fetching article",
	}, &article)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, article.toArticle())
}
