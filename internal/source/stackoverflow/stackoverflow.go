// Package stackoverflow adapts the Stack Exchange API. It merges the
// user-centric endpoints (questions, answers, featured) with the tag
// search from the second legacy generation.
package stackoverflow

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
)

const (
	defaultBaseURL = "https://api.stackexchange.com/2.3"
	site           = "stackoverflow"
)

type Question struct {
	QuestionID int64  `json:"question_id"`
	Title      string `json:"title"`
	Link       string `json:"link"`
}

type Answer struct {
	AnswerID   int64  `json:"answer_id"`
	QuestionID int64  `json:"question_id"`
	Link       string `json:"link"`
}

type FeaturedQuestion struct {
	Title            string `json:"title"`
	Link             string `json:"link"`
	BountyAmount     int    `json:"bounty_amount"`
	AnswerCount      int    `json:"answer_count"`
	OwnerDisplayName string `json:"owner_display_name"`
}

type Owner struct {
	DisplayName string `json:"display_name"`
}

type SearchQuestion struct {
	QuestionID int64    `json:"question_id"`
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Owner      Owner    `json:"owner"`
	Tags       []string `json:"tags"`
	Score      int      `json:"score"`
	IsAnswered bool     `json:"is_answered"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api             *upstream.Client
	defaultUserID   int
	defaultUsername string
}

func New(hc *http.Client, defaultUserID int, defaultUsername string) *Source {
	return &Source{
		BaseURL:         defaultBaseURL,
		api:             upstream.NewClient(hc, "the Stack Exchange API"),
		defaultUserID:   defaultUserID,
		defaultUsername: defaultUsername,
	}
}

func (s *Source) Prefix() string { return "stackoverflow" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/stackoverflow/questions",
		Description:     "Get recent Stack Overflow questions",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/featured", s.listFeatured)
	g.GET("/questions", s.listQuestions)
	g.GET("/answers", s.listAnswers)
	g.GET("/search", s.search)
}

type soItems[T any] struct {
	Items []T `json:"items"`
}

func (s *Source) listFeatured(c echo.Context) error {
	var resp soItems[struct {
		Title        string `json:"title"`
		Link         string `json:"link"`
		BountyAmount int    `json:"bounty_amount"`
		AnswerCount  int    `json:"answer_count"`
		Owner        Owner  `json:"owner"`
	}]
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/questions/featured",
		Query:   url.Values{"order": {"desc"}, "sort": {"activity"}, "site": {site}},
		FailMsg: "Failed to fetch featured questions",
	}, &resp)
	if err != nil {
		return err
	}

	items := resp.Items
	if len(items) > 15 {
		items = items[:15]
	}
	out := make([]FeaturedQuestion, 0, len(items))
	for _, q := range items {
		out = append(out, FeaturedQuestion{
			Title:            q.Title,
			Link:             q.Link,
			BountyAmount:     q.BountyAmount,
			AnswerCount:      q.AnswerCount,
			OwnerDisplayName: q.Owner.DisplayName,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Source) listQuestions(c echo.Context) error {
	userID, err := s.resolveUserID(c)
	if err != nil {
		return err
	}

	var resp soItems[Question]
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     fmt.Sprintf("%s/users/%d/questions", s.BaseURL, userID),
		Query:   url.Values{"order": {"desc"}, "sort": {"creation"}, "site": {site}},
		FailMsg: "Failed to fetch questions",
	}, &resp)
	if err != nil {
		return err
	}

	items := resp.Items
	if len(items) > 10 {
		items = items[:10]
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Source) listAnswers(c echo.Context) error {
	userID, err := s.resolveUserID(c)
	if err != nil {
		return err
	}

	var resp soItems[struct {
		AnswerID   int64 `json:"answer_id"`
		QuestionID int64 `json:"question_id"`
	}]
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     fmt.Sprintf("%s/users/%d/answers", s.BaseURL, userID),
		Query:   url.Values{"order": {"desc"}, "sort": {"creation"}, "site": {site}},
		FailMsg: "Failed to fetch answers",
	}, &resp)
	if err != nil {
		return err
	}

	items := resp.Items
	if len(items) > 10 {
		items = items[:10]
	}
	out := make([]Answer, 0, len(items))
	for _, a := range items {
		out = append(out, Answer{
			AnswerID:   a.AnswerID,
			QuestionID: a.QuestionID,
			Link:       fmt.Sprintf("https://stackoverflow.com/a/%d", a.AnswerID),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Source) search(c echo.Context) error {
	query := c.QueryParam("q")
	tagged := c.QueryParam("tagged")
	if query == "" {
		return upstream.BadRequest("Query parameter 'q' is required.")
	}
	if tagged == "" {
		return upstream.BadRequest("Query parameter 'tagged' is required.")
	}

	var resp soItems[SearchQuestion]
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL: s.BaseURL + "/search",
		Query: url.Values{
			"site":    {site},
			"intitle": {query},
			"tagged":  {tagged},
			"sort":    {"relevance"},
			"order":   {"desc"},
		},
		FailMsg: "Error searching Stack Overflow",
	}, &resp)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp.Items)
}
