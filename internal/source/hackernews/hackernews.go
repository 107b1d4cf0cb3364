// Package hackernews adapts the Hacker News Firebase API and the Algolia
// search index. Story listings are the classic fan-out: one call for the
// ID list, one concurrent detail call per ID.
package hackernews

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/devpulse/gateway/internal/fanout"
	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/devpulse/gateway/pkg/utils"
	"github.com/labstack/echo/v4"
)

const (
	defaultBaseURL       = "https://hacker-news.firebaseio.com/v0"
	defaultSearchBaseURL = "http://hn.algolia.com/api/v1"

	storyCap = 10
)

type Story struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	URL         *string `json:"url,omitempty"`
	By          string  `json:"by"`
	Score       int     `json:"score"`
	Time        int64   `json:"time"`
	Type        string  `json:"type"`
	Descendants int     `json:"descendants"`
}

type User struct {
	ID        string  `json:"id"`
	Created   int64   `json:"created"`
	Karma     int     `json:"karma"`
	About     *string `json:"about,omitempty"`
	Submitted []int64 `json:"submitted"`
}

// SearchHit is the Algolia-backed search record.
type SearchHit struct {
	ObjectID string  `json:"objectID"`
	Title    string  `json:"title"`
	URL      *string `json:"url,omitempty"`
	Points   int     `json:"points"`
	Author   string  `json:"author"`
}

type Source struct {
	// BaseURL and SearchBaseURL are overridable for tests.
	BaseURL       string
	SearchBaseURL string

	api *upstream.Client
}

func New(hc *http.Client) *Source {
	return &Source{
		BaseURL:       defaultBaseURL,
		SearchBaseURL: defaultSearchBaseURL,
		api:           upstream.NewClient(hc, "the Hacker News API"),
	}
}

func (s *Source) Prefix() string { return "hackernews" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/hackernews/topstories",
		Description:     "List top stories from Hacker News",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/topstories", s.listTopStories)
	g.GET("/newstories", s.listNewStories)
	g.GET("/item/:id", s.getItem)
	g.GET("/user/:id", s.getUser)
	g.GET("/search", s.search)
}

type hnItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	URL         *string `json:"url"`
	By          string  `json:"by"`
	Score       int     `json:"score"`
	Time        int64   `json:"time"`
	Type        string  `json:"type"`
	Descendants int     `json:"descendants"`
}

func (i *hnItem) toStory() Story {
	return Story{
		ID:          i.ID,
		Title:       utils.OrDefault(i.Title, "N/A"),
		URL:         i.URL,
		By:          utils.OrDefault(i.By, "N/A"),
		Score:       i.Score,
		Time:        i.Time,
		Type:        utils.OrDefault(i.Type, "N/A"),
		Descendants: i.Descendants,
	}
}

// fetchItem loads one item; the API answers "null" for unknown IDs.
func (s *Source) fetchItem(ctx context.Context, id int64) (*hnItem, error) {
	var item *hnItem
	err := s.api.GetJSON(ctx, upstream.Request{
		URL:     fmt.Sprintf("%s/item/%d.json", s.BaseURL, id),
		FailMsg: "Failed to fetch item",
	}, &item)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, upstream.ParseFailure("Item response was empty.")
	}
	return item, nil
}

func (s *Source) listTopStories(c echo.Context) error {
	return s.listStories(c, "top")
}

func (s *Source) listNewStories(c echo.Context) error {
	return s.listStories(c, "new")
}

// listStories fetches the story ID list, then fans out one detail call per
// ID. If the ID list itself fails there is nothing to fan out over and the
// whole request fails; a failed detail call only loses that story.
func (s *Source) listStories(c echo.Context, storyType string) error {
	ctx := c.Request().Context()

	var ids []int64
	err := s.api.GetJSON(ctx, upstream.Request{
		URL:     fmt.Sprintf("%s/%sstories.json", s.BaseURL, storyType),
		FailMsg: fmt.Sprintf("Failed to fetch %s stories", storyType),
	}, &ids)
	if err != nil {
		return err
	}
	if len(ids) > storyCap {
		ids = ids[:storyCap]
	}

	tasks := make([]fanout.Task[*hnItem], len(ids))
	for i, id := range ids {
		id := id
		tasks[i] = func(ctx context.Context) (*hnItem, error) {
			return s.fetchItem(ctx, id)
		}
	}

	stories := make([]Story, 0, len(ids))
	for _, item := range fanout.Gather(ctx, tasks) {
		// Dead or non-story items (jobs, polls) are dropped before the cap
		// matters; the ID list already bounded the batch.
		if item.Type != "story" || item.Title == "" {
			continue
		}
		stories = append(stories, item.toStory())
	}
	return c.JSON(http.StatusOK, stories)
}

func (s *Source) getItem(c echo.Context) error {
	id := c.Param("id")
	var itemID int64
	if _, err := fmt.Sscanf(id, "%d", &itemID); err != nil {
		return upstream.BadRequest("Item ID must be a number.")
	}

	item, err := s.fetchItem(c.Request().Context(), itemID)
	if err != nil {
		var ue *upstream.Error
		if errors.As(err, &ue) && ue.Kind == upstream.KindUnavailable {
			return err
		}
		return upstream.NotFound(fmt.Sprintf("Item with ID %d not found or failed to fetch.", itemID))
	}
	return c.JSON(http.StatusOK, item.toStory())
}

func (s *Source) getUser(c echo.Context) error {
	userID := c.Param("id")

	var user *User
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     fmt.Sprintf("%s/user/%s.json", s.BaseURL, userID),
		FailMsg: "Failed to fetch user",
	}, &user)
	if err != nil {
		return err
	}
	if user == nil {
		return upstream.NotFound(fmt.Sprintf("User '%s' not found", userID))
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Source) search(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return upstream.BadRequest("Query parameter 'query' is required.")
	}

	var resp struct {
		Hits []SearchHit `json:"hits"`
	}
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.SearchBaseURL + "/search",
		Query:   url.Values{"query": {query}, "tags": {"story"}},
		FailMsg: "Error searching Hacker News",
	}, &resp)
	if err != nil {
		return err
	}

	out := make([]SearchHit, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		// A hit without a title is an empty shell; drop it.
		if hit.Title == "" {
			continue
		}
		hit.Author = utils.OrDefault(hit.Author, "No Author")
		out = append(out, hit)
	}
	return c.JSON(http.StatusOK, out)
}
