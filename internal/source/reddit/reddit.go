// Package reddit adapts Reddit's public JSON API.
package reddit

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/devpulse/gateway/pkg/utils"
	"github.com/labstack/echo/v4"
)

const defaultBaseURL = "https://www.reddit.com"

// Reddit rejects generic user agents, so the gateway identifies itself.
const userAgent = "devpulse-gateway/1.0"

type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
	Author    string `json:"author"`
	Score     int    `json:"score"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api *upstream.Client
}

func New(hc *http.Client) *Source {
	return &Source{
		BaseURL: defaultBaseURL,
		api:     upstream.NewClient(hc, "the Reddit API"),
	}
}

func (s *Source) Prefix() string { return "reddit" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/reddit/r/programming/search?query=go",
		Description:     "Search posts in a specified subreddit",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/r/:subreddit/search", s.searchSubreddit)
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID        string `json:"id"`
				Title     string `json:"title"`
				Subreddit string `json:"subreddit"`
				Permalink string `json:"permalink"`
				Author    string `json:"author"`
				Score     int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *Source) searchSubreddit(c echo.Context) error {
	subreddit := c.Param("subreddit")
	query := c.QueryParam("query")
	if query == "" {
		return upstream.BadRequest("Query parameter 'query' is required.")
	}

	var listing redditListing
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL: fmt.Sprintf("%s/r/%s/search.json", s.BaseURL, subreddit),
		Query: url.Values{
			"q":           {query},
			"restrict_sr": {"on"},
			"limit":       {"25"},
		},
		Header:  http.Header{"User-Agent": {userAgent}},
		FailMsg: "Error searching Reddit",
	}, &listing)
	if err != nil {
		return err
	}

	out := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		out = append(out, Post{
			ID:        p.ID,
			Title:     utils.OrDefault(p.Title, "No Title"),
			Subreddit: utils.OrDefault(p.Subreddit, subreddit),
			// The permalink is relative; anchor it to the public site.
			URL:    s.BaseURL + p.Permalink,
			Author: utils.OrDefault(p.Author, "No Author"),
			Score:  p.Score,
		})
	}
	return c.JSON(http.StatusOK, out)
}
