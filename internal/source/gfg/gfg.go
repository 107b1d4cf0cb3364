// Package gfg adapts GeeksforGeeks. Stats come from a community JSON API;
// the problem of the day has no API at all and is scraped from the site.
package gfg

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
)

const (
	defaultStatsBaseURL = "https://geeks-for-geeks-stats-api.vercel.app"
	defaultPotdURL      = "https://www.geeksforgeeks.org/problem-of-the-day"

	// A browser user agent keeps the page fetch from being blocked.
	scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	potdContainerClass = "POTD_header-main"
)

type Stats struct {
	TotalSolved *int `json:"totalSolved"`
	Easy        *int `json:"easy"`
	Medium      *int `json:"medium"`
	Hard        *int `json:"hard"`
}

type POTD struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type Source struct {
	// StatsBaseURL and PotdURL are overridable for tests.
	StatsBaseURL string
	PotdURL      string

	api *upstream.Client
}

func New(hc *http.Client) *Source {
	return &Source{
		StatsBaseURL: defaultStatsBaseURL,
		PotdURL:      defaultPotdURL,
		api:          upstream.NewClient(hc, "the GFG stats service"),
	}
}

func (s *Source) Prefix() string { return "gfg" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/gfg/potd",
		Description:     "Get the GeeksforGeeks problem of the day",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/stats/:username", s.getStats)
	g.GET("/potd", s.getPOTD)
}

func (s *Source) getStats(c echo.Context) error {
	username := c.Param("username")

	var raw struct {
		TotalProblemsSolved *int `json:"totalProblemsSolved"`
		Easy                *int `json:"easy"`
		Medium              *int `json:"medium"`
		Hard                *int `json:"hard"`
	}
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      s.StatsBaseURL + "/",
		Query:    url.Values{"raw": {"y"}, "userName": {username}},
		NotFound: fmt.Sprintf("GFG stats fetch failed for user '%s'. The user may not exist.", username),
		FailMsg:  fmt.Sprintf("GFG stats fetch failed for user '%s'", username),
	}, &raw)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Stats{
		TotalSolved: raw.TotalProblemsSolved,
		Easy:        raw.Easy,
		Medium:      raw.Medium,
		Hard:        raw.Hard,
	})
}

// getPOTD scrapes the problem-of-the-day page: narrow to the header
// container by class substring, take the first anchor inside it. Any
// failure at any stage collapses into one generic error; partial structure
// is never surfaced.
func (s *Source) getPOTD(c echo.Context) error {
	scrapeFailed := upstream.ParseFailure("Failed to fetch or parse the GFG POTD page.")

	body, err := s.api.Get(c.Request().Context(), upstream.Request{
		URL:    s.PotdURL,
		Header: http.Header{"User-Agent": {scrapeUserAgent}},
	})
	if err != nil {
		return scrapeFailed
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scrapeFailed
	}

	container := doc.Find("div").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		return strings.Contains(class, potdContainerClass)
	}).First()
	if container.Length() == 0 {
		return scrapeFailed
	}

	anchor := container.Find("a[href]").First()
	link, ok := anchor.Attr("href")
	if !ok {
		return scrapeFailed
	}

	return c.JSON(http.StatusOK, POTD{
		Title: strings.TrimSpace(anchor.Text()),
		Link:  link,
	})
}
