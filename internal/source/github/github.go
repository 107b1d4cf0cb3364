// Package github adapts the GitHub REST API. It merges the two legacy
// generations of this source: the authenticated user endpoints and the
// public per-repository release listing.
package github

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/devpulse/gateway/pkg/utils"
	"github.com/labstack/echo/v4"
)

const defaultBaseURL = "https://api.github.com"

type Repo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Issue struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type PullRequest struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	User  string `json:"user"`
}

type Release struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api   *upstream.Client
	token string
}

func New(hc *http.Client, token string) *Source {
	return &Source{
		BaseURL: defaultBaseURL,
		api:     upstream.NewClient(hc, "the GitHub API"),
		token:   token,
	}
}

func (s *Source) Prefix() string { return "github" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/github/repos",
		Description:     "List your GitHub repositories",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/repos", s.listRepos)
	g.GET("/issues", s.listIssues)
	g.GET("/pulls", s.listMyPullRequests)
	g.GET("/repos/:owner/:repo/pulls", s.listRepoPullRequests)
	g.GET("/:owner/:repo/releases", s.listReleases)
}

// headers gates every authenticated call on the configured token.
func (s *Source) headers() (http.Header, error) {
	if s.token == "" {
		return nil, upstream.ConfigError("GITHUB_TOKEN")
	}
	return http.Header{
		"Authorization": {"Bearer " + s.token},
		"Accept":        {"application/vnd.github.v3+json"},
	}, nil
}

// releaseHeaders works without a token; one raises the rate limit.
func (s *Source) releaseHeaders() http.Header {
	h := http.Header{"Accept": {"application/vnd.github.v3+json"}}
	if s.token != "" {
		h.Set("Authorization", "Bearer "+s.token)
	}
	return h
}

type ghRepo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

func (s *Source) listRepos(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}

	var repos []ghRepo
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/user/repos",
		Query:   url.Values{"sort": {"updated"}, "per_page": {"10"}},
		Header:  header,
		FailMsg: "Failed to fetch GitHub repos",
	}, &repos)
	if err != nil {
		return err
	}

	out := make([]Repo, 0, len(repos))
	for _, r := range repos {
		out = append(out, Repo{ID: r.ID, Name: r.Name, URL: r.HTMLURL})
	}
	return c.JSON(http.StatusOK, out)
}

type ghIssue struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

func (s *Source) listIssues(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}

	var issues []ghIssue
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:     s.BaseURL + "/issues",
		Query:   url.Values{"filter": {"assigned"}, "sort": {"updated"}, "per_page": {"10"}},
		Header:  header,
		FailMsg: "Failed to fetch GitHub issues",
	}, &issues)
	if err != nil {
		return err
	}

	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, Issue{ID: i.ID, Title: i.Title, URL: i.HTMLURL})
	}
	return c.JSON(http.StatusOK, out)
}

type ghUser struct {
	Login string `json:"login"`
}

type ghSearchIssues struct {
	Items []struct {
		ID      int64  `json:"id"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		User    ghUser `json:"user"`
	} `json:"items"`
}

// listMyPullRequests is two-stage: resolve the authenticated user's login,
// then search for open pull requests involving them. The login comes from
// the upstream response, never from the caller.
func (s *Source) listMyPullRequests(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var user ghUser
	err = s.api.GetJSON(ctx, upstream.Request{
		URL:     s.BaseURL + "/user",
		Header:  header,
		FailMsg: "Failed to fetch GitHub pull requests",
	}, &user)
	if err != nil {
		return err
	}

	var found ghSearchIssues
	err = s.api.GetJSON(ctx, upstream.Request{
		URL: s.BaseURL + "/search/issues",
		Query: url.Values{
			"q":        {fmt.Sprintf("is:pr is:open involves:%s", user.Login)},
			"sort":     {"updated"},
			"per_page": {"10"},
		},
		Header:  header,
		FailMsg: "Failed to fetch GitHub pull requests",
	}, &found)
	if err != nil {
		return err
	}

	out := make([]PullRequest, 0, len(found.Items))
	for _, pr := range found.Items {
		out = append(out, PullRequest{ID: pr.ID, Title: pr.Title, URL: pr.HTMLURL, User: pr.User.Login})
	}
	return c.JSON(http.StatusOK, out)
}

type ghPull struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	User    ghUser `json:"user"`
}

func (s *Source) listRepoPullRequests(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}
	owner, repo := c.Param("owner"), c.Param("repo")

	var pulls []ghPull
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      fmt.Sprintf("%s/repos/%s/%s/pulls", s.BaseURL, owner, repo),
		Header:   header,
		NotFound: fmt.Sprintf("Repository %s/%s not found.", owner, repo),
		FailMsg:  fmt.Sprintf("Failed to fetch pull requests for %s/%s", owner, repo),
	}, &pulls)
	if err != nil {
		return err
	}

	out := make([]PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		out = append(out, PullRequest{ID: pr.ID, Title: pr.Title, URL: pr.HTMLURL, User: pr.User.Login})
	}
	return c.JSON(http.StatusOK, out)
}

type ghRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
}

func (s *Source) listReleases(c echo.Context) error {
	owner, repo := c.Param("owner"), c.Param("repo")

	var releases []ghRelease
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      fmt.Sprintf("%s/repos/%s/%s/releases", s.BaseURL, owner, repo),
		Query:    url.Values{"per_page": {"30"}},
		Header:   s.releaseHeaders(),
		NotFound: fmt.Sprintf("Repository '%s/%s' not found.", owner, repo),
		FailMsg:  "Error fetching releases",
	}, &releases)
	if err != nil {
		return err
	}

	if len(releases) > 30 {
		releases = releases[:30]
	}
	out := make([]Release, 0, len(releases))
	for _, r := range releases {
		out = append(out, Release{
			TagName:     utils.OrDefault(r.TagName, "No Tag"),
			Name:        r.Name,
			URL:         r.HTMLURL,
			PublishedAt: r.PublishedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
