// Package gitlab adapts the GitLab REST API. The pipelines endpoint is a
// two-stage fan-out: the most recently active projects seed one concurrent
// pipelines call each.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/devpulse/gateway/internal/fanout"
	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/labstack/echo/v4"
)

// pipelineProjects bounds the first-stage project list; each project then
// contributes up to pipelinesPerProject runs.
const (
	pipelineProjects    = 3
	pipelinesPerProject = 3
)

type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Issue struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Pipeline struct {
	Project    string `json:"project"`
	PipelineID int64  `json:"pipeline_id"`
	Status     string `json:"status"`
	URL        string `json:"url"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api   *upstream.Client
	token string
}

// New derives the API base from the instance URL so self-hosted GitLab
// works the same as gitlab.com.
func New(hc *http.Client, instanceURL, token string) *Source {
	return &Source{
		BaseURL: strings.TrimRight(instanceURL, "/") + "/api/v4",
		api:     upstream.NewClient(hc, "the GitLab API"),
		token:   token,
	}
}

func (s *Source) Prefix() string { return "gitlab" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/gitlab/projects",
		Description:     "List your GitLab projects",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/projects", s.listProjects)
	g.GET("/issues", s.listIssues)
	g.GET("/pipelines", s.listPipelines)
}

func (s *Source) headers() (http.Header, error) {
	if s.token == "" {
		return nil, upstream.ConfigError("GITLAB_TOKEN")
	}
	return http.Header{"Private-Token": {s.token}}, nil
}

type glProject struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"web_url"`
}

func (s *Source) listProjects(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}

	var projects []glProject
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL: s.BaseURL + "/projects",
		Query: url.Values{
			"owned":    {"true"},
			"order_by": {"created_at"},
			"sort":     {"desc"},
			"per_page": {"10"},
		},
		Header:  header,
		FailMsg: "Failed to fetch GitLab projects",
	}, &projects)
	if err != nil {
		return err
	}

	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, Project{ID: p.ID, Name: p.Name, URL: p.WebURL})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Source) listIssues(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}

	var issues []struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		WebURL string `json:"web_url"`
	}
	err = s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL: s.BaseURL + "/issues",
		Query: url.Values{
			"scope":    {"assigned_to_me"},
			"order_by": {"created_at"},
			"sort":     {"desc"},
			"per_page": {"10"},
		},
		Header:  header,
		FailMsg: "Failed to fetch GitLab issues",
	}, &issues)
	if err != nil {
		return err
	}

	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, Issue{ID: i.ID, Title: i.Title, URL: i.WebURL})
	}
	return c.JSON(http.StatusOK, out)
}

// listPipelines fetches the most recently active projects, then fans out
// one pipelines call per project. A project whose pipelines call fails
// contributes nothing; only a failure of the project list itself fails the
// request.
func (s *Source) listPipelines(c echo.Context) error {
	header, err := s.headers()
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var projects []glProject
	err = s.api.GetJSON(ctx, upstream.Request{
		URL: s.BaseURL + "/projects",
		Query: url.Values{
			"owned":    {"true"},
			"order_by": {"last_activity_at"},
			"sort":     {"desc"},
			"per_page": {fmt.Sprint(pipelineProjects)},
		},
		Header:  header,
		FailMsg: "Failed to fetch initial projects for pipelines",
	}, &projects)
	if err != nil {
		return err
	}

	tasks := make([]fanout.Task[[]Pipeline], len(projects))
	for i, project := range projects {
		project := project
		tasks[i] = func(ctx context.Context) ([]Pipeline, error) {
			return s.projectPipelines(ctx, header, project)
		}
	}

	pipelines := fanout.GatherFlat(ctx, tasks)
	if pipelines == nil {
		pipelines = []Pipeline{}
	}
	return c.JSON(http.StatusOK, pipelines)
}

func (s *Source) projectPipelines(ctx context.Context, header http.Header, project glProject) ([]Pipeline, error) {
	var runs []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		WebURL string `json:"web_url"`
	}
	err := s.api.GetJSON(ctx, upstream.Request{
		URL:     fmt.Sprintf("%s/projects/%d/pipelines", s.BaseURL, project.ID),
		Query:   url.Values{"per_page": {fmt.Sprint(pipelinesPerProject)}},
		Header:  header,
		FailMsg: "Failed to fetch pipelines",
	}, &runs)
	if err != nil {
		return nil, err
	}

	pipelines := make([]Pipeline, 0, len(runs))
	for _, run := range runs {
		pipelines = append(pipelines, Pipeline{
			Project:    project.Name,
			PipelineID: run.ID,
			Status:     run.Status,
			URL:        run.WebURL,
		})
	}
	return pipelines, nil
}
