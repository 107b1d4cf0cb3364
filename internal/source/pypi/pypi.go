// Package pypi adapts the PyPI JSON API.
package pypi

import (
	"fmt"
	"net/http"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/devpulse/gateway/pkg/utils"
	"github.com/labstack/echo/v4"
)

const defaultBaseURL = "https://pypi.org/pypi"

type PackageInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Summary  string `json:"summary"`
	Author   string `json:"author,omitempty"`
	HomePage string `json:"home_page,omitempty"`
}

type LatestVersion struct {
	PackageName   string `json:"package_name"`
	LatestVersion string `json:"latest_version"`
}

type Source struct {
	// BaseURL is overridable for tests.
	BaseURL string

	api *upstream.Client
}

func New(hc *http.Client) *Source {
	return &Source{
		BaseURL: defaultBaseURL,
		api:     upstream.NewClient(hc, "the PyPI API"),
	}
}

func (s *Source) Prefix() string { return "pypi" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/pypi/requests",
		Description:     "Get details for a PyPI package",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/:package", s.getPackage)
	g.GET("/:package/latest", s.getLatestVersion)
}

type pypiResponse struct {
	Info struct {
		Name     string `json:"name"`
		Version  string `json:"version"`
		Summary  string `json:"summary"`
		Author   string `json:"author"`
		HomePage string `json:"home_page"`
	} `json:"info"`
}

func (s *Source) fetch(c echo.Context, name string) (*pypiResponse, error) {
	var resp pypiResponse
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      fmt.Sprintf("%s/%s/json", s.BaseURL, name),
		NotFound: fmt.Sprintf("Package '%s' not found on PyPI.", name),
		FailMsg:  "Error fetching package details",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Source) getPackage(c echo.Context) error {
	name := c.Param("package")
	resp, err := s.fetch(c, name)
	if err != nil {
		return err
	}

	info := resp.Info
	return c.JSON(http.StatusOK, PackageInfo{
		Name:     utils.OrDefault(info.Name, "No Name"),
		Version:  utils.OrDefault(info.Version, "0.0.0"),
		Summary:  info.Summary,
		Author:   info.Author,
		HomePage: info.HomePage,
	})
}

func (s *Source) getLatestVersion(c echo.Context) error {
	name := c.Param("package")
	resp, err := s.fetch(c, name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, LatestVersion{
		PackageName:   utils.OrDefault(resp.Info.Name, name),
		LatestVersion: utils.OrDefault(resp.Info.Version, "0.0.0"),
	})
}
