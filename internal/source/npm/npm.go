// Package npm adapts the npm registry API.
package npm

import (
	"fmt"
	"net/http"

	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/upstream"
	"github.com/devpulse/gateway/pkg/utils"
	"github.com/labstack/echo/v4"
)

const defaultBaseURL = "https://registry.npmjs.org"

type Package struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	LatestVersion string `json:"latest_version"`
	Homepage      string `json:"homepage,omitempty"`
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
		api:     upstream.NewClient(hc, "the npm registry"),
	}
}

func (s *Source) Prefix() string { return "npm" }

func (s *Source) Feature() registry.Feature {
	return registry.Feature{
		ExampleEndpoint: "/npm/react",
		Description:     "Get details for an npm package",
	}
}

func (s *Source) Bind(g *echo.Group) {
	g.GET("/:package", s.getPackage)
	g.GET("/:package/latest", s.getLatestVersion)
}

type npmResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
	DistTags    struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
}

func (s *Source) fetch(c echo.Context, name string) (*npmResponse, error) {
	var resp npmResponse
	err := s.api.GetJSON(c.Request().Context(), upstream.Request{
		URL:      fmt.Sprintf("%s/%s", s.BaseURL, name),
		NotFound: fmt.Sprintf("Package '%s' not found on npm.", name),
		FailMsg:  "Error fetching npm package",
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

	return c.JSON(http.StatusOK, Package{
		Name:          utils.OrDefault(resp.Name, name),
		Description:   resp.Description,
		LatestVersion: utils.OrDefault(resp.DistTags.Latest, "0.0.0"),
		Homepage:      resp.Homepage,
	})
}

func (s *Source) getLatestVersion(c echo.Context) error {
	name := c.Param("package")
	resp, err := s.fetch(c, name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, LatestVersion{
		PackageName:   utils.OrDefault(resp.Name, name),
		LatestVersion: utils.OrDefault(resp.DistTags.Latest, "0.0.0"),
	})
}
