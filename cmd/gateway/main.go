// Package main DevPulse Gateway
// @title DevPulse Gateway
// @version 1.0
// @description A single API to fetch data from multiple developer platforms
// @BasePath /
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/devpulse/gateway/internal/config"
	"github.com/devpulse/gateway/internal/registry"
	"github.com/devpulse/gateway/internal/server"
	"github.com/devpulse/gateway/internal/source/codeforces"
	"github.com/devpulse/gateway/internal/source/devto"
	"github.com/devpulse/gateway/internal/source/gfg"
	"github.com/devpulse/gateway/internal/source/github"
	"github.com/devpulse/gateway/internal/source/gitlab"
	"github.com/devpulse/gateway/internal/source/hackernews"
	"github.com/devpulse/gateway/internal/source/kaggle"
	"github.com/devpulse/gateway/internal/source/npm"
	"github.com/devpulse/gateway/internal/source/pypi"
	"github.com/devpulse/gateway/internal/source/reddit"
	"github.com/devpulse/gateway/internal/source/stackoverflow"
	"github.com/devpulse/gateway/internal/upstream"
	pkgserver "github.com/devpulse/gateway/pkg/server"
	"github.com/labstack/echo/v4"
)

const upstreamTimeout = 10 * time.Second

func main() {
	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load gateway configuration", "error", err)
		os.Exit(1)
	}

	healthChecker := pkgserver.NewOkHealthChecker()

	s := server.New(sCfg, healthChecker).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "Welcome to the DevPulse Gateway! See /features for a summary.",
		})
	})

	hc := upstream.NewHTTPClient(upstreamTimeout)

	reg := registry.New()
	sources := []registry.Source{
		github.New(hc, cfg.GitHubToken),
		stackoverflow.New(hc, cfg.StackOverflowUserID, cfg.StackOverflowUsername),
		hackernews.New(hc),
		devto.New(hc, cfg.DevtoAPIKey),
		kaggle.New(hc, cfg.KaggleUsername, cfg.KaggleKey),
		codeforces.New(hc, cfg.CodeforcesHandle),
		gitlab.New(hc, cfg.GitLabURL, cfg.GitLabToken),
		pypi.New(hc),
		npm.New(hc),
		reddit.New(hc),
		gfg.New(hc),
	}
	for _, src := range sources {
		if err := reg.Register(src); err != nil {
			slog.Error("Failed to register source", "error", err)
			os.Exit(1)
		}
	}
	reg.Mount(s.Echo)

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	if err := s.Start(); err != nil {
		s.Echo.Logger.Error("Failed to start server: ", err)
		os.Exit(1)
	}
}
