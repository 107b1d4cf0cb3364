// Package config holds the gateway's upstream credentials and default
// identities. It is loaded once at startup and injected into adapter
// constructors; handlers never read the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries every per-source secret and default identity.
type Config struct {
	GitHubToken string `yaml:"github_token"`

	GitLabURL   string `yaml:"gitlab_url"`
	GitLabToken string `yaml:"gitlab_token"`

	DevtoAPIKey string `yaml:"devto_api_key"`

	KaggleUsername string `yaml:"kaggle_username"`
	KaggleKey      string `yaml:"kaggle_key"`

	CodeforcesHandle string `yaml:"codeforces_handle"`

	StackOverflowUserID   int    `yaml:"stackoverflow_user_id"`
	StackOverflowUsername string `yaml:"stackoverflow_username"`
}

// Load reads the configuration from the environment. When GATEWAY_CONFIG
// names a YAML file, that file supplies the base values and non-empty
// environment variables override it.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("GATEWAY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	overrideString(&cfg.GitHubToken, "GITHUB_TOKEN")
	overrideString(&cfg.GitLabURL, "GITLAB_URL")
	overrideString(&cfg.GitLabToken, "GITLAB_TOKEN")
	overrideString(&cfg.DevtoAPIKey, "DEVTO_API_KEY")
	overrideString(&cfg.KaggleUsername, "KAGGLE_USERNAME")
	overrideString(&cfg.KaggleKey, "KAGGLE_KEY")
	overrideString(&cfg.CodeforcesHandle, "CODEFORCES_HANDLE")
	overrideString(&cfg.StackOverflowUsername, "STACKOVERFLOW_USERNAME")

	if v := os.Getenv("STACKOVERFLOW_USER_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("STACKOVERFLOW_USER_ID must be a number: %w", err)
		}
		cfg.StackOverflowUserID = id
	}

	if cfg.GitLabURL == "" {
		cfg.GitLabURL = "https://gitlab.com"
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
