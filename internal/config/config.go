// Package config resolves chozy settings from defaults, an optional YAML
// file and environment variables, in that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chozy/feedsync/internal/feed"
)

const fileName = "config.yaml"

// Config holds client configuration.
type Config struct {
	Dir               string
	APIURL            string
	WebURL            string
	PlaceholderAvatar string
	HTTPTimeout       time.Duration
	PageSize          int
}

// fileConfig is the on-disk shape of config.yaml.
type fileConfig struct {
	APIURL            string `yaml:"api_url"`
	WebURL            string `yaml:"web_url"`
	PlaceholderAvatar string `yaml:"placeholder_avatar"`
	HTTPTimeout       string `yaml:"http_timeout"`
	PageSize          int    `yaml:"page_size"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Dir:               defaultDir(),
		APIURL:            "https://chozy.net",
		WebURL:            "https://chozy.net",
		PlaceholderAvatar: feed.DefaultPlaceholderAvatar,
		HTTPTimeout:       30 * time.Second,
		PageSize:          20,
	}
}

// Load builds the configuration. A missing config file is not an error; a
// malformed one is.
func Load() (*Config, error) {
	cfg := Defaults()
	cfg.Dir = getEnv("CHOZY_CONFIG_DIR", cfg.Dir)

	if err := cfg.loadFile(filepath.Join(cfg.Dir, fileName)); err != nil {
		return nil, err
	}

	cfg.APIURL = getEnv("CHOZY_API_URL", cfg.APIURL)
	cfg.WebURL = getEnv("CHOZY_WEB_URL", cfg.WebURL)
	cfg.PlaceholderAvatar = getEnv("CHOZY_PLACEHOLDER_AVATAR", cfg.PlaceholderAvatar)
	cfg.HTTPTimeout = getDuration("CHOZY_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.PageSize = getInt("CHOZY_PAGE_SIZE", cfg.PageSize)

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	return &cfg, nil
}

// Path returns the config file location.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, fileName)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's own config dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.WebURL != "" {
		c.WebURL = fc.WebURL
	}
	if fc.PlaceholderAvatar != "" {
		c.PlaceholderAvatar = fc.PlaceholderAvatar
	}
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout %q: %w", fc.HTTPTimeout, err)
		}
		c.HTTPTimeout = d
	}
	if fc.PageSize != 0 {
		c.PageSize = fc.PageSize
	}
	return nil
}

func defaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "chozy")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
