package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model: where the API lives, how
// to reach the identity provider, and how the timeline renders.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Identity IdentityConfig `yaml:"identity"`
	Display  DisplayConfig  `yaml:"display"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	// Base URL of the hide-hate API. If empty, read from env HIDEHATE_BASE_URL
	BaseURL string `yaml:"baseURL"`
	// Target of the silent 404 redirect
	NotFoundURL string `yaml:"notFoundURL"`
}

type IdentityConfig struct {
	// Identity Platform API key. If empty, read from env HIDEHATE_IDP_API_KEY
	APIKey string `yaml:"apiKey"`
	// Endpoint override, e.g. the local auth emulator
	Endpoint string `yaml:"endpoint"`
	// Default sign-in email for the login command
	Email string `yaml:"email"`
	// Where the session token is cached between runs
	TokenPath string `yaml:"tokenPath"`
}

type DisplayConfig struct {
	// Pattern for the per-post timestamp footer
	DatePattern string `yaml:"datePattern"`
	// Session-wide default for showing flagged content
	ShowSensitive bool `yaml:"showSensitive"`
	// Whether a viewer's own flagged posts are always visible to them
	RevealOwnPosts bool `yaml:"revealOwnPosts"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	// Listen address for /metrics; empty disables the listener
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:     "http://localhost:8080",
			NotFoundURL: "/404",
		},
		Identity: IdentityConfig{
			Endpoint:  "https://identitytoolkit.googleapis.com",
			TokenPath: "./.hidehate-session",
		},
		Display: DisplayConfig{
			DatePattern:    "yyyy/MM/dd hh:mm:ss",
			ShowSensitive:  false,
			RevealOwnPosts: true,
		},
		Storage: StorageConfig{DBPath: "./hidehate.db"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("HIDEHATE_BASE_URL"); v != "" && c.Server.BaseURL == "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("HIDEHATE_IDP_API_KEY"); v != "" && c.Identity.APIKey == "" {
		c.Identity.APIKey = v
	}
	if v := os.Getenv("HIDEHATE_IDP_ENDPOINT"); v != "" {
		c.Identity.Endpoint = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" && c.Metrics.Addr == "" {
		c.Metrics.Addr = v
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
