package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/seopress/internal/affiliate"
	"github.com/starford/seopress/internal/scheduler"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	AI        AIConfig          `yaml:"ai"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Affiliate AffiliateConfig   `yaml:"affiliate"`
	SEO       SEOConfig         `yaml:"seo"`
	Storage   StorageConfig     `yaml:"storage"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.AI, &c.Scheduler, &c.Affiliate, &c.Storage, &c.SQLite, &c.Auth,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Debug    bool       `yaml:"debug"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// Level returns the effective log level; Debug forces slog.LevelDebug.
func (c *ApplicationConfig) Level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return c.LogLevel
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AIConfig configures the chat completions backend. An empty APIKey disables
// the backend and every post uses the fallback template.
type AIConfig struct {
	APIKey      string        `yaml:"api_key"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	Backoff     time.Duration `yaml:"backoff"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Min(1)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(5)),
		validation.Field(&c.Backoff, validation.Min(time.Duration(0))),
	)
}

// Enabled reports whether a credential is configured.
func (c *AIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// SchedulerConfig configures the daily run.
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Keyword  string `yaml:"keyword"`
	Time     string `yaml:"time"`
	Timezone string `yaml:"timezone"`
}

// Validate validates the scheduler configuration.
func (c *SchedulerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Keyword, validation.Required),
		validation.Field(&c.Time, validation.Required, validation.By(func(any) error {
			_, _, err := scheduler.ParseTimeOfDay(c.Time)
			return err
		})),
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := c.Location()
			return err
		})),
	)
}

// Location loads the configured timezone. Empty or "Local" is the host zone.
func (c *SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// AffiliateConfig configures link resolution.
type AffiliateConfig struct {
	BaseURL  string `yaml:"base_url"`
	MaxLinks int    `yaml:"max_links"`
}

// Validate validates the affiliate configuration.
func (c *AffiliateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(func(any) error {
			if !strings.Contains(c.BaseURL, affiliate.IndexVar) {
				return errors.New("must contain " + affiliate.IndexVar)
			}
			return nil
		})),
		validation.Field(&c.MaxLinks, validation.Min(1), validation.Max(100)),
	)
}

// SEOConfig points at an optional YAML file of keyword metrics.
type SEOConfig struct {
	DataFile string `yaml:"data_file"`
}

// StorageConfig holds the artifact directory.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8000,
			},
		},
		AI: AIConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-3.5-turbo",
			MaxTokens:   2500,
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			MaxRetries:  2,
			Backoff:     time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Keyword:  "wireless earbuds",
			Time:     "09:00",
			Timezone: "Local",
		},
		Affiliate: AffiliateConfig{
			BaseURL:  affiliate.DefaultBaseURL,
			MaxLinks: affiliate.DefaultMaxLinks,
		},
		Storage: StorageConfig{
			Path: "./generated_posts",
		},
		SQLite: SQLiteConfig{
			Path: "./seopress.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
