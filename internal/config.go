package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/menu"
	"github.com/starford/mosaic/internal/publisher"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Dataset  DatasetConfig     `yaml:"dataset"`
	Upstream UpstreamConfig    `yaml:"upstream"`
	Publish  PublishConfig     `yaml:"publish"`
	Messages MessagesConfig    `yaml:"messages"`
	Media    MediaConfig       `yaml:"media"`
	Journal  JournalConfig     `yaml:"journal"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Dataset, &c.Upstream, &c.Publish, &c.Journal, &c.Auth,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
// LogFile, when set, receives a rotated copy of the log stream.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
	Timezone string     `yaml:"timezone"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := c.Location()
			return err
		})),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return c.HTTP.Validate()
}

// Location returns the zone in which "today" is evaluated. Empty means the
// host's local zone.
func (c *ApplicationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
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

// DatasetConfig names the dataset directory and files.
type DatasetConfig struct {
	Dir          string `yaml:"dir"`
	Name         string `yaml:"name"`
	Collection   string `yaml:"collection"`
	CalendarKind string `yaml:"calendar_kind"`
}

// Validate validates the dataset configuration.
func (c *DatasetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.By(plainName)),
		validation.Field(&c.Collection, validation.Required),
		validation.Field(&c.CalendarKind, validation.Required),
	)
}

func plainName(v any) error {
	s, _ := v.(string)
	if strings.ContainsAny(s, `/\`) || strings.HasPrefix(s, ".") {
		return fmt.Errorf("must be a plain file name")
	}
	return nil
}

// UpstreamConfig locates the remote dataset document. An empty URL disables
// scheduled publishing.
type UpstreamConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the upstream configuration.
func (c *UpstreamConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// PublishConfig controls the publish schedule.
type PublishConfig struct {
	Interval time.Duration `yaml:"interval"`
	OnStart  bool          `yaml:"on_start"`
}

// Validate validates the publish configuration.
func (c *PublishConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Minute)),
	)
}

// MessagesConfig locates the message catalog and greeting picture. Path
// names a YAML or JSON catalog overlaying the built-in texts.
type MessagesConfig struct {
	Path       string `yaml:"path"`
	StartImage string `yaml:"start_image"`
}

// MediaConfig holds the directory served at /media.
type MediaConfig struct {
	Dir string `yaml:"dir"`
}

// JournalConfig holds the SQLite publish journal configuration.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token or TokenFile must yield a non-empty token.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode != AuthModeToken {
		return nil
	}
	if c.Token == "" && c.TokenFile != "" {
		data, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return fmt.Errorf("auth: read token file: %w", err)
		}
		c.Token = strings.TrimSpace(string(data))
	}
	if c.Token == "" {
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
			Timezone: "Local",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Dataset: DatasetConfig{
			Dir:          "./data",
			Name:         "mosaic",
			Collection:   dataset.DefaultCollection,
			CalendarKind: menu.DefaultKind,
		},
		Upstream: UpstreamConfig{
			Timeout: publisher.DefaultTimeout,
		},
		Publish: PublishConfig{
			Interval: 24 * time.Hour,
			OnStart:  true,
		},
		Media: MediaConfig{
			Dir: "./media",
		},
		Journal: JournalConfig{
			Path: "./mosaic.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
