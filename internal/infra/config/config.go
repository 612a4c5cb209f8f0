// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Provider types.
const (
	ProviderYouTube = "youtube"
	ProviderSpotify = "spotify"
	ProviderLastFm  = "lastfm"
)

// Player backends.
const (
	BackendMpv  = "mpv"
	BackendNone = "none"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	App      AppConfig               `yaml:"app"`
	Player   PlayerConfig            `yaml:"player"`
	Storage  StorageConfig           `yaml:"storage"`
	UI       UIConfig                `yaml:"ui"`
	Catalog  CatalogConfig           `yaml:"catalog"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Messages MessagesConfig          `yaml:"messages"`
	YouTube  YouTubeConfig           `yaml:"youtube"`
	Spotify  SpotifyConfig           `yaml:"spotify"`
	LastFm   LastFmConfig            `yaml:"lastfm"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr           string      `yaml:"addr" default:":8080"`
	ControlToken   string      `yaml:"control_token"`
	AllowedOrigins []string    `yaml:"allowed_origins"` // websocket origins, empty allows any
	Hooks          HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AppConfig represents application-wide settings.
type AppConfig struct {
	Name     string `yaml:"name" default:"Tubebox"`
	Headless bool   `yaml:"headless"`
}

// Interactive reports whether an external player and timers may be used.
func (a AppConfig) Interactive() bool {
	return !a.Headless
}

// PlayerConfig represents external player configuration.
type PlayerConfig struct {
	Backend        string   `yaml:"backend" default:"mpv" validate:"oneof=mpv none"`
	MpvPath        string   `yaml:"mpv_path" default:"mpv"`
	SocketPath     string   `yaml:"socket_path" default:"/tmp/tubebox-mpv.sock"`
	URLTemplate    string   `yaml:"url_template" default:"https://www.youtube.com/watch?v=%s"`
	Args           []string `yaml:"args"`
	PollIntervalMs int      `yaml:"poll_interval_ms" default:"200" validate:"gte=50,lte=5000"`
}

// PollInterval returns the progress polling interval.
func (p PlayerConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}

// StorageConfig represents local storage configuration.
type StorageConfig struct {
	Path         string `yaml:"path" default:"tubebox.db"`
	HistoryLimit int    `yaml:"history_limit" default:"50" validate:"gte=0,lte=1000"`
}

// UIConfig represents UI state configuration.
type UIConfig struct {
	NotificationDurationMs int    `yaml:"notification_duration_ms" default:"5000" validate:"gte=0,lte=60000"`
	DefaultLanguage        string `yaml:"default_language" default:"en" validate:"required"`
}

// NotificationDuration returns the default auto-dismiss delay.
func (u UIConfig) NotificationDuration() time.Duration {
	return time.Duration(u.NotificationDurationMs) * time.Millisecond
}

// CatalogConfig represents playlist catalog configuration.
type CatalogConfig struct {
	Providers []ProviderConfig `yaml:"providers" validate:"dive"`
	Startup   StartupConfig    `yaml:"startup"`
}

// ProviderConfig represents a single catalog provider configuration.
type ProviderConfig struct {
	Name     string         `yaml:"name" validate:"required"`
	Type     string         `yaml:"type" validate:"required,oneof=youtube spotify lastfm"`
	Settings map[string]any `yaml:"settings"`
}

// StartupConfig names a playlist queued when the server starts.
type StartupConfig struct {
	Provider string `yaml:"provider"`
	Ref      string `yaml:"ref"`
	Start    int    `yaml:"start" validate:"gte=0"`
	Shuffle  bool   `yaml:"shuffle"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig maps a language to message keys and their text.
type MessagesConfig map[string]map[string]string

// YouTubeConfig represents YouTube Data API configuration.
type YouTubeConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" default:"https://www.googleapis.com/youtube/v3" validate:"url"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// LastFmConfig represents Last.fm API configuration.
type LastFmConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" default:"https://ws.audioscrobbler.com/2.0/" validate:"url"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.YouTube.APIKey = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFm.APIKey = v
	}
	if v := os.Getenv("TUBEBOX_CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateProviders(); err != nil {
		return err
	}

	return nil
}

// validateProviders checks provider names are unique, credentials exist for
// the configured provider types and the startup playlist names a provider.
func (c *Config) validateProviders() error {
	seen := make(map[string]bool)
	for _, p := range c.Catalog.Providers {
		if seen[p.Name] {
			return errors.Newf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case ProviderYouTube:
			if c.YouTube.APIKey == "" {
				return errors.Newf("provider %s: youtube api_key is required", p.Name)
			}
		case ProviderSpotify:
			if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
				return errors.Newf("provider %s: spotify client_id and client_secret are required", p.Name)
			}
			if c.YouTube.APIKey == "" {
				return errors.Newf("provider %s: spotify tracks are resolved on youtube, api_key is required", p.Name)
			}
		case ProviderLastFm:
			if c.LastFm.APIKey == "" {
				return errors.Newf("provider %s: lastfm api_key is required", p.Name)
			}
			if c.YouTube.APIKey == "" {
				return errors.Newf("provider %s: lastfm tracks are resolved on youtube, api_key is required", p.Name)
			}
		}
	}

	if c.Catalog.Startup.Provider != "" && !seen[c.Catalog.Startup.Provider] {
		return errors.Newf("startup provider %s is not configured", c.Catalog.Startup.Provider)
	}
	if c.Catalog.Startup.Provider != "" && c.Catalog.Startup.Ref == "" {
		return errors.New("startup ref is required when a startup provider is set")
	}

	return nil
}

// ProviderNames returns the configured provider names.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Catalog.Providers))
	for _, p := range c.Catalog.Providers {
		names = append(names, p.Name)
	}
	return names
}

// HasProvider reports whether a provider with the given name is configured.
func (c *Config) HasProvider(name string) bool {
	return slices.Contains(c.ProviderNames(), name)
}

// GetMessage returns the text for key in lang. It falls back to the default
// language, then to the built-in messages, then to the key itself.
func (c *Config) GetMessage(lang, key string) string {
	for _, l := range []string{lang, c.UI.DefaultLanguage} {
		if msg, ok := c.Messages[l][key]; ok && msg != "" {
			return msg
		}
	}
	for _, l := range []string{lang, c.UI.DefaultLanguage, "en"} {
		if msg, ok := builtinMessages[l][key]; ok {
			return msg
		}
	}
	return key
}

// Languages returns the languages that have messages.
func (c *Config) Languages() []string {
	langs := make([]string, 0)
	for l := range builtinMessages {
		langs = append(langs, l)
	}
	for l := range c.Messages {
		if !slices.Contains(langs, l) {
			langs = append(langs, l)
		}
	}
	slices.Sort(langs)
	return langs
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
