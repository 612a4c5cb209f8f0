package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"YOUTUBE_API_KEY", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "LASTFM_API_KEY", "TUBEBOX_CONTROL_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "Tubebox", cfg.App.Name)
	assert.True(t, cfg.App.Interactive())
	assert.Equal(t, BackendMpv, cfg.Player.Backend)
	assert.Equal(t, "https://www.youtube.com/watch?v=%s", cfg.Player.URLTemplate)
	assert.Equal(t, 200, cfg.Player.PollIntervalMs)
	assert.Equal(t, "200ms", cfg.Player.PollInterval().String())
	assert.Equal(t, "tubebox.db", cfg.Storage.Path)
	assert.Equal(t, "5s", cfg.UI.NotificationDuration().String())
	assert.Equal(t, "en", cfg.UI.DefaultLanguage)
	assert.Equal(t, "US", cfg.Spotify.Market)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid youtube provider",
			yaml: `
youtube:
  api_key: test-key
catalog:
  providers:
    - name: yt
      type: youtube
  startup:
    provider: yt
    ref: PL123
`,
		},
		{
			name: "youtube key from environment",
			yaml: `
catalog:
  providers:
    - name: yt
      type: youtube
`,
			env: map[string]string{"YOUTUBE_API_KEY": "env-key"},
		},
		{
			name: "missing youtube key",
			yaml: `
catalog:
  providers:
    - name: yt
      type: youtube
`,
			wantErr: true,
			errMsg:  "api_key is required",
		},
		{
			name: "spotify without credentials",
			yaml: `
youtube:
  api_key: test-key
catalog:
  providers:
    - name: sp
      type: spotify
`,
			wantErr: true,
			errMsg:  "client_id and client_secret",
		},
		{
			name: "spotify credentials from environment",
			yaml: `
youtube:
  api_key: test-key
catalog:
  providers:
    - name: sp
      type: spotify
`,
			env: map[string]string{"SPOTIFY_CLIENT_ID": "id", "SPOTIFY_CLIENT_SECRET": "secret"},
		},
		{
			name: "unknown provider type",
			yaml: `
catalog:
  providers:
    - name: sc
      type: soundcloud
`,
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "lastfm without api key",
			yaml: `
youtube:
  api_key: test-key
catalog:
  providers:
    - name: fm
      type: lastfm
`,
			wantErr: true,
			errMsg:  "lastfm api_key is required",
		},
		{
			name: "lastfm key from environment",
			yaml: `
youtube:
  api_key: test-key
catalog:
  providers:
    - name: fm
      type: lastfm
`,
			env: map[string]string{"LASTFM_API_KEY": "fm-key"},
		},
		{
			name: "duplicate provider name",
			yaml: `
youtube:
  api_key: test-key
catalog:
  providers:
    - name: yt
      type: youtube
    - name: yt
      type: youtube
`,
			wantErr: true,
			errMsg:  "duplicate provider name",
		},
		{
			name: "startup provider not configured",
			yaml: `
catalog:
  startup:
    provider: missing
    ref: PL123
`,
			wantErr: true,
			errMsg:  "not configured",
		},
		{
			name:    "invalid backend",
			yaml:    "player:\n  backend: vlc\n",
			wantErr: true,
			errMsg:  "Backend",
		},
		{
			name:    "poll interval too small",
			yaml:    "player:\n  poll_interval_ms: 10\n",
			wantErr: true,
			errMsg:  "PollIntervalMs",
		},
		{
			name:    "invalid market",
			yaml:    "spotify:\n  market: USA\n",
			wantErr: true,
			errMsg:  "Market",
		},
		{
			name:    "malformed yaml",
			yaml:    "server: [",
			wantErr: true,
			errMsg:  "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("TUBEBOX_CONTROL_TOKEN", "from-env")

	path := filepath.Join(t.TempDir(), "server.yaml")
	data := `
server:
  addr: ":9090"
  control_token: from-file
  hooks:
    on_started: ["echo started"]
app:
  name: Jukebox
  headless: true
filters:
  duration_limit_filter:
    enabled: true
    settings:
      max_minutes: 10
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Server.ControlToken, "environment wins")
	assert.Equal(t, []string{"echo started"}, cfg.Server.Hooks.OnStarted)
	assert.Equal(t, "Jukebox", cfg.App.Name)
	assert.False(t, cfg.App.Interactive())
	assert.True(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("duplicate_key_filter"))
	assert.Equal(t, map[string]any{"max_minutes": 10}, cfg.GetFilterSettings("duration_limit_filter"))
	assert.Nil(t, cfg.GetFilterSettings("missing"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_GetMessage(t *testing.T) {
	cfg := &Config{
		UI: UIConfig{DefaultLanguage: "en"},
		Messages: MessagesConfig{
			"en": {"queue_cleared": "Queue cleared!"},
			"ja": {"queue_cleared": "キューをクリアしました"},
		},
	}

	tests := []struct {
		name string
		lang string
		key  string
		want string
	}{
		{"configured text", "ja", "queue_cleared", "キューをクリアしました"},
		{"configured default language", "fr", "queue_cleared", "Queue cleared!"},
		{"builtin text in language", "es", "error_request_not_found", "El video no existe o fue eliminado"},
		{"builtin english fallback", "ja", "error_request_not_found", "The video was not found or has been removed"},
		{"unknown key", "en", "no_such_key", "no_such_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.GetMessage(tt.lang, tt.key))
		})
	}

	assert.Equal(t, []string{"en", "es", "ja"}, cfg.Languages())
}

func TestConfig_ProviderNames(t *testing.T) {
	cfg := &Config{Catalog: CatalogConfig{Providers: []ProviderConfig{
		{Name: "yt", Type: ProviderYouTube},
		{Name: "sp", Type: ProviderSpotify},
	}}}

	assert.Equal(t, []string{"yt", "sp"}, cfg.ProviderNames())
	assert.True(t, cfg.HasProvider("sp"))
	assert.False(t, cfg.HasProvider("fm"))
}
