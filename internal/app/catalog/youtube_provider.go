package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
)

// YouTubeProviderConfig represents youtube provider settings.
type YouTubeProviderConfig struct {
	MaxTracks   int `mapstructure:"max_tracks" default:"200" validate:"gte=1,lte=500"`
	SearchLimit int `mapstructure:"search_limit" default:"10" validate:"gte=1,lte=25"`
}

// YouTubeProvider serves YouTube playlists and searches directly.
type YouTubeProvider struct {
	client YouTubeClient
	config *YouTubeProviderConfig
}

// decodeSettings decodes provider settings, applies defaults and validates.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// NewYouTubeProvider creates a new YouTubeProvider.
func NewYouTubeProvider(client YouTubeClient, settings map[string]any) (*YouTubeProvider, error) {
	var config YouTubeProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("youtube provider config: %+v", config)
	return &YouTubeProvider{client: client, config: &config}, nil
}

// Playlist retrieves a YouTube playlist, truncated to MaxTracks.
func (p *YouTubeProvider) Playlist(ctx context.Context, ref string) (*playlist.Playlist, error) {
	pl, err := p.client.Playlist(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get youtube playlist")
	}
	if len(pl.Tracks) > p.config.MaxTracks {
		pl.Tracks = pl.Tracks[:p.config.MaxTracks]
	}
	return pl, nil
}

// Search searches YouTube videos.
func (p *YouTubeProvider) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if limit <= 0 || limit > p.config.SearchLimit {
		limit = p.config.SearchLimit
	}
	tracks, err := p.client.Search(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search youtube")
	}
	return tracks, nil
}

// Type returns the provider type.
func (p *YouTubeProvider) Type() string {
	return "youtube"
}
