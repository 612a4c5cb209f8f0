package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/spotify"
)

// SpotifyProviderConfig represents spotify provider settings.
type SpotifyProviderConfig struct {
	MaxTracks   int `mapstructure:"max_tracks" default:"50" validate:"gte=1,lte=200"`
	Concurrency int `mapstructure:"concurrency" default:"4" validate:"gte=1,lte=16"`
}

// SpotifyProvider reads Spotify playlists and resolves each song to a
// YouTube video.
type SpotifyProvider struct {
	spotify  SpotifyClient
	youtube  YouTubeClient
	config   *SpotifyProviderConfig
	resolver *resolver
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(sp SpotifyClient, yt YouTubeClient, settings map[string]any) (*SpotifyProvider, error) {
	var config SpotifyProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("spotify provider config: %+v", config)
	return &SpotifyProvider{
		spotify:  sp,
		youtube:  yt,
		config:   &config,
		resolver: newResolver(yt, config.Concurrency),
	}, nil
}

// Playlist retrieves a Spotify playlist and resolves its songs. Songs with
// no matching video are skipped.
func (p *SpotifyProvider) Playlist(ctx context.Context, ref string) (*playlist.Playlist, error) {
	sp, err := p.spotify.Playlist(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get spotify playlist")
	}

	songs := sp.Songs
	if len(songs) > p.config.MaxTracks {
		songs = songs[:p.config.MaxTracks]
	}

	tracks := p.resolver.resolveAll(ctx, lo.Map(songs, func(s spotify.Song, _ int) song {
		return song{id: s.ID, title: s.Title, artist: s.Artist, duration: s.Duration, imageURL: s.ImageURL}
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	zlog.Info().Msgf("resolved spotify playlist: id=%s songs=%d tracks=%d", sp.ID, len(songs), len(tracks))

	pl := &playlist.Playlist{
		ID:     sp.ID,
		Title:  sp.Name,
		Source: "spotify",
		Tracks: tracks,
	}
	pl.Tracks = pl.WithPlaylistID()
	return pl, nil
}

// Search searches YouTube; Spotify search results would need resolving anyway.
func (p *SpotifyProvider) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	tracks, err := p.youtube.Search(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search youtube")
	}
	return tracks, nil
}

// Type returns the provider type.
func (p *SpotifyProvider) Type() string {
	return "spotify"
}
