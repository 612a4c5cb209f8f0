// Package catalog resolves playlists and searches into playable tracks.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/lastfm"
	"github.com/osa030/tubebox/internal/infra/spotify"
)

// ErrUnknownProvider is returned when no provider has the requested name.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider is the interface for track catalog providers.
// Every track a provider returns carries a playable video key.
type Provider interface {
	// Playlist retrieves a playlist by ID or URL.
	Playlist(ctx context.Context, ref string) (*playlist.Playlist, error)

	// Search retrieves up to limit tracks matching query.
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)

	// Type returns the provider type (used in config).
	Type() string
}

// YouTubeClient defines the YouTube operations needed by providers.
type YouTubeClient interface {
	Playlist(ctx context.Context, ref string) (*playlist.Playlist, error)
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
}

// SpotifyClient defines the Spotify operations needed by providers.
type SpotifyClient interface {
	Playlist(ctx context.Context, ref string) (*spotify.Playlist, error)
}

// LastFmClient defines the Last.fm operations needed by providers.
type LastFmClient interface {
	SimilarTracks(ctx context.Context, artist, title string, limit int) ([]lastfm.Song, error)
	TagTopTracks(ctx context.Context, tag string, limit int) ([]lastfm.Song, error)
	ChartTopTracks(ctx context.Context, limit int) ([]lastfm.Song, error)
}

// Clients are the API clients providers are built on. A nil client is only
// allowed when no configured provider needs it.
type Clients struct {
	YouTube YouTubeClient
	Spotify SpotifyClient
	LastFm  LastFmClient
}
