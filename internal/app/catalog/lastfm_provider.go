package catalog

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/lastfm"
)

// ErrInvalidRef is returned for playlist references a provider cannot parse.
var ErrInvalidRef = errors.New("invalid playlist reference")

// Last.fm playlist references.
const (
	lastFmChart   = "chart"
	lastFmTag     = "tag:"
	lastFmSimilar = "similar:"
)

// LastFmProviderConfig represents lastfm provider settings.
type LastFmProviderConfig struct {
	MaxTracks   int `mapstructure:"max_tracks" default:"25" validate:"gte=1,lte=100"`
	Concurrency int `mapstructure:"concurrency" default:"4" validate:"gte=1,lte=16"`
}

// LastFmProvider builds playlists from Last.fm charts, tags and similar
// tracks, and resolves them on YouTube. References are "chart",
// "tag:<name>" and "similar:<artist> - <title>".
type LastFmProvider struct {
	lastfm   LastFmClient
	youtube  YouTubeClient
	config   *LastFmProviderConfig
	resolver *resolver
}

// NewLastFmProvider creates a new LastFmProvider.
func NewLastFmProvider(lf LastFmClient, yt YouTubeClient, settings map[string]any) (*LastFmProvider, error) {
	var config LastFmProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("lastfm provider config: %+v", config)
	return &LastFmProvider{
		lastfm:   lf,
		youtube:  yt,
		config:   &config,
		resolver: newResolver(yt, config.Concurrency),
	}, nil
}

// Playlist fetches the referenced Last.fm track list and resolves it.
func (p *LastFmProvider) Playlist(ctx context.Context, ref string) (*playlist.Playlist, error) {
	ref = strings.TrimSpace(ref)
	var (
		songs []lastfm.Song
		title string
		err   error
	)

	switch {
	case ref == lastFmChart:
		title = "Last.fm top tracks"
		songs, err = p.lastfm.ChartTopTracks(ctx, p.config.MaxTracks)
	case strings.HasPrefix(ref, lastFmTag):
		tag := strings.TrimSpace(strings.TrimPrefix(ref, lastFmTag))
		if tag == "" {
			return nil, errors.Wrapf(ErrInvalidRef, "%q: empty tag", ref)
		}
		title = "Top " + tag + " tracks"
		songs, err = p.lastfm.TagTopTracks(ctx, tag, p.config.MaxTracks)
	case strings.HasPrefix(ref, lastFmSimilar):
		artist, name, ok := strings.Cut(strings.TrimPrefix(ref, lastFmSimilar), " - ")
		artist, name = strings.TrimSpace(artist), strings.TrimSpace(name)
		if !ok || artist == "" || name == "" {
			return nil, errors.Wrapf(ErrInvalidRef, "%q: expected similar:<artist> - <title>", ref)
		}
		title = "Similar to " + artist + " - " + name
		songs, err = p.lastfm.SimilarTracks(ctx, artist, name, p.config.MaxTracks)
	default:
		return nil, errors.Wrapf(ErrInvalidRef, "%q", ref)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get lastfm tracks")
	}
	if len(songs) > p.config.MaxTracks {
		songs = songs[:p.config.MaxTracks]
	}

	tracks := p.resolver.resolveAll(ctx, lo.Map(songs, func(s lastfm.Song, _ int) song {
		return song{title: s.Title, artist: s.Artist}
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	zlog.Info().Msgf("resolved lastfm playlist: ref=%s songs=%d tracks=%d", ref, len(songs), len(tracks))

	pl := &playlist.Playlist{
		ID:     ref,
		Title:  title,
		Source: "lastfm",
		Tracks: tracks,
	}
	pl.Tracks = pl.WithPlaylistID()
	return pl, nil
}

// Search searches YouTube.
func (p *LastFmProvider) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	tracks, err := p.youtube.Search(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search youtube")
	}
	return tracks, nil
}

// Type returns the provider type.
func (p *LastFmProvider) Type() string {
	return "lastfm"
}
