// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

const pageLimit = 100

// ErrNotFound is returned when a playlist does not exist or is private.
var ErrNotFound = errors.New("not found")

// Song is a Spotify track. It has no video key; the catalog resolves it
// to a playable video.
type Song struct {
	ID       string
	Title    string
	Artist   string
	Duration time.Duration
	ImageURL string
}

// Query returns a search query for finding the song's video.
func (s Song) Query() string {
	return strings.TrimSpace(s.Artist + " " + s.Title)
}

// Playlist is a Spotify playlist.
type Playlist struct {
	ID    string
	Name  string
	Songs []Song
}

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
	TokenURL     string // defaults to the Spotify accounts endpoint
	BaseURL      string // defaults to the Spotify Web API endpoint
}

// New creates a new Spotify client authenticated with client credentials.
// Only public data is reachable with this grant.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	auth := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}

	// HTTP client fetches and refreshes the app token on demand
	httpClient := auth.Client(ctx)

	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}
	client := spotify.New(httpClient, opts...)

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Playlist retrieves a playlist and all of its songs.
func (c *Client) Playlist(ctx context.Context, ref string) (*Playlist, error) {
	playlistID := extractPlaylistID(ref)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	meta, err := retry(ctx, c, func() (*spotify.FullPlaylist, error) {
		return c.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("id,name"))
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrapf(ErrNotFound, "playlist %s", playlistID)
		}
		return nil, errors.Wrap(err, "playlist is not accessible")
	}

	songs, err := c.playlistSongs(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &Playlist{
		ID:    playlistID,
		Name:  meta.Name,
		Songs: songs,
	}, nil
}

// playlistSongs pages through the playlist items. Episodes and local files
// have no track ID and are skipped.
func (c *Client) playlistSongs(ctx context.Context, playlistID string) ([]Song, error) {
	var songs []Song
	for offset := 0; ; offset += pageLimit {
		page, err := retry(ctx, c, func() (*spotify.PlaylistItemPage, error) {
			return c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(pageLimit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			if t := item.Track.Track; t != nil && t.ID != "" {
				songs = append(songs, convertTrack(t))
			}
		}
		if len(page.Items) < pageLimit {
			return songs, nil
		}
	}
}

// convertTrack converts a Spotify FullTrack to a Song.
func convertTrack(t *spotify.FullTrack) Song {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var imageURL string
	if len(t.Album.Images) > 0 {
		imageURL = t.Album.Images[0].URL
	}

	return Song{
		ID:       string(t.ID),
		Title:    t.Name,
		Artist:   strings.Join(artists, ", "),
		Duration: time.Duration(t.Duration) * time.Millisecond,
		ImageURL: imageURL,
	}
}

// PlaylistURL returns the Spotify URL for a playlist.
func PlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID)
}

// retry runs fn until it succeeds, fails with a permanent error or runs
// out of attempts, backing off linearly between attempts.
func retry[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		}
	}
	if isRetryable(lastErr) {
		return zero, errors.Wrap(lastErr, "max retries exceeded")
	}
	return zero, lastErr
}

// isRetryable reports whether err is a rate limit or a server error.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}
	// Transport errors carry the status in their text only
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") {
		return true
	}
	return slices.ContainsFunc([]string{"429", "500", "502", "503", "504"}, func(code string) bool {
		return strings.Contains(msg, code)
	})
}

func isNotFound(err error) bool {
	var apiErr spotify.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:playlist:PLAYLIST_ID
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// Handle URL format: https://open.spotify.com/playlist/PLAYLIST_ID or https://open.spotify.com/intl-XX/playlist/PLAYLIST_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		// Remove query parameters and trailing slashes
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	// Assume it's already a playlist ID
	return input
}
