// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Last.fm API endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	defaultLimit = 20
	maxLimit     = 100
	cacheTTL     = 30 * time.Minute
)

// ErrNotFound is returned when Last.fm does not know the tag, artist or track.
var ErrNotFound = errors.New("not found")

// Last.fm error codes, see https://www.last.fm/api/errorcodes
const (
	errInvalidParameters = 6
)

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Song is a track as Last.fm knows it. It has no playable media.
type Song struct {
	Title  string
	Artist string
}

// Query returns a search query for finding the song's video.
func (s Song) Query() string {
	return strings.TrimSpace(s.Artist + " " + s.Title)
}

type cacheEntry struct {
	songs   []Song
	expires time.Time
}

// Client is a Last.fm API client. Chart and tag results are cached for a
// while since they change slowly.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time
}

// trackList is the shape shared by track.getSimilar, tag.getTopTracks and
// chart.getTopTracks.
type trackList struct {
	Track []struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"track"`
}

func (l trackList) songs() []Song {
	songs := make([]Song, 0, len(l.Track))
	for _, t := range l.Track {
		if t.Name == "" {
			continue
		}
		songs = append(songs, Song{Title: t.Name, Artist: t.Artist.Name})
	}
	return songs
}

type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}, nil
}

// SimilarTracks returns tracks similar to the given one.
// Reference: https://www.last.fm/api/show/track.getSimilar
func (c *Client) SimilarTracks(ctx context.Context, artist, title string, limit int) ([]Song, error) {
	if artist == "" || title == "" {
		return nil, errors.New("artist and title are required")
	}
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("autocorrect", "1")

	var resp struct {
		SimilarTracks trackList `json:"similartracks"`
	}
	if err := c.call(ctx, "track.getSimilar", params, limit, &resp); err != nil {
		return nil, err
	}
	return resp.SimilarTracks.songs(), nil
}

// TagTopTracks returns the most popular tracks for a tag.
// Reference: https://www.last.fm/api/show/tag.getTopTracks
func (c *Client) TagTopTracks(ctx context.Context, tag string, limit int) ([]Song, error) {
	if tag == "" {
		return nil, errors.New("tag is required")
	}
	params := url.Values{}
	params.Set("tag", tag)
	return c.cached(ctx, "tag.getTopTracks", params, limit)
}

// ChartTopTracks returns the global chart.
// Reference: https://www.last.fm/api/show/chart.getTopTracks
func (c *Client) ChartTopTracks(ctx context.Context, limit int) ([]Song, error) {
	return c.cached(ctx, "chart.getTopTracks", url.Values{}, limit)
}

func (c *Client) cached(ctx context.Context, method string, params url.Values, limit int) ([]Song, error) {
	limit = clampLimit(limit)
	key := method + "?" + params.Encode() + "&limit=" + strconv.Itoa(limit)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		zlog.Debug().Msgf("using cached last.fm result: %s", key)
		return entry.songs, nil
	}

	var resp struct {
		Tracks trackList `json:"tracks"`
	}
	if err := c.call(ctx, method, params, limit, &resp); err != nil {
		return nil, err
	}
	songs := resp.Tracks.songs()

	c.mu.Lock()
	c.cache[key] = cacheEntry{songs: songs, expires: c.now().Add(cacheTTL)}
	c.mu.Unlock()
	return songs, nil
}

// call performs a GET request and decodes the JSON body into out.
func (c *Client) call(ctx context.Context, method string, params url.Values, limit int, out any) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("method", method)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s request failed", method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Errors come back as {"error": n, "message": "..."} with any status
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		if apiErr.Error == errInvalidParameters {
			return errors.Wrapf(ErrNotFound, "%s: %s", method, apiErr.Message)
		}
		return errors.Newf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("%s returned status %d", method, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}
