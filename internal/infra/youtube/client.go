// Package youtube provides a client for the YouTube Data API.
package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/domain/playlist"
	"github.com/osa030/tubebox/internal/domain/track"
)

const (
	// DefaultBaseURL is the YouTube Data API v3 endpoint.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	pageSize      = 50
	maxPlaylist   = 500
	defaultSearch = 10
)

// ErrNotFound is returned when a playlist or video does not exist.
var ErrNotFound = errors.New("not found")

// Config represents YouTube client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is a YouTube Data API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New creates a new YouTube client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube api key is required")
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
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type thumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
	High struct {
		URL string `json:"url"`
	} `json:"high"`
}

func (t thumbnails) best() string {
	return lo.CoalesceOrEmpty(t.High.URL, t.Medium.URL, t.Default.URL)
}

type playlistsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title                  string     `json:"title"`
			VideoOwnerChannelTitle string     `json:"videoOwnerChannelTitle"`
			Thumbnails             thumbnails `json:"thumbnails"`
			ResourceID             struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string     `json:"title"`
		ChannelTitle string     `json:"channelTitle"`
		Thumbnails   thumbnails `json:"thumbnails"`
	} `json:"snippet"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *Client) get(ctx context.Context, resource string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/" + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "youtube %s request failed", resource)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "youtube %s", resource)
	case resp.StatusCode != http.StatusOK:
		return errors.Newf("youtube %s status %d", resource, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode youtube %s response", resource)
	}
	return nil
}

// Playlist retrieves a playlist and its tracks. ref may be a playlist ID or
// a URL carrying a list parameter.
func (c *Client) Playlist(ctx context.Context, ref string) (*playlist.Playlist, error) {
	id := ExtractPlaylistID(ref)
	if id == "" {
		return nil, errors.New("invalid playlist reference")
	}

	var meta playlistsResponse
	if err := c.get(ctx, "playlists", url.Values{"part": {"snippet"}, "id": {id}}, &meta); err != nil {
		return nil, err
	}
	if len(meta.Items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "playlist %s", id)
	}

	tracks, err := c.playlistTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &playlist.Playlist{
		ID:     id,
		Title:  meta.Items[0].Snippet.Title,
		Source: "youtube",
		Tracks: tracks,
	}
	p.Tracks = p.WithPlaylistID()
	return p, nil
}

func (c *Client) playlistTracks(ctx context.Context, id string) ([]track.Track, error) {
	tracks := make([]track.Track, 0)
	pageToken := ""

	for len(tracks) < maxPlaylist {
		params := url.Values{
			"part":       {"snippet"},
			"playlistId": {id},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page playlistItemsResponse
		if err := c.get(ctx, "playlistItems", params, &page); err != nil {
			return nil, err
		}

		for _, it := range page.Items {
			// Deleted and private videos have no owner channel
			if it.Snippet.ResourceID.VideoID == "" || it.Snippet.VideoOwnerChannelTitle == "" {
				continue
			}
			tracks = append(tracks, track.Track{
				Key:          it.Snippet.ResourceID.VideoID,
				Title:        it.Snippet.Title,
				Artist:       trimTopic(it.Snippet.VideoOwnerChannelTitle),
				ThumbnailURL: it.Snippet.Thumbnails.best(),
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := c.fillDurations(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Search searches for videos matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 || limit > 25 {
		limit = defaultSearch
	}

	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
		"q":          {query},
	}

	var body searchResponse
	if err := c.get(ctx, "search", params, &body); err != nil {
		return nil, err
	}

	tracks := lo.FilterMap(body.Items, func(it searchItem, _ int) (track.Track, bool) {
		return track.Track{
			Key:          it.ID.VideoID,
			Title:        it.Snippet.Title,
			Artist:       trimTopic(it.Snippet.ChannelTitle),
			ThumbnailURL: it.Snippet.Thumbnails.best(),
		}, it.ID.VideoID != ""
	})

	if err := c.fillDurations(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// fillDurations sets the duration of each track, batching by page size.
func (c *Client) fillDurations(ctx context.Context, tracks []track.Track) error {
	durations := make(map[string]time.Duration, len(tracks))

	for _, batch := range lo.Chunk(tracks, pageSize) {
		ids := lo.Map(batch, func(t track.Track, _ int) string { return t.Key })

		var body videosResponse
		params := url.Values{"part": {"contentDetails"}, "id": {strings.Join(ids, ",")}}
		if err := c.get(ctx, "videos", params, &body); err != nil {
			return err
		}
		for _, it := range body.Items {
			durations[it.ID] = ParseDuration(it.ContentDetails.Duration)
		}
	}

	for i := range tracks {
		tracks[i].Duration = durations[tracks[i].Key]
	}
	return nil
}

var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration parses an ISO 8601 duration such as PT4M13S. Unparsable
// values yield zero.
func ParseDuration(s string) time.Duration {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}

	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		d += time.Duration(n) * unit
	}
	return d
}

// trimTopic removes the suffix YouTube appends to auto-generated artist channels.
func trimTopic(channel string) string {
	return strings.TrimSuffix(channel, " - Topic")
}

// ExtractPlaylistID extracts the playlist ID from a YouTube URL or returns
// the input unchanged when it is already an ID.
func ExtractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "://") {
		return input
	}
	u, err := url.Parse(input)
	if err != nil {
		return ""
	}
	return u.Query().Get("list")
}

// VideoURL returns the watch URL for a video key.
func VideoURL(key string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(key)
}
