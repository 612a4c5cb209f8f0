package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	item := func(id, title, channel string) map[string]any {
		return map[string]any{"snippet": map[string]any{
			"title":                  title,
			"videoOwnerChannelTitle": channel,
			"resourceId":             map[string]any{"videoId": id},
			"thumbnails":             map[string]any{"medium": map[string]any{"url": "https://i.ytimg.com/" + id}},
		}}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("id") != "PL1" {
			writeJSON(w, map[string]any{"items": []any{}})
			return
		}
		writeJSON(w, map[string]any{"items": []any{
			map[string]any{"id": "PL1", "snippet": map[string]any{"title": "Favourites"}},
		}})
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, map[string]any{
				"nextPageToken": "page2",
				"items": []any{
					item("v1", "Song 1", "Artist 1 - Topic"),
					item("gone", "Deleted video", ""),
				},
			})
			return
		}
		writeJSON(w, map[string]any{"items": []any{item("v2", "Song 2", "Artist 2")}})
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		var items []any
		for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
			items = append(items, map[string]any{
				"id":             id,
				"contentDetails": map[string]any{"duration": "PT3M30S"},
			})
		}
		writeJSON(w, map[string]any{"items": items})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		writeJSON(w, map[string]any{"items": []any{
			map[string]any{
				"id":      map[string]any{"videoId": "s1"},
				"snippet": map[string]any{"title": "Found", "channelTitle": "Channel"},
			},
			map[string]any{
				"id":      map[string]any{"channelId": "c1"},
				"snippet": map[string]any{"title": "A channel"},
			},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Playlist(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	p, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=PL1")
	require.NoError(t, err)

	assert.Equal(t, "PL1", p.ID)
	assert.Equal(t, "Favourites", p.Title)
	require.Len(t, p.Tracks, 2, "deleted videos are skipped")

	assert.Equal(t, "v1", p.Tracks[0].Key)
	assert.Equal(t, "Artist 1", p.Tracks[0].Artist)
	assert.Equal(t, "https://i.ytimg.com/v1", p.Tracks[0].ThumbnailURL)
	assert.Equal(t, 210*time.Second, p.Tracks[0].Duration)
	assert.Equal(t, "PL1", p.Tracks[0].PlaylistID)
	assert.Equal(t, "v2", p.Tracks[1].Key)
}

func TestClient_PlaylistNotFound(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Playlist(context.Background(), "PL404")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Playlist(context.Background(), "https://www.youtube.com/watch?v=abc")
	assert.Error(t, err, "url without list parameter")
}

func TestClient_BadKey(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Config{APIKey: "wrong", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Playlist(context.Background(), "PL1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")

	_, err = New(Config{})
	assert.Error(t, err)
}

func TestClient_Search(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	tracks, err := c.Search(context.Background(), "artist song", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1, "non-video results are skipped")
	assert.Equal(t, "s1", tracks[0].Key)
	assert.Equal(t, "Channel", tracks[0].Artist)
	assert.Equal(t, 210*time.Second, tracks[0].Duration)

	_, err = c.Search(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"PT4M13S", 4*time.Minute + 13*time.Second},
		{"PT1H2M3S", time.Hour + 2*time.Minute + 3*time.Second},
		{"PT45S", 45 * time.Second},
		{"PT10M", 10 * time.Minute},
		{"P1DT1H", 25 * time.Hour},
		{"P0D", 0},
		{"", 0},
		{"4:13", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.input))
		})
	}
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain id", "PLabc", "PLabc"},
		{"playlist url", "https://www.youtube.com/playlist?list=PLabc", "PLabc"},
		{"watch url with list", "https://www.youtube.com/watch?v=x&list=PLabc&index=2", "PLabc"},
		{"watch url without list", "https://www.youtube.com/watch?v=x", ""},
		{"whitespace", "  PLabc ", "PLabc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPlaylistID(tt.input))
		})
	}
}
