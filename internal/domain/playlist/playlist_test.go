package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/tubebox/internal/domain/track"
)

func TestPlaylist_Keys(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []string
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: []string{},
		},
		{
			name: "multiple tracks",
			tracks: []track.Track{
				{Key: "k1"},
				{Key: "k2"},
				{Key: "k3"},
			},
			expected: []string{"k1", "k2", "k3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "PL1", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.Keys())
		})
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	p := &Playlist{
		Tracks: []track.Track{
			{Key: "k1", Duration: 3 * time.Minute},
			{Key: "k2", Duration: 90 * time.Second},
			{Key: "k3"},
		},
	}
	assert.Equal(t, 4*time.Minute+30*time.Second, p.TotalDuration())
}

func TestPlaylist_WithPlaylistID(t *testing.T) {
	p := &Playlist{
		ID: "PL1",
		Tracks: []track.Track{
			{Key: "k1"},
			{Key: "k2", PlaylistID: "other"},
		},
	}

	tracks := p.WithPlaylistID()

	assert.Len(t, tracks, 2)
	for _, trk := range tracks {
		assert.Equal(t, "PL1", trk.PlaylistID)
	}
	// Source slice is untouched
	assert.Equal(t, "other", p.Tracks[1].PlaylistID)
}
