// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/tubebox/internal/domain/track"
)

// Playlist represents a playlist resolved from a catalog provider.
type Playlist struct {
	ID     string        // Provider playlist ID
	Title  string        // Playlist title
	Source string        // Provider name ("youtube", "spotify")
	Tracks []track.Track // Tracks in the playlist
}

// Keys returns all video keys in the playlist.
func (p *Playlist) Keys() []string {
	keys := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		keys[i] = t.Key
	}
	return keys
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// WithPlaylistID stamps the playlist ID onto every track and returns them.
func (p *Playlist) WithPlaylistID() []track.Track {
	tracks := make([]track.Track, len(p.Tracks))
	for i, t := range p.Tracks {
		t.PlaylistID = p.ID
		tracks[i] = t
	}
	return tracks
}
