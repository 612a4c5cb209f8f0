// Package track provides the Track domain entity.
package track

import "time"

// Track represents a playable video entry.
type Track struct {
	Key          string        `json:"key"`                     // External video key
	Title        string        `json:"title"`                   // Video title
	Artist       string        `json:"artist,omitempty"`        // Artist or channel name
	Duration     time.Duration `json:"duration,omitempty"`      // Video duration (zero if unknown)
	PlaylistID   string        `json:"playlist_id,omitempty"`   // Source playlist ID (empty if added ad hoc)
	ThumbnailURL string        `json:"thumbnail_url,omitempty"` // Thumbnail URL
}

// DisplayTitle returns "title - artist", omitting the artist when empty.
func (t *Track) DisplayTitle() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}

// IsValid reports whether the track can be handed to a player.
func (t *Track) IsValid() bool {
	return t.Key != ""
}
