package connect

import (
	"github.com/osa030/tubebox/internal/app/ui"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/storage"
)

// Empty is the request or response of calls without fields.
type Empty struct{}

// ControlResponse reports whether a control call took effect.
type ControlResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ToggleResponse reports the state of a flag after toggling it.
type ToggleResponse struct {
	Enabled bool `json:"enabled"`
}

// SearchRequest queries the catalog. An empty provider searches all of them.
type SearchRequest struct {
	Provider string `json:"provider,omitempty"`
	Query    string `json:"query"`
	Limit    int    `json:"limit,omitempty"`
}

// SearchResponse lists matching tracks.
type SearchResponse struct {
	Tracks []track.Track `json:"tracks"`
}

// ListProvidersResponse lists the catalog providers.
type ListProvidersResponse struct {
	Providers []string `json:"providers"`
}

// GetHistoryRequest limits the history size. Zero uses the configured limit.
type GetHistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// GetHistoryResponse lists recently played tracks, most recent first.
type GetHistoryResponse struct {
	Entries []storage.HistoryEntry `json:"entries"`
}

// PlayRequest plays a queued track. With IndexInitial, Index is a playback
// position; otherwise it is an index into the queue items.
type PlayRequest struct {
	Index        int  `json:"index"`
	IndexInitial bool `json:"index_initial"`
}

// RemoveRequest removes the queue item at Index.
type RemoveRequest struct {
	Index int `json:"index"`
}

// SeekRequest moves the playhead to Seconds.
type SeekRequest struct {
	Seconds float64 `json:"seconds"`
}

// SeekPercentRequest moves the playhead to Percent of the duration.
type SeekPercentRequest struct {
	Percent float64 `json:"percent"`
}

// SetVolumeRequest sets the volume, 0 to 100.
type SetVolumeRequest struct {
	Volume int `json:"volume"`
}

// EnqueueRequest adds tracks to the queue.
type EnqueueRequest struct {
	Tracks   []track.Track `json:"tracks"`
	PlayNext bool          `json:"play_next,omitempty"`
}

// RejectedTrack is a track the filter chain refused.
type RejectedTrack struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EnqueueResponse reports which tracks entered the queue.
type EnqueueResponse struct {
	Added    int             `json:"added"`
	Rejected []RejectedTrack `json:"rejected,omitempty"`
	Message  string          `json:"message"`
}

// LoadPlaylistRequest replaces the queue with a catalog playlist.
type LoadPlaylistRequest struct {
	Provider string `json:"provider"`
	Ref      string `json:"ref"`
	Start    int    `json:"start,omitempty"`
}

// LoadPlaylistResponse reports the loaded playlist.
type LoadPlaylistResponse struct {
	PlaylistID string          `json:"playlist_id"`
	Title      string          `json:"title"`
	Loaded     int             `json:"loaded"`
	Rejected   []RejectedTrack `json:"rejected,omitempty"`
}

// SetLanguageRequest switches the interface language.
type SetLanguageRequest struct {
	Language string `json:"language"`
}

// SetModalRequest opens a modal, or closes it with "none".
type SetModalRequest struct {
	Modal      string           `json:"modal"`
	AddVideo   *ui.AddVideoData `json:"add_video,omitempty"`
	PlaylistID string           `json:"playlist_id,omitempty"`
}

// SetUIFlagsRequest updates the viewport and session flags. Omitted flags
// are left unchanged.
type SetUIFlagsRequest struct {
	Mobile         *bool `json:"mobile,omitempty"`
	SessionExpired *bool `json:"session_expired,omitempty"`
}

// DismissRequest dismisses a notification.
type DismissRequest struct {
	ID string `json:"id"`
}
