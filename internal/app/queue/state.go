// Package queue provides the playback queue store.
package queue

import (
	"slices"

	"github.com/osa030/tubebox/internal/domain/track"
)

// State is the playback queue and its navigation cursor.
//
// TabIndex is the playback order as a permutation of item indices.
// CurrentIndex is a position into TabIndex, not into Items.
type State struct {
	Items             []track.Track `json:"items"`
	CurrentIndex      int           `json:"current_index"`
	TabIndex          []int         `json:"tab_index"`
	TabIndexOriginal  []int         `json:"tab_index_original"` // order to restore when shuffle is disabled
	IsShuffled        bool          `json:"is_shuffled"`
	SourcePlaylistID  string        `json:"source_playlist_id,omitempty"`   // empty when the queue mixes sources
	SourceTopChartsID string        `json:"source_top_charts_id,omitempty"` // empty when the queue mixes sources
}

func (s State) clone() State {
	s.Items = slices.Clone(s.Items)
	s.TabIndex = slices.Clone(s.TabIndex)
	s.TabIndexOriginal = slices.Clone(s.TabIndexOriginal)
	return s
}

// Len returns the number of queued items.
func (s *State) Len() int {
	return len(s.Items)
}

// At returns the item at the given playback position.
func (s *State) At(position int) (track.Track, bool) {
	if position < 0 || position >= len(s.TabIndex) {
		return track.Track{}, false
	}
	return s.Items[s.TabIndex[position]], true
}

// Current returns the item at the cursor.
func (s *State) Current() (track.Track, bool) {
	return s.At(s.CurrentIndex)
}

// PositionOf returns the playback position of an item index.
func (s *State) PositionOf(itemIndex int) (int, bool) {
	pos := slices.Index(s.TabIndex, itemIndex)
	return pos, pos >= 0
}

// Ordered returns the items in playback order.
func (s *State) Ordered() []track.Track {
	ordered := make([]track.Track, len(s.TabIndex))
	for i, idx := range s.TabIndex {
		ordered[i] = s.Items[idx]
	}
	return ordered
}
