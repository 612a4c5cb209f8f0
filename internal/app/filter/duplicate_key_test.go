package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/tubebox/internal/domain/track"
)

// Mock QueueReader for testing
type mockQueue struct {
	tracks []track.Track
}

func (m *mockQueue) OrderedItems() []track.Track {
	return m.tracks
}

func TestDuplicateKeyFilter_ExactKeyMatch(t *testing.T) {
	q := &mockQueue{tracks: []track.Track{
		{Key: "fJ9rUzIMcZQ", Title: "Queen – Bohemian Rhapsody (Official Video Remastered)", Artist: "Queen Official"},
	}}
	f := NewDuplicateKeyFilter(q)

	result := f.Check(context.Background(), track.Track{Key: "fJ9rUzIMcZQ", Title: "Something else"})
	assert.False(t, result.Accepted, "same key should be rejected")
	assert.Equal(t, "duplicate_key", result.Code)

	result = f.Check(context.Background(), track.Track{Key: "other", Title: "Something else", Artist: "Queen Official"})
	assert.True(t, result.Accepted, "different key and title should be accepted")
}

func TestDuplicateKeyFilter_SameSongDetection(t *testing.T) {
	tests := []struct {
		name       string
		queued     track.Track
		requested  track.Track
		wantReject bool
	}{
		{
			name:       "remaster suffix",
			queued:     track.Track{Key: "a", Title: "Bohemian Rhapsody", Artist: "Queen"},
			requested:  track.Track{Key: "b", Title: "Bohemian Rhapsody - 2011 Remaster", Artist: "Queen"},
			wantReject: true,
		},
		{
			name:       "remastered in parentheses",
			queued:     track.Track{Key: "a", Title: "Yesterday", Artist: "The Beatles"},
			requested:  track.Track{Key: "b", Title: "Yesterday (Remastered 2023)", Artist: "The Beatles"},
			wantReject: true,
		},
		{
			name:       "official video and topic channel",
			queued:     track.Track{Key: "a", Title: "Take On Me (Official Video)", Artist: "a-ha"},
			requested:  track.Track{Key: "b", Title: "Take On Me", Artist: "a-ha - Topic"},
			wantReject: true,
		},
		{
			name:       "vevo channel with hd tag",
			queued:     track.Track{Key: "a", Title: "Africa", Artist: "Toto"},
			requested:  track.Track{Key: "b", Title: "Africa [HD]", Artist: "TotoVEVO"},
			wantReject: true,
		},
		{
			name:       "cover by another artist",
			queued:     track.Track{Key: "a", Title: "Yesterday", Artist: "The Beatles"},
			requested:  track.Track{Key: "b", Title: "Yesterday", Artist: "Paul McCartney"},
			wantReject: false,
		},
		{
			name:       "different song same artist",
			queued:     track.Track{Key: "a", Title: "Love", Artist: "John Lennon"},
			requested:  track.Track{Key: "b", Title: "Love Song", Artist: "John Lennon"},
			wantReject: false,
		},
		{
			name:       "radio edit",
			queued:     track.Track{Key: "a", Title: "Stairway to Heaven", Artist: "Led Zeppelin"},
			requested:  track.Track{Key: "b", Title: "Stairway to Heaven (Radio Edit)", Artist: "Led Zeppelin"},
			wantReject: true,
		},
		{
			name:       "live suffix",
			queued:     track.Track{Key: "a", Title: "Hotel California", Artist: "Eagles"},
			requested:  track.Track{Key: "b", Title: "Hotel California - Live", Artist: "Eagles"},
			wantReject: true,
		},
		{
			name:       "remix is a different song",
			queued:     track.Track{Key: "a", Title: "Le Freak", Artist: "CHIC"},
			requested:  track.Track{Key: "b", Title: "Le Freak (Oliver Heldens Remix)", Artist: "CHIC"},
			wantReject: false,
		},
		{
			name:       "unknown artist",
			queued:     track.Track{Key: "a", Title: "Intro"},
			requested:  track.Track{Key: "b", Title: "Intro"},
			wantReject: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDuplicateKeyFilter(&mockQueue{tracks: []track.Track{tt.queued}})
			result := f.Check(context.Background(), tt.requested)

			if tt.wantReject {
				assert.False(t, result.Accepted)
				assert.Equal(t, "duplicate_key", result.Code)
			} else {
				assert.True(t, result.Accepted)
			}
		})
	}
}

func TestDuplicateKeyFilter_EmptyQueue(t *testing.T) {
	f := NewDuplicateKeyFilter(&mockQueue{})
	assert.True(t, f.Check(context.Background(), track.Track{Key: "a", Title: "Any Song"}).Accepted)

	// Registered factory has no queue until the session injects one
	unbound := GetRegistered()["duplicate_key_filter"]()
	assert.True(t, unbound.Check(context.Background(), track.Track{Key: "a"}).Accepted)
}

func TestDuplicateKeyFilter_AppliesTo(t *testing.T) {
	f := NewDuplicateKeyFilter(&mockQueue{})
	assert.True(t, f.AppliesTo(SourceUser))
	assert.False(t, f.AppliesTo(SourcePlaylist), "a loaded playlist replaces the queue")
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bohemian Rhapsody - 2011 Remaster", "bohemian rhapsody"},
		{"Yesterday (Remastered 2023)", "yesterday"},
		{"Let It Be [Remastered]", "let it be"},
		{"Take On Me (Official Music Video)", "take on me"},
		{"Creep (Lyrics)", "creep"},
		{"Song  With   Spaces", "song with spaces"},
		{"Alive", "alive"},
		{"Song -", "song"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTitle(tt.input))
		})
	}
}

func TestIsSameArtist(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same", "Queen", "Queen", true},
		{"case insensitive", "Queen", "queen", true},
		{"topic channel", "Queen - Topic", "Queen", true},
		{"vevo channel", "QueenVEVO", "Queen", true},
		{"different", "The Beatles", "Paul McCartney", false},
		{"empty", "", "Queen", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSameArtist(track.Track{Artist: tt.a}, track.Track{Artist: tt.b}))
		})
	}
}
