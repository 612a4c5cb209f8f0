package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/tubebox/internal/domain/track"
)

// DuplicateKeyFilter checks for duplicate tracks in the queue.
// Detects:
// - Exact video key matches
// - Alternate uploads (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateKeyFilter struct {
	queue QueueReader
}

// QueueReader interface for accessing queue data.
type QueueReader interface {
	OrderedItems() []track.Track
}

// NewDuplicateKeyFilter creates a new duplicate key filter.
func NewDuplicateKeyFilter(queue QueueReader) *DuplicateKeyFilter {
	return &DuplicateKeyFilter{
		queue: queue,
	}
}

// Name returns the filter name.
func (f *DuplicateKeyFilter) Name() string {
	return "duplicate_key_filter"
}

// Description returns the filter description.
func (f *DuplicateKeyFilter) Description() string {
	return "Rejects tracks already in the queue, including alternate uploads of the same song. Covers by other artists are allowed"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateKeyFilter) ReturnCodes() []string {
	return []string{"duplicate_key"}
}

// AppliesTo returns which sources this filter applies to.
func (f *DuplicateKeyFilter) AppliesTo(source Source) bool {
	// A loaded playlist replaces the queue, so only individual additions can collide
	return source == SourceUser
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateKeyFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the track is a duplicate.
func (f *DuplicateKeyFilter) Check(ctx context.Context, requested track.Track) Result {
	if f.queue == nil {
		return Accept()
	}

	for _, queued := range f.queue.OrderedItems() {
		// 1. Exact key match
		if queued.Key == requested.Key {
			return Reject("duplicate_key")
		}

		// 2. Alternate upload: normalized title + same artist
		if isSameSong(queued, requested) {
			return Reject("duplicate_key")
		}
	}

	return Accept()
}

// isSameSong checks if two tracks are the same song in a different upload.
func isSameSong(t1, t2 track.Track) bool {
	title1 := normalizeTitle(t1.Title)
	if title1 == "" || title1 != normalizeTitle(t2.Title) {
		return false
	}

	// Same normalized title - check if same artist
	// If different artists, it's a cover song (allowed)
	return isSameArtist(t1, t2)
}

var (
	// Decorations video titles carry around the song name
	decorationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),                                 // "- 2011 Remaster"
		regexp.MustCompile(`\s*[\(\[][^\)\]]*remaster[^\)\]]*[\)\]]`),                       // "(Remastered 2023)"
		regexp.MustCompile(`\s*[\(\[]\s*official\s*(music\s*|lyric\s*)?(video|audio)\s*[\)\]]`), // "(Official Music Video)"
		regexp.MustCompile(`\s*[\(\[]\s*(lyrics?|audio|hd|hq|4k|mv|visualizer)\s*[\)\]]`),     // "[HD]"
		regexp.MustCompile(`\s*[\(\[][^\)\]]*(version|edit)\s*[\)\]]`),                      // "(Radio Edit)"
		regexp.MustCompile(`\s*[\(\[]\s*live[^\)\]]*[\)\]]`),                                // "(Live at ...)"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?$`),                           // "- Remastered"
		regexp.MustCompile(`\s+-\s+(live|radio\s+edit|single\s+version)$`),                  // "- Live"
	}
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// normalizeTitle removes remaster information and video decorations.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)

	for _, pattern := range decorationPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	// Remove extra whitespace
	normalized = strings.TrimSpace(normalized)
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")

	// Remove trailing dashes
	return strings.TrimRight(normalized, " -")
}

// normalizeArtist strips channel decorations from an artist name.
func normalizeArtist(artist string) string {
	a := strings.TrimSpace(artist)
	a = strings.TrimSuffix(a, " - Topic")
	a = strings.TrimSuffix(a, "VEVO")
	return strings.TrimSpace(a)
}

// isSameArtist checks if two tracks have the same artist.
func isSameArtist(t1, t2 track.Track) bool {
	a1, a2 := normalizeArtist(t1.Artist), normalizeArtist(t2.Artist)
	if a1 == "" || a2 == "" {
		return false
	}
	return strings.EqualFold(a1, a2)
}

func init() {
	// The session manager injects the queue when it builds the chain
	Register("duplicate_key_filter", func() Filter {
		return &DuplicateKeyFilter{}
	})
}
