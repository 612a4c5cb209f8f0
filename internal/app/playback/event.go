package playback

import "github.com/osa030/tubebox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackLoaded EventType = iota // Track handed to the player
	EventTrackStarted                 // Player started playing the current track
	EventTrackEnded                   // Track finished playing
	EventQueueEnded                   // Last track ended without repeat
	EventError                        // Player reported an error
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackLoaded:
		return "track_loaded"
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventQueueEnded:
		return "queue_ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	Track   *track.Track // Current track (nil for some events)
	Message string       // Message key for EventError
}
