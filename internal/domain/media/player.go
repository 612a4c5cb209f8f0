// Package media defines the control surface of an embeddable video player.
package media

import "context"

// State is the player-reported playback state.
type State int

const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// Error codes reported by the player.
const (
	ErrorInvalidParameter     = 2
	ErrorHTML5Player          = 5
	ErrorNotFound             = 100
	ErrorEmbedNotAllowed      = 101
	ErrorEmbedNotAllowedAlias = 150
	ErrorUnknown              = -1
)

// EventType represents a player callback type.
type EventType int

const (
	EventReady       EventType = iota // Player finished initializing
	EventStateChange                  // Playback state changed
	EventError                        // Player reported an error
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventStateChange:
		return "state_change"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a player callback.
type Event struct {
	Type  EventType
	State State // set for EventStateChange
	Code  int   // set for EventError
}

// Player is an embeddable video player.
//
// Open loads the player and returns once it is initialized; EventReady is
// delivered on Events afterwards. Control methods must not be called before
// Open returns.
type Player interface {
	Open(ctx context.Context) error
	Events() <-chan Event

	LoadVideoByID(key string) error
	CueVideoByID(key string) error
	PlayVideo() error
	PauseVideo() error
	SeekTo(seconds float64) error
	SetVolume(volume int) error

	Volume() (int, error)
	CurrentTime() (float64, error)
	Duration() (float64, error)
	LoadedFraction() (float64, error)
	State() State

	Close() error
}
