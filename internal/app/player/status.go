// Package player provides the transport state store of the active player.
package player

import "github.com/cockroachdb/errors"

// Status represents the transport status.
type Status int

const (
	StatusIdle    Status = iota // Nothing loaded or stopped
	StatusLoading               // Video requested or buffering
	StatusPlaying               // Video is playing
	StatusPaused                // Video is paused
	StatusEnded                 // Video reached its end
	StatusError                 // Player reported an error
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for c := StatusIdle; c <= StatusError; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return errors.Newf("unknown player status %q", string(text))
}
