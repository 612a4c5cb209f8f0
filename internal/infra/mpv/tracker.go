package mpv

import "github.com/osa030/tubebox/internal/domain/media"

// message is a line received over the mpv IPC socket. Replies carry a
// request id and no event name.
type message struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int    `json:"request_id"`
	Event     string `json:"event"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

func (m message) isReply() bool {
	return m.Event == "" && m.RequestID > 0
}

// tracker folds mpv events into media states.
type tracker struct {
	state   media.State
	paused  bool
	cueing  bool
	loaded  bool // between start-file and end-file
	started bool // playback-restart seen for the loaded file
}

func newTracker() *tracker {
	return &tracker{state: media.StateUnstarted}
}

// load prepares for a new file. A cued file stays paused once loaded.
func (t *tracker) load(cue bool) {
	t.cueing = cue
	t.paused = cue
}

func (t *tracker) set(state media.State) []media.Event {
	if t.state == state {
		return nil
	}
	t.state = state
	return []media.Event{{Type: media.EventStateChange, State: state}}
}

func (t *tracker) translate(msg message) []media.Event {
	switch msg.Event {
	case "start-file":
		t.loaded = true
		t.started = false
		return t.set(media.StateBuffering)

	case "playback-restart":
		if !t.loaded {
			return nil
		}
		t.started = true
		if t.cueing {
			t.cueing = false
			return t.set(media.StateCued)
		}
		if t.paused {
			return t.set(media.StatePaused)
		}
		return t.set(media.StatePlaying)

	case "end-file":
		t.loaded = false
		t.started = false
		switch msg.Reason {
		case "eof":
			return t.set(media.StateEnded)
		case "error":
			t.state = media.StateUnstarted
			return []media.Event{{Type: media.EventError, Code: errorCode(msg.FileError)}}
		}
		return nil

	case "property-change":
		value, ok := msg.Data.(bool)
		if !ok {
			return nil
		}
		switch msg.Name {
		case "pause":
			t.paused = value
			if !t.started {
				return nil
			}
			if value {
				return t.set(media.StatePaused)
			}
			return t.set(media.StatePlaying)
		case "paused-for-cache":
			if !t.started {
				return nil
			}
			if value {
				return t.set(media.StateBuffering)
			}
			if t.paused {
				return t.set(media.StatePaused)
			}
			return t.set(media.StatePlaying)
		}
	}
	return nil
}

func errorCode(fileError string) int {
	switch fileError {
	case "loading failed":
		return media.ErrorNotFound
	case "unrecognized file format", "no audio or video data played":
		return media.ErrorHTML5Player
	default:
		return media.ErrorUnknown
	}
}
