package mpv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/tubebox/internal/domain/media"
)

func stateChange(s media.State) []media.Event {
	return []media.Event{{Type: media.EventStateChange, State: s}}
}

func TestTracker_Translate(t *testing.T) {
	tests := []struct {
		name     string
		cue      bool
		messages []message
		want     []media.Event
		state    media.State
	}{
		{
			name: "load and play",
			messages: []message{
				{Event: "start-file"},
				{Event: "playback-restart"},
			},
			want:  append(stateChange(media.StateBuffering), stateChange(media.StatePlaying)...),
			state: media.StatePlaying,
		},
		{
			name: "cued file",
			cue:  true,
			messages: []message{
				{Event: "start-file"},
				{Event: "playback-restart"},
			},
			want:  append(stateChange(media.StateBuffering), stateChange(media.StateCued)...),
			state: media.StateCued,
		},
		{
			name: "pause before start is only recorded",
			messages: []message{
				{Event: "property-change", Name: "pause", Data: true},
				{Event: "start-file"},
				{Event: "playback-restart"},
			},
			want:  append(stateChange(media.StateBuffering), stateChange(media.StatePaused)...),
			state: media.StatePaused,
		},
		{
			name: "pause and resume",
			messages: []message{
				{Event: "start-file"},
				{Event: "playback-restart"},
				{Event: "property-change", Name: "pause", Data: true},
				{Event: "property-change", Name: "pause", Data: false},
			},
			want: append(append(append(
				stateChange(media.StateBuffering),
				stateChange(media.StatePlaying)...),
				stateChange(media.StatePaused)...),
				stateChange(media.StatePlaying)...),
			state: media.StatePlaying,
		},
		{
			name: "cache stall",
			messages: []message{
				{Event: "start-file"},
				{Event: "playback-restart"},
				{Event: "property-change", Name: "paused-for-cache", Data: true},
				{Event: "property-change", Name: "paused-for-cache", Data: false},
			},
			want: append(append(append(
				stateChange(media.StateBuffering),
				stateChange(media.StatePlaying)...),
				stateChange(media.StateBuffering)...),
				stateChange(media.StatePlaying)...),
			state: media.StatePlaying,
		},
		{
			name: "end of file",
			messages: []message{
				{Event: "start-file"},
				{Event: "playback-restart"},
				{Event: "end-file", Reason: "eof"},
			},
			want: append(append(
				stateChange(media.StateBuffering),
				stateChange(media.StatePlaying)...),
				stateChange(media.StateEnded)...),
			state: media.StateEnded,
		},
		{
			name: "stop is ignored",
			messages: []message{
				{Event: "start-file"},
				{Event: "end-file", Reason: "stop"},
			},
			want:  stateChange(media.StateBuffering),
			state: media.StateBuffering,
		},
		{
			name: "loading failure",
			messages: []message{
				{Event: "start-file"},
				{Event: "end-file", Reason: "error", FileError: "loading failed"},
			},
			want: append(
				stateChange(media.StateBuffering),
				media.Event{Type: media.EventError, Code: media.ErrorNotFound}),
			state: media.StateUnstarted,
		},
		{
			name: "unknown events",
			messages: []message{
				{Event: "idle"},
				{Event: "property-change", Name: "volume", Data: 50.0},
			},
			want:  nil,
			state: media.StateUnstarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			tr.load(tt.cue)

			var got []media.Event
			for _, msg := range tt.messages {
				got = append(got, tr.translate(msg)...)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.state, tr.state)
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		fileError string
		want      int
	}{
		{"loading failed", media.ErrorNotFound},
		{"unrecognized file format", media.ErrorHTML5Player},
		{"no audio or video data played", media.ErrorHTML5Player},
		{"something else", media.ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.fileError, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.fileError))
		})
	}
}
