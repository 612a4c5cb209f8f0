package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tubebox/internal/domain/media"
)

// fakeMpv answers IPC commands the way mpv does.
type fakeMpv struct {
	listener net.Listener

	mu         sync.Mutex
	commands   [][]any
	properties map[string]any
}

func startFakeMpv(t *testing.T) (*fakeMpv, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mpv.sock")
	l, err := net.Listen("unix", path)
	require.NoError(t, err)

	f := &fakeMpv{
		listener: l,
		properties: map[string]any{
			"volume":                 55.0,
			"time-pos":               30.0,
			"duration":               120.0,
			"demuxer-cache-duration": 30.0,
		},
	}
	go f.serve()
	t.Cleanup(func() { _ = l.Close() })
	return f, path
}

func (f *fakeMpv) serve() {
	conn, err := f.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	enc := json.NewEncoder(conn)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		reply := map[string]any{"request_id": cmd.RequestID, "error": "success"}
		if cmd.Command[0] == "get_property" {
			if v, ok := f.properties[cmd.Command[1].(string)]; ok {
				reply["data"] = v
			} else {
				reply["error"] = "property unavailable"
			}
		}
		f.mu.Unlock()

		_ = enc.Encode(reply)

		if cmd.Command[0] == "loadfile" {
			_ = enc.Encode(map[string]any{"event": "start-file"})
			_ = enc.Encode(map[string]any{"event": "playback-restart"})
		}
	}
}

func (f *fakeMpv) sent() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]any(nil), f.commands...)
}

func nextEvent(t *testing.T, p *Player) media.Event {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for player event")
		return media.Event{}
	}
}

func TestPlayer_OpenAndLoad(t *testing.T) {
	fake, path := startFakeMpv(t)

	p := New(Config{SocketPath: path})
	t.Cleanup(func() { _ = p.Close() })

	require.NoError(t, p.Open(context.Background()))
	assert.Equal(t, media.Event{Type: media.EventReady}, nextEvent(t, p))

	require.NoError(t, p.LoadVideoByID("abc123"))
	assert.Equal(t, media.Event{Type: media.EventStateChange, State: media.StateBuffering}, nextEvent(t, p))
	assert.Equal(t, media.Event{Type: media.EventStateChange, State: media.StatePlaying}, nextEvent(t, p))
	assert.Equal(t, media.StatePlaying, p.State())

	assert.Contains(t, fake.sent(), []any{"loadfile", "https://www.youtube.com/watch?v=abc123", "replace"})
	assert.Contains(t, fake.sent(), []any{"set_property", "pause", false})
}

func TestPlayer_Properties(t *testing.T) {
	fake, path := startFakeMpv(t)

	p := New(Config{SocketPath: path, URLTemplate: "ytdl://%s"})
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.Open(context.Background()))

	volume, err := p.Volume()
	require.NoError(t, err)
	assert.Equal(t, 55, volume)

	current, err := p.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 30.0, current)

	duration, err := p.Duration()
	require.NoError(t, err)
	assert.Equal(t, 120.0, duration)

	loaded, err := p.LoadedFraction()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, loaded, 0.0001)

	require.NoError(t, p.SeekTo(42))
	require.NoError(t, p.SetVolume(80))
	require.NoError(t, p.PauseVideo())
	require.NoError(t, p.CueVideoByID("xyz"))

	sent := fake.sent()
	assert.Contains(t, sent, []any{"seek", 42.0, "absolute"})
	assert.Contains(t, sent, []any{"set_property", "volume", 80.0})
	assert.Contains(t, sent, []any{"set_property", "pause", true})
	assert.Contains(t, sent, []any{"loadfile", "ytdl://xyz", "replace"})
}

func TestPlayer_UnavailableProperty(t *testing.T) {
	fake, path := startFakeMpv(t)
	fake.mu.Lock()
	delete(fake.properties, "time-pos")
	fake.mu.Unlock()

	p := New(Config{SocketPath: path})
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.Open(context.Background()))

	current, err := p.CurrentTime()
	require.NoError(t, err)
	assert.Zero(t, current)
}

func TestPlayer_NotOpen(t *testing.T) {
	p := New(Config{SocketPath: "/nonexistent/mpv.sock"})

	err := p.PlayVideo()
	assert.ErrorIs(t, err, ErrNotOpen)

	err = p.Open(context.Background())
	assert.Error(t, err)
	assert.Equal(t, media.StateUnstarted, p.State())
	assert.NoError(t, p.Close())
}
