// Package mpv drives an mpv process over its JSON IPC socket.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tubebox/internal/domain/media"
)

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
	replyTimeout        = 2 * time.Second

	// DefaultURLTemplate turns a video key into a playable URL.
	DefaultURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Property observer ids.
const (
	observePause = iota + 1
	observePausedForCache
)

var (
	// ErrNotOpen is returned when a command is sent before Open.
	ErrNotOpen = errors.New("mpv player is not open")
	// ErrClosed is returned when a command is sent after Close.
	ErrClosed = errors.New("mpv player is closed")
)

// Config configures the mpv backend.
type Config struct {
	Path        string // mpv binary; empty attaches to an already running instance
	SocketPath  string
	URLTemplate string
	Args        []string
}

type command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

// Player implements media.Player on top of mpv.
type Player struct {
	config Config

	mu      sync.Mutex
	cmd     *exec.Cmd
	conn    net.Conn
	enc     *json.Encoder
	pending map[int]chan message
	tracker *tracker

	nextID    atomic.Int64
	events    chan media.Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates an mpv player. Nothing is started until Open.
func New(config Config) *Player {
	if config.URLTemplate == "" {
		config.URLTemplate = DefaultURLTemplate
	}
	return &Player{
		config:  config,
		pending: make(map[int]chan message),
		tracker: newTracker(),
		events:  make(chan media.Event, 32),
		done:    make(chan struct{}),
	}
}

// Open starts mpv when a binary is configured, connects to its socket and
// reports ready.
func (p *Player) Open(ctx context.Context) error {
	if p.config.Path != "" {
		if err := p.spawn(ctx); err != nil {
			return err
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", p.config.SocketPath)
	if err != nil {
		return errors.Wrap(err, "could not connect to mpv socket")
	}

	p.mu.Lock()
	p.conn = conn
	p.enc = json.NewEncoder(conn)
	p.mu.Unlock()

	p.wg.Add(1)
	go p.readLoop(conn)

	for id, name := range map[int]string{observePause: "pause", observePausedForCache: "paused-for-cache"} {
		if _, err := p.send("observe_property", id, name); err != nil {
			return errors.Wrapf(err, "failed to observe %s", name)
		}
	}

	zlog.Info().Msgf("mpv connected: %s", p.config.SocketPath)
	p.emit(media.Event{Type: media.EventReady})
	return nil
}

func (p *Player) spawn(ctx context.Context) error {
	_ = os.Remove(p.config.SocketPath)

	args := append([]string{
		"--idle",
		"--input-ipc-server=" + p.config.SocketPath,
		"--no-video",
		"--no-config",
		"--keep-open=no",
	}, p.config.Args...)

	cmd := exec.Command(p.config.Path, args...)
	cmd.Stdout = zlog.Logger
	cmd.Stderr = zlog.Logger
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "could not start mpv process")
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	zlog.Info().Msgf("mpv started (pid=%d)", cmd.Process.Pid)

	for range socketCheckRetries {
		if _, err := os.Stat(p.config.SocketPath); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			return ctx.Err()
		case <-time.After(socketCheckInterval):
		}
	}

	_ = cmd.Process.Kill()
	return errors.Newf("mpv process started but socket did not appear at %s", p.config.SocketPath)
}

func (p *Player) readLoop(conn net.Conn) {
	defer p.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			zlog.Warn().Err(err).Msgf("could not parse line from mpv: %s", scanner.Text())
			continue
		}

		p.mu.Lock()
		if msg.isReply() {
			ch, ok := p.pending[msg.RequestID]
			delete(p.pending, msg.RequestID)
			p.mu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}
		events := p.tracker.translate(msg)
		p.mu.Unlock()

		for _, ev := range events {
			p.emit(ev)
		}
	}

	select {
	case <-p.done:
	default:
		zlog.Warn().Msg("mpv connection lost")
	}
}

func (p *Player) emit(ev media.Event) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

// send writes a command and waits for its reply.
func (p *Player) send(args ...any) (any, error) {
	id := int(p.nextID.Add(1))
	ch := make(chan message, 1)

	p.mu.Lock()
	if p.enc == nil {
		p.mu.Unlock()
		return nil, ErrNotOpen
	}
	p.pending[id] = ch
	err := p.enc.Encode(command{Command: args, RequestID: id})
	if err != nil {
		delete(p.pending, id)
	}
	p.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "error sending mpv command")
	}

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != "success" {
			return nil, errors.Newf("mpv %v: %s", args[0], resp.Error)
		}
		return resp.Data, nil
	case <-timer.C:
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
		return nil, errors.Newf("mpv %v: no reply", args[0])
	case <-p.done:
		return nil, ErrClosed
	}
}

func (p *Player) getFloat(property string) (float64, error) {
	data, err := p.send("get_property", property)
	if err != nil {
		// Unavailable while no file is loaded
		if errors.Is(err, ErrNotOpen) || errors.Is(err, ErrClosed) {
			return 0, err
		}
		return 0, nil
	}
	v, ok := data.(float64)
	if !ok {
		return 0, errors.Newf("mpv %s: unexpected value %v", property, data)
	}
	return v, nil
}

func (p *Player) url(key string) string {
	return fmt.Sprintf(p.config.URLTemplate, key)
}

func (p *Player) load(key string, cue bool) error {
	p.mu.Lock()
	p.tracker.load(cue)
	p.mu.Unlock()

	if _, err := p.send("set_property", "pause", cue); err != nil {
		return err
	}
	_, err := p.send("loadfile", p.url(key), "replace")
	return err
}

// Events returns the player callback channel.
func (p *Player) Events() <-chan media.Event {
	return p.events
}

// LoadVideoByID loads and plays the video.
func (p *Player) LoadVideoByID(key string) error {
	return p.load(key, false)
}

// CueVideoByID loads the video without playing it.
func (p *Player) CueVideoByID(key string) error {
	return p.load(key, true)
}

// PlayVideo resumes playback.
func (p *Player) PlayVideo() error {
	_, err := p.send("set_property", "pause", false)
	return err
}

// PauseVideo pauses playback.
func (p *Player) PauseVideo() error {
	_, err := p.send("set_property", "pause", true)
	return err
}

// SeekTo seeks to an absolute position in seconds.
func (p *Player) SeekTo(seconds float64) error {
	_, err := p.send("seek", seconds, "absolute")
	return err
}

// SetVolume sets the volume (0-100).
func (p *Player) SetVolume(volume int) error {
	_, err := p.send("set_property", "volume", volume)
	return err
}

// Volume returns the current volume.
func (p *Player) Volume() (int, error) {
	v, err := p.getFloat("volume")
	if err != nil {
		return 0, err
	}
	return int(math.Round(v)), nil
}

// CurrentTime returns the playback position in seconds.
func (p *Player) CurrentTime() (float64, error) {
	return p.getFloat("time-pos")
}

// Duration returns the length of the loaded video in seconds.
func (p *Player) Duration() (float64, error) {
	return p.getFloat("duration")
}

// LoadedFraction returns the buffered share of the video (0-1).
func (p *Player) LoadedFraction() (float64, error) {
	duration, err := p.Duration()
	if err != nil || duration <= 0 {
		return 0, err
	}
	pos, err := p.getFloat("time-pos")
	if err != nil {
		return 0, err
	}
	cached, err := p.getFloat("demuxer-cache-duration")
	if err != nil {
		return 0, err
	}
	return math.Min((pos+cached)/duration, 1), nil
}

// State returns the last reported state.
func (p *Player) State() media.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.state
}

// Close disconnects and stops a spawned mpv process.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)

		p.mu.Lock()
		conn, cmd := p.conn, p.cmd
		p.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}
		if cmd != nil {
			if err := cmd.Process.Kill(); err != nil {
				zlog.Error().Err(err).Msg("error terminating mpv process")
			}
			_ = cmd.Wait()
			_ = os.Remove(p.config.SocketPath)
		}
	})
	p.wg.Wait()
	return nil
}

var _ media.Player = (*Player)(nil)
