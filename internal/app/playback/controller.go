package playback

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/app/player"
	"github.com/osa030/tubebox/internal/app/queue"
	"github.com/osa030/tubebox/internal/domain/media"
	"github.com/osa030/tubebox/internal/domain/track"
)

// Errors
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrQueueEmpty      = errors.New("queue is empty")
)

// DefaultPollInterval is the progress polling interval while playing.
const DefaultPollInterval = 200 * time.Millisecond

const fallbackVolume = 100

// Config holds controller configuration.
type Config struct {
	AppName      string        // Suffix of the page title
	PollInterval time.Duration // Progress polling interval
	Interactive  bool          // Load the player at all
}

// LocalStorage persists small user preferences.
type LocalStorage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Controller translates player callbacks into store mutations and exposes
// the playback controls. The queue store is the single source of truth for
// queue contents and the cursor.
type Controller struct {
	mu sync.Mutex

	// Collaborators
	media   media.Player // nil when no player is configured
	queue   *queue.Store
	player  *player.Store
	storage LocalStorage

	config Config

	// Player lifecycle
	ready      bool
	pendingKey string // latest key requested before the player was ready

	// Loaded track
	current *track.Track
	started bool
	title   string

	pollCancel func()

	// Events
	eventCh chan Event

	// Lifecycle
	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewController creates a playback controller. mp may be nil, in which case
// the controller only drives the stores.
func NewController(config Config, mp media.Player, q *queue.Store, ps *player.Store, storage LocalStorage) *Controller {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		media:   mp,
		queue:   q,
		player:  ps,
		storage: storage,
		config:  config,
		title:   config.AppName,
		eventCh: make(chan Event, 32),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Start loads the player in the background and dispatches its callbacks.
// It runs at most once and does nothing when the environment is not
// interactive.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		if !c.config.Interactive || c.media == nil {
			zlog.Info().Msg("player disabled: running without an interactive player")
			return
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.run(ctx)
		}()
	})
}

func (c *Controller) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	if err := c.media.Open(ctx); err != nil {
		if ctx.Err() == nil {
			zlog.Error().Msgf("failed to open player: %v", err)
			c.player.SetError(ErrKeyPlayerLoad)
		}
		return
	}
	zlog.Info().Msg("player opened")

	events := c.media.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				zlog.Warn().Msg("player event stream closed")
				return
			}
			c.dispatch(ev)
		}
	}
}

func (c *Controller) dispatch(ev media.Event) {
	zlog.Debug().Msgf("player event: type=%s state=%s code=%d", ev.Type, ev.State, ev.Code)
	switch ev.Type {
	case media.EventReady:
		c.OnReady()
	case media.EventStateChange:
		c.OnStateChange(ev.State)
	case media.EventError:
		c.OnError(ev.Code)
	}
}

// OnReady handles the player ready callback. It restores the persisted
// volume and repeat flag and plays the pending key, if any.
func (c *Controller) OnReady() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = true
	c.player.SetPlayerReady(true)
	c.restoreVolumeLocked()
	c.restoreRepeatLocked()

	if c.pendingKey == "" || c.media == nil {
		return
	}
	key := c.pendingKey
	c.pendingKey = ""
	if err := c.media.LoadVideoByID(key); err != nil {
		zlog.Error().Msgf("failed to load pending video: key=%s err=%v", key, err)
		return
	}
	zlog.Debug().Msgf("pending video loaded: key=%s", key)
}

// OnStateChange handles a player state change.
func (c *Controller) OnStateChange(state media.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch state {
	case media.StateUnstarted, media.StatePaused:
		c.stopPollingLocked()
		c.player.Pause()

	case media.StateEnded:
		c.stopPollingLocked()
		c.player.Pause()
		c.player.SetEnded()
		c.sendEventLocked(Event{Type: EventTrackEnded, Track: c.current})

		advanced, err := c.afterLocked()
		if err != nil {
			zlog.Error().Msgf("failed to advance after track end: %v", err)
		}
		if !advanced {
			zlog.Info().Msg("queue ended")
			c.sendEventLocked(Event{Type: EventQueueEnded})
		}

	case media.StatePlaying:
		c.player.Play()
		c.startPollingLocked()
		if !c.started && c.current != nil {
			c.started = true
			c.sendEventLocked(Event{Type: EventTrackStarted, Track: c.current})
		}

	case media.StateBuffering:
		c.player.SetLoading()

	case media.StateCued:
		c.player.SetIdle()
	}
}

// OnError handles a player error. Polling stops and the error is surfaced
// through the player store; the queue is left untouched.
func (c *Controller) OnError(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPollingLocked()
	key := ErrorMessageKey(code)
	c.player.SetError(key)
	zlog.Warn().Msgf("player error: code=%d key=%s", code, key)
	c.sendEventLocked(Event{Type: EventError, Track: c.current, Message: key})
}

// Lecture plays a queued track. When indexInitial is true, index is a
// playback position; otherwise it is an index into the queue items.
func (c *Controller) Lecture(index int, indexInitial bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lectureLocked(index, indexInitial)
}

// Before plays the previous position. It returns false at the start.
func (c *Controller) Before() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.queue.HasPrevious() {
		return false, nil
	}
	return true, c.lectureLocked(c.queue.CurrentIndex()-1, true)
}

// After plays the next position, looping to the start when repeat is set.
// It returns false when there is nothing to advance to.
func (c *Controller) After() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.afterLocked()
}

// RemoveToPlaylist removes the queue item at index. Playback pauses when
// the removed item was the one playing.
func (c *Controller) RemoveToPlaylist(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.queue.State()
	if index < 0 || index >= len(st.Items) {
		return false
	}
	cur, _ := st.Current()
	wasPlaying := st.TabIndex[st.CurrentIndex] == index &&
		c.current != nil && c.current.Key == cur.Key

	if !c.queue.RemoveFromQueue(index) {
		return false
	}

	if wasPlaying {
		c.stopPollingLocked()
		c.pendingKey = ""
		if c.canControlLocked() {
			if err := c.media.PauseVideo(); err != nil {
				zlog.Error().Msgf("failed to pause removed track: %v", err)
			}
		}
		c.player.Pause()
		c.current = nil
		c.started = false
		c.title = c.config.AppName
	}
	zlog.Info().Msgf("removed from queue: index=%d key=%s was_playing=%t", index, st.Items[index].Key, wasPlaying)
	return true
}

// RunPlaylist replaces the queue and starts playing the item at start.
func (c *Controller) RunPlaylist(tracks []track.Track, playlistID, topChartsID string, start int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(tracks) == 0 {
		return ErrQueueEmpty
	}
	if start < 0 || start >= len(tracks) {
		return errors.Wrapf(ErrIndexOutOfRange, "start %d", start)
	}
	c.queue.SetQueue(tracks, playlistID, topChartsID)
	return c.lectureLocked(start, false)
}

// EnsureLoaded plays the track at the cursor when nothing is loaded yet.
func (c *Controller) EnsureLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil || c.queue.Len() == 0 {
		return nil
	}
	return c.lectureLocked(c.queue.CurrentIndex(), true)
}

// TogglePlay flips between playing and paused and returns whether it is
// now playing. With nothing loaded it starts the track at the cursor.
func (c *Controller) TogglePlay() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		if c.queue.Len() == 0 {
			return false, ErrQueueEmpty
		}
		return true, c.lectureLocked(c.queue.CurrentIndex(), true)
	}

	playing := c.player.TogglePlay()
	if !playing {
		c.stopPollingLocked()
	}
	if c.canControlLocked() {
		var err error
		if playing {
			err = c.media.PlayVideo()
		} else {
			err = c.media.PauseVideo()
		}
		if err != nil {
			return playing, errors.Wrap(err, "failed to toggle playback")
		}
	}
	return playing, nil
}

// Seek moves to seconds, clamped to the track duration.
func (c *Controller) Seek(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(c.player.SeekTo(seconds))
}

// SeekPercent moves to a percentage of the track duration.
func (c *Controller) SeekPercent(percent float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(c.player.SeekToPercent(percent))
}

// SetVolume clamps, persists and applies the volume.
func (c *Controller) SetVolume(volume int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	volume = lo.Clamp(volume, 0, 100)
	c.persistLocked(KeyVolume, strconv.Itoa(volume))
	c.player.SetVolume(volume)
	if c.canControlLocked() {
		if err := c.media.SetVolume(volume); err != nil {
			return errors.Wrap(err, "failed to set player volume")
		}
	}
	return nil
}

// ToggleMute mutes or restores the volume and returns whether it is now
// muted.
func (c *Controller) ToggleMute() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	muted := c.player.ToggleMute()
	volume := c.player.State().Volume
	c.persistLocked(KeyVolume, strconv.Itoa(volume))
	if c.canControlLocked() {
		if err := c.media.SetVolume(volume); err != nil {
			return muted, errors.Wrap(err, "failed to set player volume")
		}
	}
	return muted, nil
}

// ToggleRepeat flips and persists the repeat flag.
func (c *Controller) ToggleRepeat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	repeat := c.player.ToggleRepeat()
	c.persistLocked(KeyRepeat, strconv.FormatBool(repeat))
	return repeat
}

// ToggleShuffle flips the queue shuffle flag.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.ToggleShuffle()
}

// Enqueue appends tracks to the queue. With playNext they are inserted right
// after the current position, in order. It reports whether the queue was
// empty before.
func (c *Controller) Enqueue(tracks []track.Track, playNext bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasEmpty := c.queue.Len() == 0
	if playNext && !wasEmpty {
		for _, t := range slices.Backward(tracks) {
			c.queue.AddAfterCurrent(t)
		}
	} else {
		c.queue.AddToQueue(tracks...)
	}
	return wasEmpty
}

// ClearQueue stops playback and empties the queue.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.queue.Clear()
}

// Stop pauses the player, forgets the loaded track and resets the player
// store.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	c.stopPollingLocked()
	if c.canControlLocked() && c.current != nil {
		if err := c.media.PauseVideo(); err != nil {
			zlog.Error().Msgf("failed to pause on stop: %v", err)
		}
	}
	c.pendingKey = ""
	c.current = nil
	c.started = false
	c.title = c.config.AppName
	c.player.Reset()
	c.player.SetPlayerReady(c.ready)
}

// Close stops polling and the event loop and closes the player.
func (c *Controller) Close() {
	c.cancel()

	c.mu.Lock()
	c.stopPollingLocked()
	c.mu.Unlock()

	c.wg.Wait()

	if c.media != nil {
		if err := c.media.Close(); err != nil {
			zlog.Error().Msgf("failed to close player: %v", err)
		}
	}
}

// Title returns the page title.
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// NowPlaying returns the loaded track.
func (c *Controller) NowPlaying() (track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return track.Track{}, false
	}
	return *c.current, true
}

// CurrentKey returns the key of the loaded track.
func (c *Controller) CurrentKey() string {
	t, _ := c.NowPlaying()
	return t.Key
}

// CurrentTitle returns the title of the loaded track.
func (c *Controller) CurrentTitle() string {
	t, _ := c.NowPlaying()
	return t.Title
}

// CurrentArtist returns the artist of the loaded track.
func (c *Controller) CurrentArtist() string {
	t, _ := c.NowPlaying()
	return t.Artist
}

// IsReady reports whether the player finished initializing.
func (c *Controller) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// IsPolling reports whether progress polling is active.
func (c *Controller) IsPolling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollCancel != nil
}

// PageTitle returns "title - artist - app", omitting an empty artist.
func PageTitle(t track.Track, appName string) string {
	return t.DisplayTitle() + " - " + appName
}

func (c *Controller) lectureLocked(index int, indexInitial bool) error {
	st := c.queue.State()

	position := index
	if !indexInitial {
		pos, ok := st.PositionOf(index)
		if !ok {
			return errors.Wrapf(ErrIndexOutOfRange, "item %d", index)
		}
		position = pos
	}
	t, ok := st.At(position)
	if !ok {
		return errors.Wrapf(ErrIndexOutOfRange, "position %d", position)
	}
	item := st.TabIndex[position]

	c.stopPollingLocked()
	if err := c.loadLocked(t.Key); err != nil {
		return err
	}

	c.current = &t
	c.started = false
	c.title = PageTitle(t, c.config.AppName)
	c.player.SetLoading()
	c.player.UpdateProgress(player.Progress{
		CurrentTime:    0,
		Duration:       lo.ToPtr(t.Duration.Seconds()),
		LoadedFraction: lo.ToPtr(0.0),
	})
	position = c.cursorToLocked(item, t.Key)

	zlog.Info().Msgf("lecture: position=%d key=%s title=%s", position, t.Key, c.title)
	c.sendEventLocked(Event{Type: EventTrackLoaded, Track: &t})
	return nil
}

// cursorToLocked moves the queue cursor to the loaded item. Store subscribers
// may have reordered the queue since the target was picked, so the position
// is looked up again and falls back to the first item with the same key.
func (c *Controller) cursorToLocked(item int, key string) int {
	st := c.queue.State()
	pos, ok := st.PositionOf(item)
	if !ok || st.Items[item].Key != key {
		pos = slices.IndexFunc(st.Ordered(), func(t track.Track) bool { return t.Key == key })
	}
	if pos >= 0 {
		c.queue.GoToIndex(pos)
	}
	return pos
}

// loadLocked hands key to the player, or parks it until the player is ready.
func (c *Controller) loadLocked(key string) error {
	if !c.canControlLocked() {
		c.pendingKey = key
		return nil
	}
	if err := c.media.LoadVideoByID(key); err != nil {
		return errors.Wrapf(err, "failed to load video %s", key)
	}
	return nil
}

func (c *Controller) afterLocked() (bool, error) {
	switch {
	case c.queue.HasNext():
		return true, c.lectureLocked(c.queue.CurrentIndex()+1, true)
	case c.player.State().IsRepeat && c.queue.Len() > 0:
		return true, c.lectureLocked(0, true)
	default:
		return false, nil
	}
}

func (c *Controller) seekLocked(seconds float64) error {
	if !c.canControlLocked() {
		return nil
	}
	if err := c.media.SeekTo(seconds); err != nil {
		return errors.Wrap(err, "failed to seek")
	}
	return nil
}

func (c *Controller) canControlLocked() bool {
	return c.media != nil && c.ready
}

func (c *Controller) restoreVolumeLocked() {
	volume := -1
	if v, ok, err := c.storage.Get(KeyVolume); err != nil {
		zlog.Warn().Msgf("failed to read persisted volume: %v", err)
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 100 {
			volume = n
		}
	}

	if volume < 0 {
		volume = fallbackVolume
		if c.media != nil {
			if n, err := c.media.Volume(); err == nil {
				volume = lo.Clamp(n, 0, 100)
			}
		}
		c.persistLocked(KeyVolume, strconv.Itoa(volume))
	}

	if c.media != nil {
		if err := c.media.SetVolume(volume); err != nil {
			zlog.Warn().Msgf("failed to apply volume: %v", err)
		}
	}
	c.player.SetVolume(volume)
	zlog.Debug().Msgf("volume restored: volume=%d", volume)
}

func (c *Controller) restoreRepeatLocked() {
	v, ok, err := c.storage.Get(KeyRepeat)
	if err != nil {
		zlog.Warn().Msgf("failed to read persisted repeat flag: %v", err)
		return
	}
	if !ok {
		return
	}
	repeat, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	c.player.SetRepeat(repeat)
}

func (c *Controller) persistLocked(key, value string) {
	if err := c.storage.Set(key, value); err != nil {
		zlog.Warn().Msgf("failed to persist %s: %v", key, err)
	}
}

// startPollingLocked starts progress polling unless it is already running.
func (c *Controller) startPollingLocked() {
	if c.pollCancel != nil || c.media == nil || c.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.pollCancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.pollOnce(ctx)
			}
		}
	}()
}

func (c *Controller) stopPollingLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

func (c *Controller) pollOnce(ctx context.Context) {
	current, err := c.media.CurrentTime()
	if err != nil {
		zlog.Debug().Msgf("poll current time: %v", err)
		return
	}
	duration, err := c.media.Duration()
	if err != nil {
		zlog.Debug().Msgf("poll duration: %v", err)
		return
	}
	loaded, err := c.media.LoadedFraction()
	if err != nil {
		zlog.Debug().Msgf("poll loaded fraction: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stopped while reading the player
	if ctx.Err() != nil {
		return
	}
	c.player.UpdateProgress(player.Progress{
		CurrentTime:    current,
		Duration:       &duration,
		LoadedFraction: &loaded,
	})
}

// sendEventLocked sends an event without blocking.
func (c *Controller) sendEventLocked(e Event) {
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		// Channel full, drop event
	}
}
