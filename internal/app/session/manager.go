// Package session provides the application context that owns the stores and
// the playback service for the life of the process.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/app/catalog"
	"github.com/osa030/tubebox/internal/app/filter"
	"github.com/osa030/tubebox/internal/app/notification"
	"github.com/osa030/tubebox/internal/app/playback"
	"github.com/osa030/tubebox/internal/app/player"
	"github.com/osa030/tubebox/internal/app/queue"
	"github.com/osa030/tubebox/internal/app/ui"
	"github.com/osa030/tubebox/internal/domain/media"
	"github.com/osa030/tubebox/internal/domain/track"
	"github.com/osa030/tubebox/internal/infra/config"
	"github.com/osa030/tubebox/internal/infra/storage"
)

var (
	ErrClosed              = errors.New("session is closed")
	ErrNoPlayableTracks    = errors.New("no playable tracks")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// KeyLanguage is the local storage key of the interface language.
const KeyLanguage = "language"

// outboxSize bounds store changes waiting to be broadcast.
const outboxSize = 128

// Storage persists preferences and the play history.
type Storage interface {
	playback.LocalStorage
	AddToHistory(t track.Track, playedAt time.Time) error
	History(limit int) ([]storage.HistoryEntry, error)
}

// Status is a snapshot of every store.
type Status struct {
	Queue      queue.State  `json:"queue"`
	Player     player.State `json:"player"`
	UI         ui.State     `json:"ui"`
	Title      string       `json:"title"`
	NowPlaying *track.Track `json:"now_playing,omitempty"`
}

// PlaybackEvent is the payload of playback notifications.
type PlaybackEvent struct {
	Type    string       `json:"type"`
	Track   *track.Track `json:"track,omitempty"`
	Message string       `json:"message,omitempty"`
}

// EnqueueResult reports which tracks entered the queue.
type EnqueueResult struct {
	Added    []track.Track
	Rejected []filter.Rejection
}

// LoadResult reports a playlist handed to the player.
type LoadResult struct {
	PlaylistID string
	Title      string
	Loaded     int
	Rejected   []filter.Rejection
}

type outgoing struct {
	typ     notification.Type
	payload any
}

// Manager manages the application context.
type Manager struct {
	mu sync.Mutex

	// Configuration
	config *config.Config

	// Stores
	queue  *queue.Store
	player *player.Store
	ui     *ui.Store

	// Components
	playback     *playback.Controller
	notification *notification.Manager
	catalog      *catalog.Catalog
	filterChain  *filter.Chain
	storage      Storage

	unsubscribe []func()
	outbox      chan outgoing

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates the application context. mp may be nil when no external
// player is configured; cat may be nil when no catalog provider is.
func NewManager(cfg *config.Config, mp media.Player, store Storage, cat *catalog.Catalog, opts ...queue.Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	if cat == nil {
		cat = catalog.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := queue.NewStore(opts...)
	ps := player.NewStore()
	m := &Manager{
		config: cfg,
		queue:  q,
		player: ps,
		ui: ui.NewStore(ui.Config{
			NotificationDuration: cfg.UI.NotificationDuration(),
			Interactive:          cfg.App.Interactive(),
			Language:             restoreLanguage(cfg, store),
		}),
		playback: playback.NewController(playback.Config{
			AppName:      cfg.App.Name,
			PollInterval: cfg.Player.PollInterval(),
			Interactive:  cfg.App.Interactive(),
		}, mp, q, ps, store),
		notification: notification.NewManager(),
		catalog:      cat,
		filterChain:  filter.NewChain(),
		storage:      store,
		outbox:       make(chan outgoing, outboxSize),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	m.setupFilters()
	m.bridgeStores()

	m.wg.Add(1)
	go m.broadcastLoop()

	return m, nil
}

// restoreLanguage reads the persisted language, falling back to the
// configured default when it is missing or unknown.
func restoreLanguage(cfg *config.Config, store Storage) string {
	lang, ok, err := store.Get(KeyLanguage)
	if err != nil {
		zlog.Warn().Msgf("failed to read persisted language: %v", err)
	}
	if ok && slices.Contains(cfg.Languages(), lang) {
		return lang
	}
	return cfg.UI.DefaultLanguage
}

// setupFilters initializes the filter chain.
func (m *Manager) setupFilters() {
	cfg := m.config

	// BlankKeyFilter is always enabled
	m.filterChain.Add(&filter.BlankKeyFilter{})

	// DuplicateKeyFilter
	if cfg.IsFilterEnabled("duplicate_key_filter") {
		m.filterChain.Add(filter.NewDuplicateKeyFilter(m.queue))
	}

	// DurationLimitFilter
	if cfg.IsFilterEnabled("duration_limit_filter") {
		f := filter.NewDurationLimitFilter()
		if err := f.ValidateConfig(cfg.GetFilterSettings("duration_limit_filter")); err != nil {
			zlog.Error().Msgf("failed to validate duration limit filter config: %v", err)
		} else {
			m.filterChain.Add(f)
		}
	}

	names := lo.Map(m.filterChain.Filters(), func(f filter.Filter, _ int) string { return f.Name() })
	zlog.Info().Msgf("filter chain: %v", names)
}

// bridgeStores forwards every store change to the notification manager.
func (m *Manager) bridgeStores() {
	m.unsubscribe = append(m.unsubscribe,
		m.queue.Subscribe(func(st queue.State) { m.publish(notification.TypeQueue, st) }),
		m.player.Subscribe(func(st player.State) { m.publish(notification.TypePlayer, st) }),
		m.ui.Subscribe(func(st ui.State) { m.publish(notification.TypeUI, st) }),
	)
}

// publish queues a broadcast without blocking the store that changed.
func (m *Manager) publish(typ notification.Type, payload any) {
	select {
	case m.outbox <- outgoing{typ: typ, payload: payload}:
	case <-m.ctx.Done():
	default:
		zlog.Warn().Msgf("notification outbox full, dropping: type=%s", typ)
	}
}

func (m *Manager) broadcastLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case out := <-m.outbox:
			m.notification.Broadcast(out.typ, out.payload)
		}
	}
}

// Start loads the player, starts the playback event loop and queues the
// startup playlist when one is configured.
func (m *Manager) Start(ctx context.Context) error {
	if m.ctx.Err() != nil {
		return ErrClosed
	}

	m.playback.Start(m.ctx)

	m.wg.Add(1)
	go m.playbackLoop()

	startup := m.config.Catalog.Startup
	if startup.Provider == "" {
		return nil
	}

	if startup.Shuffle && !m.queue.IsShuffled() {
		m.queue.ToggleShuffle()
	}
	result, err := m.LoadPlaylist(ctx, startup.Provider, startup.Ref, startup.Start)
	if err != nil {
		// The daemon stays up; the playlist can be loaded later through the API
		zlog.Error().Msgf("failed to load startup playlist: provider=%s ref=%s error=%v", startup.Provider, startup.Ref, err)
		m.ui.ShowError(m.Message("playlist_not_found"))
		return nil
	}
	zlog.Info().Msgf("startup playlist loaded: playlist_id=%s title=%s tracks=%d", result.PlaylistID, result.Title, result.Loaded)
	return nil
}

// playbackLoop turns playback events into history entries, notifications
// and UI messages.
func (m *Manager) playbackLoop() {
	defer m.wg.Done()

	events := m.playback.Events()
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev := <-events:
			m.handlePlaybackEvent(ev)
		}
	}
}

func (m *Manager) handlePlaybackEvent(ev playback.Event) {
	zlog.Debug().Msgf("playback event: type=%s", ev.Type)

	switch ev.Type {
	case playback.EventTrackStarted:
		if ev.Track != nil {
			if err := m.storage.AddToHistory(*ev.Track, time.Now()); err != nil {
				zlog.Warn().Msgf("failed to record history: key=%s error=%v", ev.Track.Key, err)
			}
		}
	case playback.EventError:
		m.ui.ShowError(m.Message(ev.Message))
	case playback.EventQueueEnded:
		m.ui.ShowInfo(m.Message("queue_empty"))
	}

	m.publish(notification.TypePlayback, PlaybackEvent{
		Type:    ev.Type.String(),
		Track:   ev.Track,
		Message: ev.Message,
	})
}

// Done returns a channel that is closed when the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops playback, the event loops and every pending timer.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		zlog.Info().Msg("closing session")
		for _, unsubscribe := range m.unsubscribe {
			unsubscribe()
		}
		m.cancel()
		m.playback.Close()
		m.ui.Close()
		m.wg.Wait()
		m.notification.Close()
		close(m.done)
	})
}

// Logout stops playback and resets the queue, the player and the UI.
// The interface language and the persisted preferences are kept.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playback.ClearQueue()
	m.ui.Reset()
	zlog.Info().Msg("logged out")
}

// ClearQueue stops playback and empties the queue.
func (m *Manager) ClearQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playback.ClearQueue()
	m.ui.ShowInfo(m.Message("queue_cleared"))
	zlog.Info().Msg("queue cleared")
}

// Enqueue runs tracks through the filter chain and appends the accepted ones.
// With playNext they are inserted right after the current track, in order.
// Playback starts when the queue was empty.
func (m *Manager) Enqueue(ctx context.Context, tracks []track.Track, playNext bool) (*EnqueueResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	unique := lo.UniqBy(tracks, func(t track.Track) string { return t.Key })
	accepted, rejected := m.filterChain.Partition(ctx, unique, filter.SourceUser)
	for _, r := range rejected {
		zlog.Info().Msgf("track rejected: key=%s title=%s code=%s", r.Track.Key, r.Track.Title, r.Code)
	}

	result := &EnqueueResult{Added: accepted, Rejected: rejected}
	if len(accepted) == 0 {
		if len(rejected) > 0 {
			m.ui.ShowWarning(m.Message(rejected[0].Code))
		}
		return result, nil
	}

	wasEmpty := m.playback.Enqueue(accepted, playNext)
	zlog.Info().Msgf("enqueued: added=%d rejected=%d play_next=%t", len(accepted), len(rejected), playNext)
	m.ui.ShowSuccess(m.Message("tracks_added"))

	if wasEmpty {
		if err := m.playback.EnsureLoaded(); err != nil {
			return result, errors.Wrap(err, "failed to start playback")
		}
	}
	return result, nil
}

// LoadPlaylist fetches a playlist from the catalog, filters it and replaces
// the queue with it. start is an index into the fetched playlist; when that
// track was rejected, playback starts at the next accepted one.
func (m *Manager) LoadPlaylist(ctx context.Context, provider, ref string, start int) (*LoadResult, error) {
	pl, err := m.catalog.Playlist(ctx, provider, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch playlist %s from %s", ref, provider)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tracks := pl.WithPlaylistID()
	accepted, rejected := m.filterChain.Partition(ctx, tracks, filter.SourcePlaylist)
	if len(accepted) == 0 {
		return nil, errors.Wrapf(ErrNoPlayableTracks, "playlist %s", pl.ID)
	}

	startAt := 0
	if start > 0 {
		rejectedBefore := lo.CountBy(rejected, func(r filter.Rejection) bool {
			i := slices.IndexFunc(tracks, func(t track.Track) bool { return t.Key == r.Track.Key })
			return i >= 0 && i < start
		})
		startAt = lo.Clamp(start-rejectedBefore, 0, len(accepted)-1)
	}

	if err := m.playback.RunPlaylist(accepted, pl.ID, "", startAt); err != nil {
		return nil, errors.Wrap(err, "failed to run playlist")
	}
	zlog.Info().Msgf("playlist loaded: provider=%s playlist_id=%s tracks=%d rejected=%d start=%d",
		provider, pl.ID, len(accepted), len(rejected), startAt)

	return &LoadResult{
		PlaylistID: pl.ID,
		Title:      pl.Title,
		Loaded:     len(accepted),
		Rejected:   rejected,
	}, nil
}

// Search queries the catalog.
func (m *Manager) Search(ctx context.Context, provider, query string, limit int) ([]track.Track, error) {
	return m.catalog.Search(ctx, provider, query, limit)
}

// Providers returns the catalog provider names.
func (m *Manager) Providers() []string {
	return m.catalog.Names()
}

// SetLanguage switches and persists the interface language.
func (m *Manager) SetLanguage(lang string) error {
	if !slices.Contains(m.config.Languages(), lang) {
		return errors.Wrapf(ErrUnsupportedLanguage, "%s", lang)
	}
	m.ui.SetLanguage(lang)
	if err := m.storage.Set(KeyLanguage, lang); err != nil {
		return errors.Wrap(err, "failed to persist language")
	}
	return nil
}

// Message returns the localized text for key in the current language.
func (m *Manager) Message(key string) string {
	return m.config.GetMessage(m.ui.Language(), key)
}

// Status returns a snapshot of every store.
func (m *Manager) Status() Status {
	status := Status{
		Queue:  m.queue.State(),
		Player: m.player.State(),
		UI:     m.ui.State(),
		Title:  m.playback.Title(),
	}
	if t, ok := m.playback.NowPlaying(); ok {
		status.NowPlaying = &t
	}
	return status
}

// History returns recently played tracks, most recent first.
func (m *Manager) History(limit int) ([]storage.HistoryEntry, error) {
	if limit <= 0 || limit > m.config.Storage.HistoryLimit {
		limit = m.config.Storage.HistoryLimit
	}
	return m.storage.History(limit)
}

// Playback returns the playback controller.
func (m *Manager) Playback() *playback.Controller {
	return m.playback
}

// Queue returns the queue store.
func (m *Manager) Queue() *queue.Store {
	return m.queue
}

// Player returns the player store.
func (m *Manager) Player() *player.Store {
	return m.player
}

// UI returns the UI store.
func (m *Manager) UI() *ui.Store {
	return m.ui
}

// Notifications returns the notification manager.
func (m *Manager) Notifications() *notification.Manager {
	return m.notification
}

// Filters returns the filter chain.
func (m *Manager) Filters() *filter.Chain {
	return m.filterChain
}
