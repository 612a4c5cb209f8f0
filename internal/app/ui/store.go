package ui

import (
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tubebox/internal/app/signal"
)

// DefaultNotificationDuration is used when neither the config nor the
// caller sets a duration.
const DefaultNotificationDuration = 5 * time.Second

// Config holds UI store configuration.
type Config struct {
	NotificationDuration time.Duration // Default auto-dismiss delay
	Interactive          bool          // Schedule auto-dismiss timers
	Language             string        // Initial language
}

// Store owns modal visibility and the notification list.
type Store struct {
	sig    *signal.Store[State]
	config Config

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// NewStore creates a UI store.
func NewStore(config Config) *Store {
	if config.NotificationDuration <= 0 {
		config.NotificationDuration = DefaultNotificationDuration
	}
	return &Store{
		sig:    signal.New(State{Language: config.Language}, State.clone),
		config: config,
		timers: make(map[string]*time.Timer),
	}
}

// State returns a snapshot of the UI state.
func (s *Store) State() State {
	return s.sig.Get()
}

// Subscribe registers fn for state changes and returns its cancel function.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.sig.Subscribe(fn)
}

// NotifyOption configures a notification.
type NotifyOption func(*Notification)

// WithDuration sets the auto-dismiss delay. Zero makes the notification sticky
// and a negative delay falls back to the configured default.
func WithDuration(d time.Duration) NotifyOption {
	return func(n *Notification) {
		n.Duration = d
	}
}

// ShowNotification appends a notification and returns its ID.
func (s *Store) ShowNotification(message string, typ NotificationType, opts ...NotifyOption) string {
	n := Notification{
		ID:       uuid.New().String(),
		Message:  message,
		Type:     typ,
		Duration: s.config.NotificationDuration,
	}
	for _, opt := range opts {
		opt(&n)
	}
	if n.Duration < 0 {
		n.Duration = s.config.NotificationDuration
	}

	s.sig.Update(func(st *State) bool {
		st.Notifications = append(st.Notifications, n)
		return true
	})

	if n.Duration > 0 && s.config.Interactive {
		s.schedule(n.ID, n.Duration)
	}
	zlog.Debug().Msgf("notification shown: id=%s type=%s duration=%v", n.ID, n.Type, n.Duration)
	return n.ID
}

// ShowSuccess shows a success notification.
func (s *Store) ShowSuccess(message string, opts ...NotifyOption) string {
	return s.ShowNotification(message, NotificationSuccess, opts...)
}

// ShowError shows an error notification.
func (s *Store) ShowError(message string, opts ...NotifyOption) string {
	return s.ShowNotification(message, NotificationError, opts...)
}

// ShowInfo shows an info notification.
func (s *Store) ShowInfo(message string, opts ...NotifyOption) string {
	return s.ShowNotification(message, NotificationInfo, opts...)
}

// ShowWarning shows a warning notification.
func (s *Store) ShowWarning(message string, opts ...NotifyOption) string {
	return s.ShowNotification(message, NotificationWarning, opts...)
}

// Dismiss removes a notification and cancels its timer.
// It returns false when no notification has the ID.
func (s *Store) Dismiss(id string) bool {
	s.cancelTimer(id)
	return s.sig.Update(func(st *State) bool {
		idx := slices.IndexFunc(st.Notifications, func(n Notification) bool {
			return n.ID == id
		})
		if idx < 0 {
			return false
		}
		st.Notifications = slices.Delete(st.Notifications, idx, idx+1)
		return true
	})
}

// OpenLogin opens the login modal.
func (s *Store) OpenLogin() {
	s.open(ModalLogin, nil)
}

// OpenRegister opens the register modal.
func (s *Store) OpenRegister() {
	s.open(ModalRegister, nil)
}

// OpenResetPassword opens the password reset modal.
func (s *Store) OpenResetPassword() {
	s.open(ModalResetPass, nil)
}

// OpenAddVideo opens the add-video modal for the given video.
func (s *Store) OpenAddVideo(data AddVideoData) {
	s.open(ModalAddVideo, func(st *State) {
		st.AddVideoData = &data
	})
}

// OpenEditPlaylist opens the playlist editor for the given playlist.
func (s *Store) OpenEditPlaylist(playlistID string) {
	s.open(ModalEditPlaylist, func(st *State) {
		st.EditPlaylistID = playlistID
	})
}

// OpenModal opens modal with its payload. The add-video modal needs data and
// the playlist editor needs a playlist ID.
func (s *Store) OpenModal(modal Modal, data *AddVideoData, playlistID string) error {
	switch modal {
	case ModalNone:
		s.CloseModal()
	case ModalLogin:
		s.OpenLogin()
	case ModalRegister:
		s.OpenRegister()
	case ModalResetPass:
		s.OpenResetPassword()
	case ModalAddVideo:
		if data == nil || data.Key == "" {
			return errors.Wrap(ErrMissingModalPayload, "add-video modal needs a video")
		}
		s.OpenAddVideo(*data)
	case ModalEditPlaylist:
		if playlistID == "" {
			return errors.Wrap(ErrMissingModalPayload, "playlist editor needs a playlist id")
		}
		s.OpenEditPlaylist(playlistID)
	default:
		return errors.Newf("unknown modal %d", modal)
	}
	return nil
}

// CloseModal closes the active modal and drops every payload.
func (s *Store) CloseModal() {
	s.open(ModalNone, nil)
}

// SetMobile sets the mobile viewport flag.
func (s *Store) SetMobile(mobile bool) {
	s.sig.Update(func(st *State) bool {
		if st.IsMobile == mobile {
			return false
		}
		st.IsMobile = mobile
		return true
	})
}

// SetSessionExpired sets the session expired flag.
func (s *Store) SetSessionExpired(expired bool) {
	s.sig.Update(func(st *State) bool {
		if st.SessionExpired == expired {
			return false
		}
		st.SessionExpired = expired
		return true
	})
}

// SetLanguage sets the interface language.
func (s *Store) SetLanguage(lang string) {
	s.sig.Update(func(st *State) bool {
		if st.Language == lang {
			return false
		}
		st.Language = lang
		return true
	})
}

// Language returns the interface language.
func (s *Store) Language() string {
	var lang string
	s.sig.View(func(st *State) {
		lang = st.Language
	})
	return lang
}

// Reset clears modals, notifications and the session flag.
// The viewport flag and language are kept.
func (s *Store) Reset() {
	s.stopTimers()
	s.sig.Update(func(st *State) bool {
		*st = State{
			IsMobile: st.IsMobile,
			Language: st.Language,
		}
		return true
	})
}

// Close stops all pending auto-dismiss timers.
func (s *Store) Close() {
	s.stopTimers()
}

func (s *Store) open(modal Modal, payload func(*State)) {
	s.sig.Update(func(st *State) bool {
		st.ActiveModal = modal
		st.AddVideoData = nil
		st.EditPlaylistID = ""
		if payload != nil {
			payload(st)
		}
		return true
	})
}

func (s *Store) schedule(id string, d time.Duration) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	s.timers[id] = time.AfterFunc(d, func() {
		s.timersMu.Lock()
		delete(s.timers, id)
		s.timersMu.Unlock()
		s.Dismiss(id)
	})
}

func (s *Store) cancelTimer(id string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Store) stopTimers() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// PendingTimers returns the number of scheduled auto-dismiss timers.
func (s *Store) PendingTimers() int {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	return len(s.timers)
}
