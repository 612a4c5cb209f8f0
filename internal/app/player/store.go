package player

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/app/signal"
)

const (
	defaultVolume = 100
	maxVolume     = 100
)

// State is the transport state of the active player.
// Times are in seconds.
type State struct {
	Status         Status  `json:"status"`
	CurrentTime    float64 `json:"current_time"`
	Duration       float64 `json:"duration"`
	LoadedFraction float64 `json:"loaded_fraction"`
	Volume         int     `json:"volume"`
	PreviousVolume int     `json:"previous_volume"` // last positive volume
	IsMuted        bool    `json:"is_muted"`
	IsRepeat       bool    `json:"is_repeat"`
	IsPlayerReady  bool    `json:"is_player_ready"`
	ErrorMessage   string  `json:"error_message,omitempty"` // set only while Status is StatusError
}

// DefaultState returns the initial player state.
func DefaultState() State {
	return State{
		Status:         StatusIdle,
		Volume:         defaultVolume,
		PreviousVolume: defaultVolume,
	}
}

// Progress is a partial progress update. Nil fields are left unchanged.
type Progress struct {
	CurrentTime    float64
	Duration       *float64
	LoadedFraction *float64
}

// Store owns transport status, progress and volume.
// Methods are pure state transitions and perform no I/O.
type Store struct {
	sig *signal.Store[State]
}

// NewStore creates a player store in its default state.
func NewStore() *Store {
	return &Store{
		sig: signal.New(DefaultState(), func(s State) State { return s }),
	}
}

// State returns a snapshot of the player state.
func (s *Store) State() State {
	return s.sig.Get()
}

// Subscribe registers fn for state changes and returns its cancel function.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.sig.Subscribe(fn)
}

// Play sets the status to playing.
func (s *Store) Play() {
	s.setStatus(StatusPlaying)
}

// Pause sets the status to paused.
func (s *Store) Pause() {
	s.setStatus(StatusPaused)
}

// TogglePlay flips between playing and paused and returns whether it is
// now playing.
func (s *Store) TogglePlay() bool {
	var playing bool
	s.sig.Update(func(st *State) bool {
		next := lo.Ternary(st.Status == StatusPlaying, StatusPaused, StatusPlaying)
		transition(st, next)
		playing = next == StatusPlaying
		return true
	})
	return playing
}

// SetLoading sets the status to loading.
func (s *Store) SetLoading() {
	s.setStatus(StatusLoading)
}

// SetEnded sets the status to ended.
func (s *Store) SetEnded() {
	s.setStatus(StatusEnded)
}

// SetIdle sets the status to idle.
func (s *Store) SetIdle() {
	s.setStatus(StatusIdle)
}

// UpdateProgress applies a partial progress update.
func (s *Store) UpdateProgress(p Progress) {
	s.sig.Update(func(st *State) bool {
		st.CurrentTime = p.CurrentTime
		if p.Duration != nil {
			st.Duration = *p.Duration
		}
		if p.LoadedFraction != nil {
			st.LoadedFraction = *p.LoadedFraction
		}
		return true
	})
}

// SeekTo sets the current time clamped to [0, duration] and returns it.
func (s *Store) SeekTo(seconds float64) float64 {
	var t float64
	s.sig.Update(func(st *State) bool {
		st.CurrentTime = clampTime(seconds, st.Duration)
		t = st.CurrentTime
		return true
	})
	return t
}

// SeekToPercent seeks to a percentage of the duration and returns the
// resulting time.
func (s *Store) SeekToPercent(percent float64) float64 {
	var duration float64
	s.sig.View(func(st *State) {
		duration = st.Duration
	})
	return s.SeekTo(duration * percent / 100)
}

// SetVolume sets the volume clamped to [0, 100].
func (s *Store) SetVolume(volume int) {
	s.sig.Update(func(st *State) bool {
		applyVolume(st, volume)
		return true
	})
}

// ToggleMute mutes, or restores the last positive volume, and returns
// whether it is now muted.
func (s *Store) ToggleMute() bool {
	var muted bool
	s.sig.Update(func(st *State) bool {
		if st.IsMuted || st.Volume == 0 {
			restore := lo.Ternary(st.PreviousVolume > 0, st.PreviousVolume, defaultVolume)
			applyVolume(st, restore)
		} else {
			applyVolume(st, 0)
		}
		muted = st.IsMuted
		return true
	})
	return muted
}

// ToggleRepeat flips the repeat flag and returns the new value.
func (s *Store) ToggleRepeat() bool {
	var repeat bool
	s.sig.Update(func(st *State) bool {
		st.IsRepeat = !st.IsRepeat
		repeat = st.IsRepeat
		return true
	})
	return repeat
}

// SetRepeat sets the repeat flag.
func (s *Store) SetRepeat(repeat bool) {
	s.sig.Update(func(st *State) bool {
		if st.IsRepeat == repeat {
			return false
		}
		st.IsRepeat = repeat
		return true
	})
}

// SetPlayerReady sets whether the underlying player finished initializing.
func (s *Store) SetPlayerReady(ready bool) {
	s.sig.Update(func(st *State) bool {
		if st.IsPlayerReady == ready {
			return false
		}
		st.IsPlayerReady = ready
		return true
	})
}

// SetError forces the error status and stores the message.
func (s *Store) SetError(message string) {
	s.sig.Update(func(st *State) bool {
		st.Status = StatusError
		st.ErrorMessage = message
		return true
	})
}

// ClearError clears the message. The status reverts to idle only when it
// was error.
func (s *Store) ClearError() {
	s.sig.Update(func(st *State) bool {
		st.ErrorMessage = ""
		if st.Status == StatusError {
			st.Status = StatusIdle
		}
		return true
	})
}

// Reset restores the defaults but keeps volume and repeat.
func (s *Store) Reset() {
	s.sig.Update(func(st *State) bool {
		volume, previous, repeat := st.Volume, st.PreviousVolume, st.IsRepeat
		*st = DefaultState()
		st.IsRepeat = repeat
		st.Volume = volume
		st.PreviousVolume = lo.Ternary(volume > 0, volume, previous)
		st.IsMuted = volume == 0
		return true
	})
}

// FullReset restores every field to its default.
func (s *Store) FullReset() {
	s.sig.Update(func(st *State) bool {
		*st = DefaultState()
		return true
	})
}

// IsPlaying reports whether the status is playing.
func (s *Store) IsPlaying() bool { return s.status() == StatusPlaying }

// IsPaused reports whether the status is paused.
func (s *Store) IsPaused() bool { return s.status() == StatusPaused }

// IsLoading reports whether the status is loading.
func (s *Store) IsLoading() bool { return s.status() == StatusLoading }

// HasError reports whether the status is error.
func (s *Store) HasError() bool { return s.status() == StatusError }

// Progress returns the playback progress as a percentage.
func (s *Store) Progress() float64 {
	st := s.State()
	return st.Progress()
}

// RemainingTime returns the remaining seconds.
func (s *Store) RemainingTime() float64 {
	st := s.State()
	return st.RemainingTime()
}

// LoadedProgress returns the buffered fraction as a percentage.
func (s *Store) LoadedProgress() float64 {
	st := s.State()
	return st.LoadedFraction * 100
}

// IsSilent reports whether nothing is audible.
func (s *Store) IsSilent() bool {
	st := s.State()
	return st.IsMuted || st.Volume == 0
}

// FormattedCurrentTime returns the current time as m:ss.
func (s *Store) FormattedCurrentTime() string {
	st := s.State()
	return FormatTime(st.CurrentTime)
}

// FormattedDuration returns the duration as m:ss.
func (s *Store) FormattedDuration() string {
	st := s.State()
	return FormatTime(st.Duration)
}

// FormattedRemainingTime returns the remaining time as m:ss.
func (s *Store) FormattedRemainingTime() string {
	st := s.State()
	return FormatTime(st.RemainingTime())
}

// Progress returns the playback progress as a percentage, 0 when the
// duration is unknown.
func (st *State) Progress() float64 {
	if st.Duration <= 0 {
		return 0
	}
	return st.CurrentTime / st.Duration * 100
}

// RemainingTime returns the remaining seconds, never negative.
func (st *State) RemainingTime() float64 {
	return math.Max(st.Duration-st.CurrentTime, 0)
}

// FormatTime renders seconds as m:ss. Minutes are not wrapped into hours.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (s *Store) status() Status {
	var status Status
	s.sig.View(func(st *State) {
		status = st.Status
	})
	return status
}

func (s *Store) setStatus(status Status) {
	s.sig.Update(func(st *State) bool {
		if st.Status == status {
			return false
		}
		transition(st, status)
		return true
	})
}

// transition changes the status. Leaving the error status drops its message.
func transition(st *State, status Status) {
	st.Status = status
	if status != StatusError {
		st.ErrorMessage = ""
	}
}

func applyVolume(st *State, volume int) {
	v := lo.Clamp(volume, 0, maxVolume)
	st.Volume = v
	st.IsMuted = v == 0
	if v > 0 {
		st.PreviousVolume = v
	}
}

func clampTime(t, duration float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return lo.Clamp(t, 0, math.Max(duration, 0))
}
