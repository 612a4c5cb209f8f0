package queue

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/osa030/tubebox/internal/app/signal"
	"github.com/osa030/tubebox/internal/domain/track"
)

// Store owns the playback queue and navigation cursor.
// All methods are safe for concurrent use and perform no I/O.
type Store struct {
	sig *signal.Store[State]

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Store.
type Option func(*Store)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) {
		s.rng = r
	}
}

// NewStore creates an empty queue store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sig: signal.New(State{}, State.clone),
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the queue.
func (s *Store) State() State {
	return s.sig.Get()
}

// Subscribe registers fn for queue changes and returns its cancel function.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.sig.Subscribe(fn)
}

// SetQueue replaces the queue. The cursor is reset to the first position and
// the existing shuffle flag is re-applied.
func (s *Store) SetQueue(items []track.Track, sourcePlaylistID, sourceTopChartsID string) {
	s.sig.Update(func(st *State) bool {
		n := len(items)
		st.Items = slices.Clone(items)
		st.CurrentIndex = 0
		st.TabIndex = lo.Range(n)
		st.TabIndexOriginal = lo.Range(n)
		st.SourcePlaylistID = sourcePlaylistID
		st.SourceTopChartsID = sourceTopChartsID

		// Item 0 stays first so the cursor keeps pointing at it
		if st.IsShuffled && n > 1 {
			s.shuffle(st.TabIndex[1:])
		}
		return true
	})
}

// AddToQueue appends items. When shuffled, the whole order is reshuffled and
// the cursor follows the item that was playing.
func (s *Store) AddToQueue(items ...track.Track) {
	if len(items) == 0 {
		return
	}

	s.sig.Update(func(st *State) bool {
		wasEmpty := len(st.Items) == 0
		playing := -1
		if !wasEmpty {
			playing = st.TabIndex[st.CurrentIndex]
		}

		base := len(st.Items)
		st.Items = append(st.Items, items...)
		added := lo.RangeFrom(base, len(items))
		st.TabIndex = append(st.TabIndex, added...)
		st.TabIndexOriginal = append(st.TabIndexOriginal, added...)
		mergeSources(st, wasEmpty, items)

		if st.IsShuffled {
			s.shuffle(st.TabIndex)
			if playing >= 0 {
				st.CurrentIndex = lo.IndexOf(st.TabIndex, playing)
			}
		}
		return true
	})
}

// AddAfterCurrent appends item and schedules it right after the cursor.
func (s *Store) AddAfterCurrent(item track.Track) {
	s.sig.Update(func(st *State) bool {
		wasEmpty := len(st.Items) == 0
		idx := len(st.Items)
		st.Items = append(st.Items, item)

		if wasEmpty {
			st.TabIndex = []int{idx}
			st.CurrentIndex = 0
		} else {
			st.TabIndex = slices.Insert(st.TabIndex, st.CurrentIndex+1, idx)
		}
		st.TabIndexOriginal = append(st.TabIndexOriginal, idx)
		mergeSources(st, wasEmpty, []track.Track{item})
		return true
	})
}

// RemoveFromQueue removes the item at index (an index into Items).
// It returns false and leaves the queue untouched when index is out of range.
func (s *Store) RemoveFromQueue(index int) bool {
	return s.sig.Update(func(st *State) bool {
		if index < 0 || index >= len(st.Items) {
			return false
		}

		pos := lo.IndexOf(st.TabIndex, index)
		st.Items = slices.Delete(st.Items, index, index+1)
		st.TabIndex = dropIndex(st.TabIndex, index)
		st.TabIndexOriginal = dropIndex(st.TabIndexOriginal, index)

		if pos < st.CurrentIndex {
			st.CurrentIndex--
		}
		if len(st.TabIndex) == 0 {
			st.CurrentIndex = 0
		} else {
			st.CurrentIndex = lo.Clamp(st.CurrentIndex, 0, len(st.TabIndex)-1)
		}
		if len(st.Items) == 0 {
			st.SourcePlaylistID = ""
			st.SourceTopChartsID = ""
		}
		return true
	})
}

// GoToIndex moves the cursor to a playback position.
// It returns false when position is out of range.
func (s *Store) GoToIndex(position int) bool {
	return s.sig.Update(func(st *State) bool {
		if position < 0 || position >= len(st.TabIndex) {
			return false
		}
		st.CurrentIndex = position
		return true
	})
}

// Next advances the cursor by one position.
func (s *Store) Next() bool {
	return s.sig.Update(func(st *State) bool {
		if st.CurrentIndex+1 >= len(st.TabIndex) {
			return false
		}
		st.CurrentIndex++
		return true
	})
}

// Previous moves the cursor back by one position.
func (s *Store) Previous() bool {
	return s.sig.Update(func(st *State) bool {
		if st.CurrentIndex <= 0 || len(st.TabIndex) == 0 {
			return false
		}
		st.CurrentIndex--
		return true
	})
}

// ToggleShuffle flips the shuffle flag and returns the new value.
//
// Enabling keeps the playing item at position 0 and permutes the rest.
// Disabling restores the pre-shuffle order and moves the cursor to the
// playing item.
func (s *Store) ToggleShuffle() bool {
	var shuffled bool
	s.sig.Update(func(st *State) bool {
		if st.IsShuffled {
			st.TabIndex = slices.Clone(st.TabIndexOriginal)
			if playing, ok := currentItemIndex(st); ok {
				st.CurrentIndex = lo.IndexOf(st.TabIndex, playing)
			}
			st.IsShuffled = false
		} else {
			st.TabIndexOriginal = slices.Clone(st.TabIndex)
			if playing, ok := currentItemIndex(st); ok {
				rest := lo.Without(st.TabIndex, playing)
				s.shuffle(rest)
				st.TabIndex = append([]int{playing}, rest...)
				st.CurrentIndex = 0
			}
			st.IsShuffled = true
		}
		shuffled = st.IsShuffled
		return true
	})
	return shuffled
}

// Clear resets the queue to its empty initial state.
func (s *Store) Clear() {
	s.sig.Update(func(st *State) bool {
		*st = State{}
		return true
	})
}

// CurrentVideo returns the item at the cursor.
func (s *Store) CurrentVideo() (track.Track, bool) {
	var (
		t  track.Track
		ok bool
	)
	s.sig.View(func(st *State) {
		t, ok = st.Current()
	})
	return t, ok
}

// CurrentKey returns the key of the item at the cursor, or "".
func (s *Store) CurrentKey() string {
	t, _ := s.CurrentVideo()
	return t.Key
}

// CurrentTitle returns the title of the item at the cursor, or "".
func (s *Store) CurrentTitle() string {
	t, _ := s.CurrentVideo()
	return t.Title
}

// CurrentArtist returns the artist of the item at the cursor, or "".
func (s *Store) CurrentArtist() string {
	t, _ := s.CurrentVideo()
	return t.Artist
}

// HasNext reports whether a position exists after the cursor.
func (s *Store) HasNext() bool {
	var ok bool
	s.sig.View(func(st *State) {
		ok = st.CurrentIndex+1 < len(st.TabIndex)
	})
	return ok
}

// HasPrevious reports whether a position exists before the cursor.
func (s *Store) HasPrevious() bool {
	var ok bool
	s.sig.View(func(st *State) {
		ok = len(st.TabIndex) > 0 && st.CurrentIndex > 0
	})
	return ok
}

// CurrentPosition returns the 1-based cursor position, or 0 when empty.
func (s *Store) CurrentPosition() int {
	var pos int
	s.sig.View(func(st *State) {
		if len(st.TabIndex) > 0 {
			pos = st.CurrentIndex + 1
		}
	})
	return pos
}

// CurrentIndex returns the cursor position.
func (s *Store) CurrentIndex() int {
	var idx int
	s.sig.View(func(st *State) {
		idx = st.CurrentIndex
	})
	return idx
}

// IsShuffled reports whether shuffle is enabled.
func (s *Store) IsShuffled() bool {
	var shuffled bool
	s.sig.View(func(st *State) {
		shuffled = st.IsShuffled
	})
	return shuffled
}

// Len returns the number of queued items.
func (s *Store) Len() int {
	var n int
	s.sig.View(func(st *State) {
		n = len(st.Items)
	})
	return n
}

// OrderedItems returns the items in playback order.
func (s *Store) OrderedItems() []track.Track {
	var items []track.Track
	s.sig.View(func(st *State) {
		items = st.Ordered()
	})
	return items
}

// Keys returns the keys of all queued items.
func (s *Store) Keys() []string {
	var keys []string
	s.sig.View(func(st *State) {
		keys = lo.Map(st.Items, func(t track.Track, _ int) string {
			return t.Key
		})
	})
	return keys
}

func (s *Store) shuffle(xs []int) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	// Fisher-Yates
	for i := len(xs) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

func currentItemIndex(st *State) (int, bool) {
	if st.CurrentIndex < 0 || st.CurrentIndex >= len(st.TabIndex) {
		return 0, false
	}
	return st.TabIndex[st.CurrentIndex], true
}

// dropIndex removes itemIndex from a permutation and renumbers the indices
// above it.
func dropIndex(perm []int, itemIndex int) []int {
	return lo.FilterMap(perm, func(v int, _ int) (int, bool) {
		switch {
		case v == itemIndex:
			return 0, false
		case v > itemIndex:
			return v - 1, true
		default:
			return v, true
		}
	})
}

// mergeSources updates the provenance tags after items were added.
// A queue filled from empty takes the playlist of its items when they agree.
// Anything added from another playlist makes the queue a mix.
func mergeSources(st *State, wasEmpty bool, added []track.Track) {
	first := added[0].PlaylistID
	uniform := lo.EveryBy(added, func(t track.Track) bool {
		return t.PlaylistID == first
	})

	if wasEmpty {
		st.SourcePlaylistID = lo.Ternary(uniform, first, "")
		st.SourceTopChartsID = ""
		return
	}

	if !uniform || first != st.SourcePlaylistID {
		st.SourcePlaylistID = ""
		st.SourceTopChartsID = ""
	}
}
