// Package signal provides an observable state container.
//
// A Store holds a state value behind a mutex. Mutations go through Update,
// reads through View or Get, and subscribers are notified with a snapshot
// after every change that reports itself as effective.
package signal

import (
	"sync"

	"github.com/google/uuid"
)

// Store is a mutex-guarded state value with change subscriptions.
type Store[S any] struct {
	mu    sync.RWMutex
	state S
	clone func(S) S

	subsMu sync.RWMutex
	subs   map[string]func(S)
}

// New creates a store holding initial. clone must return a deep copy of the
// state; it is used for every snapshot handed out of the store.
func New[S any](initial S, clone func(S) S) *Store[S] {
	return &Store[S]{
		state: initial,
		clone: clone,
		subs:  make(map[string]func(S)),
	}
}

// Get returns a snapshot of the current state.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.state)
}

// View runs fn with read access to the state. fn must not retain the pointer.
func (s *Store[S]) View(fn func(st *S)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// Update runs fn with write access to the state. When fn returns true the
// subscribers receive a snapshot after the lock is released.
func (s *Store[S]) Update(fn func(st *S) bool) bool {
	s.mu.Lock()
	changed := fn(&s.state)
	var snapshot S
	if changed {
		snapshot = s.clone(s.state)
	}
	s.mu.Unlock()

	if changed {
		s.notify(snapshot)
	}
	return changed
}

// Subscribe registers fn for change notifications and returns a function
// that removes the subscription.
func (s *Store[S]) Subscribe(fn func(S)) func() {
	id := uuid.New().String()

	s.subsMu.Lock()
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// SubscriberCount returns the number of active subscriptions.
func (s *Store[S]) SubscriberCount() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

func (s *Store[S]) notify(snapshot S) {
	// Copy subscribers to avoid holding the lock during callbacks
	s.subsMu.RLock()
	fns := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
