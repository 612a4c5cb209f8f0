// Package notification provides the notification manager for broadcasting events.
package notification

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Type identifies what changed.
type Type string

const (
	TypeInitial  Type = "initial"  // Full snapshot sent on subscribe
	TypeQueue    Type = "queue"    // Queue store changed
	TypePlayer   Type = "player"   // Player store changed
	TypeUI       Type = "ui"       // UI store changed
	TypePlayback Type = "playback" // Playback event (track started, queue ended, ...)
)

// sendTimeout bounds a single subscriber send.
const sendTimeout = 500 * time.Millisecond

// Notification is a single event delivered to subscribers.
type Notification struct {
	Type       Type   `json:"type"`
	SequenceNo uint64 `json:"sequence_no"`
	Payload    any    `json:"payload,omitempty"`
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// Manager fans notifications out to subscribed streams.
type Manager struct {
	mu      sync.RWMutex
	streams map[string]Stream // subscription id -> stream
	seq     atomic.Uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{streams: make(map[string]Stream)}
}

// Subscribe registers a stream and returns its subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.streams[id] = stream
	m.mu.Unlock()
	return id
}

// NextSequenceNo reserves the next sequence number. Numbers start at 1.
func (m *Manager) NextSequenceNo() uint64 {
	return m.seq.Add(1)
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	delete(m.streams, subscriptionID)
	m.mu.Unlock()
}

// Broadcast stamps a sequence number on a notification and sends it to every
// subscriber in parallel. It returns once each send finished or exceeded
// sendTimeout. A stream whose send fails is unsubscribed; a slow one is kept.
func (m *Manager) Broadcast(typ Type, payload any) *Notification {
	n := &Notification{Type: typ, SequenceNo: m.NextSequenceNo(), Payload: payload}

	m.mu.RLock()
	streams := lo.Entries(m.streams)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, e := range streams {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.deliver(e.Key, e.Value, n)
		}()
	}
	wg.Wait()
	return n
}

func (m *Manager) deliver(id string, stream Stream, n *Notification) {
	result := make(chan error, 1)
	go func() { result <- stream.Send(n) }()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil {
			zlog.Debug().Msgf("dropping subscriber: subscription_id=%s error=%v", id, err)
			m.Unsubscribe(id)
		}
	case <-timer.C:
		zlog.Warn().Msgf("notification send timed out: subscription_id=%s type=%s seq=%d", id, n.Type, n.SequenceNo)
	}
}

// Send delivers a notification to one subscriber. Unknown IDs are ignored.
func (m *Manager) Send(subscriptionID string, typ Type, payload any) error {
	m.mu.RLock()
	stream, ok := m.streams[subscriptionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return stream.Send(&Notification{Type: typ, SequenceNo: m.NextSequenceNo(), Payload: payload})
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streams)
}

// Close drops every subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	clear(m.streams)
	m.mu.Unlock()
}
