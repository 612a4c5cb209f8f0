package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*Notification
	err   error
	block chan struct{}
}

func (s *recordingStream) Send(n *Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingStream) received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

func TestManager_Broadcast(t *testing.T) {
	m := NewManager()
	a, b := &recordingStream{}, &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)
	require.Equal(t, 2, m.SubscriberCount())

	first := m.Broadcast(TypeQueue, "q")
	second := m.Broadcast(TypePlayer, "p")

	assert.Equal(t, uint64(1), first.SequenceNo)
	assert.Equal(t, uint64(2), second.SequenceNo)

	for _, s := range []*recordingStream{a, b} {
		got := s.received()
		require.Len(t, got, 2)
		assert.Equal(t, TypeQueue, got[0].Type)
		assert.Equal(t, "q", got[0].Payload)
		assert.Equal(t, TypePlayer, got[1].Type)
	}
}

func TestManager_DropsFailingSubscriber(t *testing.T) {
	m := NewManager()
	ok := &recordingStream{}
	m.Subscribe(ok)
	m.Subscribe(&recordingStream{err: errors.New("closed")})

	m.Broadcast(TypeUI, nil)

	assert.Equal(t, 1, m.SubscriberCount())
	assert.Len(t, ok.received(), 1)
}

func TestManager_SlowSubscriberTimesOut(t *testing.T) {
	m := NewManager()
	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	m.Subscribe(slow)

	start := time.Now()
	m.Broadcast(TypeUI, nil)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, m.SubscriberCount(), "a timeout does not drop the subscriber")
}

func TestManager_SendAndUnsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)

	require.NoError(t, m.Send(id, TypeInitial, 42))
	require.NoError(t, m.Send("unknown", TypeInitial, 0))
	got := s.received()
	require.Len(t, got, 1)
	assert.Equal(t, TypeInitial, got[0].Type)
	assert.Equal(t, 42, got[0].Payload)

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Subscribe(&recordingStream{})
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}
