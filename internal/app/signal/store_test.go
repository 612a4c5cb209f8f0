package signal

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	N    int
	Tags []string
}

func cloneCounter(c counter) counter {
	c.Tags = slices.Clone(c.Tags)
	return c
}

func TestStore_UpdateNotifiesOnChange(t *testing.T) {
	s := New(counter{}, cloneCounter)

	var got []int
	unsubscribe := s.Subscribe(func(c counter) {
		got = append(got, c.N)
	})
	defer unsubscribe()

	s.Update(func(c *counter) bool {
		c.N = 1
		return true
	})
	s.Update(func(c *counter) bool {
		return false
	})
	s.Update(func(c *counter) bool {
		c.N = 2
		return true
	})

	assert.Equal(t, []int{1, 2}, got)
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New(counter{}, cloneCounter)

	calls := 0
	unsubscribe := s.Subscribe(func(counter) { calls++ })
	require.Equal(t, 1, s.SubscriberCount())

	unsubscribe()
	assert.Equal(t, 0, s.SubscriberCount())

	s.Update(func(c *counter) bool {
		c.N++
		return true
	})
	assert.Equal(t, 0, calls)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New(counter{Tags: []string{"a"}}, cloneCounter)

	snapshot := s.Get()
	snapshot.Tags[0] = "mutated"

	s.View(func(c *counter) {
		assert.Equal(t, "a", c.Tags[0])
	})
}

func TestStore_SubscriberMayReadStore(t *testing.T) {
	s := New(counter{}, cloneCounter)

	var seen int
	s.Subscribe(func(counter) {
		// Must not deadlock: notification runs after the write lock is released
		seen = s.Get().N
	})

	s.Update(func(c *counter) bool {
		c.N = 7
		return true
	})
	assert.Equal(t, 7, seen)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := New(counter{}, cloneCounter)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(c *counter) bool {
				c.N++
				return true
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Get().N)
}
