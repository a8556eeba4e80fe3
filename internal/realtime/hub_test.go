package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToEverySessionOnce(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	other := h.Subscribe(2)
	defer a.Close()
	defer b.Close()
	defer other.Close()

	assert.Equal(t, 2, h.Publish(1, []byte("hello")))
	assert.Equal(t, "hello", string(<-a.C()))
	assert.Equal(t, "hello", string(<-b.C()))
	assert.Len(t, a.C(), 0)
	assert.Len(t, other.C(), 0)
}

func TestHubNoDeliveryAfterClose(t *testing.T) {
	h := NewHub(4)
	s := h.Subscribe(7)
	s.Close()
	s.Close()

	assert.Equal(t, 0, h.Publish(7, []byte("late")))
	assert.Equal(t, 0, h.Sessions(7))
	_, ok := <-s.C()
	assert.False(t, ok, "channel must be closed")
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe(3)
	defer s.Close()

	require.Equal(t, 1, h.Publish(3, []byte("one")))
	assert.Equal(t, 0, h.Publish(3, []byte("two")))
	assert.Equal(t, "one", string(<-s.C()))
}

func TestHubConcurrentPublishAndClose(t *testing.T) {
	h := NewHub(8)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		s := h.Subscribe(9)
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Publish(9, []byte("x"))
		}()
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Sessions(9))
}
