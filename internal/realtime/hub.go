// Package realtime fans notifications out to the live sessions of a user.
// Each websocket session owns exactly one Subscription, acquired when the
// connection is upgraded and released when it ends.
package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultBuffer = 32

// Hub routes messages to the subscriptions registered for a user.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]map[*Subscription]struct{}
	buffer int
}

// NewHub returns a hub whose subscriptions buffer up to buffer messages.
// A non-positive buffer selects the default.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[uint64]map[*Subscription]struct{}), buffer: buffer}
}

// Subscription is one session's handle on the hub.
type Subscription struct {
	hub    *Hub
	userID uint64
	ch     chan []byte
	closed bool // guarded by hub.mu
}

// Subscribe registers a new session for userID.
func (h *Hub) Subscribe(userID uint64) *Subscription {
	s := &Subscription{hub: h, userID: userID, ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	set := h.subs[userID]
	if set == nil {
		set = make(map[*Subscription]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// C returns the delivery channel.  It is closed by Close.
func (s *Subscription) C() <-chan []byte { return s.ch }

// UserID returns the user the subscription belongs to.
func (s *Subscription) UserID() uint64 { return s.userID }

// Close unregisters the subscription.  It is safe to call more than once;
// after it returns no further message is delivered.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if set := h.subs[s.userID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.userID)
		}
	}
	close(s.ch)
}

// Publish delivers msg once to every live subscription of userID and
// returns how many accepted it.  It never blocks: a subscription whose
// buffer is full misses the message.
func (h *Hub) Publish(userID uint64, msg []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for s := range h.subs[userID] {
		select {
		case s.ch <- msg:
			delivered++
		default:
			logrus.WithField("user_id", userID).Warn("realtime: subscriber buffer full, message dropped")
		}
	}
	return delivered
}

// Sessions reports the number of live subscriptions for userID.
func (h *Hub) Sessions(userID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
