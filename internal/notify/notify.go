// Package notify delivers booking and review events to the user they are
// addressed to.  Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// Event is a notification addressed to one user.
type Event struct {
	Type        string    `json:"type"`
	RecipientID uint64    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	BookingID   string    `json:"booking_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Dispatcher hands an event to the delivery pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *model.Notification) error
}

// Pusher forwards a payload to the live sessions of a user.
type Pusher interface {
	Publish(userID uint64, msg []byte) int
}

// Direct stores the notification and pushes it to the realtime hub in the
// calling goroutine.
type Direct struct {
	store Store
	push  Pusher
}

func NewDirect(store Store, push Pusher) *Direct {
	return &Direct{store: store, push: push}
}

// Dispatch implements Dispatcher.
func (d *Direct) Dispatch(ctx context.Context, ev Event) error {
	if ev.RecipientID == 0 {
		return fmt.Errorf("notify: event %q has no recipient", ev.Type)
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: ev.RecipientID,
		Type:        ev.Type,
		Title:       ev.Title,
		Body:        ev.Body,
		CreatedAt:   at,
	}
	if ev.BookingID != "" {
		bid := ev.BookingID
		n.BookingID = &bid
	}
	if err := d.store.Create(ctx, n); err != nil {
		return fmt.Errorf("notify: store: %w", err)
	}
	if d.push == nil {
		return nil
	}
	msg, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	sessions := d.push.Publish(n.RecipientID, msg)
	logrus.WithFields(logrus.Fields{
		"recipient_id": n.RecipientID,
		"type":         n.Type,
		"sessions":     sessions,
	}).Debug("notification delivered")
	return nil
}

// Func adapts an ordinary function to Dispatcher.
type Func func(ctx context.Context, ev Event) error

func (f Func) Dispatch(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Discard drops every event.
var Discard Dispatcher = Func(func(context.Context, Event) error { return nil })
