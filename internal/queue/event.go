// Package queue carries notification events over RabbitMQ so that delivery
// can happen outside the request path.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/notify"
)

// EventsQueue is the durable queue booking and review events are routed to.
const EventsQueue = "booking.events"

const envelopeVersion = 1

// envelope wraps an event on the wire.  Version lets a consumer reject
// messages produced by an incompatible publisher instead of misreading them.
type envelope struct {
	Version int          `json:"v"`
	Event   notify.Event `json:"event"`
}

var errUnsupportedVersion = errors.New("unsupported event version")

func encodeEvent(ev notify.Event) ([]byte, error) {
	return json.Marshal(envelope{Version: envelopeVersion, Event: ev})
}

func decodeEvent(body []byte) (notify.Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return notify.Event{}, fmt.Errorf("unmarshal: %w", err)
	}
	if env.Version != envelopeVersion {
		return notify.Event{}, fmt.Errorf("%w: %d", errUnsupportedVersion, env.Version)
	}
	if env.Event.RecipientID == 0 || env.Event.Type == "" {
		return notify.Event{}, errors.New("event missing type or recipient")
	}
	return env.Event, nil
}
