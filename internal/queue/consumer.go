package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/notify"
)

const maxBackoff = 30 * time.Second

// Consumer reads events from EventsQueue and hands each one to a
// dispatcher, normally notify.Direct.
type Consumer struct {
	url     string
	queue   string
	handler notify.Dispatcher
}

func NewConsumer(url string, handler notify.Dispatcher) *Consumer {
	return &Consumer{url: url, queue: EventsQueue, handler: handler}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are retried with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	log := logrus.WithField("queue", c.queue)
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consumer: loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logrus.WithField("queue", c.queue).Info("consumer: started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// acknowledger is the subset of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	c.settle(ctx, d.Body, d)
}

// settle delivers one message body and acks or rejects it.  Failed
// messages are not requeued to avoid tight redelivery loops.
func (c *Consumer) settle(ctx context.Context, body []byte, ack acknowledger) {
	ev, err := decodeEvent(body)
	if err != nil {
		logrus.WithError(err).Error("consumer: bad message")
		_ = ack.Nack(false, false)
		return
	}
	if err := c.handler.Dispatch(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"type":         ev.Type,
			"recipient_id": ev.RecipientID,
		}).Error("consumer: dispatch failed")
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
