// Package service holds adapters between the booking core and external
// services.  EventPublisher sends booking lifecycle events to RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/queue"
)

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a channel and returns a closer for its connection.  It
// must give up when ctx is done.
type dialFunc func(ctx context.Context, url string) (amqpChannel, func() error, error)

// defaultDialTimeout bounds one connection attempt, TCP and AMQP handshake
// included.
const defaultDialTimeout = 5 * time.Second

func dialAMQP(ctx context.Context, url string) (amqpChannel, func() error, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// the library clears the deadline once the handshake completes
			if dl, ok := ctx.Deadline(); ok {
				_ = c.SetDeadline(dl)
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// EventPublisher publishes each event to the durable queue named after the
// event type on the default exchange.  The connection is opened on first
// use and reopened after a failed publish.  A single dial runs in the
// background; publishers wait for it only until their own context ends.
type EventPublisher struct {
	url         string
	enabled     bool
	log         *logrus.Logger
	dial        dialFunc
	dialTimeout time.Duration

	mu       sync.Mutex
	ch       amqpChannel
	closeFn  func() error
	declared map[string]bool
	dialing  chan struct{} // closed when the running dial finishes
	dialErr  error         // outcome of the last dial
	closed   bool
}

// NewEventPublisher returns a publisher.  When enabled is false Publish
// does nothing.
func NewEventPublisher(url string, enabled bool, log *logrus.Logger) *EventPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EventPublisher{url: url, enabled: enabled, log: log, dial: dialAMQP, dialTimeout: defaultDialTimeout}
}

var ErrUnknownEvent = errors.New("unknown event type")

// Publish sends ev as a persistent JSON message.
func (p *EventPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	if !p.enabled {
		return nil
	}
	if !knownQueue(ev.Type) {
		return ErrUnknownEvent
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ch, err := p.connection(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ch != p.ch {
		return errors.New("rabbitmq: connection reset")
	}
	if err := p.declare(ev.Type); err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.PaymentRef,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		p.log.WithError(err).WithField("queue", ev.Type).Warn("rabbitmq: publish failed, resetting connection")
		p.reset()
	}
	return err
}

// Close releases the broker connection.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}

// connection returns the open channel, starting a dial when there is none.
// It returns ctx.Err() if ctx ends before the dial does; the dial itself
// keeps running for later publishers.
func (p *EventPublisher) connection(ctx context.Context) (amqpChannel, error) {
	p.mu.Lock()
	if p.ch != nil {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	wait := p.dialing
	if wait == nil {
		wait = make(chan struct{})
		p.dialing = wait
		go p.connect(wait)
	}
	p.mu.Unlock()

	select {
	case <-wait:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		if p.dialErr != nil {
			return nil, p.dialErr
		}
		return nil, errors.New("rabbitmq: not connected")
	}
	return p.ch, nil
}

func (p *EventPublisher) connect(done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	ch, closeFn, err := p.dial(ctx, p.url)

	p.mu.Lock()
	switch {
	case err == nil && p.closed:
		_ = ch.Close()
		_ = closeFn()
		err = errors.New("rabbitmq: publisher closed")
	case err == nil:
		p.ch, p.closeFn, p.declared = ch, closeFn, map[string]bool{}
	default:
		p.log.WithError(err).Warn("rabbitmq: dial failed")
	}
	p.dialErr = err
	p.dialing = nil
	p.mu.Unlock()
	close(done)
}

// declare makes sure the durable queue exists.  Callers hold p.mu.
func (p *EventPublisher) declare(queueName string) error {
	if p.declared[queueName] {
		return nil
	}
	if _, err := p.ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.reset()
		return err
	}
	p.declared[queueName] = true
	return nil
}

func (p *EventPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeFn != nil {
		_ = p.closeFn()
	}
	p.ch, p.closeFn, p.declared = nil, nil, nil
}

func knownQueue(name string) bool {
	for _, q := range queue.Queues {
		if q == name {
			return true
		}
	}
	return false
}
