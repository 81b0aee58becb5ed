package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// LogFileName is the file under the consumer's directory that receives one
// line per booking event.
const LogFileName = "booking.log"

// Consumer listens on every booking queue and appends a human readable line
// per event to <Dir>/booking.log.
type Consumer struct {
	URL string
	Dir string
	Log *logrus.Logger

	mu sync.Mutex // serialises writes to the log file
}

// NewConsumer returns a consumer writing under dir.
func NewConsumer(url, dir string, log *logrus.Logger) *Consumer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dir == "" {
		dir = "logs"
	}
	return &Consumer{URL: url, Dir: dir, Log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures are retried with exponential backoff capped at 30s; a broken
// connection is re-established after a short pause.  Messages that cannot
// be handled are rejected without requeue so one bad payload cannot spin
// the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.WithError(err).WithField("retry_in", backoff.String()).Warn("booking-consumer: dial failed")
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeConn(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.WithError(err).Warn("booking-consumer: consume loop ended, reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeConn(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.WithError(err).Warn("booking-consumer: set QoS failed")
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(Queues))
	for _, name := range Queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.drain(ctx, msgs)
		}()
	}

	// The first queue to stop ends the session; closing the channel stops
	// the others.
	err = <-errs
	_ = ch.Close()
	wg.Wait()
	return err
}

// drain handles deliveries until the channel closes or ctx is done.
func (c *Consumer) drain(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.Log.WithError(err).WithField("routing_key", d.RoutingKey).Error("booking-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line, err := formatEvent(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.Dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEvent(ev BookingEvent) (string, error) {
	head := fmt.Sprintf("[%s] booking_id=%d | customer_id=%d | hotel_id=%d | room=%q | stay=%s..%s",
		ev.OccurredAt, ev.BookingID, ev.CustomerID, ev.HotelID, ev.RoomNumber, ev.Checkin, ev.Checkout)
	switch ev.Type {
	case BookingConfirmed:
		return fmt.Sprintf("%s | Booking confirmed | total=%d cents | discount=%d cents | payment=%s\n",
			head, ev.AmountCents, ev.DiscountCents, ev.PaymentRef), nil
	case BookingUpdated:
		return fmt.Sprintf("%s | Booking updated | total=%d cents\n", head, ev.AmountCents), nil
	case BookingCancelled:
		reason := "-"
		if ev.Reason != nil && *ev.Reason != "" {
			reason = *ev.Reason
		}
		return fmt.Sprintf("%s | Booking cancelled | reason=%q\n", head, reason), nil
	default:
		return "", fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
