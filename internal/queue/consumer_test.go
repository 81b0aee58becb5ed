package queue

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type ackRecorder struct {
	acked, nacked []uint64
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error { a.acked = append(a.acked, tag); return nil }
func (a *ackRecorder) Nack(tag uint64, _, _ bool) error {
	a.nacked = append(a.nacked, tag)
	return nil
}
func (a *ackRecorder) Reject(tag uint64, _ bool) error { return nil }

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func encode(t *testing.T, ev BookingEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleMessageWritesOneLinePerEvent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewConsumer("", dir, quiet())
	reason := "plans changed"

	events := []BookingEvent{
		{Type: BookingConfirmed, BookingID: 1, CustomerID: 2, HotelID: 3, RoomNumber: "101", Checkin: "2030-01-10", Checkout: "2030-01-13", AmountCents: 27000, DiscountCents: 3000, PaymentRef: "pay-1"},
		{Type: BookingUpdated, BookingID: 1, AmountCents: 40000},
		{Type: BookingCancelled, BookingID: 1, Reason: &reason},
	}
	for _, ev := range events {
		if err := c.handleMessage(encode(t, ev)); err != nil {
			t.Fatal(err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d: %q", len(lines), raw)
	}
	for i, want := range []string{
		"Booking confirmed | total=27000 cents | discount=3000 cents | payment=pay-1",
		"Booking updated | total=40000 cents",
		`Booking cancelled | reason="plans changed"`,
	} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[0], `room="101" | stay=2030-01-10..2030-01-13`) {
		t.Errorf("missing stay details: %q", lines[0])
	}
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	c := NewConsumer("", t.TempDir(), quiet())
	if err := c.handleMessage([]byte("{")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if err := c.handleMessage(encode(t, BookingEvent{Type: "booking.lost"})); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestDrainAcksAndNacks(t *testing.T) {
	c := NewConsumer("", t.TempDir(), quiet())
	acks := &ackRecorder{}
	msgs := make(chan amqp.Delivery, 2)
	msgs <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: encode(t, BookingEvent{Type: BookingConfirmed})}
	msgs <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("not json")}
	close(msgs)

	if err := c.drain(context.Background(), msgs); err == nil {
		t.Fatal("drain must report the closed channel")
	}
	if len(acks.acked) != 1 || acks.acked[0] != 1 {
		t.Fatalf("acked %v", acks.acked)
	}
	if len(acks.nacked) != 1 || acks.nacked[0] != 2 {
		t.Fatalf("nacked %v", acks.nacked)
	}
}

func TestDrainStopsOnCancel(t *testing.T) {
	c := NewConsumer("", t.TempDir(), quiet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.drain(ctx, make(chan amqp.Delivery)); err != context.Canceled {
		t.Fatalf("got %v", err)
	}
}
