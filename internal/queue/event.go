// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Queue names, one per booking lifecycle event.  The publisher routes
// each event to the queue named after its type.
const (
	BookingConfirmed = "booking.confirmed"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
)

// Queues lists every queue the consumer listens on.
var Queues = []string{BookingConfirmed, BookingUpdated, BookingCancelled}

// BookingEvent is published whenever a booking is confirmed, has its
// dates changed or is cancelled.  It carries enough information for
// downstream consumers to log, notify or trigger analytics without
// querying the primary database.  Dates use the YYYY-MM-DD layout.
type BookingEvent struct {
	Type          string  `json:"type"`
	BookingID     uint64  `json:"booking_id"`
	CustomerID    uint64  `json:"customer_id"`
	HotelID       uint64  `json:"hotel_id"`
	RoomNumber    string  `json:"room_number"`
	Checkin       string  `json:"checkin"`
	Checkout      string  `json:"checkout"`
	AmountCents   int64   `json:"amount_cents"`
	DiscountCents int64   `json:"discount_cents,omitempty"`
	PaymentRef    string  `json:"payment_ref,omitempty"`
	Reason        *string `json:"reason,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
