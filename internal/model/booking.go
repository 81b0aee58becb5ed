package model

import "time"

// Booking statuses as stored in bookings.status.
const (
	BookingConfirmed = "Confirmed"
	BookingCancelled = "Cancelled"
	BookingPending   = "Pending"
)

// Payment statuses as stored in payments.status.
const (
	PaymentCompleted = "Completed"
	PaymentCancelled = "Cancelled"
)

// Booking records a customer's stay in a specific room.  Checkin and
// Checkout are calendar dates; the stay covers the half-open range
// [Checkin, Checkout).  A booking in status Cancelled is terminal.
//
// Fields:
//  ID          – primary key identifier.
//  CustomerID  – customer who owns the booking.
//  HotelID     – hotel of the booked room.
//  RoomNumber  – booked room number.
//  BookingDate – calendar date the booking was made.
//  Checkin     – arrival date.
//  Checkout    – departure date (exclusive).
//  Status      – Confirmed, Cancelled or Pending.
type Booking struct {
	ID          uint64    `json:"id"`
	CustomerID  uint64    `json:"customer_id"`
	HotelID     uint64    `json:"hotel_id"`
	RoomNumber  string    `json:"room_number"`
	BookingDate time.Time `json:"booking_date"`
	Checkin     time.Time `json:"checkin"`
	Checkout    time.Time `json:"checkout"`
	Status      string    `json:"status"`
}

// Nights returns the number of whole nights between check-in and check-out.
func (b Booking) Nights() int {
	return int(b.Checkout.Sub(b.Checkin).Hours() / 24)
}

// Payment is the settlement of a booking.  There is at most one
// payment per booking.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – paid booking.
//  AmountCents – amount charged after discounts, in cents.
//  Mode        – payment mode (Card, Cash...).
//  Date        – calendar date of the payment.
//  Status      – Completed or Cancelled.
//  Reference   – opaque payment reference handed to the customer.
type Payment struct {
	ID          uint64    `json:"id"`
	BookingID   uint64    `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Mode        string    `json:"mode"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
}

// Cancellation records when and why a booking was cancelled.
type Cancellation struct {
	ID         uint64    `json:"id"`
	BookingID  uint64    `json:"booking_id"`
	CancelDate time.Time `json:"cancel_date"`
	Reason     *string   `json:"reason,omitempty"`
}

// BookingWithPayment is a booking together with its payment, if any.
// It backs the "my bookings" listing.
type BookingWithPayment struct {
	Booking
	Payment *Payment `json:"payment,omitempty"`
}
