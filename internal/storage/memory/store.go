// Package memory is an in-process implementation of booking.Store.  A
// transaction holds the store mutex for its whole duration, so
// transactions are serialised, and writes are applied to a copy of the
// data that replaces the live data only on commit.
//
// The server always persists to MySQL; this store exists for the booking
// service and handler tests, which need transactional semantics without a
// database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/model"
)

type roomKey struct {
	hotelID    uint64
	roomNumber string
}

type data struct {
	rooms         map[roomKey]model.Room
	offers        []model.Offer
	bookings      map[uint64]model.Booking
	payments      map[uint64]model.Payment
	cancellations []model.Cancellation
	nextID        uint64
}

func (d *data) clone() *data {
	c := &data{
		rooms:         make(map[roomKey]model.Room, len(d.rooms)),
		offers:        append([]model.Offer(nil), d.offers...),
		bookings:      make(map[uint64]model.Booking, len(d.bookings)),
		payments:      make(map[uint64]model.Payment, len(d.payments)),
		cancellations: append([]model.Cancellation(nil), d.cancellations...),
		nextID:        d.nextID,
	}
	for k, v := range d.rooms {
		c.rooms[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	return c
}

func (d *data) id() uint64 {
	d.nextID++
	return d.nextID
}

// Store keeps rooms, offers, bookings, payments and cancellations in memory.
type Store struct {
	mu sync.Mutex
	d  *data

	// FailOn makes the named Tx operation (e.g. "CreatePayment") return
	// the mapped error.  It lets tests exercise rollbacks.
	FailOn map[string]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{d: &data{
		rooms:    make(map[roomKey]model.Room),
		bookings: make(map[uint64]model.Booking),
		payments: make(map[uint64]model.Payment),
	}}
}

// PutRoom inserts or replaces a room.
func (s *Store) PutRoom(r model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.rooms[roomKey{r.HotelID, r.RoomNumber}] = r
}

// AddOffer stores an offer and assigns it an id when it has none.
func (s *Store) AddOffer(o model.Offer) model.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.d.id()
	}
	s.d.offers = append(s.d.offers, o)
	return o
}

// Bookings returns every stored booking.
func (s *Store) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.d.bookings))
	for _, b := range s.d.bookings {
		out = append(out, b)
	}
	return out
}

// Payments returns every stored payment.
func (s *Store) Payments() []model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Payment, 0, len(s.d.payments))
	for _, p := range s.d.payments {
		out = append(out, p)
	}
	return out
}

// Cancellations returns every stored cancellation.
func (s *Store) Cancellations() []model.Cancellation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Cancellation(nil), s.d.cancellations...)
}

// GetRoom implements booking.Store.
func (s *Store) GetRoom(_ context.Context, hotelID uint64, roomNumber string) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getRoom(s.d, hotelID, roomNumber)
}

// ActiveOffers implements booking.Store.
func (s *Store) ActiveOffers(_ context.Context, hotelID uint64, day time.Time) ([]model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Offer
	for _, o := range s.d.offers {
		if o.HotelID == hotelID && o.ActiveOn(booking.Day(day)) {
			out = append(out, o)
		}
	}
	return out, nil
}

// HasConflict implements booking.Store.
func (s *Store) HasConflict(_ context.Context, hotelID uint64, roomNumber string, r booking.DateRange, exclude uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hasConflict(s.d, hotelID, roomNumber, r, exclude), nil
}

// GetBooking implements booking.Store.
func (s *Store) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.d.bookings[id]
	if !ok {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

// InTx implements booking.Store.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &tx{d: s.d.clone(), failOn: s.FailOn}
	if err := fn(ctx, t); err != nil {
		return err
	}
	s.d = t.d
	return nil
}

func getRoom(d *data, hotelID uint64, roomNumber string) (model.Room, error) {
	r, ok := d.rooms[roomKey{hotelID, roomNumber}]
	if !ok {
		return model.Room{}, booking.ErrNotFound
	}
	return r, nil
}

func hasConflict(d *data, hotelID uint64, roomNumber string, r booking.DateRange, exclude uint64) bool {
	for _, b := range d.bookings {
		if b.HotelID != hotelID || b.RoomNumber != roomNumber || b.Status == model.BookingCancelled {
			continue
		}
		if exclude != 0 && b.ID == exclude {
			continue
		}
		if booking.Overlaps(booking.DateRange{Checkin: b.Checkin, Checkout: b.Checkout}, r) {
			return true
		}
	}
	return false
}

var errNoRow = errors.New("memory: row not found")

type tx struct {
	d      *data
	failOn map[string]error
}

func (t *tx) fail(op string) error {
	if err, ok := t.failOn[op]; ok {
		return fmt.Errorf("memory: %s: %w", op, err)
	}
	return nil
}

func (t *tx) LockRoom(_ context.Context, hotelID uint64, roomNumber string) (model.Room, error) {
	if err := t.fail("LockRoom"); err != nil {
		return model.Room{}, err
	}
	return getRoom(t.d, hotelID, roomNumber)
}

func (t *tx) HasConflict(_ context.Context, hotelID uint64, roomNumber string, r booking.DateRange, exclude uint64) (bool, error) {
	if err := t.fail("HasConflict"); err != nil {
		return false, err
	}
	return hasConflict(t.d, hotelID, roomNumber, r, exclude), nil
}

func (t *tx) GetBookingForUpdate(_ context.Context, id uint64) (model.Booking, error) {
	b, ok := t.d.bookings[id]
	if !ok {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (t *tx) CreateBooking(_ context.Context, b *model.Booking) error {
	if err := t.fail("CreateBooking"); err != nil {
		return err
	}
	b.ID = t.d.id()
	t.d.bookings[b.ID] = *b
	return nil
}

func (t *tx) UpdateBookingDates(_ context.Context, id uint64, r booking.DateRange) error {
	if err := t.fail("UpdateBookingDates"); err != nil {
		return err
	}
	b, ok := t.d.bookings[id]
	if !ok {
		return errNoRow
	}
	b.Checkin, b.Checkout = r.Checkin, r.Checkout
	t.d.bookings[id] = b
	return nil
}

func (t *tx) SetBookingStatus(_ context.Context, id uint64, status string) error {
	if err := t.fail("SetBookingStatus"); err != nil {
		return err
	}
	b, ok := t.d.bookings[id]
	if !ok {
		return errNoRow
	}
	b.Status = status
	t.d.bookings[id] = b
	return nil
}

func (t *tx) CreatePayment(_ context.Context, p *model.Payment) error {
	if err := t.fail("CreatePayment"); err != nil {
		return err
	}
	p.ID = t.d.id()
	t.d.payments[p.ID] = *p
	return nil
}

func (t *tx) PaymentByBooking(_ context.Context, bookingID uint64) (*model.Payment, error) {
	for _, p := range t.d.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *tx) UpdatePaymentAmount(_ context.Context, id uint64, amount int64) error {
	if err := t.fail("UpdatePaymentAmount"); err != nil {
		return err
	}
	p, ok := t.d.payments[id]
	if !ok {
		return errNoRow
	}
	p.AmountCents = amount
	t.d.payments[id] = p
	return nil
}

func (t *tx) SetPaymentStatus(_ context.Context, id uint64, status string) error {
	if err := t.fail("SetPaymentStatus"); err != nil {
		return err
	}
	p, ok := t.d.payments[id]
	if !ok {
		return errNoRow
	}
	p.Status = status
	t.d.payments[id] = p
	return nil
}

func (t *tx) CreateCancellation(_ context.Context, c *model.Cancellation) error {
	if err := t.fail("CreateCancellation"); err != nil {
		return err
	}
	c.ID = t.d.id()
	t.d.cancellations = append(t.d.cancellations, *c)
	return nil
}
