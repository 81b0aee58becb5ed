package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingStore backs booking.Service with MySQL.  It combines the
// repositories the checkout needs and owns the transaction lifecycle.
type BookingStore struct {
	db            *sql.DB
	rooms         *RoomRepo
	offers        *OfferRepo
	bookings      *BookingRepo
	payments      *PaymentRepo
	cancellations *CancellationRepo
	retries       int
	log           *logrus.Logger
}

// NewBookingStore returns a BookingStore.  A transaction that hits a
// deadlock or a lock wait timeout is run again up to retries more times.
func NewBookingStore(db *sql.DB, retries int, log *logrus.Logger) *BookingStore {
	if retries < 0 {
		retries = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BookingStore{
		db:            db,
		rooms:         NewRoomRepo(db),
		offers:        NewOfferRepo(db),
		bookings:      NewBookingRepo(db),
		payments:      NewPaymentRepo(db),
		cancellations: NewCancellationRepo(db),
		retries:       retries,
		log:           log,
	}
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return booking.ErrNotFound
	}
	return err
}

func (s *BookingStore) GetRoom(ctx context.Context, hotelID uint64, roomNumber string) (model.Room, error) {
	rm, err := s.rooms.Get(ctx, hotelID, roomNumber)
	return rm, notFound(err)
}

func (s *BookingStore) ActiveOffers(ctx context.Context, hotelID uint64, day time.Time) ([]model.Offer, error) {
	return s.offers.ActiveForHotel(ctx, hotelID, day)
}

func (s *BookingStore) HasConflict(ctx context.Context, hotelID uint64, roomNumber string, r booking.DateRange, exclude uint64) (bool, error) {
	return s.bookings.HasConflict(ctx, hotelID, roomNumber, r.Checkin, r.Checkout, exclude)
}

func (s *BookingStore) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	return b, notFound(err)
}

// InTx runs fn in a transaction and commits when fn returns nil.
func (s *BookingStore) InTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isRetryable(err) || attempt >= s.retries {
			return err
		}
		s.log.WithError(err).WithField("attempt", attempt+1).Warn("repository: retrying booking transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

func (s *BookingStore) runTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &bookingTx{s: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type bookingTx struct {
	s  *BookingStore
	tx *sql.Tx
}

func (t *bookingTx) LockRoom(ctx context.Context, hotelID uint64, roomNumber string) (model.Room, error) {
	rm, err := t.s.rooms.LockTx(ctx, t.tx, hotelID, roomNumber)
	return rm, notFound(err)
}

func (t *bookingTx) HasConflict(ctx context.Context, hotelID uint64, roomNumber string, r booking.DateRange, exclude uint64) (bool, error) {
	return t.s.bookings.HasConflictTx(ctx, t.tx, hotelID, roomNumber, r.Checkin, r.Checkout, exclude)
}

func (t *bookingTx) GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := t.s.bookings.GetByIDTx(ctx, t.tx, id)
	return b, notFound(err)
}

func (t *bookingTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	return t.s.bookings.CreateTx(ctx, t.tx, b)
}

func (t *bookingTx) UpdateBookingDates(ctx context.Context, id uint64, r booking.DateRange) error {
	return t.s.bookings.UpdateDatesTx(ctx, t.tx, id, r.Checkin, r.Checkout)
}

func (t *bookingTx) SetBookingStatus(ctx context.Context, id uint64, status string) error {
	return t.s.bookings.SetStatusTx(ctx, t.tx, id, status)
}

func (t *bookingTx) CreatePayment(ctx context.Context, p *model.Payment) error {
	return t.s.payments.CreateTx(ctx, t.tx, p)
}

func (t *bookingTx) PaymentByBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	return t.s.payments.GetByBookingTx(ctx, t.tx, bookingID)
}

func (t *bookingTx) UpdatePaymentAmount(ctx context.Context, id uint64, amount int64) error {
	return t.s.payments.UpdateAmountTx(ctx, t.tx, id, amount)
}

func (t *bookingTx) SetPaymentStatus(ctx context.Context, id uint64, status string) error {
	return t.s.payments.SetStatusTx(ctx, t.tx, id, status)
}

func (t *bookingTx) CreateCancellation(ctx context.Context, c *model.Cancellation) error {
	return t.s.cancellations.CreateTx(ctx, t.tx, c)
}
