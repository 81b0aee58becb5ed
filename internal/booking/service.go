// Package booking implements the booking validator and pricing core: date
// validation, room conflict detection, price computation with hotel offers
// and the two-step checkout that turns a date selection into a confirmed,
// paid booking.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/queue"
)

// Store is the persistence the service needs outside of a transaction.
// Lookups of missing rows return ErrNotFound.
type Store interface {
	GetRoom(ctx context.Context, hotelID uint64, roomNumber string) (model.Room, error)
	ActiveOffers(ctx context.Context, hotelID uint64, day time.Time) ([]model.Offer, error)
	HasConflict(ctx context.Context, hotelID uint64, roomNumber string, r DateRange, excludeBookingID uint64) (bool, error)
	GetBooking(ctx context.Context, bookingID uint64) (model.Booking, error)
	// InTx runs fn in a single transaction.  If fn returns an error,
	// nothing fn wrote is persisted.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes that must happen atomically.  LockRoom blocks
// other transactions that lock the same room until this one ends, which
// serialises conflict checks and inserts per room.
type Tx interface {
	LockRoom(ctx context.Context, hotelID uint64, roomNumber string) (model.Room, error)
	HasConflict(ctx context.Context, hotelID uint64, roomNumber string, r DateRange, excludeBookingID uint64) (bool, error)
	GetBookingForUpdate(ctx context.Context, bookingID uint64) (model.Booking, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	UpdateBookingDates(ctx context.Context, bookingID uint64, r DateRange) error
	SetBookingStatus(ctx context.Context, bookingID uint64, status string) error
	CreatePayment(ctx context.Context, p *model.Payment) error
	// PaymentByBooking returns nil when the booking has no payment.
	PaymentByBooking(ctx context.Context, bookingID uint64) (*model.Payment, error)
	UpdatePaymentAmount(ctx context.Context, paymentID uint64, amountCents int64) error
	SetPaymentStatus(ctx context.Context, paymentID uint64, status string) error
	CreateCancellation(ctx context.Context, c *model.Cancellation) error
}

// SelectionStore keeps in-flight date selections between the two
// checkout steps.  Entries disappear after their TTL.
type SelectionStore interface {
	Save(ctx context.Context, sel model.Selection, ttl time.Duration) error
	Load(ctx context.Context, customerID, hotelID uint64, roomNumber string) (model.Selection, bool, error)
	Delete(ctx context.Context, customerID, hotelID uint64, roomNumber string) error
}

// Publisher delivers booking events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Options tune a Service.  Zero values select the defaults.
type Options struct {
	SelectionTTL time.Duration
	PaymentMode  string
	Now          func() time.Time
	Logger       *logrus.Logger
	Publisher    Publisher
}

// Service coordinates validation, pricing and persistence of bookings.
type Service struct {
	store        Store
	selections   SelectionStore
	events       Publisher
	log          *logrus.Logger
	now          func() time.Time
	selectionTTL time.Duration
	paymentMode  string
}

// NewService builds a Service.  store and selections must be non-nil.
func NewService(store Store, selections SelectionStore, opts Options) *Service {
	if store == nil || selections == nil {
		panic("nil dependency passed to booking.NewService")
	}
	s := &Service{
		store:        store,
		selections:   selections,
		events:       opts.Publisher,
		log:          opts.Logger,
		now:          opts.Now,
		selectionTTL: opts.SelectionTTL,
		paymentMode:  opts.PaymentMode,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.selectionTTL <= 0 {
		s.selectionTTL = 30 * time.Minute
	}
	if s.paymentMode == "" {
		s.paymentMode = "Card"
	}
	return s
}

// Confirmation is the outcome of a successful payment confirmation.
type Confirmation struct {
	Booking model.Booking `json:"booking"`
	Payment model.Payment `json:"payment"`
	Quote   Quote         `json:"quote"`
}

func (s *Service) today() time.Time { return Day(s.now()) }

// SubmitDateRange is the first checkout step.  It validates the dates for
// the room and, when they are bookable, stores them as the customer's
// selection for that room and returns the price the customer will pay.
func (s *Service) SubmitDateRange(ctx context.Context, customerID, hotelID uint64, roomNumber string, checkin, checkout time.Time) (model.Selection, Quote, error) {
	room, err := s.store.GetRoom(ctx, hotelID, roomNumber)
	if err != nil {
		return model.Selection{}, Quote{}, s.lookupErr("load room", err)
	}
	if !room.Availability {
		return model.Selection{}, Quote{}, invalid("room", ErrRoomUnavailable)
	}
	today := s.today()
	r, err := ValidateRange(today, checkin, checkout)
	if err != nil {
		return model.Selection{}, Quote{}, err
	}
	conflict, err := s.store.HasConflict(ctx, hotelID, roomNumber, r, 0)
	if err != nil {
		return model.Selection{}, Quote{}, s.fail("check conflict", err, logrus.Fields{"hotel_id": hotelID, "room_number": roomNumber})
	}
	if conflict {
		return model.Selection{}, Quote{}, invalid("checkin", ErrConflict)
	}
	offer, err := s.activeOffer(ctx, hotelID, today)
	if err != nil {
		return model.Selection{}, Quote{}, err
	}
	now := s.now().UTC()
	sel := model.Selection{
		CustomerID: customerID,
		HotelID:    hotelID,
		RoomNumber: roomNumber,
		Checkin:    r.Checkin,
		Checkout:   r.Checkout,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.selectionTTL),
	}
	if err := s.selections.Save(ctx, sel, s.selectionTTL); err != nil {
		return model.Selection{}, Quote{}, s.fail("save selection", err, logrus.Fields{"customer_id": customerID})
	}
	return sel, ComputePrice(room.PriceCents, r, offer), nil
}

// Quote returns the stored selection of a room together with its current
// price, as shown on the payment confirmation page.
func (s *Service) Quote(ctx context.Context, customerID, hotelID uint64, roomNumber string) (model.Selection, Quote, error) {
	sel, err := s.loadSelection(ctx, customerID, hotelID, roomNumber)
	if err != nil {
		return model.Selection{}, Quote{}, err
	}
	room, err := s.store.GetRoom(ctx, hotelID, roomNumber)
	if err != nil {
		return model.Selection{}, Quote{}, s.lookupErr("load room", err)
	}
	offer, err := s.activeOffer(ctx, hotelID, s.today())
	if err != nil {
		return model.Selection{}, Quote{}, err
	}
	r := DateRange{Checkin: sel.Checkin, Checkout: sel.Checkout}
	return sel, ComputePrice(room.PriceCents, r, offer), nil
}

// ReleaseSelection drops the customer's selection for a room.
func (s *Service) ReleaseSelection(ctx context.Context, customerID, hotelID uint64, roomNumber string) error {
	if err := s.selections.Delete(ctx, customerID, hotelID, roomNumber); err != nil {
		return s.fail("delete selection", err, logrus.Fields{"customer_id": customerID})
	}
	return nil
}

// ConfirmPayment is the second checkout step.  It re-reads the stored
// selection, re-validates it and, inside one transaction that locks the
// room, re-checks conflicts and writes the booking and its payment.
// Either both rows persist or neither does.  The selection is cleared
// once the transaction commits.  An empty mode records the configured
// default payment mode.
func (s *Service) ConfirmPayment(ctx context.Context, customerID, hotelID uint64, roomNumber, mode string) (Confirmation, error) {
	if mode == "" {
		mode = s.paymentMode
	}
	sel, err := s.loadSelection(ctx, customerID, hotelID, roomNumber)
	if err != nil {
		return Confirmation{}, err
	}
	today := s.today()
	r, err := ValidateRange(today, sel.Checkin, sel.Checkout)
	if err != nil {
		return Confirmation{}, err
	}
	offer, err := s.activeOffer(ctx, hotelID, today)
	if err != nil {
		return Confirmation{}, err
	}

	var out Confirmation
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		room, err := tx.LockRoom(ctx, hotelID, roomNumber)
		if err != nil {
			return err
		}
		if !room.Availability {
			return invalid("room", ErrRoomUnavailable)
		}
		conflict, err := tx.HasConflict(ctx, hotelID, roomNumber, r, 0)
		if err != nil {
			return err
		}
		if conflict {
			return invalid("checkin", ErrConflict)
		}
		quote := ComputePrice(room.PriceCents, r, offer)
		b := model.Booking{
			CustomerID:  customerID,
			HotelID:     hotelID,
			RoomNumber:  roomNumber,
			BookingDate: today,
			Checkin:     r.Checkin,
			Checkout:    r.Checkout,
			Status:      model.BookingConfirmed,
		}
		if err := tx.CreateBooking(ctx, &b); err != nil {
			return err
		}
		p := model.Payment{
			BookingID:   b.ID,
			AmountCents: quote.TotalCents,
			Mode:        mode,
			Date:        today,
			Status:      model.PaymentCompleted,
			Reference:   uuid.NewString(),
		}
		if err := tx.CreatePayment(ctx, &p); err != nil {
			return err
		}
		out = Confirmation{Booking: b, Payment: p, Quote: quote}
		return nil
	})
	if err != nil {
		return Confirmation{}, s.txErr("confirm payment", err, logrus.Fields{
			"customer_id": customerID, "hotel_id": hotelID, "room_number": roomNumber,
		})
	}

	if err := s.selections.Delete(ctx, customerID, hotelID, roomNumber); err != nil {
		// Booking is committed; the selection will expire on its own.
		s.log.WithError(err).WithField("booking_id", out.Booking.ID).Warn("booking: clear selection failed")
	}
	s.publish(ctx, queue.BookingConfirmed, out.Booking, out.Payment.AmountCents, func(ev *queue.BookingEvent) {
		ev.DiscountCents = out.Quote.DiscountCents
		ev.PaymentRef = out.Payment.Reference
	})
	return out, nil
}

// CancelBooking cancels a booking owned by the customer.  The booking and
// its payment are marked Cancelled and a cancellation record is written
// in the same transaction.  Cancelled bookings stay cancelled.
func (s *Service) CancelBooking(ctx context.Context, customerID, bookingID uint64, reason *string) (model.Cancellation, error) {
	b, err := s.ownedBooking(ctx, customerID, bookingID)
	if err != nil {
		return model.Cancellation{}, err
	}
	if b.Status == model.BookingCancelled {
		return model.Cancellation{}, ErrAlreadyCancelled
	}
	var (
		c      model.Cancellation
		amount int64
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := tx.GetBookingForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if cur.Status == model.BookingCancelled {
			return ErrAlreadyCancelled
		}
		if err := tx.SetBookingStatus(ctx, cur.ID, model.BookingCancelled); err != nil {
			return err
		}
		p, err := tx.PaymentByBooking(ctx, cur.ID)
		if err != nil {
			return err
		}
		if p != nil {
			amount = p.AmountCents
			if err := tx.SetPaymentStatus(ctx, p.ID, model.PaymentCancelled); err != nil {
				return err
			}
		}
		c = model.Cancellation{BookingID: cur.ID, CancelDate: s.today(), Reason: reason}
		return tx.CreateCancellation(ctx, &c)
	})
	if err != nil {
		return model.Cancellation{}, s.txErr("cancel booking", err, logrus.Fields{"booking_id": bookingID})
	}
	b.Status = model.BookingCancelled
	s.publish(ctx, queue.BookingCancelled, b, amount, func(ev *queue.BookingEvent) { ev.Reason = reason })
	return c, nil
}

// EditBooking moves a booking owned by the customer to new dates.  The new
// range goes through the same validation as a new booking, with the
// booking itself excluded from the conflict check, and the payment amount
// is recomputed.  On any error the stored booking is left unchanged.
func (s *Service) EditBooking(ctx context.Context, customerID, bookingID uint64, checkin, checkout time.Time) (model.Booking, error) {
	b, err := s.ownedBooking(ctx, customerID, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status == model.BookingCancelled {
		return model.Booking{}, ErrAlreadyCancelled
	}
	today := s.today()
	r, err := ValidateRange(today, checkin, checkout)
	if err != nil {
		return model.Booking{}, err
	}
	offer, err := s.activeOffer(ctx, b.HotelID, today)
	if err != nil {
		return model.Booking{}, err
	}

	var amount int64
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		room, err := tx.LockRoom(ctx, b.HotelID, b.RoomNumber)
		if err != nil {
			return err
		}
		cur, err := tx.GetBookingForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if cur.Status == model.BookingCancelled {
			return ErrAlreadyCancelled
		}
		conflict, err := tx.HasConflict(ctx, b.HotelID, b.RoomNumber, r, b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return invalid("checkin", ErrConflict)
		}
		if err := tx.UpdateBookingDates(ctx, b.ID, r); err != nil {
			return err
		}
		p, err := tx.PaymentByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if p != nil {
			amount = ComputePrice(room.PriceCents, r, offer).TotalCents
			return tx.UpdatePaymentAmount(ctx, p.ID, amount)
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, s.txErr("edit booking", err, logrus.Fields{"booking_id": bookingID})
	}
	b.Checkin, b.Checkout = r.Checkin, r.Checkout
	s.publish(ctx, queue.BookingUpdated, b, amount, nil)
	return b, nil
}

func (s *Service) ownedBooking(ctx context.Context, customerID, bookingID uint64) (model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, s.lookupErr("load booking", err)
	}
	if b.CustomerID != customerID {
		return model.Booking{}, ErrNotOwner
	}
	return b, nil
}

func (s *Service) loadSelection(ctx context.Context, customerID, hotelID uint64, roomNumber string) (model.Selection, error) {
	sel, ok, err := s.selections.Load(ctx, customerID, hotelID, roomNumber)
	if err != nil {
		return model.Selection{}, s.fail("load selection", err, logrus.Fields{"customer_id": customerID})
	}
	if !ok || !s.now().Before(sel.ExpiresAt) {
		return model.Selection{}, ErrNoActiveSelection
	}
	return sel, nil
}

func (s *Service) activeOffer(ctx context.Context, hotelID uint64, today time.Time) (*model.Offer, error) {
	offers, err := s.store.ActiveOffers(ctx, hotelID, today)
	if err != nil {
		return nil, s.fail("load offers", err, logrus.Fields{"hotel_id": hotelID})
	}
	return PickOffer(offers, today), nil
}

// lookupErr passes ErrNotFound through and treats anything else as a
// store failure.
func (s *Service) lookupErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return s.fail(op, err, nil)
}

// txErr separates domain outcomes raised inside a transaction from store
// failures, which are logged.
func (s *Service) txErr(op string, err error, fields logrus.Fields) error {
	if IsValidationError(err) != nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrNotOwner) {
		return err
	}
	return s.fail(op, err, fields)
}

func (s *Service) fail(op string, err error, fields logrus.Fields) error {
	s.log.WithFields(fields).WithError(err).Errorf("booking: %s failed", op)
	return persistence(op, err)
}

// publishTimeout caps how long a committed request waits on the broker.
const publishTimeout = 2 * time.Second

func (s *Service) publish(ctx context.Context, typ string, b model.Booking, amount int64, decorate func(*queue.BookingEvent)) {
	if s.events == nil {
		return
	}
	ev := queue.BookingEvent{
		Type:        typ,
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		HotelID:     b.HotelID,
		RoomNumber:  b.RoomNumber,
		Checkin:     b.Checkin.Format(time.DateOnly),
		Checkout:    b.Checkout.Format(time.DateOnly),
		AmountCents: amount,
		OccurredAt:  s.now().UTC().Format(time.RFC3339),
	}
	if decorate != nil {
		decorate(&ev)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"type": typ, "booking_id": b.ID}).Warn("booking: publish event failed")
	}
}
