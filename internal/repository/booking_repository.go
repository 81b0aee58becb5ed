package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingRepo provides access to the bookings table.  Dates are stored as
// DATE columns and stays are half-open: a stay ends on its check-out day,
// so another stay may start that day.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = "id, customer_id, hotel_id, room_number, booking_date, checkin, checkout, status"

// Two stays overlap when each starts before the other ends.  Cancelled
// bookings never block a room.  excludeID 0 excludes nothing.
const conflictQuery = `SELECT EXISTS (
	SELECT 1 FROM bookings
	WHERE hotel_id = ? AND room_number = ? AND status <> 'Cancelled'
	  AND checkin < ? AND checkout > ? AND id <> ?)`

// HasConflict reports whether a non-cancelled booking of the room overlaps
// [checkin, checkout).
func (r *BookingRepo) HasConflict(ctx context.Context, hotelID uint64, roomNumber string, checkin, checkout time.Time, excludeID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, conflictQuery, hotelID, roomNumber, checkout, checkin, excludeID).Scan(&exists)
	return exists, err
}

// HasConflictTx is HasConflict inside tx.
func (r *BookingRepo) HasConflictTx(ctx context.Context, tx *sql.Tx, hotelID uint64, roomNumber string, checkin, checkout time.Time, excludeID uint64) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, conflictQuery, hotelID, roomNumber, checkout, checkin, excludeID).Scan(&exists)
	return exists, err
}

// CreateTx inserts b inside tx and fills b.ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (customer_id, hotel_id, room_number, booking_date, checkin, checkout, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.CustomerID, b.HotelID, b.RoomNumber, b.BookingDate, b.Checkin, b.Checkout, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a booking or returns ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBookingRow(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
}

// GetByIDTx fetches a booking and locks its row until tx ends.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	return scanBookingRow(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ? FOR UPDATE", id))
}

// UpdateDatesTx moves a booking to new dates.
func (r *BookingRepo) UpdateDatesTx(ctx context.Context, tx *sql.Tx, id uint64, checkin, checkout time.Time) error {
	_, err := tx.ExecContext(ctx, "UPDATE bookings SET checkin = ?, checkout = ? WHERE id = ?", checkin, checkout, id)
	return err
}

// SetStatusTx changes a booking's status.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ?", status, id)
	return err
}

const bookingWithPaymentQuery = `SELECT b.id, b.customer_id, b.hotel_id, b.room_number, b.booking_date, b.checkin, b.checkout, b.status,
       p.id, p.amount_cents, p.mode, p.date, p.status, p.reference
FROM bookings b
LEFT JOIN payments p ON p.booking_id = b.id`

// ListByCustomer returns the customer's bookings with their payment,
// latest check-in first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.BookingWithPayment, error) {
	return r.listWithPayment(ctx, bookingWithPaymentQuery+" WHERE b.customer_id = ? ORDER BY b.checkin DESC, b.id DESC", customerID)
}

// ListByHotel returns every booking of the hotel with its payment, by
// check-in date.
func (r *BookingRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.BookingWithPayment, error) {
	return r.listWithPayment(ctx, bookingWithPaymentQuery+" WHERE b.hotel_id = ? ORDER BY b.checkin ASC, b.id ASC", hotelID)
}

func (r *BookingRepo) listWithPayment(ctx context.Context, q string, arg uint64) ([]model.BookingWithPayment, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingWithPayment{}
	for rows.Next() {
		var (
			bw     model.BookingWithPayment
			pID    sql.NullInt64
			amount sql.NullInt64
			mode   sql.NullString
			date   sql.NullTime
			status sql.NullString
			ref    sql.NullString
		)
		b := &bw.Booking
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.HotelID, &b.RoomNumber, &b.BookingDate, &b.Checkin, &b.Checkout, &b.Status,
			&pID, &amount, &mode, &date, &status, &ref); err != nil {
			return nil, err
		}
		if pID.Valid {
			bw.Payment = &model.Payment{
				ID:          uint64(pID.Int64),
				BookingID:   b.ID,
				AmountCents: amount.Int64,
				Mode:        mode.String,
				Date:        date.Time,
				Status:      status.String,
				Reference:   ref.String,
			}
		}
		out = append(out, bw)
	}
	return out, rows.Err()
}

func scanBookingRow(row *sql.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.CustomerID, &b.HotelID, &b.RoomNumber, &b.BookingDate, &b.Checkin, &b.Checkout, &b.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}
