package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// PaymentRepo writes payments.  A booking has at most one payment and all
// writes happen inside the booking's transaction.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts p and fills p.ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (booking_id, amount_cents, mode, date, status, reference) VALUES (?, ?, ?, ?, ?, ?)",
		p.BookingID, p.AmountCents, p.Mode, p.Date, p.Status, p.Reference)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByBookingTx returns the booking's payment, or nil when it has none.
func (r *PaymentRepo) GetByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Payment, error) {
	var p model.Payment
	err := tx.QueryRowContext(ctx,
		"SELECT id, booking_id, amount_cents, mode, date, status, reference FROM payments WHERE booking_id = ? LIMIT 1 FOR UPDATE",
		bookingID).Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Mode, &p.Date, &p.Status, &p.Reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateAmountTx sets the amount of a payment.
func (r *PaymentRepo) UpdateAmountTx(ctx context.Context, tx *sql.Tx, id uint64, amountCents int64) error {
	_, err := tx.ExecContext(ctx, "UPDATE payments SET amount_cents = ? WHERE id = ?", amountCents, id)
	return err
}

// SetStatusTx sets the status of a payment.
func (r *PaymentRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE payments SET status = ? WHERE id = ?", status, id)
	return err
}

// CancellationRepo writes cancellation records.
type CancellationRepo struct {
	db *sql.DB
}

func NewCancellationRepo(db *sql.DB) *CancellationRepo { return &CancellationRepo{db: db} }

// CreateTx inserts c and fills c.ID.
func (r *CancellationRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Cancellation) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO cancellations (booking_id, cancel_date, reason) VALUES (?, ?, ?)",
		c.BookingID, c.CancelDate, c.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}
