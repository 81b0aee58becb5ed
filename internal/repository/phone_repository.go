package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// PhoneRepo manages the phone numbers of a customer.
type PhoneRepo struct{ DB *sql.DB }

func NewPhoneRepo(db *sql.DB) *PhoneRepo { return &PhoneRepo{DB: db} }

// ListByCustomer returns the customer's numbers, primary first.
func (r *PhoneRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.CustomerPhone, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT customer_id, phone_number, is_primary FROM customer_phones WHERE customer_id=? ORDER BY is_primary DESC, phone_number",
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CustomerPhone{}
	for rows.Next() {
		var p model.CustomerPhone
		if err := rows.Scan(&p.CustomerID, &p.PhoneNumber, &p.IsPrimary); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Add stores a number.  A number the customer already has yields ErrConflict.
func (r *PhoneRepo) Add(ctx context.Context, p model.CustomerPhone) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO customer_phones (customer_id, phone_number, is_primary) VALUES (?,?,?)",
		p.CustomerID, p.PhoneNumber, p.IsPrimary)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Get fetches one number of the customer.
func (r *PhoneRepo) Get(ctx context.Context, customerID uint64, phone string) (model.CustomerPhone, error) {
	var p model.CustomerPhone
	err := r.DB.QueryRowContext(ctx,
		"SELECT customer_id, phone_number, is_primary FROM customer_phones WHERE customer_id=? AND phone_number=?",
		customerID, phone).Scan(&p.CustomerID, &p.PhoneNumber, &p.IsPrimary)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// Delete removes one number of the customer.
func (r *PhoneRepo) Delete(ctx context.Context, customerID uint64, phone string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM customer_phones WHERE customer_id=? AND phone_number=?", customerID, phone)
	if err != nil {
		return err
	}
	return expectRow(res)
}
