package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// ReviewRepo stores customer reviews of hotels.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review and fills rv.ID.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (customer_id, hotel_id, rating, comment, date) VALUES (?, ?, ?, ?, ?)",
		rv.CustomerID, rv.HotelID, rv.Rating, rv.Comment, rv.Date)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ListByHotel returns the hotel's reviews, newest first.
func (r *ReviewRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, customer_id, hotel_id, rating, comment, date FROM reviews WHERE hotel_id = ? ORDER BY date DESC, id DESC",
		hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.CustomerID, &rv.HotelID, &rv.Rating, &rv.Comment, &rv.Date); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
