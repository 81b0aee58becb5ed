package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// OfferRepo reads and writes hotel offers.  Offer bounds are inclusive.
type OfferRepo struct {
	db *sql.DB
}

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{db: db} }

const offerColumns = "id, hotel_id, description, start_date, end_date, discount_percent"

// ActiveForHotel lists the offers of the hotel active on day, best first:
// highest discount, then earliest end date, then lowest id.
func (r *OfferRepo) ActiveForHotel(ctx context.Context, hotelID uint64, day time.Time) ([]model.Offer, error) {
	return r.query(ctx,
		"SELECT "+offerColumns+" FROM offers WHERE hotel_id = ? AND start_date <= ? AND end_date >= ? ORDER BY discount_percent DESC, end_date ASC, id ASC",
		hotelID, day, day)
}

// ListByHotel lists every offer of the hotel by start date.
func (r *OfferRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Offer, error) {
	return r.query(ctx,
		"SELECT "+offerColumns+" FROM offers WHERE hotel_id = ? ORDER BY start_date, id", hotelID)
}

// Create inserts an offer and fills o.ID.
func (r *OfferRepo) Create(ctx context.Context, o *model.Offer) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO offers (hotel_id, description, start_date, end_date, discount_percent) VALUES (?, ?, ?, ?, ?)",
		o.HotelID, o.Description, o.StartDate, o.EndDate, o.DiscountPercent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

func (r *OfferRepo) query(ctx context.Context, q string, args ...any) ([]model.Offer, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Offer{}
	for rows.Next() {
		var o model.Offer
		if err := rows.Scan(&o.ID, &o.HotelID, &o.Description, &o.StartDate, &o.EndDate, &o.DiscountPercent); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
