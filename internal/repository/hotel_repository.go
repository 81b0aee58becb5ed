package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HotelRepo encapsulates queries on hotels and their facilities.
type HotelRepo struct {
	db *sql.DB
}

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// HotelSearchQuery filters the public hotel list.  Q matches name, city or
// state case-insensitively.  OnlyWithOffers keeps hotels that have an
// offer active on Today.
type HotelSearchQuery struct {
	Q              string
	OnlyWithOffers bool
	Today          time.Time
	Page           int
	PageSize       int
}

// Paging limits of Search.  Larger values are clamped so the OFFSET
// always fits.
const (
	MaxSearchPage     = 10000
	MaxSearchPageSize = 100
)

// HotelListItem is one row of the public hotel list.
type HotelListItem struct {
	model.Hotel
	Images []model.RoomImage `json:"images"`
}

const hotelColumns = "h.id, h.name, h.city, h.state, h.rating, h.contact, h.description"

// Search returns one page of hotels and the total number of matches.
func (r *HotelRepo) Search(ctx context.Context, q HotelSearchQuery) ([]HotelListItem, int64, error) {
	where := []string{}
	args := []any{}

	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(h.name) LIKE ? OR LOWER(h.city) LIKE ? OR LOWER(h.state) LIKE ?)")
		args = append(args, like, like, like)
	}
	if q.OnlyWithOffers {
		where = append(where, "EXISTS (SELECT 1 FROM offers o WHERE o.hotel_id = h.id AND o.start_date <= ? AND o.end_date >= ?)")
		args = append(args, q.Today, q.Today)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotels h WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	q.PageSize = min(q.PageSize, MaxSearchPageSize)
	q.Page = min(max(q.Page, 1), MaxSearchPage)
	dataArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+hotelColumns+" FROM hotels h WHERE "+cond+" ORDER BY h.name ASC, h.id ASC LIMIT ? OFFSET ?",
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]HotelListItem, 0, q.PageSize)
	index := map[uint64]int{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, 0, err
		}
		index[h.ID] = len(out)
		out = append(out, HotelListItem{Hotel: h, Images: []model.RoomImage{}})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(out) == 0 {
		return out, total, nil
	}

	ids := make([]any, 0, len(out))
	for _, h := range out {
		ids = append(ids, h.ID)
	}
	imgRows, err := r.db.QueryContext(ctx,
		"SELECT hotel_id, room_number, image_url, reference_name, description FROM room_images WHERE hotel_id IN ("+placeholders(len(ids))+") ORDER BY hotel_id, room_number",
		ids...)
	if err != nil {
		return nil, 0, err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		img, err := scanImage(imgRows)
		if err != nil {
			return nil, 0, err
		}
		if i, ok := index[img.HotelID]; ok {
			out[i].Images = append(out[i].Images, img)
		}
	}
	return out, total, imgRows.Err()
}

// GetByID fetches a hotel or returns ErrNotFound.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+hotelColumns+" FROM hotels h WHERE h.id = ?", id)
	h, err := scanHotel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hotel{}, ErrNotFound
	}
	return h, err
}

// Create inserts a hotel and fills h.ID.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO hotels (name, city, state, rating, contact, description) VALUES (?, ?, ?, ?, ?, ?)",
		h.Name, h.City, h.State, h.Rating, h.Contact, h.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// Facilities lists the facilities of a hotel.
func (r *HotelRepo) Facilities(ctx context.Context, hotelID uint64) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, hotel_id, name FROM facilities WHERE hotel_id = ? ORDER BY name", hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Facility{}
	for rows.Next() {
		var f model.Facility
		if err := rows.Scan(&f.ID, &f.HotelID, &f.Name); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(s rowScanner) (model.Hotel, error) {
	var (
		h      model.Hotel
		rating sql.NullFloat64
	)
	if err := s.Scan(&h.ID, &h.Name, &h.City, &h.State, &rating, &h.Contact, &h.Description); err != nil {
		return model.Hotel{}, err
	}
	if rating.Valid {
		v := rating.Float64
		h.Rating = &v
	}
	return h, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
