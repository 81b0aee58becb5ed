package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// RoomRepo reads and writes rooms and their images.  Rooms are keyed by
// (hotel_id, room_number).
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = "hotel_id, room_number, room_type, capacity, price_cents, availability"

// RoomUpdate carries the fields staff may change.  Nil leaves a column as is.
type RoomUpdate struct {
	RoomType     *string
	Capacity     *uint32
	PriceCents   *int64
	Availability *bool
}

// Get fetches one room or returns ErrNotFound.
func (r *RoomRepo) Get(ctx context.Context, hotelID uint64, roomNumber string) (model.Room, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE hotel_id = ? AND room_number = ?", hotelID, roomNumber)
	return scanRoomRow(row)
}

// LockTx reads the room with a row lock held until tx ends.  Concurrent
// bookings of the same room queue up behind it.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, hotelID uint64, roomNumber string) (model.Room, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE hotel_id = ? AND room_number = ? FOR UPDATE", hotelID, roomNumber)
	return scanRoomRow(row)
}

// ListByHotel returns the hotel's rooms with their images attached.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE hotel_id = ? ORDER BY room_number", hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	index := map[string]int{}
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.HotelID, &rm.RoomNumber, &rm.RoomType, &rm.Capacity, &rm.PriceCents, &rm.Availability); err != nil {
			return nil, err
		}
		rm.Images = []model.RoomImage{}
		index[rm.RoomNumber] = len(out)
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	images, err := r.Images(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if i, ok := index[img.RoomNumber]; ok {
			out[i].Images = append(out[i].Images, img)
		}
	}
	return out, nil
}

// Images lists every room image of a hotel.
func (r *RoomRepo) Images(ctx context.Context, hotelID uint64) ([]model.RoomImage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT hotel_id, room_number, image_url, reference_name, description FROM room_images WHERE hotel_id = ? ORDER BY room_number",
		hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoomImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// Create inserts a room.  An existing room number in the hotel yields ErrConflict.
func (r *RoomRepo) Create(ctx context.Context, rm model.Room) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO rooms ("+roomColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		rm.HotelID, rm.RoomNumber, rm.RoomType, rm.Capacity, rm.PriceCents, rm.Availability)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Update applies u to the room and returns the stored row.
func (r *RoomRepo) Update(ctx context.Context, hotelID uint64, roomNumber string, u RoomUpdate) (model.Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Room{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	rm, err := r.LockTx(ctx, tx, hotelID, roomNumber)
	if err != nil {
		return model.Room{}, err
	}
	if u.RoomType != nil {
		rm.RoomType = *u.RoomType
	}
	if u.Capacity != nil {
		rm.Capacity = *u.Capacity
	}
	if u.PriceCents != nil {
		rm.PriceCents = *u.PriceCents
	}
	if u.Availability != nil {
		rm.Availability = *u.Availability
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE rooms SET room_type = ?, capacity = ?, price_cents = ?, availability = ? WHERE hotel_id = ? AND room_number = ?",
		rm.RoomType, rm.Capacity, rm.PriceCents, rm.Availability, hotelID, roomNumber); err != nil {
		return model.Room{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Room{}, err
	}
	committed = true
	return rm, nil
}

func scanRoomRow(row *sql.Row) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.HotelID, &rm.RoomNumber, &rm.RoomType, &rm.Capacity, &rm.PriceCents, &rm.Availability)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, ErrNotFound
	}
	return rm, err
}

func scanImage(s rowScanner) (model.RoomImage, error) {
	var (
		img       model.RoomImage
		ref, desc sql.NullString
	)
	if err := s.Scan(&img.HotelID, &img.RoomNumber, &img.ImageURL, &ref, &desc); err != nil {
		return model.RoomImage{}, err
	}
	img.ReferenceName = ref.String
	img.Description = desc.String
	return img, nil
}
