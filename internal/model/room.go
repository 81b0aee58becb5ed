package model

// Room describes a bookable room in a hotel.  Rooms are uniquely
// identified by their hotel and room number; there is no surrogate
// key.  PriceCents is the nightly rate.
//
// Fields:
//  HotelID      – hotel to which this room belongs.
//  RoomNumber   – room number within the hotel (e.g. "101", "2A").
//  RoomType     – descriptive type (Single, Double, Suite...).
//  Capacity     – maximum number of guests.
//  PriceCents   – nightly rate in cents.
//  Availability – whether the room can currently be booked at all.
type Room struct {
	HotelID      uint64      `json:"hotel_id"`
	RoomNumber   string      `json:"room_number"`
	RoomType     string      `json:"room_type"`
	Capacity     uint32      `json:"capacity"`
	PriceCents   int64       `json:"price_cents"`
	Availability bool        `json:"availability"`
	Images       []RoomImage `json:"images,omitempty"`
}

// RoomImage is a picture of a room.  The triple (HotelID, RoomNumber,
// ImageURL) is the primary key of the `room_images` table.
type RoomImage struct {
	HotelID       uint64 `json:"-"`
	RoomNumber    string `json:"-"`
	ImageURL      string `json:"image_url"`
	ReferenceName string `json:"reference_name,omitempty"`
	Description   string `json:"description,omitempty"`
}
