package model

import "time"

// Selection is a customer's in-flight choice of dates for one room
// during the two-step checkout.  It is created when the dates pass
// validation and consumed when the payment is confirmed.  Selections
// expire at ExpiresAt and are keyed by (CustomerID, HotelID,
// RoomNumber), so a customer may hold selections for several rooms.
//
// Fields:
//  CustomerID – customer who made the selection.
//  HotelID    – hotel of the selected room.
//  RoomNumber – selected room.
//  Checkin    – chosen arrival date.
//  Checkout   – chosen departure date.
//  CreatedAt  – when the selection was stored.
//  ExpiresAt  – when the selection stops being honoured.
type Selection struct {
	CustomerID uint64    `json:"customer_id"`
	HotelID    uint64    `json:"hotel_id"`
	RoomNumber string    `json:"room_number"`
	Checkin    time.Time `json:"checkin"`
	Checkout   time.Time `json:"checkout"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
