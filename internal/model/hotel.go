package model

import "time"

// Hotel is a bookable property.  It owns rooms, facilities, offers
// and reviews.  This struct corresponds to a row in the `hotels`
// table.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name.
//  City        – city the hotel is located in.
//  State       – state or region.
//  Rating      – average rating on a 0.0–5.0 scale (nullable).
//  Contact     – phone or email used for enquiries.
//  Description – short free-text description.
type Hotel struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Rating      *float64 `json:"rating,omitempty"`
	Contact     string   `json:"contact"`
	Description string   `json:"description"`
}

// Facility is an amenity offered by a hotel (pool, gym, parking...).
type Facility struct {
	ID      uint64 `json:"id"`
	HotelID uint64 `json:"hotel_id"`
	Name    string `json:"name"`
}

// Review is a customer's rating and comment for a hotel.
//
// Fields:
//  ID         – primary key identifier.
//  CustomerID – author of the review.
//  HotelID    – reviewed hotel.
//  Rating     – score between 0.0 and 5.0 with one decimal.
//  Comment    – optional free text.
//  Date       – calendar date the review was written.
type Review struct {
	ID         uint64    `json:"id"`
	CustomerID uint64    `json:"customer_id"`
	HotelID    uint64    `json:"hotel_id"`
	Rating     float64   `json:"rating"`
	Comment    string    `json:"comment"`
	Date       time.Time `json:"date"`
}
