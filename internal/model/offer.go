package model

import "time"

// Offer is a promotional discount of a hotel.  An offer is active on
// a given day when StartDate <= day <= EndDate (both inclusive).
//
// Fields:
//  ID              – primary key identifier.
//  HotelID         – hotel the offer applies to.
//  Description     – marketing text shown to customers.
//  StartDate       – first day the offer is valid.
//  EndDate         – last day the offer is valid.
//  DiscountPercent – discount in percent, expected within [0, 100].
type Offer struct {
	ID              uint64    `json:"id"`
	HotelID         uint64    `json:"hotel_id"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	DiscountPercent float64   `json:"discount_percent"`
}

// ActiveOn reports whether the offer is valid on the given calendar day.
func (o Offer) ActiveOn(day time.Time) bool {
	return !day.Before(o.StartDate) && !day.After(o.EndDate)
}
