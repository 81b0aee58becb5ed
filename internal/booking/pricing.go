package booking

import (
	"math"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// Quote is the price breakdown of a stay.  All amounts are in cents.
type Quote struct {
	Nights           int          `json:"nights"`
	NightlyRateCents int64        `json:"nightly_rate_cents"`
	SubtotalCents    int64        `json:"subtotal_cents"`
	DiscountCents    int64        `json:"discount_cents"`
	TotalCents       int64        `json:"total_cents"`
	Offer            *model.Offer `json:"offer,omitempty"`
}

// ComputePrice prices a stay at the nightly rate and applies the offer's
// percentage discount when an offer is given.  The caller decides
// whether the offer is active.  The total never goes below zero.
func ComputePrice(nightlyRateCents int64, r DateRange, offer *model.Offer) Quote {
	nights := r.Nights()
	q := Quote{
		Nights:           nights,
		NightlyRateCents: nightlyRateCents,
		SubtotalCents:    nightlyRateCents * int64(nights),
		Offer:            offer,
	}
	if offer != nil {
		q.DiscountCents = int64(math.Round(float64(q.SubtotalCents) * offer.DiscountPercent / 100))
	}
	q.TotalCents = q.SubtotalCents - q.DiscountCents
	if q.TotalCents < 0 {
		q.TotalCents = 0
	}
	return q
}

// PickOffer returns the offer applied when several offers of a hotel are
// active on day: the highest discount wins, then the earliest end date,
// then the lowest id.  It returns nil when no offer is active.
func PickOffer(offers []model.Offer, day time.Time) *model.Offer {
	day = Day(day)
	var best *model.Offer
	for i := range offers {
		o := offers[i]
		if !o.ActiveOn(day) {
			continue
		}
		if best == nil || betterOffer(o, *best) {
			best = &o
		}
	}
	return best
}

func betterOffer(a, b model.Offer) bool {
	if a.DiscountPercent != b.DiscountPercent {
		return a.DiscountPercent > b.DiscountPercent
	}
	if !a.EndDate.Equal(b.EndDate) {
		return a.EndDate.Before(b.EndDate)
	}
	return a.ID < b.ID
}
