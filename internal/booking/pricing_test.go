package booking

import (
	"testing"

	"github.com/iliyamo/hotel-booking/internal/model"
)

func TestComputePrice(t *testing.T) {
	r := DateRange{Checkin: d(2030, 1, 1), Checkout: d(2030, 1, 4)}

	q := ComputePrice(10000, r, nil)
	if q.Nights != 3 || q.SubtotalCents != 30000 || q.DiscountCents != 0 || q.TotalCents != 30000 {
		t.Fatalf("no offer: %+v", q)
	}

	offer := &model.Offer{ID: 1, DiscountPercent: 10}
	q = ComputePrice(10000, r, offer)
	if q.SubtotalCents != 30000 || q.DiscountCents != 3000 || q.TotalCents != 27000 {
		t.Fatalf("10%% offer: %+v", q)
	}
	if q.Offer == nil || q.Offer.ID != 1 {
		t.Fatalf("offer not reported: %+v", q.Offer)
	}
}

func TestComputePriceRoundsAndClamps(t *testing.T) {
	r := DateRange{Checkin: d(2030, 1, 1), Checkout: d(2030, 1, 2)}

	q := ComputePrice(999, r, &model.Offer{DiscountPercent: 12.5})
	// 124.875 rounds to 125
	if q.DiscountCents != 125 || q.TotalCents != 874 {
		t.Fatalf("rounding: %+v", q)
	}

	q = ComputePrice(5000, r, &model.Offer{DiscountPercent: 150})
	if q.TotalCents != 0 {
		t.Fatalf("total must not go negative: %+v", q)
	}

	q = ComputePrice(5000, r, &model.Offer{DiscountPercent: 100})
	if q.TotalCents != 0 || q.DiscountCents != 5000 {
		t.Fatalf("full discount: %+v", q)
	}
}

func TestPickOffer(t *testing.T) {
	day := d(2030, 6, 15)
	offers := []model.Offer{
		{ID: 1, DiscountPercent: 10, StartDate: d(2030, 6, 1), EndDate: d(2030, 6, 30)},
		{ID: 2, DiscountPercent: 20, StartDate: d(2030, 6, 1), EndDate: d(2030, 6, 30)},
		{ID: 3, DiscountPercent: 20, StartDate: d(2030, 6, 10), EndDate: d(2030, 6, 20)},
		{ID: 4, DiscountPercent: 50, StartDate: d(2030, 7, 1), EndDate: d(2030, 7, 30)},
		{ID: 5, DiscountPercent: 20, StartDate: d(2030, 6, 10), EndDate: d(2030, 6, 20)},
	}
	got := PickOffer(offers, day)
	if got == nil || got.ID != 3 {
		t.Fatalf("expected offer 3 (highest, earliest end, lowest id), got %+v", got)
	}

	if PickOffer(offers, d(2030, 8, 1)) != nil {
		t.Fatal("expected no active offer")
	}

	// both bounds are inclusive
	if o := PickOffer(offers[:1], d(2030, 6, 30)); o == nil {
		t.Fatal("offer must be active on its end date")
	}
	if o := PickOffer(offers[:1], d(2030, 6, 1)); o == nil {
		t.Fatal("offer must be active on its start date")
	}
}
