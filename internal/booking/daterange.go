package booking

import "time"

// DateRange is a stay expressed as the half-open range [Checkin, Checkout)
// of calendar days.
type DateRange struct {
	Checkin  time.Time
	Checkout time.Time
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is the number of whole nights in the range.  It counts calendar
// days, so stays longer than a time.Duration can hold are not truncated.
func (r DateRange) Nights() int {
	return int((Day(r.Checkout).Unix() - Day(r.Checkin).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// Overlaps reports whether two stays share at least one night.  The
// check-out day of one stay may be the check-in day of the next.
func Overlaps(a, b DateRange) bool {
	return a.Checkin.Before(b.Checkout) && a.Checkout.After(b.Checkin)
}

// ValidateRange checks a requested stay against today's date.  Field
// checks run before the cross-field ordering check; conflicts are the
// caller's concern and must only be checked once this returns nil.
func ValidateRange(today, checkin, checkout time.Time) (DateRange, error) {
	if checkin.IsZero() {
		return DateRange{}, invalid("checkin", ErrMissingDate)
	}
	if checkout.IsZero() {
		return DateRange{}, invalid("checkout", ErrMissingDate)
	}
	in, out := Day(checkin), Day(checkout)
	if in.Before(Day(today)) {
		return DateRange{}, invalid("checkin", ErrPastCheckin)
	}
	if !out.After(in) {
		return DateRange{}, invalid("checkout", ErrInvalidRange)
	}
	return DateRange{Checkin: in, Checkout: out}, nil
}
