package domain

import (
	"fmt"
	"time"
)

// Date is a calendar day, compared and formatted without a time-of-day
// or timezone component.
type Date struct {
	t time.Time
}

// ParseDate accepts either "YYYY-MM-DD" or "YYYYMMDD" and normalizes to
// the internal representation. Both forms round-trip through YYYYMMDD().
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t: t}, nil
		}
	}
	return Date{}, fmt.Errorf("domain: invalid date %q, want YYYY-MM-DD or YYYYMMDD", s)
}

// YYYYMMDD renders the date in the remote query's wire format.
func (d Date) YYYYMMDD() string {
	return d.t.Format("20060102")
}

// String renders the date in ISO form.
func (d Date) String() string {
	return d.t.Format("2006-01-02")
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// Equal reports whether d and other represent the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// DateRange enumerates each calendar day in [start, end] inclusive.
func DateRange(start, end Date) ([]Date, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("domain: date range end %s before start %s", end, start)
	}
	var out []Date
	for d := start; d.Before(end) || d.Equal(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out, nil
}
