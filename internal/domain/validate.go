package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a validation failure in user-supplied route or
// passenger configuration. Fatal at startup for the single affected
// route; never for the whole supervisor.
var ErrConfiguration = errors.New("domain: configuration error")

// Validate enforces the passenger-count invariants: total in [1, 12],
// and that the male/female split accounts for every passenger.
func (p PassengerCount) Validate() error {
	total := p.Total()
	if total < 1 || total > 12 {
		return fmt.Errorf("%w: passenger total %d out of range [1, 12]", ErrConfiguration, total)
	}
	if p.TotalMale()+p.TotalFemale() != total {
		return fmt.Errorf("%w: male+female split %d does not match total %d", ErrConfiguration, p.TotalMale()+p.TotalFemale(), total)
	}
	for _, n := range []int{p.AdultMen, p.AdultWomen, p.ChildMen, p.ChildWomen,
		p.HandicapAdultMen, p.HandicapAdultWomen, p.HandicapChildMen, p.HandicapChildWomen} {
		if n < 0 {
			return fmt.Errorf("%w: passenger counts must be non-negative", ErrConfiguration)
		}
	}
	return nil
}

// Validate enforces that the date window is non-inverted and that any
// time filter has a sane [min, max] ordering.
func (r TrackedRoute) Validate() error {
	if r.DateEnd.Before(r.DateStart) {
		return fmt.Errorf("%w: date_end %s before date_start %s", ErrConfiguration, r.DateEnd, r.DateStart)
	}
	if r.TimeFilter != nil && r.TimeFilter.Max < r.TimeFilter.Min {
		return fmt.Errorf("%w: time filter max %s before min %s", ErrConfiguration, r.TimeFilter.Max, r.TimeFilter.Min)
	}
	if r.OriginCode == "" || r.DestCode == "" {
		return fmt.Errorf("%w: origin and destination station codes are required", ErrConfiguration)
	}
	return nil
}
