// Package domain holds the plain data types shared by the scraper,
// tracker, and notifier: routes, stations, schedules, passenger counts,
// and the fingerprint-bearing route state.
package domain

import "time"

// User is a tracker operator: someone with one or more TrackedRoutes.
type User struct {
	ID                 string
	Enabled            bool
	PollIntervalSecs   int
	WebhookURL         string
	NotifyOnChangeOnly bool
}

// TimeWindow is an optional departure-time filter, both ends in HH:MM.
type TimeWindow struct {
	Min string
	Max string
}

// Contains reports whether depTime (HH:MM) falls within [Min, Max].
// Comparison is lexicographic, which is total-order-equivalent to
// wall-clock ordering for zero-padded HH:MM strings.
func (w TimeWindow) Contains(depTime string) bool {
	return depTime >= w.Min && depTime <= w.Max
}

// TrackedRoute is a user's monitored query against the booking site.
type TrackedRoute struct {
	ID         string
	UserID     string
	AreaID     string
	RouteID    string
	OriginCode string
	DestCode   string
	DateStart  Date
	DateEnd    Date
	TimeFilter *TimeWindow
}

// PassengerCount is the eight-way breakdown a route is tracked for.
// Persisted 1-to-1 with a TrackedRoute; never inferred at call time.
type PassengerCount struct {
	TrackedRouteID     string
	AdultMen           int
	AdultWomen         int
	ChildMen           int
	ChildWomen         int
	HandicapAdultMen   int
	HandicapAdultWomen int
	HandicapChildMen   int
	HandicapChildWomen int
}

// Total returns the sum of all eight counts.
func (p PassengerCount) Total() int {
	return p.AdultMen + p.AdultWomen + p.ChildMen + p.ChildWomen +
		p.HandicapAdultMen + p.HandicapAdultWomen + p.HandicapChildMen + p.HandicapChildWomen
}

// TotalMale returns the sum of the four male-tagged counts.
func (p PassengerCount) TotalMale() int {
	return p.AdultMen + p.ChildMen + p.HandicapAdultMen + p.HandicapChildMen
}

// TotalFemale returns the sum of the four female-tagged counts.
func (p PassengerCount) TotalFemale() int {
	return p.AdultWomen + p.ChildWomen + p.HandicapAdultWomen + p.HandicapChildWomen
}

// RouteState is the persisted fingerprint and counters for one
// TrackedRoute. Created lazily on first observation.
type RouteState struct {
	TrackedRouteID string
	LastSeenHash   *uint64
	LastCheck      time.Time
	TotalChecks    int64
	TotalAlerts    int64
}

// Route is a catalogue entry for one of the remote's named lines.
type Route struct {
	RouteID     string
	AreaID      string
	DisplayName string
	Changed     bool
}

// Station is a catalogue entry for a stop within an area.
type Station struct {
	Code        string
	DisplayName string
	AreaID      string
	RouteID     string
}

// SeatAvailabilityKind discriminates the three availability states the
// remote site can report for a pricing plan.
type SeatAvailabilityKind int

const (
	SeatUnknown SeatAvailabilityKind = iota
	SeatAvailable
	SeatSoldOut
)

// SeatAvailability is one plan's seat status for the queried passenger
// mix. Remaining is only meaningful when Kind == SeatAvailable, and may
// still be nil there ("available, count unknown").
type SeatAvailability struct {
	Kind      SeatAvailabilityKind
	Remaining *uint32
}

// PricingPlan is a fare variant attached to a bus, with its own
// availability for the queried passenger mix.
type PricingPlan struct {
	PlanID       string
	PlanIndex    int
	PlanName     string
	Price        int
	DisplayPrice string
	WayNo        string
	Availability SeatAvailability
}

// BusSchedule is one scraped departure with its pricing plans.
type BusSchedule struct {
	BusNumber     string
	RouteName     string
	OriginName    string
	DestName      string
	DepartureDate string
	DepartureTime string
	ArrivalDate   string
	ArrivalTime   string
	Plans         []PricingPlan
}
