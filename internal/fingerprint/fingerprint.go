// Package fingerprint computes the stable 64-bit availability hash a
// tracker tick compares against the previous observation to decide
// whether anything actually changed.
package fingerprint

import (
	"hash/fnv"
	"strconv"

	"github.com/radityaharya/bus-tracker/internal/domain"
)

// Sentinel tags distinguish the three SeatAvailability variants so a
// transition between them always changes the hash, even when no price
// or remaining-seat number is involved.
const (
	tagAvailableKnown   = "avail"
	tagAvailableUnknown = "avail-unknown"
	tagSoldOut          = "sold-out"
	tagUnknown          = "unknown"
)

// EmptyFingerprint is the constant hash of a zero-schedule observation.
// Repeated empty observations always compare equal.
var EmptyFingerprint = Compute(nil)

// Compute derives a deterministic fingerprint over the schedules
// returned by one tick, in the order the scraper returned them. Two
// observations hash equal iff the user-facing availability picture is
// identical: same dates/times, same plans in the same order, same
// (id, price, availability) triples.
func Compute(schedules []domain.BusSchedule) uint64 {
	h := fnv.New64a()
	for _, s := range schedules {
		writeString(h, s.DepartureDate)
		writeString(h, s.DepartureTime)
		for _, p := range s.Plans {
			writeString(h, p.PlanID)
			writeString(h, strconv.Itoa(p.Price))
			writeString(h, availabilityTag(p.Availability))
		}
	}
	return h.Sum64()
}

func availabilityTag(a domain.SeatAvailability) string {
	switch a.Kind {
	case domain.SeatAvailable:
		if a.Remaining != nil {
			return tagAvailableKnown + ":" + strconv.FormatUint(uint64(*a.Remaining), 10)
		}
		return tagAvailableUnknown
	case domain.SeatSoldOut:
		return tagSoldOut
	default:
		return tagUnknown
	}
}

// writeString feeds s into h with a trailing separator so that
// concatenation boundaries can't be forged by adjacent field values
// (e.g. ("ab","c") vs ("a","bc")).
func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}
