// Package htmlx extracts bus schedules and seat availability from the
// reservation search page's HTML. The selector set is kept isolated in
// this one package so that when the site's markup changes, only this
// module breaks.
package htmlx

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/radityaharya/bus-tracker/internal/domain"
)

const (
	busListItemSelector = "section.bus-list-item"
	depDaySelector      = ".dep .day"
	depTimeSelector     = ".dep .time"
	arrDaySelector      = ".arr .day"
	arrTimeSelector     = ".arr .time"
	modalHeaderSelector = ".bus-modal-header"
)

var digitsRe = regexp.MustCompile(`\d+`)

// ExtractSchedules parses the HTML body returned by the search endpoint
// for one date into an ordered list of BusSchedule. A structurally
// absent bus list yields an empty, non-error result: "no schedules for
// this date / query."
func ExtractSchedules(html io.Reader) ([]domain.BusSchedule, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, fmt.Errorf("htmlx: parse HTML: %w", err)
	}

	buses := doc.Find(busListItemSelector)
	if buses.Length() == 0 {
		return nil, nil
	}

	schedules := make([]domain.BusSchedule, 0, buses.Length())
	buses.Each(func(idx int, bus *goquery.Selection) {
		i := idx + 1 // 1-based index, matching the seat_{i}/price_{i} class suffix
		schedules = append(schedules, extractOneSchedule(bus, i))
	})
	return schedules, nil
}

func extractOneSchedule(bus *goquery.Selection, i int) domain.BusSchedule {
	header := bus.Find(modalHeaderSelector).First()

	sched := domain.BusSchedule{
		BusNumber:     textTrim(header.Find(".bus-number").First().Text()),
		RouteName:     textTrim(header.Find(".route-name").First().Text()),
		DepartureDate: textTrim(bus.Find(depDaySelector).First().Text()),
		DepartureTime: textTrim(bus.Find(depTimeSelector).First().Text()),
		ArrivalDate:   textTrim(bus.Find(arrDaySelector).First().Text()),
		ArrivalTime:   textTrim(bus.Find(arrTimeSelector).First().Text()),
	}

	sched.Plans = extractPlans(bus, i)
	return sched
}

// extractPlans collects every hidden seat_{i} input and maps each to a
// PricingPlan, pulling price/display/form fields for every plan whatever
// its seat value; the remaining-seat count is read only for plans marked
// available.
func extractPlans(bus *goquery.Selection, i int) []domain.PricingPlan {
	seatClass := fmt.Sprintf("seat_%d", i)
	priceClass := fmt.Sprintf("price_%d", i)

	var plans []domain.PricingPlan

	bus.Find("input." + seatClass).Each(func(_ int, seatInput *goquery.Selection) {
		planIndex, _ := seatInput.Attr("data-index")
		value, _ := seatInput.Attr("value")

		plan := domain.PricingPlan{
			PlanIndex:    atoiOrZero(planIndex),
			Availability: mapSeatValue(value),
		}

		priceInput := bus.Find("input."+priceClass).FilterFunction(func(_ int, s *goquery.Selection) bool {
			idx, _ := s.Attr("data-index")
			return idx == planIndex
		}).First()

		if priceText, ok := priceInput.Attr("value"); ok {
			plan.Price = atoiOrZero(priceText)
		}

		planForm := bus.Find(fmt.Sprintf(`input[name="discntPlanNo"][data-index="%s"]`, planIndex)).First()
		plan.PlanID, _ = planForm.Attr("value")
		if plan.PlanID == "" {
			plan.PlanID = planIndex
		}

		wayInput := bus.Find(fmt.Sprintf(`input[name="wayNo"][data-index="%s"]`, planIndex)).First()
		plan.WayNo, _ = wayInput.Attr("value")

		planNameInput := bus.Find(fmt.Sprintf(`[data-plan-name][data-index="%s"]`, planIndex)).First()
		plan.PlanName = textTrim(planNameInput.Text())

		displayPriceInput := bus.Find(fmt.Sprintf(`.price-display[data-index="%s"]`, planIndex)).First()
		plan.DisplayPrice = textTrim(displayPriceInput.Text())

		if plan.Availability.Kind == domain.SeatAvailable {
			buttonText := bus.Find(fmt.Sprintf(`.plan-button[data-index="%s"]`, planIndex)).First().Text()
			plan.Availability.Remaining = extractRemaining(buttonText)
		}

		plans = append(plans, plan)
	})

	return plans
}

// mapSeatValue implements the open-question-preserving rule from the
// spec: 1 -> available, 2 -> sold out, anything else -> unknown. No
// partial-availability inference is attempted.
func mapSeatValue(v string) domain.SeatAvailability {
	switch v {
	case "1":
		return domain.SeatAvailability{Kind: domain.SeatAvailable}
	case "2":
		return domain.SeatAvailability{Kind: domain.SeatSoldOut}
	default:
		return domain.SeatAvailability{Kind: domain.SeatUnknown}
	}
}

// extractRemaining recovers the remaining-seat count from a plan
// button's visible text via the digit-extraction rule: the first
// integer appearing in the text is the remaining count; absent digits
// yield nil ("available, count unknown").
func extractRemaining(text string) *uint32 {
	match := digitsRe.FindString(text)
	if match == "" {
		return nil
	}
	n, err := strconv.ParseUint(match, 10, 32)
	if err != nil {
		return nil
	}
	v := uint32(n)
	return &v
}

func textTrim(s string) string {
	return strings.TrimSpace(s)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
