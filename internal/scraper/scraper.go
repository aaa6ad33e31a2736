// Package scraper composes the transport client and the xmlx/htmlx
// extractors into the booking site's five-step interrogation hierarchy,
// plus the composite check_availability operation the tracker calls
// once per tick.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/domain"
	"github.com/radityaharya/bus-tracker/internal/htmlx"
	"github.com/radityaharya/bus-tracker/internal/transport"
	"github.com/radityaharya/bus-tracker/internal/xmlx"
)

const (
	pulldownPath = "/gp/ajaxPulldown"
	planListPath = "/gp/reservation/rsvPlanList"
)

// ScrapeRequest bundles everything CheckAvailability and FetchSchedules
// need for one tracked route: built directly from a TrackedRoute plus
// its persisted PassengerCount, never re-derived.
type ScrapeRequest struct {
	AreaID     string
	RouteID    string
	OriginCode string
	DestCode   string
	DateStart  domain.Date
	DateEnd    domain.Date
	Passengers domain.PassengerCount
	TimeFilter *domain.TimeWindow
}

// Orchestrator is stateless across calls apart from the shared
// transport.Client's cookie jar.
type Orchestrator struct {
	client  *transport.Client
	baseURL string
	logger  *zap.Logger
}

// NewOrchestrator builds an Orchestrator over a shared transport.Client.
func NewOrchestrator(client *transport.Client, baseURL string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{client: client, baseURL: baseURL, logger: logger}
}

// FetchRoutes performs mode=line:full.
func (o *Orchestrator) FetchRoutes(ctx context.Context, areaID string) ([]domain.Route, error) {
	body, err := o.postPulldown(ctx, url.Values{"mode": {"line:full"}, "id": {areaID}})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return xmlx.ExtractRoutes(body, areaID)
}

// FetchDepartureStations performs mode=station_geton.
func (o *Orchestrator) FetchDepartureStations(ctx context.Context, routeID string) ([]domain.Station, error) {
	body, err := o.postPulldown(ctx, url.Values{"mode": {"station_geton"}, "id": {routeID}})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return xmlx.ExtractStations(body, "", routeID)
}

// FetchArrivalStations performs mode=station_getoff.
func (o *Orchestrator) FetchArrivalStations(ctx context.Context, routeID, originCode string) ([]domain.Station, error) {
	body, err := o.postPulldown(ctx, url.Values{
		"mode": {"station_getoff"}, "id": {routeID}, "stationcd": {originCode},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return xmlx.ExtractStations(body, "", routeID)
}

// FetchAvailableDates performs mode=date.
func (o *Orchestrator) FetchAvailableDates(ctx context.Context, routeID, originCode, destCode string) ([]domain.Date, error) {
	body, err := o.postPulldown(ctx, url.Values{
		"mode": {"date"}, "id": {routeID}, "onStation": {originCode}, "offStation": {destCode},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return xmlx.ExtractDates(body)
}

// FetchSchedules GETs the reservation planning endpoint for one date
// and passenger mix, returning the schedules the HTML extractor finds.
func (o *Orchestrator) FetchSchedules(ctx context.Context, req ScrapeRequest, date domain.Date) ([]domain.BusSchedule, error) {
	q := url.Values{
		"mode":               {"search"},
		"route":              {req.RouteID},
		"lineId":             {req.RouteID},
		"onStationCd":        {req.OriginCode},
		"offStationCd":       {req.DestCode},
		"bordingDate":        {date.YYYYMMDD()},
		"danseiNum":          {strconv.Itoa(req.Passengers.TotalMale())},
		"zyoseiNum":          {strconv.Itoa(req.Passengers.TotalFemale())},
		"adultMen":           {strconv.Itoa(req.Passengers.AdultMen)},
		"adultWomen":         {strconv.Itoa(req.Passengers.AdultWomen)},
		"childMen":           {strconv.Itoa(req.Passengers.ChildMen)},
		"childWomen":         {strconv.Itoa(req.Passengers.ChildWomen)},
		"handicapAdultMen":   {strconv.Itoa(req.Passengers.HandicapAdultMen)},
		"handicapAdultWomen": {strconv.Itoa(req.Passengers.HandicapAdultWomen)},
		"handicapChildMen":   {strconv.Itoa(req.Passengers.HandicapChildMen)},
		"handicapChildWomen": {strconv.Itoa(req.Passengers.HandicapChildWomen)},
	}

	httpReq, err := http.NewRequest(http.MethodGet, o.baseURL+planListPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: build request: %w", err)
	}

	resp, err := o.client.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return htmlx.ExtractSchedules(resp.Body)
}

// CheckAvailability enumerates every date in [DateStart, DateEnd],
// fetches schedules for each, concatenates them, and applies the
// optional TimeFilter by lexicographic HH:MM comparison.
func (o *Orchestrator) CheckAvailability(ctx context.Context, req ScrapeRequest) ([]domain.BusSchedule, error) {
	dates, err := domain.DateRange(req.DateStart, req.DateEnd)
	if err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}

	var all []domain.BusSchedule
	for _, d := range dates {
		schedules, err := o.FetchSchedules(ctx, req, d)
		if err != nil {
			return nil, fmt.Errorf("scraper: fetch schedules for %s: %w", d, err)
		}
		all = append(all, schedules...)
	}

	if req.TimeFilter == nil {
		return all, nil
	}

	filtered := make([]domain.BusSchedule, 0, len(all))
	for _, s := range all {
		if req.TimeFilter.Contains(s.DepartureTime) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func (o *Orchestrator) postPulldown(ctx context.Context, form url.Values) (io.ReadCloser, error) {
	httpReq, err := http.NewRequest(http.MethodPost, o.baseURL+pulldownPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("scraper: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
