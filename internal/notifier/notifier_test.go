package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/domain"
	"github.com/radityaharya/bus-tracker/internal/store"
)

// fakeRepository satisfies store.Repository with just enough behavior
// for notifier tests: a fixed station catalogue, everything else unused.
type fakeRepository struct {
	stations map[string]domain.Station
}

func (f *fakeRepository) EnabledUsersWithRoutes(ctx context.Context) ([]store.UserWithRoutes, error) {
	return nil, nil
}
func (f *fakeRepository) RouteState(ctx context.Context, id string) (domain.RouteState, bool, error) {
	return domain.RouteState{}, false, nil
}
func (f *fakeRepository) SaveRouteState(ctx context.Context, st domain.RouteState) error { return nil }
func (f *fakeRepository) Route(ctx context.Context, id string) (domain.Route, bool, error) {
	return domain.Route{}, false, nil
}
func (f *fakeRepository) Station(ctx context.Context, code string) (domain.Station, bool, error) {
	st, ok := f.stations[code]
	return st, ok, nil
}
func (f *fakeRepository) UpsertCatalogRoutes(ctx context.Context, routes []domain.Route) error {
	return nil
}
func (f *fakeRepository) UpsertCatalogStations(ctx context.Context, stations []domain.Station) error {
	return nil
}

func TestSendAvailabilityAlertPostsPayload(t *testing.T) {
	var captured payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeRepository{stations: map[string]domain.Station{
		"001": {Code: "001", DisplayName: "Shinjuku"},
		"064": {Code: "064", DisplayName: "Osaka"},
	}}
	n := NewWebhookNotifier(repo, "", zap.NewNop())

	start, _ := domain.ParseDate("2025-10-12")
	user := domain.User{ID: "u1", WebhookURL: srv.URL}
	route := domain.TrackedRoute{ID: "r1", OriginCode: "001", DestCode: "064", DateStart: start, DateEnd: start}
	remaining := uint32(1)
	schedules := []domain.BusSchedule{{
		BusNumber: "1234", DepartureTime: "08:00",
		Plans: []domain.PricingPlan{{PlanName: "Normal", DisplayPrice: "2200 yen", Availability: domain.SeatAvailability{Kind: domain.SeatAvailable, Remaining: &remaining}}},
	}}

	if err := n.SendAvailabilityAlert(context.Background(), user, route, schedules); err != nil {
		t.Fatalf("SendAvailabilityAlert: %v", err)
	}
	if len(captured.Embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(captured.Embeds))
	}
	if captured.Content == "" {
		t.Error("expected non-empty content")
	}
}

func TestSendAvailabilityAlertSkipsWithoutWebhook(t *testing.T) {
	repo := &fakeRepository{stations: map[string]domain.Station{}}
	n := NewWebhookNotifier(repo, "", zap.NewNop())
	user := domain.User{ID: "u1"}
	err := n.SendAvailabilityAlert(context.Background(), user, domain.TrackedRoute{}, nil)
	if err != nil {
		t.Fatalf("expected nil error when webhook URL is absent, got %v", err)
	}
}

func TestSendAvailabilityAlertFailureIsReturnedNotPanicked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := &fakeRepository{stations: map[string]domain.Station{}}
	n := NewWebhookNotifier(repo, "", zap.NewNop())
	user := domain.User{ID: "u1", WebhookURL: srv.URL}
	err := n.SendAvailabilityAlert(context.Background(), user, domain.TrackedRoute{}, nil)
	if err == nil {
		t.Fatal("expected error to be surfaced to the caller (tracker decides to swallow it)")
	}
}

func TestSendStartupNoopWithoutConfiguredWebhook(t *testing.T) {
	repo := &fakeRepository{}
	n := NewWebhookNotifier(repo, "", zap.NewNop())
	if err := n.SendStartup(context.Background(), 3, 5); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendStartupPostsWhenConfigured(t *testing.T) {
	var captured payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &fakeRepository{}
	n := NewWebhookNotifier(repo, srv.URL, zap.NewNop())
	if err := n.SendStartup(context.Background(), 2, 4); err != nil {
		t.Fatalf("SendStartup: %v", err)
	}
	if len(captured.Embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(captured.Embeds))
	}
}
