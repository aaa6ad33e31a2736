package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/domain"
	"github.com/radityaharya/bus-tracker/internal/scraper"
	"github.com/radityaharya/bus-tracker/internal/store"
	"github.com/radityaharya/bus-tracker/internal/transport"
)

// fakeSupervisorStore serves a fixed EnabledUsersWithRoutes result; the
// rest of the Repository surface is untouched by Supervisor.Start.
type fakeSupervisorStore struct {
	users []store.UserWithRoutes
}

func (f *fakeSupervisorStore) EnabledUsersWithRoutes(ctx context.Context) ([]store.UserWithRoutes, error) {
	return f.users, nil
}
func (f *fakeSupervisorStore) RouteState(ctx context.Context, id string) (domain.RouteState, bool, error) {
	return domain.RouteState{}, false, nil
}
func (f *fakeSupervisorStore) SaveRouteState(ctx context.Context, st domain.RouteState) error {
	return nil
}
func (f *fakeSupervisorStore) Route(ctx context.Context, id string) (domain.Route, bool, error) {
	return domain.Route{}, false, nil
}
func (f *fakeSupervisorStore) Station(ctx context.Context, code string) (domain.Station, bool, error) {
	return domain.Station{}, false, nil
}
func (f *fakeSupervisorStore) UpsertCatalogRoutes(ctx context.Context, routes []domain.Route) error {
	return nil
}
func (f *fakeSupervisorStore) UpsertCatalogStations(ctx context.Context, stations []domain.Station) error {
	return nil
}

type fakeSupervisorNotifier struct {
	mu         sync.Mutex
	userCount  int
	routeCount int
	called     bool
}

func (f *fakeSupervisorNotifier) SendStartup(ctx context.Context, userCount, routeCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	f.userCount = userCount
	f.routeCount = routeCount
	return nil
}

func (f *fakeSupervisorNotifier) SendAvailabilityAlert(ctx context.Context, user domain.User, route domain.TrackedRoute, schedules []domain.BusSchedule) error {
	return nil
}

func newDummyOrchestrator(t *testing.T) *scraper.Orchestrator {
	t.Helper()
	client, err := transport.NewClient("https://example.invalid", zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return scraper.NewOrchestrator(client, "https://example.invalid", zap.NewNop())
}

func TestSupervisorSkipsInvalidRouteButStartsValidOnes(t *testing.T) {
	day, _ := domain.ParseDate("2025-10-12")
	invalidDay, _ := domain.ParseDate("2025-10-01") // before day, inverted window below

	users := []store.UserWithRoutes{{
		User: domain.User{ID: "u1", Enabled: true, WebhookURL: "https://example.test/hook"},
		Routes: []store.RouteWithPassengers{
			{
				Route:      domain.TrackedRoute{ID: "valid", OriginCode: "001", DestCode: "064", DateStart: day, DateEnd: day},
				Passengers: domain.PassengerCount{AdultMen: 1},
			},
			{
				// inverted date window: DateEnd before DateStart
				Route:      domain.TrackedRoute{ID: "bad-dates", OriginCode: "001", DestCode: "064", DateStart: day, DateEnd: invalidDay},
				Passengers: domain.PassengerCount{AdultMen: 1},
			},
			{
				Route:      domain.TrackedRoute{ID: "bad-passengers", OriginCode: "001", DestCode: "064", DateStart: day, DateEnd: day},
				Passengers: domain.PassengerCount{}, // total 0, out of [1,12]
			},
		},
	}}

	repo := &fakeSupervisorStore{users: users}
	notify := &fakeSupervisorNotifier{}
	orch := newDummyOrchestrator(t)

	sup := NewSupervisor(repo, orch, notify, zap.NewNop(), Config{
		DefaultIntervalSeconds: 300,
		MinIntervalSeconds:     5,
		ShutdownDrainTimeout:   time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sup.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	notify.mu.Lock()
	called, userCount, routeCount := notify.called, notify.userCount, notify.routeCount
	notify.mu.Unlock()

	if !called {
		t.Fatal("expected startup notification to be sent")
	}
	if userCount != 1 {
		t.Errorf("userCount = %d, want 1", userCount)
	}
	if routeCount != 1 {
		t.Errorf("routeCount = %d, want 1 (only the valid route should have spawned a task)", routeCount)
	}

	if err := sup.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestSupervisorResolveIntervalClampsToMinimum(t *testing.T) {
	sup := NewSupervisor(&fakeSupervisorStore{}, nil, &fakeSupervisorNotifier{}, zap.NewNop(), Config{
		DefaultIntervalSeconds: 300,
		MinIntervalSeconds:     5,
	})

	if got := sup.resolveInterval(1); got != 5*time.Second {
		t.Errorf("resolveInterval(1) = %v, want 5s (clamped to minimum)", got)
	}
	if got := sup.resolveInterval(0); got != 300*time.Second {
		t.Errorf("resolveInterval(0) = %v, want 300s (default)", got)
	}
	if got := sup.resolveInterval(600); got != 600*time.Second {
		t.Errorf("resolveInterval(600) = %v, want 600s (unchanged)", got)
	}
}

func TestSupervisorShutdownWithoutStartIsNoop(t *testing.T) {
	sup := NewSupervisor(&fakeSupervisorStore{}, nil, &fakeSupervisorNotifier{}, zap.NewNop(), Config{})
	if err := sup.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown before Start: %v", err)
	}
}
