// Package tracker runs one independent periodic probe per
// (user, tracked_route) pair, and the supervisor that spawns and
// gracefully retires them. The per-task ticker/select shape follows
// the config-collector pattern used for comparable per-route polling
// loops: one ticker per unit of work, select on ctx.Done() so a
// shutdown request is honored at the next tick boundary rather than
// mid-tick.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/domain"
	"github.com/radityaharya/bus-tracker/internal/fingerprint"
	"github.com/radityaharya/bus-tracker/internal/notifier"
	"github.com/radityaharya/bus-tracker/internal/scraper"
	"github.com/radityaharya/bus-tracker/internal/store"
)

// Task owns exactly one (user, tracked_route) pair's loop state. The
// scraper, repository, and notifier are shared handles passed in by
// value, never borrowed stack references — each task simply drops its
// references and returns on shutdown.
type Task struct {
	user       domain.User
	route      domain.TrackedRoute
	passengers domain.PassengerCount
	orch       *scraper.Orchestrator
	repo       store.Repository
	notify     notifier.Notifier
	logger     *zap.Logger
	interval   time.Duration
}

// NewTask builds a Task for one tracked route.
func NewTask(user domain.User, route domain.TrackedRoute, passengers domain.PassengerCount,
	orch *scraper.Orchestrator, repo store.Repository, notify notifier.Notifier, logger *zap.Logger, interval time.Duration) *Task {
	return &Task{
		user:       user,
		route:      route,
		passengers: passengers,
		orch:       orch,
		repo:       repo,
		notify:     notify,
		logger:     logger.With(zap.String("tracked_route_id", route.ID), zap.String("user_id", user.ID)),
		interval:   interval,
	}
}

// Run loops until ctx is cancelled. A ticker never queues more than one
// pending tick, so a tick whose work exceeds the interval naturally
// coalesces intervening ticks — the "skip missed ticks" policy falls
// out of time.Ticker's own semantics, no extra bookkeeping needed.
func (t *Task) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker task stopping")
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// tick implements one scheduled execution: scrape, fingerprint,
// compare, conditionally notify, persist. All errors are confined to
// the tick and logged; nothing here panics or escapes to Run.
func (t *Task) tick(ctx context.Context) {
	req := scraper.ScrapeRequest{
		AreaID:     t.route.AreaID,
		RouteID:    t.route.RouteID,
		OriginCode: t.route.OriginCode,
		DestCode:   t.route.DestCode,
		DateStart:  t.route.DateStart,
		DateEnd:    t.route.DateEnd,
		Passengers: t.passengers,
		TimeFilter: t.route.TimeFilter,
	}

	schedules, err := t.orch.CheckAvailability(ctx, req)
	if err != nil {
		t.logger.Error("scrape failed, skipping this tick", zap.Error(err))
		return
	}

	hash := fingerprint.Compute(schedules)

	prior, hadPrior, err := t.repo.RouteState(ctx, t.route.ID)
	if err != nil {
		t.logger.Error("failed to load route state", zap.Error(err))
		return
	}

	unchanged := hadPrior && prior.LastSeenHash != nil && *prior.LastSeenHash == hash

	next := domain.RouteState{
		TrackedRouteID: t.route.ID,
		LastSeenHash:   &hash,
		LastCheck:      time.Now().UTC(),
		TotalChecks:    prior.TotalChecks + 1,
		TotalAlerts:    prior.TotalAlerts,
	}

	if t.user.NotifyOnChangeOnly && unchanged {
		if err := t.repo.SaveRouteState(ctx, next); err != nil {
			t.logger.Error("failed to persist route state", zap.Error(err))
		}
		return
	}

	if err := t.notify.SendAvailabilityAlert(ctx, t.user, t.route, schedules); err != nil {
		t.logger.Error("failed to send availability alert", zap.Error(err))
		// Notification failure never blocks the fingerprint/counter
		// update below — only the webhook delivery is best-effort.
	}
	next.TotalAlerts++

	if err := t.repo.SaveRouteState(ctx, next); err != nil {
		t.logger.Error("failed to persist route state", zap.Error(err))
	}
}
