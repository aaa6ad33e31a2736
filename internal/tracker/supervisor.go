package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/notifier"
	"github.com/radityaharya/bus-tracker/internal/scraper"
	"github.com/radityaharya/bus-tracker/internal/store"
)

// Config holds the supervisor's own tunables — none of these are part
// of the out-of-scope seeding/UI surface, so they're first-class here.
type Config struct {
	DefaultIntervalSeconds int
	MinIntervalSeconds     int
	ShutdownDrainTimeout   time.Duration
}

// Supervisor loads the active user/route set at startup, spawns one
// Task per valid tracked route, and drains them cleanly on shutdown.
type Supervisor struct {
	repo   store.Repository
	orch   *scraper.Orchestrator
	notify notifier.Notifier
	logger *zap.Logger
	cfg    Config
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSupervisor builds a Supervisor over its shared collaborators.
func NewSupervisor(repo store.Repository, orch *scraper.Orchestrator, notify notifier.Notifier, logger *zap.Logger, cfg Config) *Supervisor {
	if cfg.DefaultIntervalSeconds <= 0 {
		cfg.DefaultIntervalSeconds = 300
	}
	if cfg.MinIntervalSeconds <= 0 {
		cfg.MinIntervalSeconds = 5
	}
	if cfg.ShutdownDrainTimeout <= 0 {
		cfg.ShutdownDrainTimeout = 30 * time.Second
	}
	return &Supervisor{repo: repo, orch: orch, notify: notify, logger: logger, cfg: cfg}
}

// Start loads every enabled user's tracked routes in one query, skips
// and logs any route that fails passenger/date validation without
// aborting the rest, and spawns one tracker goroutine per valid route.
func (s *Supervisor) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	users, err := s.repo.EnabledUsersWithRoutes(runCtx)
	if err != nil {
		return err
	}

	routeCount := 0
	for _, uw := range users {
		for _, rp := range uw.Routes {
			if err := rp.Route.Validate(); err != nil {
				s.logger.Error("skipping tracked route: invalid route configuration",
					zap.String("tracked_route_id", rp.Route.ID), zap.Error(err))
				continue
			}
			if err := rp.Passengers.Validate(); err != nil {
				s.logger.Error("skipping tracked route: invalid passenger configuration",
					zap.String("tracked_route_id", rp.Route.ID), zap.Error(err))
				continue
			}

			interval := s.resolveInterval(uw.User.PollIntervalSecs)
			task := NewTask(uw.User, rp.Route, rp.Passengers, s.orch, s.repo, s.notify, s.logger, interval)

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				task.Run(runCtx)
			}()
			routeCount++
		}
	}

	s.logger.Info("tracker supervisor started", zap.Int("user_count", len(users)), zap.Int("route_count", routeCount))

	if err := s.notify.SendStartup(runCtx, len(users), routeCount); err != nil {
		s.logger.Warn("failed to send startup notification", zap.Error(err))
	}

	return nil
}

// resolveInterval enforces the minimum poll interval and falls back to
// the configured default when the user hasn't set one.
func (s *Supervisor) resolveInterval(userSeconds int) time.Duration {
	secs := userSeconds
	if secs <= 0 {
		secs = s.cfg.DefaultIntervalSeconds
	}
	if secs < s.cfg.MinIntervalSeconds {
		secs = s.cfg.MinIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// Shutdown cancels every running task's context and waits up to the
// drain deadline for them to exit at their next tick boundary.
func (s *Supervisor) Shutdown(drainTimeout time.Duration) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	if drainTimeout <= 0 {
		drainTimeout = s.cfg.ShutdownDrainTimeout
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("tracker supervisor drained cleanly")
		return nil
	case <-time.After(drainTimeout):
		s.logger.Warn("tracker supervisor drain deadline exceeded, some tasks may still be running")
		return nil
	}
}
