// Package handler exposes the small admin/health HTTP surface an
// operator uses to see that the tracker is alive and how each route is
// doing, following the teacher's JSON-envelope response convention.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/store"
)

// Router holds the collaborators the admin surface reads from. It
// never writes tracker state — only the tracker package does that.
type Router struct {
	Store  store.Repository
	Logger *zap.Logger
}

// NewRouter builds a Router over the shared repository.
func NewRouter(s store.Repository, l *zap.Logger) *Router {
	return &Router{Store: s, Logger: l}
}

// routeStatus is one tracked route's health, as reported to an operator.
type routeStatus struct {
	TrackedRouteID string    `json:"tracked_route_id"`
	UserID         string    `json:"user_id"`
	LastCheck      time.Time `json:"last_check,omitempty"`
	TotalChecks    int64     `json:"total_checks"`
	TotalAlerts    int64     `json:"total_alerts"`
	Observed       bool      `json:"observed"`
}

// HandleHealth reports liveness; it never touches the store.
func (router *Router) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleStatus lists every enabled user's tracked routes together with
// their per-route check/alert counters.
func (router *Router) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := router.Store.EnabledUsersWithRoutes(ctx)
	if err != nil {
		router.Logger.Error("failed to load users for status endpoint", zap.Error(err))
		http.Error(w, "failed to load status", http.StatusInternalServerError)
		return
	}

	statuses := router.collectStatuses(ctx, users)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"metadata": map[string]bool{"success": true},
		"data":     statuses,
	})
}

func (router *Router) collectStatuses(ctx context.Context, users []store.UserWithRoutes) []routeStatus {
	var out []routeStatus
	for _, uw := range users {
		for _, rp := range uw.Routes {
			st, ok, err := router.Store.RouteState(ctx, rp.Route.ID)
			if err != nil {
				router.Logger.Warn("failed to load route state for status endpoint",
					zap.String("tracked_route_id", rp.Route.ID), zap.Error(err))
				continue
			}
			out = append(out, routeStatus{
				TrackedRouteID: rp.Route.ID,
				UserID:         uw.User.ID,
				LastCheck:      st.LastCheck,
				TotalChecks:    st.TotalChecks,
				TotalAlerts:    st.TotalAlerts,
				Observed:       ok,
			})
		}
	}
	return out
}
