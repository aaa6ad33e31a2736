// Package notifier formats and dispatches availability alerts through
// the configured webhook messaging channel. A notifier failure is
// always logged and returned to the caller; the tracker treats it as
// non-fatal, so a tick never fails because a webhook is unreachable.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/domain"
	"github.com/radityaharya/bus-tracker/internal/store"
	"github.com/radityaharya/bus-tracker/internal/transport"
)

// Notifier is the interface the tracker depends on, so tests can
// substitute a fake instead of standing up an HTTP endpoint.
type Notifier interface {
	SendStartup(ctx context.Context, userCount, routeCount int) error
	SendAvailabilityAlert(ctx context.Context, user domain.User, route domain.TrackedRoute, schedules []domain.BusSchedule) error
}

// embed mirrors a single embed block of the webhook's JSON document.
type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// payload is the webhook's outbound document: a content line plus a
// list of embeds.
type payload struct {
	Content string  `json:"content"`
	Embeds  []embed `json:"embeds"`
}

const (
	colorInfo  = 0x3498db
	colorAlert = 0x2ecc71
)

// WebhookNotifier posts JSON documents to each user's configured
// webhook URL. Station display names are resolved via the shared
// catalogue repository.
type WebhookNotifier struct {
	client            *http.Client
	stations          store.Repository
	logger            *zap.Logger
	startupWebhookURL string
}

// NewWebhookNotifier builds a WebhookNotifier with its own short-timeout
// HTTP client — webhook delivery must never hold up a tick.
// startupWebhookURL may be empty, in which case SendStartup is a no-op
// logged at info level (no operator channel configured for lifecycle
// events).
func NewWebhookNotifier(stations store.Repository, startupWebhookURL string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client:            &http.Client{Timeout: 10 * time.Second},
		stations:          stations,
		logger:            logger,
		startupWebhookURL: startupWebhookURL,
	}
}

// SendStartup posts a static summary message, used by the supervisor
// after it finishes spawning tracker tasks.
func (n *WebhookNotifier) SendStartup(ctx context.Context, userCount, routeCount int) error {
	if n.startupWebhookURL == "" {
		n.logger.Info("no startup webhook configured, skipping lifecycle notification",
			zap.Int("user_count", userCount), zap.Int("route_count", routeCount))
		return nil
	}

	body := payload{
		Content: fmt.Sprintf("Tracker started: watching %d route(s) across %d user(s)", routeCount, userCount),
		Embeds: []embed{{
			Title:       "Bus tracker online",
			Description: fmt.Sprintf("users=%d routes=%d", userCount, routeCount),
			Color:       colorInfo,
		}},
	}
	data, err := json.Marshal(body)
	if err != nil {
		n.logger.Error("failed to marshal startup payload", zap.Error(err))
		return err
	}
	if err := n.post(ctx, n.startupWebhookURL, data); err != nil {
		n.logger.Error("failed to deliver startup notification", zap.Error(err))
		return err
	}
	return nil
}

// SendAvailabilityAlert formats one message for the given schedules and
// posts it to the route owner's webhook. Any failure is logged and
// returned; a user without a webhook URL is skipped with a nil error.
func (n *WebhookNotifier) SendAvailabilityAlert(ctx context.Context, user domain.User, route domain.TrackedRoute, schedules []domain.BusSchedule) error {
	if user.WebhookURL == "" {
		n.logger.Warn("user has no webhook configured, skipping alert",
			zap.String("user_id", user.ID), zap.String("tracked_route_id", route.ID))
		return nil
	}

	originName := n.stationName(ctx, route.OriginCode)
	destName := n.stationName(ctx, route.DestCode)

	body := n.buildPayload(originName, destName, route, schedules)
	data, err := json.Marshal(body)
	if err != nil {
		n.logger.Error("failed to marshal alert payload", zap.Error(err))
		return err
	}

	if err := n.post(ctx, user.WebhookURL, data); err != nil {
		n.logger.Error("failed to deliver availability alert",
			zap.String("webhook_url", transport.RedactSecret(user.WebhookURL)),
			zap.Error(err))
		return err
	}
	return nil
}

func (n *WebhookNotifier) buildPayload(originName, destName string, route domain.TrackedRoute, schedules []domain.BusSchedule) payload {
	embeds := make([]embed, 0, len(schedules))
	for _, s := range schedules {
		embeds = append(embeds, embed{
			Title:       fmt.Sprintf("%s bus %s", s.DepartureTime, s.BusNumber),
			Description: formatScheduleDescription(s),
			Color:       colorAlert,
		})
	}
	return payload{
		Content: fmt.Sprintf("Availability changed: %s -> %s (%s to %s)", originName, destName, route.DateStart, route.DateEnd),
		Embeds:  embeds,
	}
}

func formatScheduleDescription(s domain.BusSchedule) string {
	desc := fmt.Sprintf("Departs %s %s, arrives %s %s\n", s.DepartureDate, s.DepartureTime, s.ArrivalDate, s.ArrivalTime)
	for _, p := range s.Plans {
		desc += fmt.Sprintf("- %s: %s (%s)\n", p.PlanName, formatAvailability(p.Availability), p.DisplayPrice)
	}
	return desc
}

func formatAvailability(a domain.SeatAvailability) string {
	switch a.Kind {
	case domain.SeatAvailable:
		if a.Remaining != nil {
			return fmt.Sprintf("%d seats left", *a.Remaining)
		}
		return "available"
	case domain.SeatSoldOut:
		return "sold out"
	default:
		return "unknown"
	}
}

func (n *WebhookNotifier) stationName(ctx context.Context, code string) string {
	st, ok, err := n.stations.Station(ctx, code)
	if err != nil || !ok {
		return code
	}
	return st.DisplayName
}

func (n *WebhookNotifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
