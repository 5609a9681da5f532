// Package notify delivers booking events to an outbound webhook. Delivery is
// strictly best-effort: a failure is logged and counted, never propagated to
// the operation that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"nursecare/internal/events"
	"nursecare/internal/metrics"
)

// Config holds webhook notifier settings.
type Config struct {
	WebhookURL string
	AdminEmail string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// WebhookNotifier posts event payloads to a configured webhook URL.
type WebhookNotifier struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// NewWebhookNotifier creates a notifier. An empty WebhookURL disables
// delivery entirely; events are dropped silently.
func NewWebhookNotifier(cfg Config, logger *zerolog.Logger) *WebhookNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &WebhookNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		logger:     logger,
	}
}

// SubscribeTo attaches the notifier to the booking event types on the bus.
func (n *WebhookNotifier) SubscribeTo(bus *events.EventBus) {
	handler := func(e events.Event) error {
		n.Deliver(context.Background(), e.Type, e.Payload)
		return nil
	}
	bus.Subscribe(events.TypeBookingConfirmed, handler)
	bus.Subscribe(events.TypeStatusChanged, handler)
}

// Deliver posts the payload to the webhook. Errors are swallowed after
// logging; the committed booking or status change stands regardless.
func (n *WebhookNotifier) Deliver(ctx context.Context, eventType string, payload []byte) {
	if n.cfg.WebhookURL == "" {
		return
	}

	body, err := n.withAdminEmail(payload)
	if err != nil {
		n.logger.Error().Err(err).Str("event", eventType).Msg("notification payload rejected")
		metrics.IncNotificationFailed()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warn().Err(err).Str("event", eventType).Msg("notification dropped by rate limiter")
		metrics.IncNotificationFailed()
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error().Err(err).Str("event", eventType).Msg("build notification request")
		metrics.IncNotificationFailed()
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn().Err(err).Str("event", eventType).Msg("notification delivery failed")
		metrics.IncNotificationFailed()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn().Int("status", resp.StatusCode).Str("event", eventType).
			Msg("notification sink returned non-success")
		metrics.IncNotificationFailed()
		return
	}

	metrics.IncNotificationSent()
	n.logger.Debug().Str("event", eventType).Msg("notification delivered")
}

// withAdminEmail injects the configured admin address into the outgoing
// payload so the sink can CC the clinic.
func (n *WebhookNotifier) withAdminEmail(payload []byte) ([]byte, error) {
	if n.cfg.AdminEmail == "" {
		return payload, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	m["adminEmail"] = n.cfg.AdminEmail
	return json.Marshal(m)
}
