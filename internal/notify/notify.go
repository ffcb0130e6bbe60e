package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// Notifier delivers day-over-day inventory alerts.
type Notifier interface {
	Notify(ctx context.Context, event domain.AlertEvent) error
}

// FormatAlert is the text posted for an alert.
func FormatAlert(e domain.AlertEvent) string {
	return fmt.Sprintf("Inventory diff is %d from yesterday. Date: %s.", e.Difference, e.Date)
}

// New returns a Slack notifier, or a noop one when webhookURL is empty.
func New(webhookURL string) Notifier {
	if webhookURL == "" {
		log.Info().Msg("slack webhook not configured, alerts will only be logged")
		return noopNotifier{}
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SlackNotifier posts alerts to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func (s *SlackNotifier) Notify(ctx context.Context, event domain.AlertEvent) error {
	msg := &slack.WebhookMessage{Text: FormatAlert(event)}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("post slack alert: %w", err)
	}
	log.Info().Int("difference", event.Difference).Str("date", event.Date).Msg("inventory alert sent")
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, event domain.AlertEvent) error {
	log.Warn().Int("difference", event.Difference).Str("date", event.Date).Msg(FormatAlert(event))
	return nil
}
