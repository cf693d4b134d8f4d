package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/commandos-health/commandos/internal/core/events"
	"github.com/resend/resend-go/v2"
)

// Notifier delivers one alert through one channel. Delivery is best
// effort: errors are logged by the subscriber and swallowed.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// RegisterNotifiers subscribes the given notifiers to the alert topic.
func RegisterNotifiers(bus *events.EventBus, logger *slog.Logger, notifiers ...Notifier) {
	for _, n := range notifiers {
		notifier := n
		bus.Subscribe(AlertEventType, func(ctx context.Context, event events.Event) error {
			payload, ok := event.Payload().(map[string]interface{})
			if !ok {
				return fmt.Errorf("unexpected alert payload type %T", event.Payload())
			}
			alert, ok := payload["alert"].(Alert)
			if !ok {
				return fmt.Errorf("missing alert in event payload")
			}
			if err := notifier.Notify(ctx, alert); err != nil {
				// A dropped notification is logged, never retried.
				logger.Warn("audit: alert notification failed", "error", err)
			}
			return nil
		})
	}
}

// WebhookNotifier POSTs the alert as JSON to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// EmailNotifier sends the alert to the security distribution list.
type EmailNotifier struct {
	client *resend.Client
	from   string
	to     string
}

func NewEmailNotifier(apiKey, from, to string) *EmailNotifier {
	return &EmailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, alert Alert) error {
	subject := fmt.Sprintf("[%s] security alert: %s", alert.Severity, alert.EventType)
	text := fmt.Sprintf("Reason: %s\nAction: %s\nIP: %s\nLogged at: %s\nEntry: %d\n",
		alert.Reason, alert.Action, alert.IPAddress, alert.LoggedAt.Format(time.RFC3339), alert.EntryID)

	_, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: subject,
		Text:    text,
	})
	return err
}
