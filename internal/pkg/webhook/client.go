package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClosedSession is the payload delivered to a tenant's downstream consumers
// (payroll, reporting) when a session is finalized. Consumers read it; they
// never mutate core state.
type ClosedSession struct {
	SessionID       string    `json:"session_id"`
	EmployeeID      string    `json:"employee_id"`
	CheckInAt       time.Time `json:"check_in_at"`
	CheckOutAt      time.Time `json:"check_out_at"`
	CheckoutType    string    `json:"checkout_type"`
	CheckoutReason  *string   `json:"checkout_reason,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Notifier delivers closed sessions to per-tenant webhook URLs.
type Notifier interface {
	NotifySessionClosed(ctx context.Context, url string, payload ClosedSession) error
}

type notifier struct {
	client *resty.Client
}

// NewNotifier builds a resty-backed notifier. Retries are the only retry
// mechanism in the system and stay inside this outbound call.
func NewNotifier(timeout time.Duration, retryCount int) Notifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &notifier{client: client}
}

func (n *notifier) NotifySessionClosed(ctx context.Context, url string, payload ClosedSession) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("deliver closed session webhook: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("closed session webhook rejected: status %d", resp.StatusCode())
	}

	return nil
}
