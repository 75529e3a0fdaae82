package webhook

import (
	"context"
	"log/slog"

	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
)

// Dispatcher resolves a tenant's webhook URL and delivers finalized
// sessions to it. Manual and automatic checkouts go through the same
// payload mapping. Delivery failures are logged, never propagated.
type Dispatcher struct {
	tenantRepo tenant.Repository
	notifier   Notifier
}

func NewDispatcher(tenantRepo tenant.Repository, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		tenantRepo: tenantRepo,
		notifier:   notifier,
	}
}

// SessionClosed posts a closed session to the tenant's webhook, if one is
// configured.
func (d *Dispatcher) SessionClosed(ctx context.Context, closed session.Session) {
	if d.notifier == nil {
		return
	}

	t, err := d.tenantRepo.GetByID(ctx, closed.TenantID)
	if err != nil {
		slog.Error("Failed to resolve tenant for webhook delivery", "tenant_id", closed.TenantID, "error", err)
		return
	}
	if t.WebhookURL == nil || *t.WebhookURL == "" {
		return
	}

	duration := 0
	if closed.DurationMinutes != nil {
		duration = *closed.DurationMinutes
	}
	checkoutType := ""
	if closed.CheckoutType != nil {
		checkoutType = *closed.CheckoutType
	}

	payload := ClosedSession{
		SessionID:       closed.ID,
		EmployeeID:      closed.EmployeeID,
		CheckInAt:       closed.CheckInAt,
		CheckOutAt:      *closed.CheckOutAt,
		CheckoutType:    checkoutType,
		CheckoutReason:  closed.CheckoutReason,
		DurationMinutes: duration,
	}
	if err := d.notifier.NotifySessionClosed(ctx, *t.WebhookURL, payload); err != nil {
		slog.Error("Failed to deliver closed session webhook", "session_id", closed.ID, "error", err)
	}
}
