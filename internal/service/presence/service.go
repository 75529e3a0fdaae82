package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/domain/branch"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/domain/heartbeat"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
	"github.com/presensia/presence-backend-go/internal/pkg/geo"
	livecache "github.com/presensia/presence-backend-go/internal/pkg/presence"
	"github.com/presensia/presence-backend-go/internal/pkg/sse"
	"github.com/presensia/presence-backend-go/internal/pkg/webhook"
)

const sweepBatchSize = 100

// ServiceImpl drives the auto-closeout state machine. Every heartbeat runs
// the same pipeline: resolve employee and settings, upsert the latest
// sample, classify the problem, transition the pending countdown and, on
// expiry, close the session.
type ServiceImpl struct {
	tx            database.TxManager
	employeeRepo  employee.Repository
	branchRepo    branch.Repository
	sessionRepo   session.Repository
	heartbeatRepo heartbeat.Repository
	pendingRepo   autoclose.PendingRepository
	settingsRepo  autoclose.SettingsRepository

	cache      *livecache.Cache
	hub        *sse.Hub
	dispatcher *webhook.Dispatcher

	now func() time.Time
}

func NewService(
	tx database.TxManager,
	employeeRepo employee.Repository,
	branchRepo branch.Repository,
	tenantRepo tenant.Repository,
	sessionRepo session.Repository,
	heartbeatRepo heartbeat.Repository,
	pendingRepo autoclose.PendingRepository,
	settingsRepo autoclose.SettingsRepository,
	cache *livecache.Cache,
	hub *sse.Hub,
	notifier webhook.Notifier,
) *ServiceImpl {
	return &ServiceImpl{
		tx:            tx,
		employeeRepo:  employeeRepo,
		branchRepo:    branchRepo,
		sessionRepo:   sessionRepo,
		heartbeatRepo: heartbeatRepo,
		pendingRepo:   pendingRepo,
		settingsRepo:  settingsRepo,
		cache:         cache,
		hub:           hub,
		dispatcher:    webhook.NewDispatcher(tenantRepo, notifier),
		now:           time.Now,
	}
}

// RecordHeartbeat implements heartbeat.Service.
func (s *ServiceImpl) RecordHeartbeat(ctx context.Context, tenantID, employeeID string, req heartbeat.Request) (heartbeat.Result, error) {
	if err := req.Validate(); err != nil {
		return heartbeat.Result{}, err
	}
	now := s.now().UTC()

	emp, err := s.employeeRepo.GetByID(ctx, employeeID, tenantID)
	if err != nil {
		return heartbeat.Result{}, err
	}
	if !emp.Active {
		return heartbeat.Result{}, employee.ErrEmployeeInactive
	}

	open, err := s.sessionRepo.GetOpenSession(ctx, employeeID, tenantID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return heartbeat.Result{}, session.ErrNotCheckedIn
		}
		return heartbeat.Result{}, err
	}
	if open.ID != req.SessionID {
		// The claimed session is not this employee's open session under
		// this tenant. Reject loudly instead of silently filtering.
		return heartbeat.Result{}, tenant.ErrTenantMismatch
	}

	settings, err := s.settingsRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, autoclose.ErrSettingsNotFound) {
			return heartbeat.Result{}, err
		}
		settings = autoclose.DefaultSettings(tenantID)
	}

	insideArea, signalUsable := req.InsideArea, req.SignalUsable
	if req.Latitude != nil && req.Longitude != nil {
		// A raw sample outranks the client's own verdict.
		if health, ok := s.evaluateSample(ctx, emp, req, now, settings.MaxAccuracyMeters); ok {
			insideArea, signalUsable = health.InsideArea, health.SignalUsable
		}
	}

	isProblem := !signalUsable || !insideArea
	var reason *string
	if !signalUsable {
		r := session.ReasonGPSBlocked
		reason = &r
	} else if !insideArea {
		r := session.ReasonOutsideBranch
		reason = &r
	}

	hb := heartbeat.Heartbeat{
		EmployeeID:     employeeID,
		TenantID:       tenantID,
		SessionID:      open.ID,
		LastSeenAt:     now,
		InsideArea:     insideArea,
		SignalUsable:   signalUsable,
		ProblemReason:  reason,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
	}
	if err := s.heartbeatRepo.Upsert(ctx, hb); err != nil {
		return heartbeat.Result{}, err
	}

	if !settings.Enabled {
		s.publishLive(ctx, tenantID, hb, nil)
		return heartbeat.Result{AutoCloseoutEnabled: false}, nil
	}

	result, countdownEndsAt, err := s.transition(ctx, tenantID, employeeID, open, settings, isProblem, reason, req, now)
	if err != nil {
		return heartbeat.Result{}, err
	}

	result.AutoCloseoutEnabled = true
	result.Config = &heartbeat.ClientConfig{
		SampleIntervalSeconds: settings.SampleIntervalSeconds,
		ConfirmSamples:        settings.ConfirmSamples,
		MaxAccuracyMeters:     settings.MaxAccuracyMeters,
	}

	s.publishLive(ctx, tenantID, hb, countdownEndsAt)
	return result, nil
}

// transition applies the countdown rules for one heartbeat. Recovery is
// evaluated strictly before expiry, so an employee who returned late never
// gets auto-closed by the same call that observed the return.
func (s *ServiceImpl) transition(
	ctx context.Context,
	tenantID, employeeID string,
	open session.Session,
	settings autoclose.Settings,
	isProblem bool,
	reason *string,
	req heartbeat.Request,
	now time.Time,
) (heartbeat.Result, *time.Time, error) {
	if !isProblem {
		pending, err := s.pendingRepo.GetPending(ctx, employeeID, open.ID, tenantID)
		if err != nil {
			if errors.Is(err, autoclose.ErrPendingNotFound) {
				return heartbeat.Result{Status: heartbeat.StatusOK}, nil, nil
			}
			return heartbeat.Result{}, nil, err
		}

		cancelled, err := s.pendingRepo.Cancel(ctx, pending.ID, tenantID, autoclose.CancelReasonRecovered, now)
		if err != nil {
			return heartbeat.Result{}, nil, err
		}
		if !cancelled {
			// Lost the transition to a concurrent call; the row is
			// settled either way.
			return heartbeat.Result{Status: heartbeat.StatusOK}, nil, nil
		}

		cancelReason := autoclose.CancelReasonRecovered
		return heartbeat.Result{
			Status:       heartbeat.StatusPendingCancelled,
			CancelReason: &cancelReason,
		}, nil, nil
	}

	// Problem present. Each fresh episode gets its own full-length grace
	// period; terminal rows for this pair are history, never a resumption
	// point.
	pending, created, err := s.pendingRepo.CreateIfAbsent(ctx, autoclose.Pending{
		EmployeeID: employeeID,
		TenantID:   tenantID,
		SessionID:  open.ID,
		Reason:     *reason,
		EndsAt:     now.Add(settings.GracePeriod()),
	})
	if err != nil {
		return heartbeat.Result{}, nil, err
	}

	if created || now.Before(pending.EndsAt) {
		remaining := pending.SecondsRemaining(now)
		status := heartbeat.StatusPendingActive
		if created {
			status = heartbeat.StatusPendingCreated
		}
		return heartbeat.Result{
			Status:           status,
			Reason:           &pending.Reason,
			EndsAt:           &pending.EndsAt,
			SecondsRemaining: &remaining,
		}, &pending.EndsAt, nil
	}

	// Countdown ran out while the problem persists.
	closed, alreadyClosed, err := s.executeCloseout(ctx, pending, req.Latitude, req.Longitude, req.AccuracyMeters, now)
	if err != nil {
		return heartbeat.Result{}, nil, err
	}
	if alreadyClosed || !closed {
		return heartbeat.Result{
			Status: heartbeat.StatusSessionClosed,
			Reason: &pending.Reason,
		}, nil, nil
	}

	return heartbeat.Result{
		Status: heartbeat.StatusAutoClosed,
		Reason: &pending.Reason,
	}, nil, nil
}

// executeCloseout settles an expired pending row and closes its session,
// both inside one transaction; the event and webhook fire after commit.
// Returns (closed by this call, session was already closed, error). Marking
// the row DONE first claims it, so two concurrent observers of the same
// expiry produce one checkout and one webhook.
func (s *ServiceImpl) executeCloseout(ctx context.Context, pending autoclose.Pending, lat, lng, accuracy *float64, now time.Time) (bool, bool, error) {
	var closed session.Session
	var won, alreadyClosed bool

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		won, err = s.pendingRepo.Complete(txCtx, pending.ID, pending.TenantID, now)
		if err != nil || !won {
			return err
		}

		target, err := s.sessionRepo.GetByID(txCtx, pending.SessionID, pending.TenantID)
		if err != nil {
			return fmt.Errorf("failed to load session for auto-closeout: %w", err)
		}

		target.Closeout(now, session.CheckoutTypeAuto, &pending.Reason, lat, lng, accuracy)

		closed, err = s.sessionRepo.Close(txCtx, target)
		if err != nil {
			if errors.Is(err, session.ErrSessionAlreadyClosed) {
				// Manual checkout won the race. The pending row stays DONE;
				// the session keeps its manual check-out untouched.
				alreadyClosed = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	if !won || alreadyClosed {
		return false, alreadyClosed, nil
	}

	if s.hub != nil {
		s.hub.Publish(pending.TenantID, sse.Event{
			TenantID: pending.TenantID,
			Event:    "session.auto_closed",
			Data: map[string]interface{}{
				"session_id":  closed.ID,
				"employee_id": closed.EmployeeID,
				"reason":      pending.Reason,
			},
		})
	}
	s.dispatcher.SessionClosed(ctx, closed)

	return true, false, nil
}

// SweepExpired finalizes countdowns whose deadline passed without a
// heartbeat arriving to observe the expiry. Returns the number of sessions
// closed.
func (s *ServiceImpl) SweepExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()

	expired, err := s.pendingRepo.ListExpired(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, pending := range expired {
		didClose, _, err := s.executeCloseout(ctx, pending, nil, nil, nil, now)
		if err != nil {
			slog.Error("Sweep: failed to close expired countdown",
				"pending_id", pending.ID,
				"session_id", pending.SessionID,
				"error", err)
			continue
		}
		if didClose {
			closed++
		}
	}

	return closed, nil
}

// GetSettings implements autoclose.SettingsService.
func (s *ServiceImpl) GetSettings(ctx context.Context, tenantID string) (autoclose.Settings, error) {
	settings, err := s.settingsRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, autoclose.ErrSettingsNotFound) {
			return autoclose.DefaultSettings(tenantID), nil
		}
		return autoclose.Settings{}, err
	}
	return settings, nil
}

// UpdateSettings implements autoclose.SettingsService.
func (s *ServiceImpl) UpdateSettings(ctx context.Context, tenantID string, settings autoclose.Settings) (autoclose.Settings, error) {
	settings.TenantID = tenantID
	if err := settings.Validate(); err != nil {
		return autoclose.Settings{}, err
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return autoclose.Settings{}, err
	}
	return settings, nil
}

func (s *ServiceImpl) evaluateSample(ctx context.Context, emp employee.Employee, req heartbeat.Request, now time.Time, maxAccuracyMeters float64) (geo.Health, bool) {
	fence, ok := s.resolveFence(ctx, emp, now)
	if !ok {
		return geo.Health{}, false
	}

	accuracy := 0.0
	if req.AccuracyMeters != nil {
		accuracy = *req.AccuracyMeters
	}

	return geo.Evaluate(geo.Sample{
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		AccuracyMeters: accuracy,
	}, fence, maxAccuracyMeters), true
}

// resolveFence returns the employee's permitted area: the roaming window's
// own bounds while the window is active, the branch geofence otherwise. The
// employee's radius override, when set, wins over the branch radius.
func (s *ServiceImpl) resolveFence(ctx context.Context, emp employee.Employee, now time.Time) (geo.Fence, bool) {
	if emp.RoamingWindow != nil && emp.RoamingWindow.Active(now) {
		return geo.Fence{
			Latitude:     emp.RoamingWindow.Latitude,
			Longitude:    emp.RoamingWindow.Longitude,
			RadiusMeters: float64(emp.RoamingWindow.RadiusMeters),
		}, true
	}

	b, err := s.branchRepo.GetByEmployeeID(ctx, emp.ID, emp.TenantID)
	if err != nil {
		if !errors.Is(err, branch.ErrBranchNotFound) {
			slog.Error("Failed to resolve branch geofence", "employee_id", emp.ID, "error", err)
		}
		return geo.Fence{}, false
	}

	radius := float64(b.RadiusMeters)
	if emp.GeofenceRadiusMeters != nil {
		radius = float64(*emp.GeofenceRadiusMeters)
	}

	return geo.Fence{
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		RadiusMeters: radius,
	}, true
}

// publishLive refreshes the Redis live view and notifies dashboard
// subscribers. Both are best-effort; the database rows stay authoritative.
func (s *ServiceImpl) publishLive(ctx context.Context, tenantID string, hb heartbeat.Heartbeat, countdownEndsAt *time.Time) {
	if s.cache != nil {
		live := livecache.Live{
			EmployeeID:      hb.EmployeeID,
			SessionID:       hb.SessionID,
			LastSeenAt:      hb.LastSeenAt,
			InsideArea:      hb.InsideArea,
			SignalUsable:    hb.SignalUsable,
			ProblemReason:   hb.ProblemReason,
			CountdownEndsAt: countdownEndsAt,
		}
		if err := s.cache.Set(ctx, tenantID, live); err != nil {
			slog.Error("Failed to refresh live presence cache", "employee_id", hb.EmployeeID, "error", err)
		}
	}

	if s.hub != nil {
		s.hub.Publish(tenantID, sse.Event{
			TenantID: tenantID,
			Event:    "presence.updated",
			Data: map[string]interface{}{
				"employee_id":       hb.EmployeeID,
				"session_id":        hb.SessionID,
				"last_seen_at":      hb.LastSeenAt,
				"inside_area":       hb.InsideArea,
				"signal_usable":     hb.SignalUsable,
				"problem_reason":    hb.ProblemReason,
				"countdown_ends_at": countdownEndsAt,
			},
		})
	}
}

