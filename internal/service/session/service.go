package session

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/domain/branch"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
	"github.com/presensia/presence-backend-go/internal/pkg/geo"
	livecache "github.com/presensia/presence-backend-go/internal/pkg/presence"
	"github.com/presensia/presence-backend-go/internal/pkg/sse"
	"github.com/presensia/presence-backend-go/internal/pkg/webhook"
)

type ServiceImpl struct {
	tx           database.TxManager
	sessionRepo  session.Repository
	employeeRepo employee.Repository
	branchRepo   branch.Repository
	pendingRepo  autoclose.PendingRepository

	cache      *livecache.Cache
	hub        *sse.Hub
	dispatcher *webhook.Dispatcher

	now func() time.Time
}

func NewService(
	tx database.TxManager,
	sessionRepo session.Repository,
	employeeRepo employee.Repository,
	branchRepo branch.Repository,
	tenantRepo tenant.Repository,
	pendingRepo autoclose.PendingRepository,
	cache *livecache.Cache,
	hub *sse.Hub,
	notifier webhook.Notifier,
) *ServiceImpl {
	return &ServiceImpl{
		tx:           tx,
		sessionRepo:  sessionRepo,
		employeeRepo: employeeRepo,
		branchRepo:   branchRepo,
		pendingRepo:  pendingRepo,
		cache:        cache,
		hub:          hub,
		dispatcher:   webhook.NewDispatcher(tenantRepo, notifier),
		now:          time.Now,
	}
}

// CheckIn implements session.Service. The repository enforces the single
// open session invariant; a duplicate check-in surfaces ErrOpenSessionExists
// instead of a second open row.
func (s *ServiceImpl) CheckIn(ctx context.Context, tenantID, employeeID string, req session.CheckInRequest) (session.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return session.SessionResponse{}, err
	}
	now := s.now().UTC()

	emp, err := s.employeeRepo.GetByID(ctx, employeeID, tenantID)
	if err != nil {
		return session.SessionResponse{}, err
	}
	if !emp.Active {
		return session.SessionResponse{}, employee.ErrEmployeeInactive
	}

	if err := s.validateLocation(ctx, emp, req.Latitude, req.Longitude, now); err != nil {
		return session.SessionResponse{}, err
	}

	var deviceReportedAt *time.Time
	if req.DeviceReportedAt != nil && *req.DeviceReportedAt != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, *req.DeviceReportedAt); parseErr == nil {
			utc := parsed.UTC()
			deviceReportedAt = &utc
		}
	}

	created, err := s.sessionRepo.Create(ctx, session.Session{
		EmployeeID:       employeeID,
		TenantID:         tenantID,
		CheckInAt:        now,
		DeviceReportedAt: deviceReportedAt,
		CheckInLatitude:  &req.Latitude,
		CheckInLongitude: &req.Longitude,
		CheckInAccuracyM: req.AccuracyMeters,
	})
	if err != nil {
		return session.SessionResponse{}, err
	}
	created.EmployeeName = &emp.FullName

	if s.hub != nil {
		s.hub.Publish(tenantID, sse.Event{
			TenantID: tenantID,
			Event:    "session.checked_in",
			Data: map[string]interface{}{
				"session_id":  created.ID,
				"employee_id": employeeID,
			},
		})
	}

	return toResponse(created), nil
}

// CheckOut implements session.Service. A live countdown for the session is
// cancelled in the same operation so the state machine never fires after a
// manual checkout.
func (s *ServiceImpl) CheckOut(ctx context.Context, tenantID, employeeID string, req session.CheckOutRequest) (session.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return session.SessionResponse{}, err
	}
	now := s.now().UTC()

	open, err := s.sessionRepo.GetOpenSession(ctx, employeeID, tenantID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.SessionResponse{}, session.ErrNotCheckedIn
		}
		return session.SessionResponse{}, err
	}

	open.Closeout(now, session.CheckoutTypeManual, nil, &req.Latitude, &req.Longitude, req.AccuracyMeters)

	// Closing the session and cancelling its countdown commit together.
	var closed session.Session
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		closed, txErr = s.sessionRepo.Close(txCtx, open)
		if txErr != nil {
			return txErr
		}

		if pending, pErr := s.pendingRepo.GetPending(txCtx, employeeID, closed.ID, tenantID); pErr == nil {
			if _, cErr := s.pendingRepo.Cancel(txCtx, pending.ID, tenantID, autoclose.CancelReasonSessionClosed, now); cErr != nil {
				slog.Error("Failed to cancel countdown on manual checkout", "pending_id", pending.ID, "error", cErr)
			}
		}
		return nil
	})
	if err != nil {
		return session.SessionResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, tenantID, employeeID); err != nil {
			slog.Error("Failed to evict live presence on checkout", "employee_id", employeeID, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.Publish(tenantID, sse.Event{
			TenantID: tenantID,
			Event:    "session.checked_out",
			Data: map[string]interface{}{
				"session_id":  closed.ID,
				"employee_id": employeeID,
			},
		})
	}
	s.dispatcher.SessionClosed(ctx, closed)

	return toResponse(closed), nil
}

// Status implements session.Service.
func (s *ServiceImpl) Status(ctx context.Context, tenantID, employeeID string) (session.StatusResponse, error) {
	now := s.now().UTC()

	open, err := s.sessionRepo.GetOpenSession(ctx, employeeID, tenantID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.StatusResponse{HasOpenSession: false}, nil
		}
		return session.StatusResponse{}, err
	}

	resp := session.StatusResponse{HasOpenSession: true}
	openResp := toResponse(open)
	resp.OpenSession = &openResp

	pending, err := s.pendingRepo.GetPending(ctx, employeeID, open.ID, tenantID)
	if err != nil {
		if errors.Is(err, autoclose.ErrPendingNotFound) {
			return resp, nil
		}
		return session.StatusResponse{}, err
	}

	remaining := pending.SecondsRemaining(now)
	resp.CountdownActive = true
	resp.CountdownReason = &pending.Reason
	resp.CountdownEndsAt = &pending.EndsAt
	resp.SecondsRemaining = &remaining
	return resp, nil
}

// Get implements session.Service.
func (s *ServiceImpl) Get(ctx context.Context, tenantID, id string) (session.SessionResponse, error) {
	got, err := s.sessionRepo.GetByID(ctx, id, tenantID)
	if err != nil {
		return session.SessionResponse{}, err
	}
	return toResponse(got), nil
}

// List implements session.Service.
func (s *ServiceImpl) List(ctx context.Context, tenantID string, filter session.Filter) (session.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return session.ListResponse{}, err
	}

	sessions, total, err := s.sessionRepo.List(ctx, filter, tenantID)
	if err != nil {
		return session.ListResponse{}, err
	}

	responses := make([]session.SessionResponse, 0, len(sessions))
	for _, item := range sessions {
		responses = append(responses, toResponse(item))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return session.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Sessions:   responses,
	}, nil
}

// validateLocation rejects a check-in attempted outside the employee's
// permitted area: the active roaming window when one covers this instant,
// the branch geofence otherwise. An employee with neither has no permitted
// area to verify against and is rejected.
func (s *ServiceImpl) validateLocation(ctx context.Context, emp employee.Employee, lat, lng float64, now time.Time) error {
	var fence geo.Fence

	if emp.RoamingWindow != nil && emp.RoamingWindow.Active(now) {
		fence = geo.Fence{
			Latitude:     emp.RoamingWindow.Latitude,
			Longitude:    emp.RoamingWindow.Longitude,
			RadiusMeters: float64(emp.RoamingWindow.RadiusMeters),
		}
	} else {
		if emp.BranchID == nil {
			return branch.ErrBranchNotFound
		}
		b, err := s.branchRepo.GetByID(ctx, *emp.BranchID, emp.TenantID)
		if err != nil {
			return err
		}
		fence = geo.Fence{
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
			RadiusMeters: float64(b.RadiusMeters),
		}
		if emp.GeofenceRadiusMeters != nil {
			fence.RadiusMeters = float64(*emp.GeofenceRadiusMeters)
		}
	}

	distance := geo.HaversineDistance(lat, lng, fence.Latitude, fence.Longitude)
	if distance > fence.RadiusMeters {
		return session.ErrOutsideGeofence
	}
	return nil
}

func toResponse(s session.Session) session.SessionResponse {
	resp := session.SessionResponse{
		ID:                s.ID,
		EmployeeID:        s.EmployeeID,
		EmployeeName:      s.EmployeeName,
		CheckInTime:       s.CheckInAt.Format(time.RFC3339),
		CheckInLatitude:   s.CheckInLatitude,
		CheckInLongitude:  s.CheckInLongitude,
		CheckOutLatitude:  s.CheckOutLatitude,
		CheckOutLongitude: s.CheckOutLongitude,
		CheckoutType:      s.CheckoutType,
		CheckoutReason:    s.CheckoutReason,
		DurationMinutes:   s.DurationMinutes,
	}
	if s.CheckOutAt != nil {
		out := s.CheckOutAt.Format(time.RFC3339)
		resp.CheckOutTime = &out
	}
	return resp
}
