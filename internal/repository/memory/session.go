package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presensia/presence-backend-go/internal/domain/session"
)

type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: map[string]session.Session{}}
}

func (r *SessionRepo) Create(_ context.Context, s session.Session) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the partial unique index on open rows.
	for _, existing := range r.sessions {
		if existing.EmployeeID == s.EmployeeID && existing.CheckOutAt == nil {
			return session.Session{}, session.ErrOpenSessionExists
		}
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.sessions[s.ID] = s
	return s, nil
}

func (r *SessionRepo) GetByID(_ context.Context, id string, tenantID string) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRepo) GetOpenSession(_ context.Context, employeeID string, tenantID string) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.EmployeeID == employeeID && s.TenantID == tenantID && s.CheckOutAt == nil {
			return s, nil
		}
	}
	return session.Session{}, session.ErrSessionNotFound
}

func (r *SessionRepo) Close(_ context.Context, s session.Session) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[s.ID]
	if !ok || stored.TenantID != s.TenantID {
		return session.Session{}, session.ErrSessionNotFound
	}
	if stored.CheckOutAt != nil {
		return session.Session{}, session.ErrSessionAlreadyClosed
	}

	stored.CheckOutAt = s.CheckOutAt
	stored.CheckOutLatitude = s.CheckOutLatitude
	stored.CheckOutLongitude = s.CheckOutLongitude
	stored.CheckOutAccuracyM = s.CheckOutAccuracyM
	stored.CheckoutType = s.CheckoutType
	stored.CheckoutReason = s.CheckoutReason
	stored.DurationMinutes = s.DurationMinutes
	stored.UpdatedAt = time.Now().UTC()
	r.sessions[s.ID] = stored
	return stored, nil
}

func (r *SessionRepo) List(_ context.Context, filter session.Filter, tenantID string) ([]session.Session, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []session.Session
	for _, s := range r.sessions {
		if s.TenantID != tenantID {
			continue
		}
		if filter.EmployeeID != nil && *filter.EmployeeID != "" && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.OpenOnly && s.CheckOutAt != nil {
			continue
		}
		if filter.CheckoutType != nil && *filter.CheckoutType != "" {
			if s.CheckoutType == nil || *s.CheckoutType != *filter.CheckoutType {
				continue
			}
		}
		if filter.StartDate != nil && *filter.StartDate != "" {
			start, err := time.Parse("2006-01-02", *filter.StartDate)
			if err == nil && s.CheckInAt.Before(start) {
				continue
			}
		}
		if filter.EndDate != nil && *filter.EndDate != "" {
			end, err := time.Parse("2006-01-02", *filter.EndDate)
			if err == nil && !s.CheckInAt.Before(end.AddDate(0, 0, 1)) {
				continue
			}
		}
		matched = append(matched, s)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CheckInAt.After(matched[j].CheckInAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}
