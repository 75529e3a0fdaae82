package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/domain/heartbeat"
)

type HeartbeatRepo struct {
	mu         sync.RWMutex
	heartbeats map[string]heartbeat.Heartbeat
}

func NewHeartbeatRepo() *HeartbeatRepo {
	return &HeartbeatRepo{heartbeats: map[string]heartbeat.Heartbeat{}}
}

func (r *HeartbeatRepo) Upsert(_ context.Context, hb heartbeat.Heartbeat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hb.UpdatedAt = time.Now().UTC()
	r.heartbeats[hb.EmployeeID] = hb
	return nil
}

func (r *HeartbeatRepo) Get(_ context.Context, employeeID string, tenantID string) (heartbeat.Heartbeat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hb, ok := r.heartbeats[employeeID]
	if !ok || hb.TenantID != tenantID {
		return heartbeat.Heartbeat{}, heartbeat.ErrHeartbeatNotFound
	}
	return hb, nil
}

type PendingRepo struct {
	mu       sync.RWMutex
	pendings map[string]autoclose.Pending
}

func NewPendingRepo() *PendingRepo {
	return &PendingRepo{pendings: map[string]autoclose.Pending{}}
}

func (r *PendingRepo) CreateIfAbsent(_ context.Context, p autoclose.Pending) (autoclose.Pending, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the partial unique index on live rows: terminal rows never
	// block a new episode and never lend it their deadline.
	for _, existing := range r.pendings {
		if existing.EmployeeID == p.EmployeeID && existing.SessionID == p.SessionID &&
			existing.Status == autoclose.StatusPending {
			return existing, false, nil
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = autoclose.StatusPending
	p.CreatedAt = time.Now().UTC()
	r.pendings[p.ID] = p
	return p, true, nil
}

func (r *PendingRepo) GetPending(_ context.Context, employeeID, sessionID, tenantID string) (autoclose.Pending, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.pendings {
		if p.EmployeeID == employeeID && p.SessionID == sessionID && p.TenantID == tenantID &&
			p.Status == autoclose.StatusPending {
			return p, nil
		}
	}
	return autoclose.Pending{}, autoclose.ErrPendingNotFound
}

func (r *PendingRepo) Cancel(_ context.Context, id, tenantID, reason string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pendings[id]
	if !ok || p.TenantID != tenantID || p.Status != autoclose.StatusPending {
		return false, nil
	}

	p.Status = autoclose.StatusCancelled
	p.CancelledAt = &at
	p.CancelReason = &reason
	r.pendings[id] = p
	return true, nil
}

func (r *PendingRepo) Complete(_ context.Context, id, tenantID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pendings[id]
	if !ok || p.TenantID != tenantID || p.Status != autoclose.StatusPending {
		return false, nil
	}

	p.Status = autoclose.StatusDone
	p.DoneAt = &at
	r.pendings[id] = p
	return true, nil
}

func (r *PendingRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]autoclose.Pending, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []autoclose.Pending
	for _, p := range r.pendings {
		if p.Status == autoclose.StatusPending && p.Expired(now) {
			expired = append(expired, p)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].EndsAt.Before(expired[j].EndsAt)
	})

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// Get returns any row by id regardless of status, for test assertions.
func (r *PendingRepo) Get(id string) (autoclose.Pending, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pendings[id]
	return p, ok
}

type SettingsRepo struct {
	mu       sync.RWMutex
	settings map[string]autoclose.Settings
}

func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{settings: map[string]autoclose.Settings{}}
}

func (r *SettingsRepo) GetByTenant(_ context.Context, tenantID string) (autoclose.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settings[tenantID]
	if !ok {
		return autoclose.Settings{}, autoclose.ErrSettingsNotFound
	}
	return s, nil
}

func (r *SettingsRepo) Upsert(_ context.Context, s autoclose.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.UpdatedAt = time.Now().UTC()
	r.settings[s.TenantID] = s
	return nil
}
