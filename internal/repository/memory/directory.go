// Package memory provides mutex-guarded in-memory implementations of the
// domain repositories. They reproduce the structural guarantees of the
// PostgreSQL layer (single open session, at-most-one-PENDING) so services
// can be tested without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presensia/presence-backend-go/internal/domain/branch"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/domain/user"
)

type TenantRepo struct {
	mu      sync.RWMutex
	tenants map[string]tenant.Tenant
}

func NewTenantRepo() *TenantRepo {
	return &TenantRepo{tenants: map[string]tenant.Tenant{}}
}

func (r *TenantRepo) GetByID(_ context.Context, id string) (tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (r *TenantRepo) Create(_ context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tenants[t.ID] = t
	return t, nil
}

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]user.User{}}
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id string, tenantID string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = u
	return u, nil
}

type EmployeeRepo struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

func NewEmployeeRepo() *EmployeeRepo {
	return &EmployeeRepo{employees: map[string]employee.Employee{}}
}

func (r *EmployeeRepo) GetByID(_ context.Context, id string, tenantID string) (employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[id]
	if !ok || e.TenantID != tenantID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *EmployeeRepo) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.employees[e.ID] = e
	return e, nil
}

type BranchRepo struct {
	mu           sync.RWMutex
	branches     map[string]branch.Branch
	employeeRepo *EmployeeRepo
}

// NewBranchRepo takes the employee repo so GetByEmployeeID can follow the
// employee's branch assignment the way the SQL join does.
func NewBranchRepo(employeeRepo *EmployeeRepo) *BranchRepo {
	return &BranchRepo{
		branches:     map[string]branch.Branch{},
		employeeRepo: employeeRepo,
	}
}

func (r *BranchRepo) GetByID(_ context.Context, id string, tenantID string) (branch.Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.branches[id]
	if !ok || b.TenantID != tenantID {
		return branch.Branch{}, branch.ErrBranchNotFound
	}
	return b, nil
}

func (r *BranchRepo) GetByEmployeeID(ctx context.Context, employeeID string, tenantID string) (branch.Branch, error) {
	e, err := r.employeeRepo.GetByID(ctx, employeeID, tenantID)
	if err != nil {
		return branch.Branch{}, branch.ErrBranchNotFound
	}
	if e.BranchID == nil {
		return branch.Branch{}, branch.ErrBranchNotFound
	}
	return r.GetByID(ctx, *e.BranchID, tenantID)
}

func (r *BranchRepo) Create(_ context.Context, b branch.Branch) (branch.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.branches[b.ID] = b
	return b, nil
}
