package session

import "context"

// Service is the attendance session surface used by handlers. Tenant and
// employee ids are explicit parameters: callers resolve identity once at the
// edge and every operation below is scoped by what they pass.
type Service interface {
	CheckIn(ctx context.Context, tenantID, employeeID string, req CheckInRequest) (SessionResponse, error)
	CheckOut(ctx context.Context, tenantID, employeeID string, req CheckOutRequest) (SessionResponse, error)
	Status(ctx context.Context, tenantID, employeeID string) (StatusResponse, error)
	Get(ctx context.Context, tenantID, id string) (SessionResponse, error)
	List(ctx context.Context, tenantID string, filter Filter) (ListResponse, error)
}
