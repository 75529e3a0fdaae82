package heartbeat

import "context"

// Service is the single entry point into the presence state machine. Every
// call performs, in order: employee/settings resolution, heartbeat upsert,
// problem classification, pending-countdown transition and, on expiry,
// session closeout.
type Service interface {
	RecordHeartbeat(ctx context.Context, tenantID, employeeID string, req Request) (Result, error)
}
