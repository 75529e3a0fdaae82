package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/domain/branch"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/repository/memory"
)

// Office at Monas, Jakarta. inside is within the 100m radius, outside is
// several kilometers away.
const (
	officeLat = -6.175392
	officeLng = 106.827153

	insideLat = -6.175500
	insideLng = 106.827300

	outsideLat = -6.200000
	outsideLng = 106.900000
)

type fixture struct {
	svc      *ServiceImpl
	sessions *memory.SessionRepo
	pendings *memory.PendingRepo

	tenantID   string
	employeeID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	tenants := memory.NewTenantRepo()
	employees := memory.NewEmployeeRepo()
	branches := memory.NewBranchRepo(employees)
	sessions := memory.NewSessionRepo()
	pendings := memory.NewPendingRepo()

	ten, err := tenants.Create(ctx, tenant.Tenant{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	b, err := branches.Create(ctx, branch.Branch{
		TenantID:     ten.ID,
		Name:         "HQ",
		Latitude:     officeLat,
		Longitude:    officeLng,
		RadiusMeters: 100,
		Timezone:     "Asia/Jakarta",
	})
	require.NoError(t, err)

	emp, err := employees.Create(ctx, employee.Employee{
		TenantID: ten.ID,
		FullName: "Budi Santoso",
		Active:   true,
		BranchID: &b.ID,
	})
	require.NoError(t, err)

	svc := NewService(memory.TxManager{}, sessions, employees, branches, tenants, pendings, nil, nil, nil)

	return &fixture{
		svc:        svc,
		sessions:   sessions,
		pendings:   pendings,
		tenantID:   ten.ID,
		employeeID: emp.ID,
	}
}

func TestCheckIn_InsideGeofence(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CheckIn(context.Background(), f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, f.employeeID, resp.EmployeeID)
	assert.Nil(t, resp.CheckOutTime)
}

func TestCheckIn_OutsideGeofenceRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  outsideLat,
		Longitude: outsideLng,
	})
	assert.ErrorIs(t, err, session.ErrOutsideGeofence)
}

func TestCheckIn_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	assert.ErrorIs(t, err, session.ErrOpenSessionExists)
}

func TestCheckIn_RoamingWindowOverridesBranch(t *testing.T) {
	ctx := context.Background()

	employees := memory.NewEmployeeRepo()
	branches := memory.NewBranchRepo(employees)
	tenants := memory.NewTenantRepo()
	sessions := memory.NewSessionRepo()
	pendings := memory.NewPendingRepo()

	ten, err := tenants.Create(ctx, tenant.Tenant{Name: "Field Co", Slug: "field-co"})
	require.NoError(t, err)

	now := time.Now().UTC()
	emp, err := employees.Create(ctx, employee.Employee{
		TenantID: ten.ID,
		FullName: "Siti Rahma",
		Active:   true,
		RoamingWindow: &employee.RoamingWindow{
			StartsAt:     now.Add(-time.Hour),
			EndsAt:       now.Add(time.Hour),
			Latitude:     outsideLat,
			Longitude:    outsideLng,
			RadiusMeters: 200,
		},
	})
	require.NoError(t, err)

	svc := NewService(memory.TxManager{}, sessions, employees, branches, tenants, pendings, nil, nil, nil)

	// Far from any branch, but inside the approved roaming window.
	resp, err := svc.CheckIn(ctx, ten.ID, emp.ID, session.CheckInRequest{
		Latitude:  outsideLat,
		Longitude: outsideLng,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestCheckOut_ClosesManually(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkIn, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	resp, err := f.svc.CheckOut(ctx, f.tenantID, f.employeeID, session.CheckOutRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)
	assert.Equal(t, checkIn.ID, resp.ID)
	require.NotNil(t, resp.CheckOutTime)
	require.NotNil(t, resp.CheckoutType)
	assert.Equal(t, session.CheckoutTypeManual, *resp.CheckoutType)
	assert.Nil(t, resp.CheckoutReason)
}

func TestCheckOut_WithoutOpenSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckOut(context.Background(), f.tenantID, f.employeeID, session.CheckOutRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	assert.ErrorIs(t, err, session.ErrNotCheckedIn)
}

func TestCheckOut_CancelsLiveCountdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkIn, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	pending, created, err := f.pendings.CreateIfAbsent(ctx, autoclose.Pending{
		EmployeeID: f.employeeID,
		TenantID:   f.tenantID,
		SessionID:  checkIn.ID,
		Reason:     session.ReasonOutsideBranch,
		EndsAt:     time.Now().UTC().Add(15 * time.Minute),
	})
	require.NoError(t, err)
	require.True(t, created)

	_, err = f.svc.CheckOut(ctx, f.tenantID, f.employeeID, session.CheckOutRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	settled, ok := f.pendings.Get(pending.ID)
	require.True(t, ok)
	assert.Equal(t, autoclose.StatusCancelled, settled.Status)
	require.NotNil(t, settled.CancelReason)
	assert.Equal(t, autoclose.CancelReasonSessionClosed, *settled.CancelReason)
}

func TestStatus_ReportsCountdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.svc.Status(ctx, f.tenantID, f.employeeID)
	require.NoError(t, err)
	assert.False(t, status.HasOpenSession)

	checkIn, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	status, err = f.svc.Status(ctx, f.tenantID, f.employeeID)
	require.NoError(t, err)
	assert.True(t, status.HasOpenSession)
	assert.False(t, status.CountdownActive)

	endsAt := time.Now().UTC().Add(10 * time.Minute)
	_, _, err = f.pendings.CreateIfAbsent(ctx, autoclose.Pending{
		EmployeeID: f.employeeID,
		TenantID:   f.tenantID,
		SessionID:  checkIn.ID,
		Reason:     session.ReasonGPSBlocked,
		EndsAt:     endsAt,
	})
	require.NoError(t, err)

	status, err = f.svc.Status(ctx, f.tenantID, f.employeeID)
	require.NoError(t, err)
	assert.True(t, status.CountdownActive)
	require.NotNil(t, status.CountdownReason)
	assert.Equal(t, session.ReasonGPSBlocked, *status.CountdownReason)
	require.NotNil(t, status.SecondsRemaining)
	assert.Greater(t, *status.SecondsRemaining, 0)
}

func TestList_FiltersByTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.tenantID, session.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
	require.Len(t, list.Sessions, 1)

	// Another tenant sees nothing.
	other, err := f.svc.List(ctx, "other-tenant", session.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.TotalCount)
	assert.Empty(t, other.Sessions)
}

func TestGet_TenantScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkIn, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.tenantID, checkIn.ID)
	require.NoError(t, err)
	assert.Equal(t, checkIn.ID, got.ID)

	_, err = f.svc.Get(ctx, "other-tenant", checkIn.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestList_FiltersByCheckoutType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.tenantID, f.employeeID, session.CheckInRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, f.tenantID, f.employeeID, session.CheckOutRequest{
		Latitude:  insideLat,
		Longitude: insideLng,
	})
	require.NoError(t, err)

	// Lower case input is accepted and normalized.
	manual := "manual"
	list, err := f.svc.List(ctx, f.tenantID, session.Filter{CheckoutType: &manual})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	auto := "AUTO"
	list, err = f.svc.List(ctx, f.tenantID, session.Filter{CheckoutType: &auto})
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.TotalCount)

	bogus := "FORCED"
	_, err = f.svc.List(ctx, f.tenantID, session.Filter{CheckoutType: &bogus})
	assert.Error(t, err)
}
