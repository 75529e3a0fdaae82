package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/domain/heartbeat"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/repository/memory"
)

type fixture struct {
	svc      *ServiceImpl
	sessions *memory.SessionRepo
	pendings *memory.PendingRepo
	settings *memory.SettingsRepo
	hbs      *memory.HeartbeatRepo

	tenantID   string
	employeeID string
	sessionID  string

	clock time.Time
	mu    sync.Mutex
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(d)
}

func newFixture(t *testing.T, enabled bool) *fixture {
	t.Helper()
	ctx := context.Background()

	tenants := memory.NewTenantRepo()
	employees := memory.NewEmployeeRepo()
	branches := memory.NewBranchRepo(employees)
	sessions := memory.NewSessionRepo()
	hbs := memory.NewHeartbeatRepo()
	pendings := memory.NewPendingRepo()
	settings := memory.NewSettingsRepo()

	ten, err := tenants.Create(ctx, tenant.Tenant{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	emp, err := employees.Create(ctx, employee.Employee{
		TenantID: ten.ID,
		FullName: "Budi Santoso",
		Active:   true,
	})
	require.NoError(t, err)

	open, err := sessions.Create(ctx, session.Session{
		EmployeeID: emp.ID,
		TenantID:   ten.ID,
		CheckInAt:  time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	cfg := autoclose.DefaultSettings(ten.ID)
	cfg.Enabled = enabled
	require.NoError(t, settings.Upsert(ctx, cfg))

	f := &fixture{
		sessions:   sessions,
		pendings:   pendings,
		settings:   settings,
		hbs:        hbs,
		tenantID:   ten.ID,
		employeeID: emp.ID,
		sessionID:  open.ID,
		clock:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	svc := NewService(memory.TxManager{}, employees, branches, tenants, sessions, hbs, pendings, settings, nil, nil, nil)
	svc.now = func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.clock
	}
	f.svc = svc
	return f
}

func beat(insideArea, signalUsable bool, sessionID string) heartbeat.Request {
	return heartbeat.Request{
		SessionID:    sessionID,
		InsideArea:   insideArea,
		SignalUsable: signalUsable,
	}
}

func TestRecordHeartbeat_DisabledSettingsPureUpsert(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, false, f.sessionID))
	require.NoError(t, err)
	assert.False(t, res.AutoCloseoutEnabled)
	assert.Empty(t, res.Status)

	// The sample is still recorded.
	hb, err := f.hbs.Get(ctx, f.employeeID, f.tenantID)
	require.NoError(t, err)
	assert.False(t, hb.InsideArea)
	assert.False(t, hb.SignalUsable)

	// But no countdown ever starts.
	_, err = f.pendings.GetPending(ctx, f.employeeID, f.sessionID, f.tenantID)
	assert.ErrorIs(t, err, autoclose.ErrPendingNotFound)
}

func TestRecordHeartbeat_UnknownEmployee(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.RecordHeartbeat(context.Background(), f.tenantID, "missing", beat(true, true, f.sessionID))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRecordHeartbeat_CrossTenantEmployeeRejected(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.RecordHeartbeat(context.Background(), "other-tenant", f.employeeID, beat(true, true, f.sessionID))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRecordHeartbeat_SessionMismatchRejected(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.RecordHeartbeat(context.Background(), f.tenantID, f.employeeID, beat(true, true, "stale-session-id"))
	assert.ErrorIs(t, err, tenant.ErrTenantMismatch)
}

func TestRecordHeartbeat_GPSBlockedOutranksOutsideBranch(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.svc.RecordHeartbeat(context.Background(), f.tenantID, f.employeeID, beat(false, false, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCreated, res.Status)
	require.NotNil(t, res.Reason)
	assert.Equal(t, session.ReasonGPSBlocked, *res.Reason)
}

// Scenario: healthy heartbeats for an extended span never create a countdown.
func TestRecordHeartbeat_HealthySamplesStayQuiet(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(true, true, f.sessionID))
		require.NoError(t, err)
		assert.Equal(t, heartbeat.StatusOK, res.Status)
		f.advance(15 * time.Second)
	}

	_, err := f.pendings.GetPending(ctx, f.employeeID, f.sessionID, f.tenantID)
	assert.ErrorIs(t, err, autoclose.ErrPendingNotFound)

	open, err := f.sessions.GetOpenSession(ctx, f.employeeID, f.tenantID)
	require.NoError(t, err)
	assert.True(t, open.Open())
}

// Scenario: the problem persists past the grace period and the session is
// closed automatically with the episode's reason.
func TestRecordHeartbeat_ExpiryAutoCloses(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCreated, res.Status)
	require.NotNil(t, res.EndsAt)
	assert.Equal(t, f.svc.now().Add(900*time.Second), *res.EndsAt)

	f.advance(901 * time.Second)

	res, err = f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusAutoClosed, res.Status)
	require.NotNil(t, res.Reason)
	assert.Equal(t, session.ReasonOutsideBranch, *res.Reason)

	closed, err := f.sessions.GetByID(ctx, f.sessionID, f.tenantID)
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutAt)
	assert.Equal(t, session.CheckoutTypeAuto, *closed.CheckoutType)
	assert.Equal(t, session.ReasonOutsideBranch, *closed.CheckoutReason)
	require.NotNil(t, closed.DurationMinutes)
}

// Scenario: recovery mid-countdown cancels the row; a later relapse starts a
// brand-new full-length countdown instead of resuming the old one.
func TestRecordHeartbeat_RecoveryThenRelapseGetsFreshGrace(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCreated, res.Status)
	firstEndsAt := *res.EndsAt

	f.advance(500 * time.Second)

	res, err = f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(true, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCancelled, res.Status)
	require.NotNil(t, res.CancelReason)
	assert.Equal(t, autoclose.CancelReasonRecovered, *res.CancelReason)

	f.advance(100 * time.Second)

	res, err = f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCreated, res.Status)
	require.NotNil(t, res.EndsAt)
	assert.Equal(t, f.svc.now().Add(900*time.Second), *res.EndsAt)
	assert.True(t, res.EndsAt.After(firstEndsAt))

	// Well past the first row's deadline but inside the second's grace:
	// nothing fires.
	f.advance(400 * time.Second)
	res, err = f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingActive, res.Status)

	open, err := f.sessions.GetOpenSession(ctx, f.employeeID, f.tenantID)
	require.NoError(t, err)
	assert.True(t, open.Open())
}

// Recovery is evaluated strictly before expiry: a healthy heartbeat landing
// past the deadline cancels instead of closing.
func TestRecordHeartbeat_RecoveryBeatsExpiry(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)

	f.advance(2000 * time.Second)

	res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(true, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCancelled, res.Status)

	open, err := f.sessions.GetOpenSession(ctx, f.employeeID, f.tenantID)
	require.NoError(t, err)
	assert.True(t, open.Open())
}

// Concurrent first-detection heartbeats produce exactly one live countdown.
func TestRecordHeartbeat_ConcurrentProblemSingleCountdown(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	expired, err := f.pendings.ListExpired(ctx, f.svc.now().Add(2000*time.Second), 0)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, autoclose.StatusPending, expired[0].Status)
}

// Repeating the identical heartbeat converges to the same stored row and at
// most one pending transition.
func TestRecordHeartbeat_Idempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingCreated, first.Status)

	second, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusPendingActive, second.Status)
	assert.Equal(t, *first.EndsAt, *second.EndsAt)

	hb1, err := f.hbs.Get(ctx, f.employeeID, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, session.ReasonOutsideBranch, *hb1.ProblemReason)
	assert.False(t, hb1.InsideArea)
	assert.True(t, hb1.SignalUsable)
}

// An expired countdown whose session was already closed manually leaves the
// manual check-out untouched while still settling the row.
func TestExecuteCloseout_AlreadyClosedSession(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	pendingEndsAt := *res.EndsAt

	// Manual checkout slips in before expiry is observed.
	manual, err := f.sessions.GetByID(ctx, f.sessionID, f.tenantID)
	require.NoError(t, err)
	manualAt := f.svc.now().Add(600 * time.Second)
	manual.Closeout(manualAt, session.CheckoutTypeManual, nil, nil, nil, nil)
	_, err = f.sessions.Close(ctx, manual)
	require.NoError(t, err)

	f.advance(1000 * time.Second)
	require.True(t, f.svc.now().After(pendingEndsAt))

	hbRes, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	assert.ErrorIs(t, err, session.ErrNotCheckedIn)
	assert.Empty(t, hbRes.Status)

	// Settle through the sweep instead.
	closed, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)

	got, err := f.sessions.GetByID(ctx, f.sessionID, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, session.CheckoutTypeManual, *got.CheckoutType)
	assert.Equal(t, manualAt, *got.CheckOutAt)

	// The pending row reached a terminal state and stayed there.
	_, err = f.pendings.GetPending(ctx, f.employeeID, f.sessionID, f.tenantID)
	assert.ErrorIs(t, err, autoclose.ErrPendingNotFound)
}

func TestSweepExpired_ClosesWithoutHeartbeat(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, false, f.sessionID))
	require.NoError(t, err)

	// The device goes silent; no further heartbeats arrive.
	f.advance(2 * time.Hour)

	closed, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := f.sessions.GetByID(ctx, f.sessionID, f.tenantID)
	require.NoError(t, err)
	require.NotNil(t, got.CheckOutAt)
	assert.Equal(t, session.CheckoutTypeAuto, *got.CheckoutType)
	assert.Equal(t, session.ReasonGPSBlocked, *got.CheckoutReason)

	// A second sweep finds nothing left to do.
	closed, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestRecordHeartbeat_EchoesClientConfig(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.svc.RecordHeartbeat(context.Background(), f.tenantID, f.employeeID, beat(true, true, f.sessionID))
	require.NoError(t, err)
	require.NotNil(t, res.Config)
	assert.Equal(t, 15, res.Config.SampleIntervalSeconds)
	assert.Equal(t, 3, res.Config.ConfirmSamples)
	assert.Equal(t, 50.0, res.Config.MaxAccuracyMeters)
}

type recordingTxManager struct {
	mu    sync.Mutex
	calls int
}

func (m *recordingTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

// The pending claim and the session close commit or roll back together: an
// expiring heartbeat must run its closeout inside the transaction manager.
func TestExecuteCloseout_ClaimAndCloseShareTransaction(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	recorder := &recordingTxManager{}
	f.svc.tx = recorder

	_, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, 0, recorder.calls)

	f.advance(901 * time.Second)

	res, err := f.svc.RecordHeartbeat(ctx, f.tenantID, f.employeeID, beat(false, true, f.sessionID))
	require.NoError(t, err)
	assert.Equal(t, heartbeat.StatusAutoClosed, res.Status)
	assert.Equal(t, 1, recorder.calls)

	closed, err := f.sessions.GetByID(ctx, f.sessionID, f.tenantID)
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutAt)
}
