package services

import (
	"context"
	"testing"
	"time"

	"medicare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(t *testing.T) (*DashboardService, *MedicationService, uint, func()) {
	t.Helper()
	db := newTestDB(t)
	u := createUser(t, db, "jane@example.com", "")
	meds := NewMedicationService(db, nil)
	meds.now = fixedClock(time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local))
	svc := NewDashboardService(NewUserService(db), meds, NewScheduleService(db), NewNotificationService(db, nil, 20, discardLogger()), time.Hour, discardLogger())
	svc.now = fixedClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local))
	breakDB := func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	}
	return svc, meds, u.ID, breakDB
}

func TestPatientData(t *testing.T) {
	svc, meds, uid, _ := newTestDashboard(t)
	ctx := context.Background()
	_, _, err := meds.UpsertLog(ctx, uid, LogInput{Status: models.StatusTaken})
	require.NoError(t, err)

	snap, err := svc.PatientData(ctx, "sid-1", uid)
	require.NoError(t, err)
	assert.False(t, snap.Stale)
	assert.Len(t, snap.Logs, 1)
	assert.Nil(t, snap.Schedule)
	assert.Equal(t, 1, snap.Stats.Streak)
	assert.Equal(t, models.StatusTaken, snap.Stats.TodayStatus)
}

func TestCaretakerDataDefaults(t *testing.T) {
	svc, _, uid, _ := newTestDashboard(t)

	snap, err := svc.CaretakerData(context.Background(), "sid-1", uid)
	require.NoError(t, err)
	assert.Equal(t, "jane", snap.PatientName)
	require.NotNil(t, snap.Schedule)
	assert.Equal(t, "jane@example.com", snap.Schedule.CaretakerEmail)
	assert.Empty(t, snap.Calendar)
	assert.Equal(t, 0, snap.Stats.AdherenceRate)
}

func TestFailedRefreshReturnsStaleSnapshot(t *testing.T) {
	svc, meds, uid, breakDB := newTestDashboard(t)
	ctx := context.Background()
	_, _, err := meds.UpsertLog(ctx, uid, LogInput{Status: models.StatusTaken})
	require.NoError(t, err)

	fresh, err := svc.CaretakerData(ctx, "sid-1", uid)
	require.NoError(t, err)
	_, err = svc.PatientData(ctx, "sid-1", uid)
	require.NoError(t, err)

	breakDB()

	stale, err := svc.CaretakerData(ctx, "sid-1", uid)
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.Equal(t, fresh.Stats, stale.Stats)

	_, err = svc.CaretakerData(ctx, "sid-2", uid)
	assert.Error(t, err, "no previous snapshot for this session")

	svc.HandleAuthChange(AuthChange{Event: EventSignedOut, SessionID: "sid-1"})
	_, err = svc.PatientData(ctx, "sid-1", uid)
	assert.Error(t, err, "snapshots are dropped on sign-out")
}

func TestSnapshotsExpireAfterRetention(t *testing.T) {
	svc, _, uid, breakDB := newTestDashboard(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

	_, err := svc.PatientData(ctx, "sid-old", uid)
	require.NoError(t, err)
	svc.now = fixedClock(start.Add(50 * time.Minute))
	_, err = svc.CaretakerData(ctx, "sid-new", uid)
	require.NoError(t, err)

	svc.now = fixedClock(start.Add(61 * time.Minute))
	assert.Equal(t, 1, svc.Sweep(), "only the view fetched over an hour ago goes")
	assert.Equal(t, 0, svc.Sweep())

	breakDB()
	_, err = svc.PatientData(ctx, "sid-old", uid)
	assert.Error(t, err)
	stale, err := svc.CaretakerData(ctx, "sid-new", uid)
	require.NoError(t, err)
	assert.True(t, stale.Stale)

	svc.now = fixedClock(start.Add(2 * time.Hour))
	_, err = svc.CaretakerData(ctx, "sid-new", uid)
	assert.Error(t, err, "an expired view is not served as stale")
}
