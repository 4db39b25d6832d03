package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

func TestPendingMigrations(t *testing.T) {
	pending, err := pendingMigrations(map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, []string{"001_initial_schema.sql", "002_change_notifications.sql"}, pending)

	pending, err = pendingMigrations(map[string]bool{"001_initial_schema.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_change_notifications.sql"}, pending)
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		payload    string
		wantOK     bool
		collection db.Collection
	}{
		{"point-a:shifts", true, db.CollectionShifts},
		{"point-a:status", true, db.CollectionStatus},
		{"point-b:shifts", false, ""},
		{"tenant:with:colons:volunteers", false, ""},
		{"garbage", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			collection, ok := parsePayload(tt.payload, "point-a")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.collection, collection)
		})
	}

	collection, ok := parsePayload("tenant:with:colons:volunteers", "tenant:with:colons")
	assert.True(t, ok)
	assert.Equal(t, db.CollectionVolunteers, collection)
}

// openTestDB connects to the database named by POINT_ROTA_TEST_DSN under a fresh tenant
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("POINT_ROTA_TEST_DSN")
	if dsn == "" {
		t.Skip("POINT_ROTA_TEST_DSN not set, skipping postgres integration test")
	}

	ctx := context.Background()
	d, err := NewDB(ctx, dsn, "test-"+uuid.New().String(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, d.RunMigrations(ctx))

	t.Cleanup(func() {
		for _, table := range []string{"shifts", "volunteers", "status"} {
			d.pool.Exec(context.Background(), "DELETE FROM "+table+" WHERE tenant_id = $1", d.tenantID)
		}
		d.Close()
	})
	return d
}

func TestDB_ShiftLifecycle(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	shift := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:30"}
	require.NoError(t, d.InsertShift(ctx, &shift))
	require.NotEmpty(t, shift.ID)

	shifts, err := d.GetShifts(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "2024-05-20", shifts[0].Date)
	assert.Equal(t, "10:30", shifts[0].EndTime)

	require.NoError(t, d.UpdateShift(ctx, shift.ID, model.ShiftPatch{Date: "2024-05-21", StartTime: "11:00", EndTime: "12:00"}))
	shifts, err = d.GetShifts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-21", shifts[0].Date)
	assert.Equal(t, "ALICE", shifts[0].VolunteerName)

	require.NoError(t, d.DeleteShift(ctx, shift.ID))
	assert.ErrorIs(t, d.DeleteShift(ctx, shift.ID), db.ErrNotFound)
}

func TestDB_StatusMerges(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.SetStatusNote(ctx, "closing early", "uid-1"))
	require.NoError(t, d.SetStatusOpen(ctx, true, "uid-2"))

	status, err := d.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsOpen)
	assert.Equal(t, "closing early", status.Note)
	assert.Equal(t, "uid-2", status.UpdatedBy)
}

func TestDB_WatchReceivesNotifications(t *testing.T) {
	d := openTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := d.Watch(ctx, db.CollectionShifts)
	require.NoError(t, err)

	// Let the listener issue LISTEN before writing
	time.Sleep(200 * time.Millisecond)

	shift := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, d.InsertShift(context.Background(), &shift))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}
}
