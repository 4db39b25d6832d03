package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

func openStore(t *testing.T, path, tenant string, poll time.Duration) *SQLiteStore {
	t.Helper()
	store, err := New(context.Background(), path, tenant, poll, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_ShiftLifecycle(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "rota.db"), "point-a", 0)
	ctx := context.Background()

	later := model.Shift{VolunteerName: "BOB", Date: "2024-05-21", StartTime: "09:00", EndTime: "10:00"}
	earlier := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "13:00", EndTime: "15:30"}
	require.NoError(t, store.InsertShift(ctx, &later))
	require.NoError(t, store.InsertShift(ctx, &earlier))
	assert.NotEmpty(t, later.ID)
	assert.NotEqual(t, later.ID, earlier.ID)
	assert.False(t, later.CreatedAt.IsZero())

	shifts, err := store.GetShifts(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, earlier.ID, shifts[0].ID)
	assert.Equal(t, "ALICE", shifts[0].VolunteerName)

	require.NoError(t, store.UpdateShift(ctx, later.ID, model.ShiftPatch{Date: "2024-05-19", StartTime: "07:00", EndTime: "08:00"}))
	shifts, err = store.GetShifts(ctx)
	require.NoError(t, err)
	assert.Equal(t, later.ID, shifts[0].ID)
	assert.Equal(t, "BOB", shifts[0].VolunteerName)
	assert.Equal(t, "07:00", shifts[0].StartTime)

	require.NoError(t, store.DeleteShift(ctx, later.ID))
	shifts, err = store.GetShifts(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, earlier.ID, shifts[0].ID)
}

func TestSQLiteStore_MissingShift(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "rota.db"), "point-a", 0)
	ctx := context.Background()

	err := store.UpdateShift(ctx, "nope", model.ShiftPatch{Date: "2024-05-19", StartTime: "07:00", EndTime: "08:00"})
	assert.ErrorIs(t, err, db.ErrNotFound)

	err = store.DeleteShift(ctx, "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSQLiteStore_TenantsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.db")
	a := openStore(t, path, "point-a", 0)
	b := openStore(t, path, "point-b", 0)
	ctx := context.Background()

	shift := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, a.InsertShift(ctx, &shift))
	require.NoError(t, a.SetStatusOpen(ctx, true, "uid-1"))

	shifts, err := b.GetShifts(ctx)
	require.NoError(t, err)
	assert.Empty(t, shifts)

	status, err := b.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsOpen)

	assert.ErrorIs(t, b.DeleteShift(ctx, shift.ID), db.ErrNotFound)
}

func TestSQLiteStore_UpsertVolunteerKeepsCreatedAt(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "rota.db"), "point-a", 0)
	ctx := context.Background()

	first := model.Volunteer{ID: "alice", Name: "ALICE", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.UpsertVolunteer(ctx, &first))

	again := model.Volunteer{ID: "alice", Name: "ALICE"}
	require.NoError(t, store.UpsertVolunteer(ctx, &again))
	assert.Equal(t, first.CreatedAt, again.CreatedAt)

	volunteers, err := store.GetVolunteers(ctx)
	require.NoError(t, err)
	require.Len(t, volunteers, 1)
	assert.Equal(t, "ALICE", volunteers[0].Name)
}

func TestSQLiteStore_StatusMerges(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "rota.db"), "point-a", 0)
	ctx := context.Background()

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsOpen)
	assert.True(t, status.UpdatedAt.IsZero())

	require.NoError(t, store.SetStatusNote(ctx, "keys with Bob", "uid-1"))
	require.NoError(t, store.SetStatusOpen(ctx, true, "uid-2"))

	status, err = store.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsOpen)
	assert.Equal(t, "keys with Bob", status.Note)
	assert.Equal(t, "uid-2", status.UpdatedBy)
}

func TestSQLiteStore_WatchSeesOtherConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rota.db")
	writer := openStore(t, path, "point-a", 0)
	watcher := openStore(t, path, "point-a", 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := watcher.Watch(ctx, db.CollectionShifts)
	require.NoError(t, err)

	// Give the poller time to read its baseline version
	time.Sleep(50 * time.Millisecond)

	shift := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, writer.InsertShift(context.Background(), &shift))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal from the poller")
	}

	shifts, err := watcher.GetShifts(context.Background())
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, shift.ID, shifts[0].ID)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "rota.db?"+defaultPragmas, withPragmas("rota.db"))
	assert.Equal(t, "rota.db?mode=rwc&"+defaultPragmas, withPragmas("rota.db?mode=rwc"))
	assert.Equal(t, "rota.db?_pragma=foreign_keys(1)", withPragmas("rota.db?_pragma=foreign_keys(1)"))
}

func TestSQLiteStore_InMemorySharesOneDatabase(t *testing.T) {
	store := openStore(t, ":memory:", "point-a", 10*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shift := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"}
			errs <- store.InsertShift(ctx, &shift)
			_, err := store.GetShifts(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	shifts, err := store.GetShifts(ctx)
	require.NoError(t, err)
	assert.Len(t, shifts, 20)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsOpen)
}

func TestIsInMemory(t *testing.T) {
	assert.True(t, isInMemory(":memory:"))
	assert.True(t, isInMemory("file::memory:?cache=shared"))
	assert.True(t, isInMemory("file:rota?mode=memory"))
	assert.False(t, isInMemory("rota.db"))
	assert.False(t, isInMemory(filepath.Join("data", "rota.db")))
}
