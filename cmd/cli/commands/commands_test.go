package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/internal/config"
	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/core/identity"
	"github.com/jakechorley/point-rota/pkg/core/repository"
	"github.com/jakechorley/point-rota/pkg/db"
	"github.com/jakechorley/point-rota/pkg/metrics"
)

// Wednesday
var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*AppContext, *db.MemoryDB) {
	t.Helper()
	store := db.NewMemoryDB()
	logger := zap.NewNop()
	static := []string{"Alice"}

	repo := repository.New(store, identity.NewOpenResolver(static, store, logger), logger, metrics.New())
	require.NoError(t, repo.Start(context.Background()))
	t.Cleanup(repo.Close)

	return &AppContext{
		Cfg: &config.Config{
			AppID:     "station-point",
			PointName: "Station Point",
			Timezone:  "UTC",
		},
		Database:     store,
		Repo:         repo,
		Session:      &auth.Session{UID: "uid-1", ExpiresAt: time.Now().Add(time.Hour)},
		StaticRoster: static,
		Metrics:      metrics.New(),
		Logger:       logger,
		Ctx:          context.Background(),
		Now:          func() time.Time { return fixedNow },
	}, store
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddShiftCmd_Range(t *testing.T) {
	app, store := newTestApp(t)

	out, err := run(t, AddShiftCmd(app), "bob", "09:00", "10:30", "--mode", "range", "--from", "2024-05-20", "--to", "2024-05-22")
	require.NoError(t, err)
	assert.Contains(t, out, "Scheduled 3 shift(s) for BOB")

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "2024-05-22", shifts[2].Date)
}

func TestAddShiftCmd_DefaultsToToday(t *testing.T) {
	app, store := newTestApp(t)

	_, err := run(t, AddShiftCmd(app), "alice", "07:00", "07:30")
	require.NoError(t, err)

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "2024-05-15", shifts[0].Date)
	assert.Equal(t, "ALICE", shifts[0].VolunteerName)
}

func TestAddShiftCmd_RejectsBadInput(t *testing.T) {
	app, store := newTestApp(t)

	_, err := run(t, AddShiftCmd(app), "bob", "09:15", "10:00")
	require.Error(t, err)
	assert.Contains(t, FormatError(err), "⚠️")

	_, err = run(t, AddShiftCmd(app), "bob", "09:00", "10:00", "--mode", "range", "--from", "2024-05-20")
	require.Error(t, err)

	_, err = run(t, AddShiftCmd(app), "bob", "09:00", "10:00", "--mode", "fortnightly")
	require.Error(t, err)

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestViewWeekCmd_ShowsConflicts(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, AddShiftCmd(app), "alice", "09:00", "11:00", "--date", "2024-05-16")
	require.NoError(t, err)
	_, err = run(t, AddShiftCmd(app), "bob", "10:00", "12:00", "--date", "2024-05-16")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(app.Repo.Snapshot()) == 2 }, time.Second, 10*time.Millisecond)

	out, err := run(t, ViewWeekCmd(app), "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Week of Mon 13 May 2024")
	assert.Contains(t, out, "1 conflicting slot(s):")
	assert.Contains(t, out, "Shifts this week:")

	out, err = run(t, ViewWeekCmd(app), "--offset", "1", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Week of Mon 20 May 2024")
	assert.Contains(t, out, "No shifts this week")
}

func TestEditAndDeleteShiftCmd(t *testing.T) {
	app, store := newTestApp(t)

	_, err := run(t, AddShiftCmd(app), "alice", "09:00", "10:00", "--date", "2024-05-16")
	require.NoError(t, err)
	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	id := shifts[0].ID

	_, err = run(t, EditShiftCmd(app), id, "2024-05-17", "13:00", "14:00")
	require.NoError(t, err)
	shifts, err = store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-05-17", shifts[0].Date)

	_, err = run(t, DeleteShiftCmd(app), id)
	require.NoError(t, err)

	_, err = run(t, DeleteShiftCmd(app), id)
	require.Error(t, err)
	assert.Contains(t, FormatError(err), "❓")
}

func TestStatusCmd(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := run(t, StatusCmd(app))
	require.NoError(t, err)
	assert.Contains(t, out, "Station Point is CLOSED")

	_, err = run(t, StatusCmd(app), "note", "keys", "with", "Bob")
	require.NoError(t, err)

	out, err = run(t, StatusCmd(app), "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Point is now OPEN")

	out, err = run(t, StatusCmd(app))
	require.NoError(t, err)
	assert.Contains(t, out, "Station Point is OPEN · keys with Bob")

	_, err = run(t, StatusCmd(app), "explode")
	assert.Error(t, err)
}

func TestRosterCmd(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, AddShiftCmd(app), "Zoë", "09:00", "10:00")
	require.NoError(t, err)

	out, err := run(t, RosterCmd(app))
	require.NoError(t, err)
	assert.Contains(t, out, "- ALICE")
	assert.Contains(t, out, "- ZOË")
}

func TestExportIcsCmd(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, AddShiftCmd(app), "alice", "09:00", "10:00", "--mode", "next-week")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(app.Repo.Snapshot()) == 7 }, time.Second, 10*time.Millisecond)

	path := filepath.Join(t.TempDir(), "rota.ics")
	out, err := run(t, ExportIcsCmd(app), "--output", path, "--from", "2024-05-21", "--to", "2024-05-23")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 3 shift(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, bytes.Count(data, []byte("BEGIN:VEVENT")))
}

func TestPublishWeekCmd_RequiresSheet(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, PublishWeekCmd(app))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no roster sheet configured")
}
