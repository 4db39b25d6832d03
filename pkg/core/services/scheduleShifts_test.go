package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/core/identity"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/recurrence"
	"github.com/jakechorley/point-rota/pkg/core/repository"
	"github.com/jakechorley/point-rota/pkg/db"
)

func testSession() *auth.Session {
	return &auth.Session{UID: "uid-1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
}

func newTestRepo(t *testing.T) (*repository.Repository, *db.MemoryDB) {
	t.Helper()
	store := db.NewMemoryDB()
	resolver := identity.NewOpenResolver([]string{"ALICE"}, store, zap.NewNop())
	return repository.New(store, resolver, zap.NewNop(), nil), store
}

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Wednesday
var today = day("2024-05-15")

func TestScheduleShifts_Single(t *testing.T) {
	repo, store := newTestRepo(t)

	result, err := ScheduleShifts(context.Background(), repo, testSession(), zap.NewNop(), ScheduleRequest{
		VolunteerName: "alice",
		Recurrence:    recurrence.Request{Mode: recurrence.ModeSingle, Date: day("2024-05-20")},
		StartTime:     "09:00",
		EndTime:       "12:00",
	}, today)
	require.NoError(t, err)
	require.Len(t, result.Batch.Created, 1)
	assert.Empty(t, result.Batch.Failures)

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "ALICE", shifts[0].VolunteerName)
	assert.Equal(t, "2024-05-20", shifts[0].Date)
}

func TestScheduleShifts_NextWeekWritesSevenDays(t *testing.T) {
	repo, store := newTestRepo(t)

	result, err := ScheduleShifts(context.Background(), repo, testSession(), zap.NewNop(), ScheduleRequest{
		VolunteerName: "Bob",
		Recurrence:    recurrence.Request{Mode: recurrence.ModeNextWeek},
		StartTime:     "07:00",
		EndTime:       "08:00",
	}, today)
	require.NoError(t, err)
	require.Len(t, result.Dates, 7)
	assert.Equal(t, "2024-05-20", model.FormatDate(result.Dates[0]))
	assert.Equal(t, "2024-05-26", model.FormatDate(result.Dates[6]))

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Len(t, shifts, 7)
}

func TestScheduleShifts_InvertedRangeWritesNothing(t *testing.T) {
	repo, store := newTestRepo(t)

	_, err := ScheduleShifts(context.Background(), repo, testSession(), zap.NewNop(), ScheduleRequest{
		VolunteerName: "Bob",
		Recurrence: recurrence.Request{
			Mode:      recurrence.ModeRange,
			StartDate: day("2024-05-20"),
			EndDate:   day("2024-05-18"),
		},
		StartTime: "09:00",
		EndTime:   "10:00",
	}, today)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDates))
	assert.True(t, model.IsValidationError(err))

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestScheduleShifts_InvalidTimesWriteNothing(t *testing.T) {
	repo, store := newTestRepo(t)

	_, err := ScheduleShifts(context.Background(), repo, testSession(), zap.NewNop(), ScheduleRequest{
		VolunteerName: "Bob",
		Recurrence:    recurrence.Request{Mode: recurrence.ModeCurrentWeek},
		StartTime:     "12:00",
		EndTime:       "09:00",
	}, today)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shifts)

	volunteers, err := store.GetVolunteers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, volunteers)
}

func TestScheduleShifts_RequiresSession(t *testing.T) {
	repo, store := newTestRepo(t)

	for _, session := range []*auth.Session{nil, {UID: "uid-1", ExpiresAt: time.Now().Add(-time.Minute)}} {
		_, err := ScheduleShifts(context.Background(), repo, session, zap.NewNop(), ScheduleRequest{
			VolunteerName: "Bob",
			Recurrence:    recurrence.Request{Mode: recurrence.ModeSingle, Date: day("2024-05-20")},
			StartTime:     "09:00",
			EndTime:       "10:00",
		}, today)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestParseDateInput(t *testing.T) {
	d, err := ParseDateInput("date", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", model.FormatDate(d))

	_, err = ParseDateInput("date", "29/02/2024")
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
	assert.Contains(t, err.Error(), "date")
}
