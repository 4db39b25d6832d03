package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

func seedShift(t *testing.T, store *db.MemoryDB) model.Shift {
	t.Helper()
	s := model.Shift{VolunteerName: "ALICE", Date: "2024-05-20", StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, store.InsertShift(context.Background(), &s))
	return s
}

func TestEditShift(t *testing.T) {
	repo, store := newTestRepo(t)
	original := seedShift(t, store)

	err := EditShift(context.Background(), repo, testSession(), zap.NewNop(), original.ID, model.ShiftPatch{
		Date: "2024-05-21", StartTime: "10:00", EndTime: "11:30",
	})
	require.NoError(t, err)

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, original.ID, shifts[0].ID)
	assert.Equal(t, "ALICE", shifts[0].VolunteerName)
	assert.Equal(t, "2024-05-21", shifts[0].Date)
	assert.Equal(t, "11:30", shifts[0].EndTime)
}

func TestEditShift_RejectsInvalidPatch(t *testing.T) {
	repo, store := newTestRepo(t)
	original := seedShift(t, store)

	err := EditShift(context.Background(), repo, testSession(), zap.NewNop(), original.ID, model.ShiftPatch{
		Date: "2024-05-21", StartTime: "10:00", EndTime: "10:00",
	})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-05-20", shifts[0].Date)
}

func TestEditShift_RequiresSession(t *testing.T) {
	repo, store := newTestRepo(t)
	original := seedShift(t, store)

	err := EditShift(context.Background(), repo, nil, zap.NewNop(), original.ID, model.ShiftPatch{
		Date: "2024-05-21", StartTime: "10:00", EndTime: "11:00",
	})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDeleteShift(t *testing.T) {
	repo, store := newTestRepo(t)
	first := seedShift(t, store)
	second := seedShift(t, store)

	require.NoError(t, DeleteShift(context.Background(), repo, testSession(), zap.NewNop(), first.ID))

	shifts, err := store.GetShifts(context.Background())
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, second.ID, shifts[0].ID)

	err = DeleteShift(context.Background(), repo, testSession(), zap.NewNop(), first.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
