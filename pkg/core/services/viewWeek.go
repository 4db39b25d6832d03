package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/identity"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/weekview"
	"github.com/jakechorley/point-rota/pkg/db"
	"github.com/jakechorley/point-rota/pkg/metrics"
)

// ViewWeek builds the grid for the week anchored at anchorMonday and records its conflict count
func ViewWeek(shifts []model.Shift, anchorMonday time.Time, m *metrics.Metrics) weekview.Grid {
	grid := weekview.BuildGrid(anchorMonday, shifts)
	m.ConflictedSlots(len(grid.Conflicts()))
	return grid
}

// ListRoster returns the names offered when identifying a volunteer.
// If the registry cannot be read the roster falls back to static and shift names.
func ListRoster(ctx context.Context, registry db.VolunteerStore, static []string, shifts []model.Shift, logger *zap.Logger) []string {
	registered, err := registry.GetVolunteers(ctx)
	if err != nil {
		logger.Error("Failed to fetch registered volunteers, roster may be incomplete", zap.Error(err))
		registered = nil
	}
	return identity.Roster(static, registered, shifts)
}
