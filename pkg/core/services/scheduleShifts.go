package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/auth"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/core/recurrence"
	"github.com/jakechorley/point-rota/pkg/core/repository"
)

// ErrNoDates is returned when a request expands to nothing, e.g. a range ending before it starts
var ErrNoDates = &model.ValidationError{Reason: "the request expands to no dates (does the range end before it starts?)"}

// ShiftWriter defines the repository operation needed to schedule shifts
type ShiftWriter interface {
	CreateMany(ctx context.Context, shifts []model.Shift) (repository.BatchResult, error)
}

// ScheduleRequest is one submission of the add-shift form
type ScheduleRequest struct {
	VolunteerName string
	Recurrence    recurrence.Request
	StartTime     string
	EndTime       string
}

// ScheduleResult lists the expanded dates and what was written for them
type ScheduleResult struct {
	Dates []time.Time
	Batch repository.BatchResult
}

// ScheduleShifts expands the request into dates and writes one shift per date.
// Validation problems abort before anything is written; write failures on single
// dates are reported in the result and do not undo the other dates.
func ScheduleShifts(
	ctx context.Context,
	writer ShiftWriter,
	session *auth.Session,
	logger *zap.Logger,
	req ScheduleRequest,
	today time.Time,
) (*ScheduleResult, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	logger.Debug("Scheduling shifts",
		zap.String("volunteer", req.VolunteerName),
		zap.String("mode", string(req.Recurrence.Mode)),
		zap.String("start", req.StartTime),
		zap.String("end", req.EndTime))

	dates, err := recurrence.Expand(req.Recurrence, today)
	if err != nil {
		return nil, &model.ValidationError{Reason: err.Error()}
	}
	if len(dates) == 0 {
		return nil, ErrNoDates
	}

	shifts := make([]model.Shift, len(dates))
	for i, d := range dates {
		shifts[i] = model.Shift{
			VolunteerName: req.VolunteerName,
			Date:          model.FormatDate(d),
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
		}
	}

	batch, err := writer.CreateMany(ctx, shifts)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule shifts: %w", err)
	}

	if len(batch.Failures) > 0 {
		logger.Warn("Some shifts could not be written",
			zap.Int("failed", len(batch.Failures)),
			zap.Int("created", len(batch.Created)))
	}

	return &ScheduleResult{Dates: dates, Batch: batch}, nil
}
