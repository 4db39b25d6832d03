package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

// GetShifts retrieves all shifts of the tenant ordered by date and time
func (d *DB) GetShifts(ctx context.Context) ([]model.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, volunteer_name, date, start_time, end_time, created_at, updated_at
		FROM shifts
		WHERE tenant_id = $1
		ORDER BY date, start_time, end_time, id
	`, d.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	shifts := []model.Shift{}
	for rows.Next() {
		var s model.Shift
		var date time.Time
		if err := rows.Scan(&s.ID, &s.VolunteerName, &date, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.Date = date.Format(model.DateLayout)
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// InsertShift inserts a new shift under a generated id
func (d *DB) InsertShift(ctx context.Context, shift *model.Shift) error {
	id := uuid.New().String()

	var createdAt time.Time
	err := d.pool.QueryRow(ctx, `
		INSERT INTO shifts (tenant_id, id, volunteer_name, date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, d.tenantID, id, shift.VolunteerName, shift.Date, shift.StartTime, shift.EndTime).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}

	shift.ID = id
	shift.CreatedAt = createdAt.UTC()
	shift.UpdatedAt = shift.CreatedAt
	return nil
}

// UpdateShift overwrites the date and times of a shift
func (d *DB) UpdateShift(ctx context.Context, id string, patch model.ShiftPatch) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shifts SET date = $3, start_time = $4, end_time = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`, d.tenantID, id, patch.Date, patch.StartTime, patch.EndTime)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shift %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// DeleteShift removes a shift by id
func (d *DB) DeleteShift(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM shifts WHERE tenant_id = $1 AND id = $2
	`, d.tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shift %s: %w", id, db.ErrNotFound)
	}
	return nil
}
