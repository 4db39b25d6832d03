package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/point-rota/pkg/core/model"
)

// GetVolunteers retrieves registered volunteers ordered by name
func (d *DB) GetVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, created_at FROM volunteers WHERE tenant_id = $1 ORDER BY name
	`, d.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := []model.Volunteer{}
	for rows.Next() {
		var v model.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		v.CreatedAt = v.CreatedAt.UTC()
		volunteers = append(volunteers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// UpsertVolunteer registers a volunteer, keeping the first created_at
func (d *DB) UpsertVolunteer(ctx context.Context, volunteer *model.Volunteer) error {
	createdAt := volunteer.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var stored time.Time
	err := d.pool.QueryRow(ctx, `
		INSERT INTO volunteers (tenant_id, id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, id) DO UPDATE SET name = EXCLUDED.name
		RETURNING created_at
	`, d.tenantID, volunteer.ID, volunteer.Name, createdAt.UTC()).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to upsert volunteer: %w", err)
	}

	volunteer.CreatedAt = stored.UTC()
	return nil
}

// GetStatus retrieves the point status, or a closed status if none has been written
func (d *DB) GetStatus(ctx context.Context) (*model.PointStatus, error) {
	var status model.PointStatus
	var updatedAt *time.Time
	err := d.pool.QueryRow(ctx, `
		SELECT is_open, note, updated_by, updated_at FROM status WHERE tenant_id = $1
	`, d.tenantID).Scan(&status.IsOpen, &status.Note, &status.UpdatedBy, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.PointStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query status: %w", err)
	}
	if updatedAt != nil {
		status.UpdatedAt = updatedAt.UTC()
	}
	return &status, nil
}

// SetStatusOpen merges the open flag into the status record
func (d *DB) SetStatusOpen(ctx context.Context, isOpen bool, updatedBy string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO status (tenant_id, is_open, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			is_open = EXCLUDED.is_open,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`, d.tenantID, isOpen, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// SetStatusNote merges the note into the status record
func (d *DB) SetStatusNote(ctx context.Context, note string, updatedBy string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO status (tenant_id, note, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			note = EXCLUDED.note,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`, d.tenantID, note, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to set status note: %w", err)
	}
	return nil
}
