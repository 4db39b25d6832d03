// Package sqlite provides a SQLite-backed implementation of db.Database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
)

// Ensure SQLiteStore implements db.Database
var _ db.Database = (*SQLiteStore)(nil)

const defaultPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteStore implements db.Database on a SQLite file shared by every process on the host.
// Changes made by other processes are picked up by polling PRAGMA data_version.
type SQLiteStore struct {
	sqlDB    *sql.DB
	tenantID string
	logger   *zap.Logger
	changes  *db.Broadcaster

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the database at path, creating parent directories and tables as needed.
// pollInterval controls how quickly writes from other processes are noticed; zero disables polling.
func New(ctx context.Context, path, tenantID string, pollInterval time.Duration, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every pooled connection to an in-memory database gets its own empty copy,
	// and the version poller would need a second connection
	if isInMemory(path) {
		sqlDB.SetMaxOpenConns(1)
		pollInterval = 0
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	store := &SQLiteStore{
		sqlDB:    sqlDB,
		tenantID: tenantID,
		logger:   logger,
		changes:  db.NewBroadcaster(),
		cancel:   cancel,
	}

	if pollInterval > 0 {
		store.wg.Add(1)
		go store.pollDataVersion(pollCtx, pollInterval)
	}

	logger.Debug("SQLite store opened", zap.String("path", path), zap.String("tenant", tenantID))
	return store, nil
}

func isInMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}

func withPragmas(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + defaultPragmas
	}
	return path + "?" + defaultPragmas
}

// Close stops polling and closes the database
func (s *SQLiteStore) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.sqlDB.Close()
}

// GetShifts returns all shifts of the tenant ordered by date and time
func (s *SQLiteStore) GetShifts(ctx context.Context) ([]model.Shift, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, volunteer_name, date, start_time, end_time, created_at, updated_at
		FROM shifts
		WHERE tenant_id = ?
		ORDER BY date, start_time, end_time, id`, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	shifts := []model.Shift{}
	for rows.Next() {
		var shift model.Shift
		var createdAt, updatedAt int64
		if err := rows.Scan(&shift.ID, &shift.VolunteerName, &shift.Date, &shift.StartTime, &shift.EndTime, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shift.CreatedAt = fromMillis(createdAt)
		shift.UpdatedAt = fromMillis(updatedAt)
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}
	return shifts, nil
}

// InsertShift stores a new shift under a generated id
func (s *SQLiteStore) InsertShift(ctx context.Context, shift *model.Shift) error {
	now := time.Now().UTC()
	id := uuid.New().String()

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO shifts (tenant_id, id, volunteer_name, date, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.tenantID, id, shift.VolunteerName, shift.Date, shift.StartTime, shift.EndTime, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}

	shift.ID = id
	shift.CreatedAt = fromMillis(now.UnixMilli())
	shift.UpdatedAt = shift.CreatedAt
	s.changes.Notify(db.CollectionShifts)
	return nil
}

// UpdateShift overwrites the date and times of an existing shift
func (s *SQLiteStore) UpdateShift(ctx context.Context, id string, patch model.ShiftPatch) error {
	res, err := s.sqlDB.ExecContext(ctx, `
		UPDATE shifts SET date = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		patch.Date, patch.StartTime, patch.EndTime, time.Now().UnixMilli(), s.tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if err := expectOneRow(res, "shift", id); err != nil {
		return err
	}

	s.changes.Notify(db.CollectionShifts)
	return nil
}

// DeleteShift removes a shift by id
func (s *SQLiteStore) DeleteShift(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM shifts WHERE tenant_id = ? AND id = ?", s.tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if err := expectOneRow(res, "shift", id); err != nil {
		return err
	}

	s.changes.Notify(db.CollectionShifts)
	return nil
}

// GetVolunteers returns registered volunteers ordered by name
func (s *SQLiteStore) GetVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT id, name, created_at FROM volunteers WHERE tenant_id = ? ORDER BY name", s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := []model.Volunteer{}
	for rows.Next() {
		var v model.Volunteer
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		v.CreatedAt = fromMillis(createdAt)
		volunteers = append(volunteers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}
	return volunteers, nil
}

// UpsertVolunteer registers a volunteer, keeping the first CreatedAt
func (s *SQLiteStore) UpsertVolunteer(ctx context.Context, volunteer *model.Volunteer) error {
	createdAt := volunteer.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var stored int64
	err := s.sqlDB.QueryRowContext(ctx, `
		INSERT INTO volunteers (tenant_id, id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, id) DO UPDATE SET name = excluded.name
		RETURNING created_at`,
		s.tenantID, volunteer.ID, volunteer.Name, createdAt.UnixMilli()).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to upsert volunteer: %w", err)
	}

	volunteer.CreatedAt = fromMillis(stored)
	s.changes.Notify(db.CollectionVolunteers)
	return nil
}

// GetStatus returns the point status, or a closed status if none has been written
func (s *SQLiteStore) GetStatus(ctx context.Context) (*model.PointStatus, error) {
	var status model.PointStatus
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT is_open, note, updated_by, updated_at FROM status WHERE tenant_id = ?", s.tenantID).
		Scan(&status.IsOpen, &status.Note, &status.UpdatedBy, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.PointStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query status: %w", err)
	}
	status.UpdatedAt = fromMillis(updatedAt)
	return &status, nil
}

// SetStatusOpen merges the open flag into the status record
func (s *SQLiteStore) SetStatusOpen(ctx context.Context, isOpen bool, updatedBy string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO status (tenant_id, is_open, updated_by, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id) DO UPDATE SET
			is_open = excluded.is_open,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		s.tenantID, isOpen, updatedBy, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	s.changes.Notify(db.CollectionStatus)
	return nil
}

// SetStatusNote merges the note into the status record
func (s *SQLiteStore) SetStatusNote(ctx context.Context, note string, updatedBy string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO status (tenant_id, note, updated_by, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id) DO UPDATE SET
			note = excluded.note,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		s.tenantID, note, updatedBy, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set status note: %w", err)
	}
	s.changes.Notify(db.CollectionStatus)
	return nil
}

// Watch subscribes to changes of a collection, including writes made by other processes
func (s *SQLiteStore) Watch(ctx context.Context, collection db.Collection) (<-chan struct{}, error) {
	return s.changes.Watch(ctx, collection), nil
}

// pollDataVersion holds one connection and signals every collection when the
// database is changed through any other connection
func (s *SQLiteStore) pollDataVersion(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	conn, err := s.sqlDB.Conn(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Failed to acquire connection for change polling", zap.Error(err))
		}
		return
	}
	defer conn.Close()

	var last int64
	if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&last); err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Failed to read data version", zap.Error(err))
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var version int64
			if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version); err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("Failed to poll data version", zap.Error(err))
				}
				continue
			}
			if version != last {
				last = version
				s.changes.NotifyAll()
			}
		}
	}
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, db.ErrNotFound)
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
