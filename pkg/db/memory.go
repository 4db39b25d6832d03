package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/point-rota/pkg/core/model"
)

// Ensure MemoryDB implements Database
var _ Database = (*MemoryDB)(nil)

// MemoryDB is a process-local store, used for the "memory" driver and in tests
type MemoryDB struct {
	mu         sync.RWMutex
	shifts     map[string]model.Shift
	volunteers map[string]model.Volunteer
	status     model.PointStatus
	changes    *Broadcaster
	now        func() time.Time
}

// NewMemoryDB creates an empty in-memory store
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		shifts:     make(map[string]model.Shift),
		volunteers: make(map[string]model.Volunteer),
		changes:    NewBroadcaster(),
		now:        time.Now,
	}
}

// GetShifts returns all shifts ordered by date, start time and id
func (m *MemoryDB) GetShifts(ctx context.Context) ([]model.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shifts := make([]model.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		shifts = append(shifts, s)
	}
	SortShifts(shifts)
	return shifts, nil
}

// InsertShift stores a new shift under a generated id
func (m *MemoryDB) InsertShift(ctx context.Context, shift *model.Shift) error {
	now := m.now().UTC()
	shift.ID = uuid.New().String()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	m.mu.Lock()
	m.shifts[shift.ID] = *shift
	m.mu.Unlock()

	m.changes.Notify(CollectionShifts)
	return nil
}

// UpdateShift overwrites the date and times of an existing shift
func (m *MemoryDB) UpdateShift(ctx context.Context, id string, patch model.ShiftPatch) error {
	m.mu.Lock()
	existing, ok := m.shifts[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("shift %s: %w", id, ErrNotFound)
	}
	updated := patch.Apply(existing)
	updated.UpdatedAt = m.now().UTC()
	m.shifts[id] = updated
	m.mu.Unlock()

	m.changes.Notify(CollectionShifts)
	return nil
}

// DeleteShift removes a shift by id
func (m *MemoryDB) DeleteShift(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.shifts[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("shift %s: %w", id, ErrNotFound)
	}
	delete(m.shifts, id)
	m.mu.Unlock()

	m.changes.Notify(CollectionShifts)
	return nil
}

// GetVolunteers returns registered volunteers ordered by name
func (m *MemoryDB) GetVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	volunteers := make([]model.Volunteer, 0, len(m.volunteers))
	for _, v := range m.volunteers {
		volunteers = append(volunteers, v)
	}
	sort.Slice(volunteers, func(i, j int) bool { return volunteers[i].Name < volunteers[j].Name })
	return volunteers, nil
}

// UpsertVolunteer registers a volunteer, keeping the first CreatedAt
func (m *MemoryDB) UpsertVolunteer(ctx context.Context, volunteer *model.Volunteer) error {
	m.mu.Lock()
	if existing, ok := m.volunteers[volunteer.ID]; ok {
		volunteer.CreatedAt = existing.CreatedAt
	} else if volunteer.CreatedAt.IsZero() {
		volunteer.CreatedAt = m.now().UTC()
	}
	m.volunteers[volunteer.ID] = *volunteer
	m.mu.Unlock()

	m.changes.Notify(CollectionVolunteers)
	return nil
}

// GetStatus returns the current point status
func (m *MemoryDB) GetStatus(ctx context.Context) (*model.PointStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := m.status
	return &status, nil
}

// SetStatusOpen merges the open flag into the status record
func (m *MemoryDB) SetStatusOpen(ctx context.Context, isOpen bool, updatedBy string) error {
	m.mu.Lock()
	m.status.IsOpen = isOpen
	m.status.UpdatedBy = updatedBy
	m.status.UpdatedAt = m.now().UTC()
	m.mu.Unlock()

	m.changes.Notify(CollectionStatus)
	return nil
}

// SetStatusNote merges the note into the status record
func (m *MemoryDB) SetStatusNote(ctx context.Context, note string, updatedBy string) error {
	m.mu.Lock()
	m.status.Note = note
	m.status.UpdatedBy = updatedBy
	m.status.UpdatedAt = m.now().UTC()
	m.mu.Unlock()

	m.changes.Notify(CollectionStatus)
	return nil
}

// Watch subscribes to changes of a collection
func (m *MemoryDB) Watch(ctx context.Context, collection Collection) (<-chan struct{}, error) {
	return m.changes.Watch(ctx, collection), nil
}

// Close is a no-op for the in-memory store
func (m *MemoryDB) Close() error {
	return nil
}

// SortShifts orders shifts by date, start time, end time and id
func SortShifts(shifts []model.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.EndTime != b.EndTime {
			return a.EndTime < b.EndTime
		}
		return a.ID < b.ID
	})
}
