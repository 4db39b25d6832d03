package db

import (
	"context"
	"errors"

	"github.com/jakechorley/point-rota/pkg/core/model"
)

// ErrNotFound is returned when a record with the requested id does not exist
var ErrNotFound = errors.New("record not found")

// Collection names a logically separate, independently watchable set of records
type Collection string

const (
	CollectionShifts     Collection = "shifts"
	CollectionVolunteers Collection = "volunteers"
	CollectionStatus     Collection = "status"
)

// ShiftStore defines the interface for shift database operations.
// Writers are not coordinated: the last write to a record wins.
type ShiftStore interface {
	GetShifts(ctx context.Context) ([]model.Shift, error)
	// InsertShift assigns ID, CreatedAt and UpdatedAt on the passed shift
	InsertShift(ctx context.Context, shift *model.Shift) error
	UpdateShift(ctx context.Context, id string, patch model.ShiftPatch) error
	DeleteShift(ctx context.Context, id string) error
}

// VolunteerStore defines the interface for the dynamically registered roster
type VolunteerStore interface {
	GetVolunteers(ctx context.Context) ([]model.Volunteer, error)
	// UpsertVolunteer keys the record by volunteer.ID, keeping the original CreatedAt
	UpsertVolunteer(ctx context.Context, volunteer *model.Volunteer) error
}

// StatusStore defines the interface for the single point status record.
// Both setters merge into the existing record rather than replacing it.
type StatusStore interface {
	// GetStatus returns a closed, zero status when nothing has been written yet
	GetStatus(ctx context.Context) (*model.PointStatus, error)
	SetStatusOpen(ctx context.Context, isOpen bool, updatedBy string) error
	SetStatusNote(ctx context.Context, note string, updatedBy string) error
}

// Watcher delivers a signal whenever a collection changes.
// Signals are coalesced: a receiver that falls behind sees one pending signal, not a backlog.
// The channel is closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, collection Collection) (<-chan struct{}, error)
}

// Database defines the interface for all database operations.
// The postgres, sqlite and in-memory stores implement it.
type Database interface {
	ShiftStore
	VolunteerStore
	StatusStore
	Watcher
	Close() error
}
