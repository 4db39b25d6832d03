// Package repository owns the live, authoritative set of shifts for a session.
//
// The repository mirrors the document store: every change signal from the store
// triggers a full reload, and the reloaded set replaces the previous one before it
// is handed to subscribers. Writers are not coordinated. Two sessions editing the
// same shift both succeed and the last write wins; overlapping shifts are stored
// and surfaced by the overlap detector rather than refused.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/core/identity"
	"github.com/jakechorley/point-rota/pkg/core/model"
	"github.com/jakechorley/point-rota/pkg/db"
	"github.com/jakechorley/point-rota/pkg/metrics"
)

// Store is the part of the document store the repository needs
type Store interface {
	db.ShiftStore
	db.Watcher
}

// FailedWrite records one shift of a batch that could not be written
type FailedWrite struct {
	Shift model.Shift
	Err   error
}

// BatchResult reports the outcome of CreateMany. Created shifts stay written
// even when other shifts of the same batch failed.
type BatchResult struct {
	Created  []model.Shift
	Failures []FailedWrite
}

// IDs returns the ids of the created shifts in batch order
func (b BatchResult) IDs() []string {
	ids := make([]string, len(b.Created))
	for i, s := range b.Created {
		ids[i] = s.ID
	}
	return ids
}

// Repository holds the latest shift snapshot and fans it out to subscribers
type Repository struct {
	store    Store
	resolver identity.Resolver
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu          sync.RWMutex
	snapshot    []model.Shift
	subscribers map[int]func([]model.Shift)
	nextSubID   int

	// deliverMu keeps snapshot deliveries in order
	deliverMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a repository. Call Start to load and follow the store.
func New(store Store, resolver identity.Resolver, logger *zap.Logger, m *metrics.Metrics) *Repository {
	return &Repository{
		store:       store,
		resolver:    resolver,
		logger:      logger,
		metrics:     m,
		snapshot:    []model.Shift{},
		subscribers: make(map[int]func([]model.Shift)),
	}
}

// Start loads the initial snapshot and follows store changes until ctx is done or Close is called.
// A failed initial load leaves an empty snapshot; it is logged, not returned.
func (r *Repository) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return errors.New("repository already started")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	changes, err := r.store.Watch(watchCtx, db.CollectionShifts)
	if err != nil {
		cancel()
		close(r.done)
		return fmt.Errorf("failed to watch shifts: %w", err)
	}

	r.reload(watchCtx)

	go func() {
		defer close(r.done)
		for range changes {
			r.reload(watchCtx)
		}
		r.logger.Debug("Shift subscription ended")
	}()

	return nil
}

// Close tears down the store subscription and waits for the follow loop to exit
func (r *Repository) Close() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Snapshot returns a copy of the latest shift set
func (r *Repository) Snapshot() []model.Shift {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyShifts(r.snapshot)
}

// Subscribe registers fn to receive the full shift set now and after every change.
// fn must not call Subscribe. The returned function unsubscribes.
func (r *Repository) Subscribe(fn func([]model.Shift)) (unsubscribe func()) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn
	current := copyShifts(r.snapshot)
	r.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
		})
	}
}

// Create validates and writes a single shift, returning its id
func (r *Repository) Create(ctx context.Context, shift model.Shift) (string, error) {
	result, err := r.CreateMany(ctx, []model.Shift{shift})
	if err != nil {
		return "", err
	}
	if len(result.Failures) > 0 {
		return "", result.Failures[0].Err
	}
	return result.Created[0].ID, nil
}

// CreateMany writes one shift per candidate.
//
// Every candidate is validated and every volunteer resolved before the first write;
// any failure there rejects the whole batch with nothing written. The writes that
// follow are independent: a failed write is logged and reported in the result, the
// rest still go ahead, and nothing is rolled back. Cancelling ctx does not stop a
// batch that has started writing.
func (r *Repository) CreateMany(ctx context.Context, shifts []model.Shift) (BatchResult, error) {
	if len(shifts) == 0 {
		return BatchResult{}, &model.ValidationError{Reason: "no shifts to create"}
	}

	for _, s := range shifts {
		if err := s.Validate(); err != nil {
			r.metrics.ShiftWrite("create", metrics.ResultRejected)
			return BatchResult{}, fmt.Errorf("shift on %s rejected: %w", s.Date, err)
		}
	}

	// Resolve each distinct name once; this registers unknown volunteers
	resolved := make(map[string]model.Volunteer)
	for _, s := range shifts {
		key := model.Slug(s.VolunteerName)
		if _, ok := resolved[key]; ok {
			continue
		}
		volunteer, err := r.resolver.Resolve(ctx, s.VolunteerName)
		if err != nil {
			r.metrics.ShiftWrite("create", metrics.ResultRejected)
			return BatchResult{}, fmt.Errorf("failed to resolve volunteer %q: %w", s.VolunteerName, err)
		}
		resolved[key] = volunteer
	}

	writeCtx := context.WithoutCancel(ctx)
	var result BatchResult
	for _, s := range shifts {
		s.ID = ""
		s.VolunteerName = resolved[model.Slug(s.VolunteerName)].Name

		if err := r.store.InsertShift(writeCtx, &s); err != nil {
			r.logger.Error("Failed to write shift",
				zap.String("volunteer", s.VolunteerName),
				zap.String("date", s.Date),
				zap.String("start", s.StartTime),
				zap.String("end", s.EndTime),
				zap.Error(err))
			r.metrics.ShiftWrite("create", metrics.ResultFailed)
			result.Failures = append(result.Failures, FailedWrite{Shift: s, Err: err})
			continue
		}

		r.metrics.ShiftWrite("create", metrics.ResultOK)
		result.Created = append(result.Created, s)
	}

	r.logger.Info("Shift batch written",
		zap.Int("requested", len(shifts)),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failures)))

	return result, nil
}

// Update changes the date and times of a shift. Volunteer and id never change.
func (r *Repository) Update(ctx context.Context, id string, patch model.ShiftPatch) error {
	if err := patch.Validate(); err != nil {
		r.metrics.ShiftWrite("update", metrics.ResultRejected)
		return err
	}

	if err := r.store.UpdateShift(ctx, id, patch); err != nil {
		r.logger.Error("Failed to update shift", zap.String("id", id), zap.Error(err))
		r.metrics.ShiftWrite("update", metrics.ResultFailed)
		return fmt.Errorf("failed to update shift %s: %w", id, err)
	}

	r.metrics.ShiftWrite("update", metrics.ResultOK)
	r.logger.Info("Shift updated",
		zap.String("id", id),
		zap.String("date", patch.Date),
		zap.String("start", patch.StartTime),
		zap.String("end", patch.EndTime))
	return nil
}

// Delete removes one shift by id
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteShift(ctx, id); err != nil {
		r.logger.Error("Failed to delete shift", zap.String("id", id), zap.Error(err))
		r.metrics.ShiftWrite("delete", metrics.ResultFailed)
		return fmt.Errorf("failed to delete shift %s: %w", id, err)
	}

	r.metrics.ShiftWrite("delete", metrics.ResultOK)
	r.logger.Info("Shift deleted", zap.String("id", id))
	return nil
}

// reload replaces the snapshot with the store's current shifts and notifies subscribers.
// On a read failure the previous snapshot stays in place.
func (r *Repository) reload(ctx context.Context) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	shifts, err := r.store.GetShifts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Failed to reload shifts, keeping previous snapshot", zap.Error(err))
			r.metrics.SnapshotError()
		}
		return
	}
	if shifts == nil {
		shifts = []model.Shift{}
	}

	r.mu.Lock()
	r.snapshot = shifts
	subscribers := make([]func([]model.Shift), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subscribers = append(subscribers, fn)
	}
	r.mu.Unlock()

	r.logger.Debug("Shift snapshot replaced",
		zap.Int("shifts", len(shifts)),
		zap.Int("subscribers", len(subscribers)))
	r.metrics.Snapshot(len(shifts))

	for _, fn := range subscribers {
		fn(copyShifts(shifts))
	}
}

func copyShifts(shifts []model.Shift) []model.Shift {
	out := make([]model.Shift, len(shifts))
	copy(out, shifts)
	return out
}
