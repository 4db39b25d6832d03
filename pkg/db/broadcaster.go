package db

import (
	"context"
	"sync"
)

// Broadcaster fans change signals out to watchers of each collection
type Broadcaster struct {
	mu       sync.Mutex
	watchers map[Collection]map[chan struct{}]struct{}
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		watchers: make(map[Collection]map[chan struct{}]struct{}),
	}
}

// Watch registers a watcher that lives until ctx is done
func (b *Broadcaster) Watch(ctx context.Context, collection Collection) <-chan struct{} {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.watchers[collection] == nil {
		b.watchers[collection] = make(map[chan struct{}]struct{})
	}
	b.watchers[collection][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers[collection], ch)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Notify signals every watcher of collection without blocking
func (b *Broadcaster) Notify(collection Collection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.watchers[collection] {
		select {
		case ch <- struct{}{}:
		default:
			// a signal is already pending
		}
	}
}

// NotifyAll signals watchers of every collection
func (b *Broadcaster) NotifyAll() {
	for _, c := range []Collection{CollectionShifts, CollectionVolunteers, CollectionStatus} {
		b.Notify(c)
	}
}
