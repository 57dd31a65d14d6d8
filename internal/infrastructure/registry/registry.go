package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"filedrop-api/internal/domain/link"
)

// Registry is the in-memory link table. A single RWMutex over the map is
// enough here: TryConsume touches memory only and entry counts are modest.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*link.Link
}

func New() link.Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*link.Link),
	}
}

func (r *Registry) Create(_ context.Context, l *link.Link) (*link.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	// ids are never reused; regenerate on the vanishingly unlikely collision
	for {
		if _, exists := r.entries[id]; !exists {
			break
		}
		id = uuid.New()
	}

	entry := *l
	entry.ID = id
	r.entries[id] = &entry

	out := entry
	return &out, nil
}

func (r *Registry) TryConsume(_ context.Context, id uuid.UUID, now time.Time) link.Consume {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return link.Consume{Outcome: link.OutcomeNotFound}
	}

	if !now.Before(entry.ExpiresAt) {
		return link.Consume{Outcome: link.OutcomeExpired, Purge: true}
	}

	// remaining == 0 should already have been purged by the coordinator;
	// handle it anyway so the counter can never go negative
	if entry.RemainingDownloads == 0 {
		return link.Consume{Outcome: link.OutcomeExhausted, Purge: true}
	}

	entry.RemainingDownloads--

	snap := *entry
	return link.Consume{
		Outcome:   link.OutcomeGranted,
		Remaining: entry.RemainingDownloads,
		Last:      entry.RemainingDownloads == 0,
		Link:      &snap,
	}
}

func (r *Registry) Remove(_ context.Context, id uuid.UUID) (*link.Link, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)

	out := *entry
	return &out, true
}

func (r *Registry) ScanExpired(_ context.Context, now time.Time) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for id, entry := range r.entries {
		if !now.Before(entry.ExpiresAt) {
			ids = append(ids, id)
		}
	}

	return ids
}
