package link

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Registry is the authoritative table of live links. It owns the only
// mutation path for RemainingDownloads and for removal.
type Registry interface {
	// Create assigns a fresh id and inserts the entry.
	Create(ctx context.Context, l *Link) (*Link, error)

	// TryConsume is a single indivisible check-and-decrement relative to
	// all other TryConsume calls on the same id: two concurrent callers
	// never both decrement from the same remaining value.
	TryConsume(ctx context.Context, id uuid.UUID, now time.Time) Consume

	// Remove idempotently deletes the entry, returning it exactly once so
	// that exactly one caller performs the blob deletion.
	Remove(ctx context.Context, id uuid.UUID) (*Link, bool)

	// ScanExpired returns a snapshot of ids whose deadline has passed.
	ScanExpired(ctx context.Context, now time.Time) []uuid.UUID
}
