package link

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("link not found")
	ErrGone     = errors.New("link expired or exhausted")
)

// Outcome of a single TryConsume transaction.
type Outcome int

const (
	OutcomeGranted Outcome = iota
	OutcomeNotFound
	OutcomeExpired
	OutcomeExhausted
)

type (
	Link struct {
		ID     uuid.UUID
		BlobID string

		FileName  string
		MimeType  string
		SizeBytes uint64

		MaxDownloads       uint32
		RemainingDownloads uint32

		CreatedAt time.Time
		ExpiresAt time.Time
	}
	Links []*Link

	// Consume is the result of one check-and-decrement on a link.
	// Purge tells the caller the entry is terminal and must be removed
	// together with its blob. Link is a post-decrement snapshot, set only
	// on a granted outcome.
	Consume struct {
		Outcome   Outcome
		Remaining uint32
		Last      bool
		Purge     bool
		Link      *Link
	}

	// Upload carries one inbound file into the coordinator. Zero values
	// for MaxDownloads/TTL mean "use the configured defaults".
	Upload struct {
		FileName     string
		MimeType     string
		SizeBytes    uint64
		Body         io.Reader
		MaxDownloads uint32
		TTL          time.Duration
	}

	// Download is a granted access: an open blob handle plus the
	// metadata needed to stream it back.
	Download struct {
		Body      io.ReadCloser
		FileName  string
		MimeType  string
		SizeBytes uint64
		Remaining uint32
	}
)

// ExpiresIn reports the remaining lifetime in whole seconds, clamped at zero.
func (l *Link) ExpiresIn(now time.Time) uint64 {
	d := l.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}
