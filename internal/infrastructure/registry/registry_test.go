package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrop-api/internal/domain/link"
)

func newTestLink(remaining uint32, expiresAt time.Time) *link.Link {
	return &link.Link{
		BlobID:             uuid.New().String(),
		FileName:           "doc.pdf",
		MimeType:           "application/pdf",
		SizeBytes:          42,
		MaxDownloads:       remaining,
		RemainingDownloads: remaining,
		CreatedAt:          time.Now(),
		ExpiresAt:          expiresAt,
	}
}

func TestRegistry_TryConsume_NotFound(t *testing.T) {
	r := New()

	res := r.TryConsume(context.Background(), uuid.New(), time.Now())

	assert.Equal(t, link.OutcomeNotFound, res.Outcome)
	assert.False(t, res.Purge)
}

func TestRegistry_TryConsume_DecrementsToExhaustion(t *testing.T) {
	ctx := context.Background()
	r := New()

	l, err := r.Create(ctx, newTestLink(3, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, l.ID)

	for want := uint32(2); ; want-- {
		res := r.TryConsume(ctx, l.ID, time.Now())
		require.Equal(t, link.OutcomeGranted, res.Outcome)
		require.Equal(t, want, res.Remaining)
		require.NotNil(t, res.Link)
		assert.Equal(t, l.BlobID, res.Link.BlobID)
		assert.Equal(t, want == 0, res.Last)
		if want == 0 {
			break
		}
	}

	// the counter never goes negative; a fourth call is terminal
	res := r.TryConsume(ctx, l.ID, time.Now())
	assert.Equal(t, link.OutcomeExhausted, res.Outcome)
	assert.True(t, res.Purge)
}

func TestRegistry_TryConsume_Expired(t *testing.T) {
	ctx := context.Background()
	r := New()

	l, err := r.Create(ctx, newTestLink(3, time.Now().Add(-time.Second)))
	require.NoError(t, err)

	res := r.TryConsume(ctx, l.ID, time.Now())
	require.Equal(t, link.OutcomeExpired, res.Outcome)
	require.True(t, res.Purge)

	removed, ok := r.Remove(ctx, l.ID)
	require.True(t, ok)
	assert.Equal(t, l.BlobID, removed.BlobID)

	res = r.TryConsume(ctx, l.ID, time.Now())
	assert.Equal(t, link.OutcomeNotFound, res.Outcome)
}

func TestRegistry_TryConsume_ExpiryBeatsRemainingBudget(t *testing.T) {
	ctx := context.Background()
	r := New()

	l, err := r.Create(ctx, newTestLink(3, time.Now().Add(50*time.Millisecond)))
	require.NoError(t, err)

	res := r.TryConsume(ctx, l.ID, time.Now())
	require.Equal(t, link.OutcomeGranted, res.Outcome)

	time.Sleep(60 * time.Millisecond)

	// budget left, but the deadline has passed
	res = r.TryConsume(ctx, l.ID, time.Now())
	assert.Equal(t, link.OutcomeExpired, res.Outcome)
	assert.True(t, res.Purge)
}

func TestRegistry_TryConsume_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := New()

	l, err := r.Create(ctx, newTestLink(3, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	const callers = 5
	results := make(chan link.Consume, callers)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- r.TryConsume(ctx, l.ID, time.Now())
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var granted, exhausted int
	remaining := make(map[uint32]bool)
	for res := range results {
		switch res.Outcome {
		case link.OutcomeGranted:
			granted++
			remaining[res.Remaining] = true
			assert.Equal(t, res.Remaining == 0, res.Last)
		case link.OutcomeExhausted:
			exhausted++
			assert.True(t, res.Purge)
		default:
			t.Fatalf("unexpected outcome %v", res.Outcome)
		}
	}

	assert.Equal(t, 3, granted)
	assert.Equal(t, 2, exhausted)
	assert.Equal(t, map[uint32]bool{2: true, 1: true, 0: true}, remaining)

	// once purged, later callers see NotFound
	_, ok := r.Remove(ctx, l.ID)
	require.True(t, ok)
	res := r.TryConsume(ctx, l.ID, time.Now())
	assert.Equal(t, link.OutcomeNotFound, res.Outcome)
}

func TestRegistry_Remove_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := New()

	l, err := r.Create(ctx, newTestLink(1, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	entry, ok := r.Remove(ctx, l.ID)
	require.True(t, ok)
	require.NotNil(t, entry)

	entry, ok = r.Remove(ctx, l.ID)
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestRegistry_ScanExpired(t *testing.T) {
	ctx := context.Background()
	r := New()
	now := time.Now()

	expired1, err := r.Create(ctx, newTestLink(3, now.Add(-time.Minute)))
	require.NoError(t, err)
	expired2, err := r.Create(ctx, newTestLink(3, now))
	require.NoError(t, err)
	live, err := r.Create(ctx, newTestLink(3, now.Add(time.Hour)))
	require.NoError(t, err)

	ids := r.ScanExpired(ctx, now)

	assert.ElementsMatch(t, []uuid.UUID{expired1.ID, expired2.ID}, ids)
	assert.NotContains(t, ids, live.ID)
}

func TestRegistry_Create_AssignsFreshIDs(t *testing.T) {
	ctx := context.Background()
	r := New()

	a, err := r.Create(ctx, newTestLink(1, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	b, err := r.Create(ctx, newTestLink(1, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}
