package calendar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAvailability(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemory()
	start := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)

	free, err := cal.IsAvailable(ctx, start, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, free)

	_, err = cal.CreateEvent(ctx, CreateEventRequest{Start: start, Duration: 30 * time.Minute, Title: "RDV"})
	require.NoError(t, err)

	free, err = cal.IsAvailable(ctx, start, 30*time.Minute)
	require.NoError(t, err)
	assert.False(t, free)

	// Partial overlap is still a collision.
	free, err = cal.IsAvailable(ctx, start.Add(15*time.Minute), 30*time.Minute)
	require.NoError(t, err)
	assert.False(t, free)

	// Adjacent interval is free.
	free, err = cal.IsAvailable(ctx, start.Add(30*time.Minute), 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestInMemoryCreateEventIdempotent(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemory()
	req := CreateEventRequest{
		Start:          time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC),
		Duration:       30 * time.Minute,
		Title:          "RDV",
		IdempotencyKey: "whatsapp:+32470000001:2025-01-14T10:00:00Z",
	}

	first, err := cal.CreateEvent(ctx, req)
	require.NoError(t, err)

	second, err := cal.CreateEvent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "replayed idempotency key must return the original event")
	assert.Len(t, cal.Events(), 1)
}

func TestInMemoryCreateEventSlotTaken(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemory()
	start := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)

	_, err := cal.CreateEvent(ctx, CreateEventRequest{
		Start: start, Duration: 30 * time.Minute, Title: "RDV", IdempotencyKey: "k1",
	})
	require.NoError(t, err)

	_, err = cal.CreateEvent(ctx, CreateEventRequest{
		Start: start, Duration: 30 * time.Minute, Title: "RDV", IdempotencyKey: "k2",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestInMemoryConcurrentCreateSameSlot(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemory()
	start := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cal.CreateEvent(ctx, CreateEventRequest{
				Start:          start,
				Duration:       30 * time.Minute,
				Title:          "RDV",
				IdempotencyKey: string(rune('a' + i)),
			})
		}(i)
	}
	wg.Wait()

	var booked int
	for _, err := range errs {
		if err == nil {
			booked++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, booked, "exactly one concurrent commit may win the slot")
}

func TestSuggestAlternativesSkipsBusy(t *testing.T) {
	ctx := context.Background()
	cal := NewInMemory()
	start := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)

	// Busy at +1h, free elsewhere.
	_, err := cal.CreateEvent(ctx, CreateEventRequest{
		Start: start.Add(time.Hour), Duration: 30 * time.Minute, Title: "RDV",
	})
	require.NoError(t, err)

	alts, err := cal.SuggestAlternatives(ctx, start, 30*time.Minute, 3)
	require.NoError(t, err)
	require.Len(t, alts, 3)
	assert.Equal(t, start.Add(2*time.Hour), alts[0])
	assert.Equal(t, start.AddDate(0, 0, 1), alts[1])
}

func TestEventIDFromKeyDeterministic(t *testing.T) {
	a := EventIDFromKey("whatsapp:+32470000001:2025-01-14T10:00:00Z")
	b := EventIDFromKey("whatsapp:+32470000001:2025-01-14T10:00:00Z")
	c := EventIDFromKey("whatsapp:+32470000001:2025-01-14T11:00:00Z")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^[a-v0-9]+$`, a, "google event IDs use lowercase base32hex")
}
