package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory is a mutex-guarded calendar for dev and tests. The check and
// the write in CreateEvent happen under one lock, so concurrent commits
// for the same interval cannot both succeed.
type InMemory struct {
	mu     sync.Mutex
	events []*Event
	byKey  map[string]*Event
}

// NewInMemory returns an empty in-memory calendar.
func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[string]*Event)}
}

func (c *InMemory) overlapsLocked(start, end time.Time) bool {
	for _, e := range c.events {
		if start.Before(e.End) && e.Start.Before(end) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether the interval is free of existing events.
func (c *InMemory) IsAvailable(_ context.Context, start time.Time, duration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.overlapsLocked(start, start.Add(duration)), nil
}

// SuggestAlternatives probes +1h, +2h, next day, next day +1h, next day
// +2h, then +2 days, returning the first free candidates.
func (c *InMemory) SuggestAlternatives(ctx context.Context, start time.Time, duration time.Duration, count int) ([]time.Time, error) {
	deltas := []time.Duration{
		time.Hour,
		2 * time.Hour,
		24 * time.Hour,
		25 * time.Hour,
		26 * time.Hour,
		48 * time.Hour,
	}
	var out []time.Time
	for _, d := range deltas {
		candidate := start.Add(d)
		free, err := c.IsAvailable(ctx, candidate, duration)
		if err != nil {
			return nil, err
		}
		if free {
			out = append(out, candidate)
		}
		if len(out) >= count {
			break
		}
	}
	return out, nil
}

// CreateEvent writes an event atomically. A request that repeats a known
// idempotency key returns the previously created event unchanged.
func (c *InMemory) CreateEvent(_ context.Context, req CreateEventRequest) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.IdempotencyKey != "" {
		if existing, ok := c.byKey[req.IdempotencyKey]; ok {
			return existing, nil
		}
	}

	end := req.Start.Add(req.Duration)
	if c.overlapsLocked(req.Start, end) {
		return nil, ErrSlotTaken
	}

	evt := &Event{
		ID:           uuid.NewString(),
		Start:        req.Start,
		End:          end,
		Title:        req.Title,
		Description:  req.Description,
		PatientName:  req.Patient.Name,
		PatientPhone: req.Patient.Phone,
		PatientEmail: req.Patient.Email,
	}
	c.events = append(c.events, evt)
	if req.IdempotencyKey != "" {
		c.byKey[req.IdempotencyKey] = evt
	}
	return evt, nil
}

// Events returns a snapshot of all booked events, ordered by insertion.
func (c *InMemory) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, *e)
	}
	return out
}
