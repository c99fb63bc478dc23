// Package calendar provides the availability oracle consumed by the
// dialogue engine: free/busy checks, alternative-slot suggestions, and
// idempotent event creation. Concrete backends are an in-memory calendar
// for dev/test and Google Calendar.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrSlotTaken is returned by CreateEvent when the requested interval is
// no longer free at write time.
var ErrSlotTaken = errors.New("calendar: slot no longer available")

// Event is a booked appointment on the clinic calendar.
type Event struct {
	ID           string
	Start        time.Time
	End          time.Time
	Title        string
	Description  string
	PatientName  string
	PatientPhone string
	PatientEmail string
}

// PatientMeta carries patient identity attached to a calendar event.
type PatientMeta struct {
	Name  string
	Phone string
	Email string
}

// CreateEventRequest describes an event to be written to the calendar.
type CreateEventRequest struct {
	Start       time.Time
	Duration    time.Duration
	Title       string
	Description string
	Patient     PatientMeta

	// IdempotencyKey is a deterministic identifier for the logical
	// booking. A repeated create with the same key must return the
	// original event instead of writing a duplicate.
	IdempotencyKey string
}

// Oracle answers free/busy queries and creates events. All timestamps
// must be timezone-aware (carry a real location, not time.Local).
type Oracle interface {
	// IsAvailable reports whether [start, start+duration) is free.
	IsAvailable(ctx context.Context, start time.Time, duration time.Duration) (bool, error)

	// SuggestAlternatives returns up to count free start times near start.
	SuggestAlternatives(ctx context.Context, start time.Time, duration time.Duration, count int) ([]time.Time, error)

	// CreateEvent writes an event, honoring the idempotency key. It
	// returns ErrSlotTaken when the interval was booked concurrently.
	CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error)
}
