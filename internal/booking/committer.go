// Package booking finalizes a chosen slot into a real calendar event,
// enforcing at-most-once commitment under retries.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Robinhohocepied/mediflow/internal/calendar"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// Status classifies the outcome of a commit attempt.
type Status string

const (
	// StatusBooked means the event was written (or replayed idempotently).
	StatusBooked Status = "booked"
	// StatusUnavailable means the slot was taken between offer and
	// commit; the caller should restart preference collection.
	StatusUnavailable Status = "unavailable"
	// StatusFailed means the oracle errored; surfaced to the patient as
	// a generic failure, never retried automatically.
	StatusFailed Status = "failed"
)

// Request describes one booking to commit.
type Request struct {
	Channel      string
	PatientID    string
	Start        time.Time
	Duration     time.Duration
	PatientName  string
	PatientEmail string
	Reason       string

	// Demo marks web-demo bookings so calendar events are clearly
	// labeled as simulations.
	Demo bool
}

// Result reports what happened.
type Result struct {
	Status  Status
	EventID string
}

// Committer writes bookings through the availability oracle.
type Committer struct {
	oracle calendar.Oracle
	logger *logging.Logger
}

// NewCommitter creates a Committer. A nil oracle is tolerated: commits
// then succeed without writing anywhere, which keeps the dev flow alive.
func NewCommitter(oracle calendar.Oracle, logger *logging.Logger) *Committer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Committer{oracle: oracle, logger: logger}
}

// IdempotencyKey derives the deterministic identifier for one logical
// booking from (channel, patient, target instant). The oracle honors the
// key; the committer's only job is to compute it consistently.
func IdempotencyKey(channel, patientID string, start time.Time) string {
	return fmt.Sprintf("%s:%s:%s", channel, patientID, start.Format(time.RFC3339))
}

// Commit re-checks availability for the exact instant, then writes the
// event with the idempotency key. Staleness is a soft failure; oracle
// errors are reported once and never retried here.
func (c *Committer) Commit(ctx context.Context, req Request) (*Result, error) {
	if c.oracle == nil {
		return &Result{Status: StatusBooked}, nil
	}

	free, err := c.oracle.IsAvailable(ctx, req.Start, req.Duration)
	if err != nil {
		return &Result{Status: StatusFailed}, fmt.Errorf("booking: availability re-check: %w", err)
	}
	if !free {
		return &Result{Status: StatusUnavailable}, nil
	}

	key := IdempotencyKey(req.Channel, req.PatientID, req.Start)
	evt, err := c.oracle.CreateEvent(ctx, calendar.CreateEventRequest{
		Start:          req.Start,
		Duration:       req.Duration,
		Title:          eventTitle(req),
		Description:    eventDescription(req),
		Patient:        calendar.PatientMeta{Name: req.PatientName, Phone: req.PatientID, Email: req.PatientEmail},
		IdempotencyKey: key,
	})
	if err != nil {
		if err == calendar.ErrSlotTaken {
			return &Result{Status: StatusUnavailable}, nil
		}
		return &Result{Status: StatusFailed}, fmt.Errorf("booking: event create: %w", err)
	}

	c.logger.Info("booking created",
		"channel", req.Channel,
		"event_id", evt.ID,
		"start", req.Start.Format(time.RFC3339),
		"patient", logging.RedactPhone(req.PatientID),
		"idempotency_key_id", calendar.EventIDFromKey(key),
	)
	return &Result{Status: StatusBooked, EventID: evt.ID}, nil
}

func eventTitle(req Request) string {
	title := fmt.Sprintf("Mediflow - %s 🦷", req.PatientName)
	if req.Demo {
		title = "DEMO — " + title
	}
	return title
}

func eventDescription(req Request) string {
	desc := fmt.Sprintf("Motif: %s", req.Reason)
	if req.Demo {
		desc = "Simulation — pas un vrai rendez-vous. " + desc
	}
	return desc
}
