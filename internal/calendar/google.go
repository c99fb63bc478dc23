package calendar

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// base32hex lowercase without padding: the only alphabet Google accepts
// for caller-chosen event IDs.
var eventIDEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// GoogleCalendar implements Oracle against a Google Calendar. Idempotency
// is enforced by deriving the event ID from the idempotency key, so a
// replayed create collides with the original event instead of
// duplicating it.
type GoogleCalendar struct {
	svc         *gcal.Service
	calendarID  string
	timezone    string
	sendUpdates bool
}

// GoogleOptions configures a GoogleCalendar oracle.
type GoogleOptions struct {
	CredentialsJSON string
	CalendarID      string
	Timezone        string
	SendUpdates     bool
}

// NewGoogleCalendar builds an oracle backed by the Google Calendar API
// using service-account credentials.
func NewGoogleCalendar(ctx context.Context, opts GoogleOptions) (*GoogleCalendar, error) {
	if opts.CredentialsJSON == "" {
		return nil, fmt.Errorf("calendar: google credentials not configured")
	}
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON([]byte(opts.CredentialsJSON)),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to build google client: %w", err)
	}
	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleCalendar{
		svc:         svc,
		calendarID:  calendarID,
		timezone:    opts.Timezone,
		sendUpdates: opts.SendUpdates,
	}, nil
}

// IsAvailable reports whether no event exists in [start, start+duration).
func (g *GoogleCalendar) IsAvailable(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	end := start.Add(duration)
	events, err := g.svc.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("calendar: google free/busy lookup: %w", err)
	}
	return len(events.Items) == 0, nil
}

// SuggestAlternatives probes +1h, +2h and next day at the same hour.
func (g *GoogleCalendar) SuggestAlternatives(ctx context.Context, start time.Time, duration time.Duration, count int) ([]time.Time, error) {
	candidates := []time.Time{
		start.Add(time.Hour),
		start.Add(2 * time.Hour),
		start.AddDate(0, 0, 1),
	}
	var out []time.Time
	for _, c := range candidates {
		free, err := g.IsAvailable(ctx, c, duration)
		if err != nil {
			return nil, err
		}
		if free {
			out = append(out, c)
		}
		if len(out) >= count {
			break
		}
	}
	return out, nil
}

// CreateEvent inserts the event with a key-derived ID. A replayed key
// triggers a conflict, in which case the original event is fetched and
// returned.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	end := req.Start.Add(req.Duration)
	body := &gcal.Event{
		Summary:     req.Title,
		Description: req.Description,
		Start:       &gcal.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: g.timezone},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: g.timezone},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{
				"patient_phone": req.Patient.Phone,
				"patient_name":  req.Patient.Name,
			},
		},
	}
	if req.IdempotencyKey != "" {
		body.Id = EventIDFromKey(req.IdempotencyKey)
	}
	if req.Patient.Email != "" {
		body.Attendees = []*gcal.EventAttendee{{Email: req.Patient.Email}}
	}

	call := g.svc.Events.Insert(g.calendarID, body).Context(ctx)
	if g.sendUpdates {
		call = call.SendUpdates("all")
	}
	created, err := call.Do()
	if err != nil {
		if gErr, ok := err.(*googleapi.Error); ok && gErr.Code == 409 && body.Id != "" {
			existing, getErr := g.svc.Events.Get(g.calendarID, body.Id).Context(ctx).Do()
			if getErr == nil {
				return g.toEvent(existing, req), nil
			}
		}
		return nil, fmt.Errorf("calendar: google event insert: %w", err)
	}
	return g.toEvent(created, req), nil
}

func (g *GoogleCalendar) toEvent(e *gcal.Event, req CreateEventRequest) *Event {
	return &Event{
		ID:           e.Id,
		Start:        req.Start,
		End:          req.Start.Add(req.Duration),
		Title:        req.Title,
		Description:  req.Description,
		PatientName:  req.Patient.Name,
		PatientPhone: req.Patient.Phone,
		PatientEmail: req.Patient.Email,
	}
}

// EventIDFromKey derives a stable Google-compatible event ID from an
// idempotency key.
func EventIDFromKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return strings.ToLower(eventIDEncoding.EncodeToString(sum[:20]))
}
