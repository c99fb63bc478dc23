// Package session holds the per-conversation state record and its
// stores. State is mutated only by the dialogue engine and the booking
// committer; stores provide TTL-based eviction rather than explicit
// deletion.
package session

import (
	"fmt"
	"time"
)

// Stage is the current node of the dialogue state machine. Values are a
// closed set; anything else is a construction error.
type Stage string

const (
	StageEntry         Stage = ""
	StageIdentity      Stage = "identite"
	StageService       Stage = "service"
	StageTriage        Stage = "triage"
	StagePreferences   Stage = "preferences"
	StageOfferSlots    Stage = "offer_slots"
	StageAwaitChoice   Stage = "await_choice"
	StageConfirm       Stage = "confirm"
	StageBooked        Stage = "booked"
	StageCancelConfirm Stage = "annuler_confirm"
	StageCancelled     Stage = "annule"
	StageHandoff       Stage = "handoff"
)

// Terminal reports whether the stage accepts no further booking-cycle
// transitions (cancel/reschedule intents still apply).
func (s Stage) Terminal() bool {
	switch s {
	case StageBooked, StageCancelled, StageHandoff:
		return true
	}
	return false
}

// Valid reports whether s belongs to the closed stage set.
func (s Stage) Valid() bool {
	switch s {
	case StageEntry, StageIdentity, StageService, StageTriage, StagePreferences,
		StageOfferSlots, StageAwaitChoice, StageConfirm, StageBooked,
		StageCancelConfirm, StageCancelled, StageHandoff:
		return true
	}
	return false
}

// MaxOfferedSlots bounds how many candidate slots one offer may carry.
const MaxOfferedSlots = 3

// State is everything learned about one patient conversation. One record
// exists per channel-scoped conversation identifier.
type State struct {
	ConversationID string `json:"conversation_id"`
	Channel        string `json:"channel"`

	// Identity
	Name  string `json:"name,omitempty"`
	DOB   string `json:"dob,omitempty"`
	Email string `json:"email,omitempty"`

	// Intake
	Service   string `json:"service,omitempty"`
	Reason    string `json:"reason,omitempty"`
	PainScore *int   `json:"pain_score,omitempty"`
	RedFlags  bool   `json:"red_flags,omitempty"`

	// Scheduling
	PreferenceText string      `json:"preference_text,omitempty"`
	Band           string      `json:"band,omitempty"`
	PreferredAt    *time.Time  `json:"preferred_at,omitempty"`
	OfferedSlots   []time.Time `json:"offered_slots,omitempty"`
	AskedFields    []string    `json:"asked_fields,omitempty"`

	// Outcome
	BookingID string `json:"booking_id,omitempty"`
	OptedOut  bool   `json:"opted_out,omitempty"`

	// Control
	Stage            Stage `json:"stage"`
	IdentityFailures int   `json:"identity_failures"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh state for a conversation identifier.
func New(conversationID, channel string) *State {
	now := time.Now().UTC()
	return &State{
		ConversationID: conversationID,
		Channel:        channel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Transition moves the conversation to a new stage. It rejects stages
// outside the closed set and any transition out of a permanent opt-out.
func (s *State) Transition(to Stage) error {
	if !to.Valid() {
		return fmt.Errorf("session: unknown stage %q", to)
	}
	if s.OptedOut {
		return fmt.Errorf("session: conversation %s is opted out", s.ConversationID)
	}
	s.Stage = to
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetOfferedSlots records the candidate slots shown to the patient,
// enforcing the hard cap.
func (s *State) SetOfferedSlots(slots []time.Time) {
	if len(slots) > MaxOfferedSlots {
		slots = slots[:MaxOfferedSlots]
	}
	s.OfferedSlots = slots
	s.UpdatedAt = time.Now().UTC()
}

// SetBookingID records the committed booking identifier. It is set at
// most once per booking cycle; a rebook must ClearBooking first.
func (s *State) SetBookingID(id string) error {
	if s.BookingID != "" {
		return fmt.Errorf("session: booking already committed for %s", s.ConversationID)
	}
	s.BookingID = id
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearBooking resets the outcome for a new booking cycle
// (cancel → rebook).
func (s *State) ClearBooking() {
	s.BookingID = ""
	s.OfferedSlots = nil
	s.PreferredAt = nil
	s.UpdatedAt = time.Now().UTC()
}

// MarkAsked remembers a field the patient was already asked for, so the
// engine does not repeat the question.
func (s *State) MarkAsked(field string) {
	for _, f := range s.AskedFields {
		if f == field {
			return
		}
	}
	s.AskedFields = append(s.AskedFields, field)
}
