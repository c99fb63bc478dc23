// Package engine is the dialogue state machine: a pure, synchronous
// function of (conversation state, inbound text) producing the next
// outbound reply and stage. It performs no internal suspension; the
// only blocking calls are availability checks and the booking commit.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/Robinhohocepied/mediflow/internal/booking"
	"github.com/Robinhohocepied/mediflow/internal/calendar"
	"github.com/Robinhohocepied/mediflow/internal/frtime"
	"github.com/Robinhohocepied/mediflow/internal/observability/metrics"
	"github.com/Robinhohocepied/mediflow/internal/schedule"
	"github.com/Robinhohocepied/mediflow/internal/session"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// ReplyGenerator optionally rewrites selected canned replies. It is a
// cosmetic override only: an error or empty string falls back to the
// template, never blocks the dialogue.
type ReplyGenerator interface {
	Greeting(ctx context.Context) (string, error)
	IdentityAck(ctx context.Context, name, dob, email string) (string, error)
	Confirmation(ctx context.Context, name, reason string, start time.Time) (string, error)
}

// Options configures an Engine. Zero values get sensible defaults.
type Options struct {
	Oracle    calendar.Oracle
	Committer *booking.Committer
	Generator ReplyGenerator
	Metrics   *metrics.EngineMetrics
	Logger    *logging.Logger

	// Location is the clinic time zone preferences resolve in.
	Location *time.Location
	// Duration is the appointment length.
	Duration time.Duration
	// Slots tunes the reconciliation scan.
	Slots schedule.Options
	// SendInvitations controls the confirmation wording when the
	// calendar backend emails the patient an invite.
	SendInvitations bool

	// IdentityMaxFailures is the cumulative identity-turn failure count
	// that escalates to a human handoff.
	IdentityMaxFailures int
	// TriageScoreThreshold is the pain score at or above which triage
	// escalates to a human handoff.
	TriageScoreThreshold int
	// ReminderHours is the reminder lead time quoted in the booking
	// confirmation message.
	ReminderHours int

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Engine drives one conversation turn at a time.
type Engine struct {
	oracle          calendar.Oracle
	committer       *booking.Committer
	gen             ReplyGenerator
	metrics         *metrics.EngineMetrics
	logger          *logging.Logger
	loc             *time.Location
	duration        time.Duration
	slots           schedule.Options
	sendInvitations bool
	identityMax     int
	triageThreshold int
	reminderHours   int
	now             func() time.Time
}

// New creates an Engine from Options.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Duration <= 0 {
		opts.Duration = 30 * time.Minute
	}
	if opts.Slots == (schedule.Options{}) {
		opts.Slots = schedule.DefaultOptions()
	}
	if opts.IdentityMaxFailures <= 0 {
		opts.IdentityMaxFailures = 2
	}
	if opts.TriageScoreThreshold <= 0 {
		opts.TriageScoreThreshold = 8
	}
	if opts.ReminderHours <= 0 {
		opts.ReminderHours = 24
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		oracle:          opts.Oracle,
		committer:       opts.Committer,
		gen:             opts.Generator,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		loc:             opts.Location,
		duration:        opts.Duration,
		slots:           opts.Slots,
		sendInvitations: opts.SendInvitations,
		identityMax:     opts.IdentityMaxFailures,
		triageThreshold: opts.TriageScoreThreshold,
		reminderHours:   opts.ReminderHours,
		now:             opts.Now,
	}
}

// Handle processes one inbound message against the conversation state,
// mutating the state in place. A nil reply with nil error means output
// is suppressed (permanent opt-out). Handle itself never fails; commit
// errors are logged and surfaced to the patient as a generic message.
func (e *Engine) Handle(ctx context.Context, st *session.State, text string) (*Reply, error) {
	t := strings.TrimSpace(text)
	low := strings.ToLower(t)

	if st.OptedOut {
		return nil, nil
	}
	if isStop(low) {
		st.OptedOut = true
		st.UpdatedAt = e.now().UTC()
		e.metrics.ObserveOptOut()
		return textReply(msgOptOut), nil
	}

	// First contact: greet once and start identity collection. Global
	// intents are not checked on the greeting turn; there is nothing to
	// cancel yet.
	if st.Stage == session.StageEntry {
		if err := st.Transition(session.StageIdentity); err != nil {
			return nil, err
		}
		return textReply(e.greeting(ctx)), nil
	}

	// Global intents run before stage logic so the patient can interrupt
	// at any point.
	if isCancelIntent(low) {
		if err := st.Transition(session.StageCancelConfirm); err != nil {
			return nil, err
		}
		return textReply(msgCancelAsk), nil
	}
	if isRescheduleIntent(low) {
		st.ClearBooking()
		if err := st.Transition(session.StagePreferences); err != nil {
			return nil, err
		}
		return textReply(msgRescheduleAck), nil
	}

	switch st.Stage {
	case session.StageIdentity:
		return e.handleIdentity(ctx, st, t)
	case session.StageService:
		return e.handleService(st, t, low)
	case session.StageTriage:
		return e.handleTriage(st, low)
	case session.StagePreferences:
		return e.handlePreferences(ctx, st, t, low)
	case session.StageOfferSlots, session.StageAwaitChoice:
		return e.handleChoice(st, low)
	case session.StageConfirm:
		return e.handleConfirm(ctx, st, low)
	case session.StageCancelConfirm:
		return e.handleCancelConfirm(st, low)
	case session.StageHandoff:
		return textReply(msgHandoff), nil
	}

	return textReply(msgFallback), nil
}

func (e *Engine) handleIdentity(ctx context.Context, st *session.State, t string) (*Reply, error) {
	f := extractIdentity(t)
	if f.DOB != "" {
		st.DOB = f.DOB
	}
	if f.Email != "" {
		st.Email = f.Email
	}
	if f.Name != "" {
		st.Name = f.Name
	}

	if st.Name == "" || st.DOB == "" || st.Email == "" {
		st.IdentityFailures++
		if st.IdentityFailures >= e.identityMax {
			if err := st.Transition(session.StageHandoff); err != nil {
				return nil, err
			}
			e.metrics.ObserveHandoff()
			return textReply(msgHandoff), nil
		}
		switch {
		case st.Name == "" && (st.DOB != "" || st.Email != ""):
			st.MarkAsked("name")
			return textReply(msgAskName), nil
		case st.DOB == "" && (st.Name != "" || st.Email != ""):
			st.MarkAsked("dob")
			return textReply(msgAskDOB), nil
		case st.Email == "" && (st.Name != "" || st.DOB != ""):
			st.MarkAsked("email")
			return textReply(msgAskEmail), nil
		}
		return textReply(msgIdentityPrompt), nil
	}

	if err := st.Transition(session.StageService); err != nil {
		return nil, err
	}
	ack := e.identityAck(ctx, st)
	return optionsReply(ack, serviceOptions), nil
}

func (e *Engine) handleService(st *session.State, t, low string) (*Reply, error) {
	chosen := parseService(t, low)
	if chosen == "" {
		return optionsReply(msgServiceMenu, serviceOptions), nil
	}
	st.Service = chosen
	st.Reason = chosen
	if chosen == "urgence" {
		if err := st.Transition(session.StageTriage); err != nil {
			return nil, err
		}
		return textReply(msgTriagePrompt), nil
	}
	if err := st.Transition(session.StagePreferences); err != nil {
		return nil, err
	}
	return textReply(preferencesPrompt(st.Name)), nil
}

func (e *Engine) handleTriage(st *session.State, low string) (*Reply, error) {
	score, red := parseTriage(low)
	st.PainScore = score
	st.RedFlags = red
	if (score != nil && *score >= e.triageThreshold) || red {
		if err := st.Transition(session.StageHandoff); err != nil {
			return nil, err
		}
		e.metrics.ObserveHandoff()
		return textReply(msgHandoff), nil
	}
	if err := st.Transition(session.StagePreferences); err != nil {
		return nil, err
	}
	return textReply(triageClearPrompt(st.Name)), nil
}

func (e *Engine) handlePreferences(ctx context.Context, st *session.State, t, low string) (*Reply, error) {
	if t == "" {
		return textReply(msgPreferencesRetry), nil
	}
	st.PreferenceText = t
	st.Band = string(frtime.DetectBand(low))

	preferred := frtime.Parse(t, e.now(), e.loc)
	st.PreferredAt = &preferred

	started := e.now()
	slots := schedule.OfferSlots(ctx, e.oracle, preferred, frtime.Band(st.Band), e.slots)
	e.metrics.ObserveSlotSearch(e.now().Sub(started).Seconds())

	if len(slots) == 0 {
		// Fully booked through the scan bound. Stay in preferences and
		// ask for a different window.
		return textReply(msgNoSlots), nil
	}

	if err := st.Transition(session.StageOfferSlots); err != nil {
		return nil, err
	}
	st.SetOfferedSlots(slots)
	body, options := slotOffer(st.OfferedSlots)
	return optionsReply(body, options), nil
}

func (e *Engine) handleChoice(st *session.State, low string) (*Reply, error) {
	if err := st.Transition(session.StageAwaitChoice); err != nil {
		return nil, err
	}
	idx := parseSlotChoice(low)
	if idx >= 0 && idx < len(st.OfferedSlots) {
		chosen := st.OfferedSlots[idx]
		st.PreferredAt = &chosen
		if err := st.Transition(session.StageConfirm); err != nil {
			return nil, err
		}
		return textReply(msgConfirmAsk), nil
	}
	return textReply(msgChoiceRetry), nil
}

func (e *Engine) handleConfirm(ctx context.Context, st *session.State, low string) (*Reply, error) {
	if !isAffirmative(low) {
		return textReply(msgConfirmRetry), nil
	}
	if st.PreferredAt == nil {
		// Should not happen; re-enter preference collection.
		if err := st.Transition(session.StagePreferences); err != nil {
			return nil, err
		}
		return textReply(msgPreferencesRetry), nil
	}

	if e.committer == nil {
		if err := st.Transition(session.StageBooked); err != nil {
			return nil, err
		}
		return textReply(e.confirmation(ctx, st, *st.PreferredAt)), nil
	}

	res, err := e.committer.Commit(ctx, booking.Request{
		Channel:      st.Channel,
		PatientID:    patientID(st),
		Start:        *st.PreferredAt,
		Duration:     e.duration,
		PatientName:  st.Name,
		PatientEmail: st.Email,
		Reason:       st.Reason,
		Demo:         st.Channel == "web_demo",
	})
	if err != nil {
		e.logger.Error("booking commit failed", "error", err, "conversation_id", st.ConversationID)
	}
	e.metrics.ObserveBooking(string(res.Status))

	switch res.Status {
	case booking.StatusUnavailable:
		// The slot went stale between offer and commit. Soft recovery:
		// back to preference collection, booking identifier stays unset.
		st.ClearBooking()
		if err := st.Transition(session.StagePreferences); err != nil {
			return nil, err
		}
		return textReply(msgSlotGone), nil
	case booking.StatusFailed:
		if err := st.Transition(session.StageBooked); err != nil {
			return nil, err
		}
		return textReply(msgBookingFailed), nil
	}

	start := *st.PreferredAt
	if res.EventID != "" {
		if err := st.SetBookingID(res.EventID); err != nil {
			return nil, err
		}
	}
	if err := st.Transition(session.StageBooked); err != nil {
		return nil, err
	}
	return textReply(e.confirmation(ctx, st, start)), nil
}

func (e *Engine) handleCancelConfirm(st *session.State, low string) (*Reply, error) {
	if isAffirmative(low) {
		st.ClearBooking()
		if err := st.Transition(session.StageCancelled); err != nil {
			return nil, err
		}
		return textReply(msgCancelled), nil
	}
	return textReply(msgCancelRetry), nil
}

// patientID is the channel-local identifier, e.g. the WhatsApp number.
// Conversation identifiers are stored channel-qualified.
func patientID(st *session.State) string {
	return strings.TrimPrefix(st.ConversationID, st.Channel+":")
}

func (e *Engine) greeting(ctx context.Context) string {
	if e.gen != nil {
		if out, err := e.gen.Greeting(ctx); err == nil && out != "" {
			return out
		}
	}
	return msgGreeting
}

func (e *Engine) identityAck(ctx context.Context, st *session.State) string {
	if e.gen != nil {
		if out, err := e.gen.IdentityAck(ctx, st.Name, st.DOB, st.Email); err == nil && out != "" {
			return out
		}
	}
	return identityAck(st.Name, st.DOB, st.Email)
}

func (e *Engine) confirmation(ctx context.Context, st *session.State, start time.Time) string {
	if e.gen != nil {
		if out, err := e.gen.Confirmation(ctx, st.Name, st.Reason, start); err == nil && out != "" {
			return out
		}
	}
	return confirmation(start, e.reminderHours, e.sendInvitations && st.Email != "")
}
