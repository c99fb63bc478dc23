package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Robinhohocepied/mediflow/internal/bookings"
	"github.com/Robinhohocepied/mediflow/internal/observability/metrics"
	"github.com/Robinhohocepied/mediflow/internal/session"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// Archiver records committed bookings for operator reporting. Archive
// failures are logged and never surface to the patient.
type Archiver interface {
	Insert(ctx context.Context, rec bookings.Record) error
}

// ConversationKey builds the channel-qualified conversation identifier.
func ConversationKey(channel, externalID string) string {
	return channel + ":" + externalID
}

// Service runs the engine against the session store, serializing turns
// per conversation. Two in-flight messages for the same identifier
// would race on stage transitions; per-key mutual exclusion prevents
// that while keeping distinct conversations fully parallel.
type Service struct {
	store   session.Store
	engine  *Engine
	archive Archiver
	metrics *metrics.EngineMetrics
	logger  *logging.Logger

	// locks holds one mutex per active conversation. Entries are pruned
	// on Reset; for the remainder the map grows with the number of
	// distinct conversations seen, which is bounded in practice by the
	// patient base and cheap per entry.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires a Service. archive and m may be nil.
func NewService(store session.Store, eng *Engine, archive Archiver, m *metrics.EngineMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:   store,
		engine:  eng,
		archive: archive,
		metrics: m,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) conversationLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Process applies one inbound message and persists the updated state.
// A nil reply means output is suppressed (opt-out).
func (s *Service) Process(ctx context.Context, channel, externalID, text string) (*Reply, error) {
	key := ConversationKey(channel, externalID)
	lock := s.conversationLock(key)
	lock.Lock()
	defer lock.Unlock()

	st, err := s.store.Get(ctx, key)
	switch {
	case errors.Is(err, session.ErrNotFound):
		st = session.New(key, channel)
	case err != nil:
		return nil, fmt.Errorf("engine: load session %s: %w", key, err)
	}

	s.metrics.ObserveInbound(channel)
	bookedBefore := st.BookingID

	reply, handleErr := s.engine.Handle(ctx, st, text)

	if err := s.store.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("engine: save session %s: %w", key, err)
	}
	if handleErr != nil {
		return nil, fmt.Errorf("engine: handle turn for %s: %w", key, handleErr)
	}

	if s.archive != nil && bookedBefore == "" && st.BookingID != "" && st.PreferredAt != nil {
		rec := bookings.Record{
			ConversationID: st.ConversationID,
			Channel:        st.Channel,
			PatientName:    st.Name,
			PatientPhone:   externalID,
			PatientEmail:   st.Email,
			Service:        st.Service,
			Reason:         st.Reason,
			EventID:        st.BookingID,
			ScheduledFor:   st.PreferredAt.UTC(),
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.archive.Insert(ctx, rec); err != nil {
			s.logger.Error("booking archive insert failed", "error", err, "conversation_id", key)
		}
	}

	if reply != nil {
		s.metrics.ObserveReply(string(reply.Kind))
	}
	return reply, nil
}

// Reset drops the conversation state so the next message starts fresh,
// and prunes the conversation's lock entry. A turn racing the reset may
// briefly hold the pruned mutex; that is harmless because the state it
// guarded has already been discarded.
func (s *Service) Reset(ctx context.Context, channel, externalID string) error {
	key := ConversationKey(channel, externalID)
	lock := s.conversationLock(key)
	lock.Lock()
	defer lock.Unlock()
	if err := s.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("engine: reset session %s: %w", key, err)
	}
	s.mu.Lock()
	delete(s.locks, key)
	s.mu.Unlock()
	return nil
}
