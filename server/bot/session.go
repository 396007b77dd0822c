package bot

import (
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/eventbot/store"
)

// Step identifies the position in the conversation state machine.
type Step string

const (
	StepAwaitingEventType          Step = "awaiting_event_type"
	StepAwaitingNote               Step = "awaiting_note"
	StepAwaitingDateChoice         Step = "awaiting_date_choice"
	StepAwaitingDate               Step = "awaiting_date"
	StepAwaitingTime               Step = "awaiting_time"
	StepAwaitingCustomTime         Step = "awaiting_custom_time"
	StepAwaitingRemovalSelection   Step = "awaiting_removal_selection"
	StepAwaitingDeleteConfirmation Step = "awaiting_delete_confirmation"
)

// Session is the transient per-principal conversation state. It owns the
// draft event until commit or discard; nothing here is persisted.
type Session struct {
	ID          string
	PrincipalID int64
	Step        Step

	// Draft under construction during the add flow.
	Draft store.Event

	// Removal flow scratch state: a snapshot of the collection taken at
	// flow start, and the event picked from it. Selection is by snapshot
	// index but deletion is by id, so concurrent additions cannot shift
	// what gets removed.
	Candidates []*store.Event
	Selected   *store.Event

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore keeps at most one active session per principal.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
	}
}

// Begin creates a fresh session at the given step, silently replacing any
// abandoned one for the same principal.
func (s *SessionStore) Begin(principalID int64, step Step) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &Session{
		ID:          shortuuid.New(),
		PrincipalID: principalID,
		Step:        step,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.sessions[principalID] = session
	return session
}

// Get returns the active session for the principal, or nil.
func (s *SessionStore) Get(principalID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[principalID]
}

// Touch advances the session to a new step.
func (s *SessionStore) Touch(session *Session, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Step = step
	session.UpdatedAt = time.Now()
}

// End destroys the principal's session, if any.
func (s *SessionStore) End(principalID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, principalID)
}

// Count returns the number of active sessions.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
