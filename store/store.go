package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/eventbot/internal/profile"
)

// ErrEventNotFound is returned when a mutation references an id that is no
// longer present in the collection.
var ErrEventNotFound = errors.New("event not found")

// Store provides access to the persisted event collection. Every mutation
// runs as a single load→mutate→persist sequence under a writer mutex, so the
// reminder daemon and the conversation path can share one Store without
// interleaving partial writes.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// mu serializes writers. Reads go straight to the driver: callers want a
	// fresh view each time, external processes may touch the backing file.
	mu sync.Mutex
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// ListEvents loads the full event collection.
func (s *Store) ListEvents(ctx context.Context) ([]*Event, error) {
	return s.driver.LoadEvents(ctx)
}

// AppendEvent appends an event to the collection, assigning a generated id
// when the event does not carry one. Returns the id.
func (s *Store) AppendEvent(ctx context.Context, event *Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = GenerateEventID()
	}

	events, err := s.driver.LoadEvents(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to load events")
	}
	for _, existing := range events {
		if existing.ID == event.ID {
			return "", errors.Errorf("duplicate event id: %s", event.ID)
		}
	}
	events = append(events, event)
	if err := s.driver.ReplaceEvents(ctx, events); err != nil {
		return "", errors.Wrap(err, "failed to persist events")
	}
	return event.ID, nil
}

// ReplaceEvents atomically replaces the whole collection.
func (s *Store) ReplaceEvents(ctx context.Context, events []*Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.ReplaceEvents(ctx, events)
}

// DeleteEvent removes the event with the given id. The collection is
// reloaded inside the critical section so a concurrent append cannot be
// lost to a stale rewrite.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.driver.LoadEvents(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load events")
	}

	kept := make([]*Event, 0, len(events))
	found := false
	for _, event := range events {
		if event.ID == id {
			found = true
			continue
		}
		kept = append(kept, event)
	}
	if !found {
		return ErrEventNotFound
	}
	return s.driver.ReplaceEvents(ctx, kept)
}

// MarkReminded sets the dedup marker for every listed id and persists the
// collection once. Ids no longer present are skipped; a reminder already
// went out for them, losing the marker only risks a duplicate, not a loss.
func (s *Store) MarkReminded(ctx context.Context, ids []string, date string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.driver.LoadEvents(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load events")
	}

	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	changed := false
	for _, event := range events {
		if marked[event.ID] {
			event.Reminded = true
			event.LastRemindedDate = date
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.driver.ReplaceEvents(ctx, events)
}

// NormalizeDedup resets the reminded flag on every event whose last
// reminded date is not today, and reports how many were reset. Run at
// daemon startup so a crash mid-cycle on a previous day cannot suppress
// today's reminders.
func (s *Store) NormalizeDedup(ctx context.Context, today string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.driver.LoadEvents(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load events")
	}

	reset := 0
	for _, event := range events {
		if event.Reminded && event.LastRemindedDate != today {
			event.Reminded = false
			reset++
		}
	}
	if reset == 0 {
		return 0, nil
	}
	if err := s.driver.ReplaceEvents(ctx, events); err != nil {
		return 0, errors.Wrap(err, "failed to persist events")
	}
	return reset, nil
}

// LastUpdateID returns the persisted long-poll cursor.
func (s *Store) LastUpdateID(ctx context.Context) (int64, error) {
	state, err := s.driver.LoadBotState(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load bot state")
	}
	return state.LastUpdateID, nil
}

// SetLastUpdateID persists the long-poll cursor.
func (s *Store) SetLastUpdateID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.SaveBotState(ctx, &BotState{LastUpdateID: id})
}
