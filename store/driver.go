package store

import (
	"context"
)

// BotState is the transport bookkeeping persisted alongside the event
// collection: the last-processed long-poll update cursor.
type BotState struct {
	LastUpdateID int64 `json:"last_update_id"`
}

// Driver is an interface for store backends. Drivers persist the event
// collection as a whole; the read-modify-write discipline around
// load→mutate→persist is enforced by the Store facade, not here.
type Driver interface {
	Close() error

	// Event collection methods.
	LoadEvents(ctx context.Context) ([]*Event, error)
	ReplaceEvents(ctx context.Context, events []*Event) error

	// BotState bookkeeping methods.
	LoadBotState(ctx context.Context) (*BotState, error)
	SaveBotState(ctx context.Context, state *BotState) error
}
