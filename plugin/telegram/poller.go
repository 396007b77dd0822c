package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler consumes one inbound update.
type Handler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// CursorStore persists the last-processed update id across restarts.
type CursorStore interface {
	LastUpdateID(ctx context.Context) (int64, error)
	SetLastUpdateID(ctx context.Context, id int64) error
}

// Poller long-polls getUpdates and feeds each update to the handler,
// advancing a durable cursor so restarts do not replay old interactions.
type Poller struct {
	client  *Client
	cursor  CursorStore
	handler Handler
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewPoller creates a new update poller.
func NewPoller(client *Client, cursor CursorStore, handler Handler) *Poller {
	return &Poller{
		client:  client,
		cursor:  cursor,
		handler: handler,
		stopCh:  make(chan struct{}),
		logger:  slog.Default(),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("telegram poller started")
	return nil
}

// Stop gracefully stops the poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("telegram poller stopped")
}

// IsRunning returns whether the poller is running.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	lastID, err := p.cursor.LastUpdateID(ctx)
	if err != nil {
		p.logger.Error("failed to load update cursor, starting from 0", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
		}

		updates, err := p.client.GetUpdates(ctx, lastID+1)
		if err != nil {
			p.logger.Error("failed to fetch updates", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, update := range updates {
			p.handler.HandleUpdate(ctx, update)
			if update.UpdateID > lastID {
				lastID = update.UpdateID
			}
		}

		if len(updates) > 0 {
			if err := p.cursor.SetLastUpdateID(ctx, lastID); err != nil {
				p.logger.Error("failed to persist update cursor", "error", err)
			}
		}
	}
}
