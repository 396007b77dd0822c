package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	berrors "github.com/hrygo/eventbot/server/internal/errors"
	"github.com/hrygo/eventbot/store"
)

// Notifier is the outbound side of the daemon. Voice delivery is a
// best-effort side channel; its failures are logged and never propagated
// into the daemon's control flow.
type Notifier interface {
	SendText(ctx context.Context, message string) error
	SendVoiceCall(ctx context.Context, toNumber, fromNumber, message string) (string, error)
}

// Daemon runs the background scan loop: once per interval it loads the
// full event collection, resolves what is due and dispatches reminders.
// A failed cycle is logged and swallowed; the daemon never exits on a
// transient error.
type Daemon struct {
	store     *store.Store
	notifier  Notifier
	interval  time.Duration
	voiceFrom string
	voiceTo   string
	running   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	logger    *slog.Logger
	firedChan chan int // For testing: reports fired count per cycle
}

// DaemonConfig holds configuration for the daemon.
type DaemonConfig struct {
	Interval time.Duration // How often to scan for due reminders

	// Voice side channel; both empty disables voice calls.
	VoiceFromNumber string
	VoiceToNumber   string
}

// DefaultDaemonConfig returns default daemon configuration.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Interval: time.Minute,
	}
}

// NewDaemon creates a new reminder daemon.
func NewDaemon(st *store.Store, notifier Notifier, config DaemonConfig) *Daemon {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	return &Daemon{
		store:     st,
		notifier:  notifier,
		interval:  config.Interval,
		voiceFrom: config.VoiceFromNumber,
		voiceTo:   config.VoiceToNumber,
		stopCh:    make(chan struct{}),
		logger:    slog.Default(),
	}
}

// Start normalizes dedup state and begins the scan loop. Any event whose
// last reminded date is not today gets its reminded flag reset, so a crash
// on a previous day cannot suppress today's reminders.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	today := time.Now().Format(store.DateLayout)
	if reset, err := d.store.NormalizeDedup(ctx, today); err != nil {
		d.logger.Error("failed to normalize dedup state", "error", err)
	} else if reset > 0 {
		d.logger.Info("reset stale dedup markers", "count", reset)
	}

	d.wg.Add(1)
	go d.run(ctx)

	d.logger.Info("reminder daemon started", "interval", d.interval)
	return nil
}

// Stop gracefully stops the daemon.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("reminder daemon stopped")
}

// IsRunning returns whether the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// SetLogger sets a custom logger.
func (d *Daemon) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// EnableTestMode enables test mode with a channel reporting fired counts.
func (d *Daemon) EnableTestMode() <-chan int {
	d.firedChan = make(chan int, 100)
	return d.firedChan
}

// run is the main daemon loop.
func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Scan immediately on start; dedup markers keep this idempotent.
	d.processCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon context cancelled")
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.processCycle(ctx)
		}
	}
}

// processCycle runs one scan-and-dispatch cycle.
func (d *Daemon) processCycle(ctx context.Context) {
	fired, err := d.RunOnce(ctx)
	if err != nil {
		d.logger.Error("reminder cycle failed", "error", err)
	} else if fired > 0 {
		d.logger.Info("dispatched reminders", "count", fired)
	}

	if d.firedChan != nil {
		select {
		case d.firedChan <- fired:
		default:
			// Don't block if channel is full
		}
	}
}

type dueItem struct {
	id    string
	text  string
	voice string
}

// RunOnce performs a single scan against the current wall clock and
// dispatches every due reminder. Returns how many fired.
func (d *Daemon) RunOnce(ctx context.Context) (int, error) {
	now := time.Now()
	return d.scanAt(ctx, now)
}

// scanAt is RunOnce with an injectable clock.
func (d *Daemon) scanAt(ctx context.Context, now time.Time) (int, error) {
	today := now.Format(store.DateLayout)
	clock := now.Format(store.ClockLayout)

	// Fresh read every cycle; external processes may mutate the store.
	events, err := d.store.ListEvents(ctx)
	if err != nil {
		return 0, berrors.StoreUnavailable("failed to load events", err)
	}

	byID := make(map[string]*store.Event, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}

	due := []dueItem{}
	for _, event := range events {
		if event.IsYearly() || event.Date != today {
			continue
		}
		if !IsValidClock(event.Time) {
			d.logger.Warn("event has malformed time, treated as 00:00", "event_id", event.ID, "time", event.Time)
		}
		if IsDue(clock, event.Time, event.RemindedOn(today)) {
			due = append(due, dueItem{
				id:    event.ID,
				text:  formatReminderText(event, nil),
				voice: formatVoiceText(event, nil),
			})
		}
	}

	for _, resolved := range ResolveYearly(now, events) {
		// The resolved copy is transient; dedup state lives on the source.
		source, ok := byID[resolved.ID]
		if !ok {
			continue
		}
		if IsDue(clock, source.Time, source.RemindedOn(today)) {
			r := resolved
			due = append(due, dueItem{
				id:    source.ID,
				text:  formatReminderText(source, &r),
				voice: formatVoiceText(source, &r),
			})
		}
	}

	if len(due) == 0 {
		return 0, nil
	}

	firedIDs := make([]string, 0, len(due))
	for _, item := range due {
		select {
		case <-ctx.Done():
			// Persist what already went out before stopping.
			if err := d.store.MarkReminded(ctx, firedIDs, today); err != nil {
				d.logger.Error("failed to persist dedup markers", "error", err)
			}
			return len(firedIDs), ctx.Err()
		default:
		}

		if err := d.notifier.SendText(ctx, item.text); err != nil {
			d.logger.Error("text dispatch failed", "event_id", item.id, "error", err)
		}
		if d.voiceTo != "" && d.voiceFrom != "" {
			callID, err := d.notifier.SendVoiceCall(ctx, d.voiceTo, d.voiceFrom, item.voice)
			if err != nil {
				d.logger.Error("voice dispatch failed", "event_id", item.id, "error", err)
			} else {
				d.logger.Info("voice call placed", "event_id", item.id, "call_id", callID)
			}
		}
		// Mark even on dispatch failure: a duplicate reminder tomorrow is
		// worse than a missed channel now.
		firedIDs = append(firedIDs, item.id)
	}

	if err := d.store.MarkReminded(ctx, firedIDs, today); err != nil {
		return len(firedIDs), berrors.StoreUnavailable("failed to persist dedup markers", err)
	}
	return len(firedIDs), nil
}
