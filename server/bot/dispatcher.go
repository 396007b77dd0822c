package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	berrors "github.com/hrygo/eventbot/server/internal/errors"

	"github.com/hrygo/eventbot/plugin/telegram"
	"github.com/hrygo/eventbot/server/reminder"
	"github.com/hrygo/eventbot/store"
)

// MessageSender is the slice of the Telegram client the dispatcher needs.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Dispatcher turns raw Telegram updates into engine interactions and sends
// the replies back. It also serves the stateless views (menu, today, all)
// that need no conversation.
type Dispatcher struct {
	client MessageSender
	store  *store.Store
	engine *Engine
	chatID int64
	logger *slog.Logger

	// now is the clock; injectable for tests.
	now func() time.Time
}

// NewDispatcher creates a dispatcher bound to the single authorized chat.
func NewDispatcher(client MessageSender, st *store.Store, engine *Engine, chatID int64) *Dispatcher {
	return &Dispatcher{
		client: client,
		store:  st,
		engine: engine,
		chatID: chatID,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// SetLogger sets a custom logger.
func (d *Dispatcher) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// AnnounceStartup sends the boot greeting to the authorized chat.
func (d *Dispatcher) AnnounceStartup(ctx context.Context) error {
	return d.client.SendMessage(ctx, d.chatID, "🤖 Event Bot started!\nUse /menu to see options", nil)
}

// HandleUpdate processes one inbound update. Updates from any chat other
// than the configured one are dropped.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if query.Message == nil {
		return
	}
	if query.Message.Chat.ID != d.chatID {
		d.logger.Warn("dropping callback from unauthorized chat", "chat_id", query.Message.Chat.ID)
		return
	}

	// Ack first so the client stops its loading spinner even if handling
	// fails.
	if err := d.client.AnswerCallbackQuery(ctx, query.ID); err != nil {
		d.logger.Warn("failed to ack callback query", "error", err)
	}

	switch query.Data {
	case cbTodayEvents:
		d.send(ctx, d.todayEventsMessage(ctx), nil)
	case cbAllEvents:
		d.send(ctx, d.allEventsMessage(ctx), nil)
	default:
		d.route(ctx, Choice(query.Data))
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, message *telegram.Message) {
	if message.Chat.ID != d.chatID {
		d.logger.Warn("dropping message from unauthorized chat", "chat_id", message.Chat.ID)
		return
	}

	text := strings.TrimSpace(message.Text)
	switch text {
	case "/start", "/menu":
		d.send(ctx, "📋 <b>Event Manager</b>\nSelect an option:", mainMenuKeyboard())
	default:
		d.route(ctx, Text(text))
	}
}

// route forwards the interaction to the conversation engine and delivers
// its reply. Engine errors are logged but never surfaced raw to the chat;
// the reply already carries the user-facing wording.
func (d *Dispatcher) route(ctx context.Context, in Interaction) {
	reply, err := d.engine.HandleInteraction(ctx, d.chatID, in)
	if err != nil {
		d.logger.Warn("conversation step failed",
			"kind", in.Kind,
			"code", berrors.GetCode(err),
			"error", err)
	}
	if reply == nil {
		return
	}
	d.send(ctx, reply.Text, reply.Keyboard)
}

func (d *Dispatcher) send(ctx context.Context, text string, keyboard *telegram.InlineKeyboardMarkup) {
	if err := d.client.SendMessage(ctx, d.chatID, text, keyboard); err != nil {
		d.logger.Error("failed to send message", "error", err)
	}
}

// todayEventsMessage lists non-recurring events dated today plus yearly
// events whose occurrence lands today, in the reminder's own annotations.
func (d *Dispatcher) todayEventsMessage(ctx context.Context) string {
	events, err := d.store.ListEvents(ctx)
	if err != nil {
		d.logger.Error("failed to list events", "error", err)
		return "❌ Could not load your events, please try again later."
	}

	now := d.now()
	today := now.Format(store.DateLayout)

	type entry struct {
		event    store.Event
		age      int
		hasAge   bool
		previous bool
	}
	var entries []entry
	for _, event := range events {
		if !event.IsYearly() && event.Date == today {
			entries = append(entries, entry{event: *event})
		}
	}
	for _, resolved := range reminder.ResolveYearly(now, events) {
		entries = append(entries, entry{
			event:    resolved.Event,
			age:      resolved.Age,
			hasAge:   resolved.HasAge,
			previous: resolved.IsPreviousDayReminder,
		})
	}

	if len(entries) == 0 {
		return "📅 <b>Today's Events:</b>\n\nNo events scheduled for today."
	}

	var b strings.Builder
	b.WriteString("📅 <b>Today's Events:</b>\n\n")
	for i, item := range entries {
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, item.event.Type)
		fmt.Fprintf(&b, "   📝 %s\n", item.event.Note)
		fmt.Fprintf(&b, "   ⏰ %s\n", item.event.Time)
		switch {
		case item.previous:
			b.WriteString("   🌃 <b>TOMORROW's reminder!</b> (Midnight wish alert)\n")
			if item.hasAge {
				fmt.Fprintf(&b, "   🎂 Will be turning %d years old tomorrow!\n", item.age)
			}
		case item.hasAge:
			fmt.Fprintf(&b, "   🎂 Turning %d years old!\n", item.age)
		case item.event.IsYearly():
			b.WriteString("   🔄 Yearly reminder\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// allEventsMessage lists the whole collection in insertion order.
func (d *Dispatcher) allEventsMessage(ctx context.Context) string {
	events, err := d.store.ListEvents(ctx)
	if err != nil {
		d.logger.Error("failed to list events", "error", err)
		return "❌ Could not load your events, please try again later."
	}

	if len(events) == 0 {
		return "🗂 <b>All Events:</b>\n\nNo events yet. Use the menu to add one!"
	}

	var b strings.Builder
	b.WriteString("🗂 <b>All Events:</b>\n\n")
	for i, event := range events {
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, event.Type)
		fmt.Fprintf(&b, "   📝 %s\n", event.Note)
		fmt.Fprintf(&b, "   📅 %s  ⏰ %s\n", event.Date, event.Time)
		if event.IsYearly() {
			if event.ReminderType == store.ReminderPreviousDay {
				b.WriteString("   🌃 Night before reminder\n")
			} else {
				b.WriteString("   🔄 Yearly reminder\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
