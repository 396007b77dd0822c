package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	berrors "github.com/hrygo/eventbot/server/internal/errors"

	"github.com/hrygo/eventbot/plugin/telegram"
	"github.com/hrygo/eventbot/store"
)

// Reply is what the engine wants sent back to the principal.
type Reply struct {
	Text     string
	Keyboard *telegram.InlineKeyboardMarkup
}

// Engine is the multi-step conversation state machine. It owns the draft
// event from flow start to commit, dispatching each interaction on the
// pair (current step, interaction kind). Validation failures re-prompt in
// place; cancellation is legal from every pre-commit state.
type Engine struct {
	store    *store.Store
	sessions *SessionStore
	logger   *slog.Logger

	// now is the clock; injectable for tests.
	now func() time.Time
}

// NewEngine creates a conversation engine on top of an injected session
// store.
func NewEngine(st *store.Store, sessions *SessionStore) *Engine {
	return &Engine{
		store:    st,
		sessions: sessions,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// SetLogger sets a custom logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// HasSession reports whether the principal has an active conversation.
func (e *Engine) HasSession(principalID int64) bool {
	return e.sessions.Get(principalID) != nil
}

// HandleInteraction advances the principal's conversation by one inbound
// interaction. The returned reply is always safe to send; the error, when
// non-nil, classifies what went wrong for the caller's log.
func (e *Engine) HandleInteraction(ctx context.Context, principalID int64, in Interaction) (*Reply, error) {
	// Flow-control payloads are legal regardless of session state.
	if in.Kind == KindChoice {
		switch in.Payload {
		case cbAddEvent:
			return e.startAdd(principalID), nil
		case cbRemoveEvent:
			return e.startRemove(ctx, principalID)
		case cbCancel:
			return e.cancel(principalID), nil
		}
	}

	session := e.sessions.Get(principalID)
	if session == nil {
		// Stray input outside any flow; nothing to do.
		return nil, nil
	}

	switch session.Step {
	case StepAwaitingEventType:
		return e.handleEventType(session, in)
	case StepAwaitingNote:
		return e.handleNote(session, in)
	case StepAwaitingDateChoice:
		return e.handleDateChoice(session, in)
	case StepAwaitingDate:
		return e.handleDate(session, in)
	case StepAwaitingTime:
		return e.handleTime(ctx, session, in)
	case StepAwaitingCustomTime:
		return e.handleCustomTime(ctx, session, in)
	case StepAwaitingRemovalSelection:
		return e.handleRemovalSelection(session, in)
	case StepAwaitingDeleteConfirmation:
		return e.handleDeleteConfirmation(ctx, session, in)
	default:
		e.sessions.End(principalID)
		return &Reply{Text: "❌ Something went wrong, please start over with /menu."},
			berrors.InvalidArgument(fmt.Sprintf("unknown conversation step: %s", session.Step))
	}
}

// startAdd begins the add flow, silently replacing an abandoned session.
func (e *Engine) startAdd(principalID int64) *Reply {
	e.sessions.Begin(principalID, StepAwaitingEventType)
	return &Reply{
		Text:     "➕ <b>Add New Event - Step 1/4</b>\n\nPlease select the <b>event type</b>:",
		Keyboard: eventTypeKeyboard(),
	}
}

// startRemove snapshots the collection and begins the removal flow. The
// snapshot is what selection indices refer to for the rest of the flow;
// concurrent store changes cannot shift them.
func (e *Engine) startRemove(ctx context.Context, principalID int64) (*Reply, error) {
	events, err := e.store.ListEvents(ctx)
	if err != nil {
		return &Reply{Text: "❌ Could not load your events, please try again later."},
			berrors.StoreUnavailable("failed to snapshot events for removal", err)
	}
	if len(events) == 0 {
		return &Reply{Text: "🗂 No events to remove."}, nil
	}

	session := e.sessions.Begin(principalID, StepAwaitingRemovalSelection)
	session.Candidates = events

	var b strings.Builder
	b.WriteString("🗑️ <b>Remove Event</b>\n\n")
	for i, event := range events {
		fmt.Fprintf(&b, "%d. <b>%s</b> - %s (%s %s)\n", i+1, event.Type, event.Note, event.Date, event.Time)
	}
	b.WriteString("\nReply with the <b>number</b> of the event to remove:")
	return &Reply{Text: b.String(), Keyboard: cancelKeyboard()}, nil
}

// cancel destroys the session with no store mutation.
func (e *Engine) cancel(principalID int64) *Reply {
	if e.sessions.Get(principalID) == nil {
		return &Reply{Text: "Nothing to cancel."}
	}
	e.sessions.End(principalID)
	return &Reply{Text: "❌ Event creation cancelled."}
}

func (e *Engine) handleEventType(session *Session, in Interaction) (*Reply, error) {
	if in.Kind != KindChoice || !strings.HasPrefix(in.Payload, cbTypePrefix) {
		return &Reply{
			Text:     "Please select the <b>event type</b> using the buttons:",
			Keyboard: eventTypeKeyboard(),
		}, berrors.InvalidArgument("expected an event type choice")
	}

	eventType, ok := eventTypeFromCallback(strings.TrimPrefix(in.Payload, cbTypePrefix))
	if !ok {
		return &Reply{
			Text:     "Please select the <b>event type</b> using the buttons:",
			Keyboard: eventTypeKeyboard(),
		}, berrors.InvalidArgument(fmt.Sprintf("unknown event type: %s", in.Payload))
	}
	session.Draft.Type = eventType
	// Birthdays and anniversaries repeat every year by definition.
	if eventType == store.EventTypeBirthday || eventType == store.EventTypeAnniversary {
		session.Draft.Recurring = store.RecurrenceYearly
	}
	e.sessions.Touch(session, StepAwaitingNote)

	return &Reply{
		Text: fmt.Sprintf("➕ <b>Add New Event - Step 2/4</b>\n\nEvent Type: <b>%s</b>\n\n"+
			"Please enter a <b>note</b> for this event:\n(e.g., John's birthday, Team meeting)", eventType),
	}, nil
}

func eventTypeFromCallback(name string) (store.EventType, bool) {
	types := map[string]store.EventType{
		"birthday":    store.EventTypeBirthday,
		"meeting":     store.EventTypeMeeting,
		"appointment": store.EventTypeAppointment,
		"anniversary": store.EventTypeAnniversary,
		"medicine":    store.EventTypeMedicine,
		"exercise":    store.EventTypeExercise,
		"other":       store.EventTypeOther,
	}
	t, ok := types[name]
	return t, ok
}

func (e *Engine) handleNote(session *Session, in Interaction) (*Reply, error) {
	note := strings.TrimSpace(in.Payload)
	if in.Kind != KindText || note == "" {
		return &Reply{Text: "Please enter a non-empty <b>note</b> for this event:"},
			berrors.InvalidArgument("expected a non-empty note")
	}

	session.Draft.Note = note
	e.sessions.Touch(session, StepAwaitingDateChoice)

	prompt := "➕ <b>Add New Event - Step 3/4</b>\n\nWhen is it?"
	if session.Draft.IsYearly() {
		prompt += "\n\n<i>Note: This will remind you every year on this date!</i>"
	}
	return &Reply{Text: prompt, Keyboard: dateChoiceKeyboard()}, nil
}

func (e *Engine) handleDateChoice(session *Session, in Interaction) (*Reply, error) {
	if in.Kind != KindChoice {
		return &Reply{Text: "Please choose a date option using the buttons:", Keyboard: dateChoiceKeyboard()},
			berrors.InvalidArgument("expected a date choice")
	}

	switch in.Payload {
	case cbDateToday:
		session.Draft.Date = e.now().Format(store.DateLayout)
		e.sessions.Touch(session, StepAwaitingTime)
		return &Reply{
			Text:     "➕ <b>Add New Event - Step 4/4</b>\n\nPlease select the <b>reminder time</b>:",
			Keyboard: timeKeyboard(),
		}, nil
	case cbDateCustom:
		e.sessions.Touch(session, StepAwaitingDate)
		prompt := "➕ <b>Add New Event - Step 3/4</b>\n\nPlease enter the <b>date</b> for the reminder:\n" +
			"(Format: YYYY-MM-DD or YYYY MM DD, e.g., 2025-07-15)"
		if session.Draft.IsYearly() {
			prompt = "➕ <b>Add New Event - Step 3/4</b>\n\nPlease enter the <b>birth/anniversary date</b>:\n" +
				"(Format: YYYY-MM-DD or YYYY MM DD, e.g., 1995-07-12)\n\n" +
				"<i>Note: This will remind you every year on this date!</i>"
		}
		return &Reply{Text: prompt, Keyboard: cancelKeyboard()}, nil
	default:
		return &Reply{Text: "Please choose a date option using the buttons:", Keyboard: dateChoiceKeyboard()},
			berrors.InvalidArgument(fmt.Sprintf("unexpected date choice: %s", in.Payload))
	}
}

func (e *Engine) handleDate(session *Session, in Interaction) (*Reply, error) {
	if in.Kind != KindText {
		return &Reply{Text: "Please type the date as text (e.g., 2025-07-15):"},
			berrors.InvalidArgument("expected a date as text")
	}

	date, err := parseDateInput(in.Payload)
	if err != nil {
		// Re-prompt in place; the session survives.
		return &Reply{Text: "❌ Invalid date format! Please use YYYY-MM-DD or YYYY MM DD (e.g., 2025-07-15)"},
			berrors.InvalidArgument(err.Error())
	}

	session.Draft.Date = date
	e.sessions.Touch(session, StepAwaitingTime)
	return &Reply{
		Text:     "➕ <b>Add New Event - Step 4/4</b>\n\nPlease select the <b>reminder time</b>:",
		Keyboard: timeKeyboard(),
	}, nil
}

func (e *Engine) handleTime(ctx context.Context, session *Session, in Interaction) (*Reply, error) {
	if in.Kind != KindChoice {
		return &Reply{Text: "Please select the <b>reminder time</b> using the buttons:", Keyboard: timeKeyboard()},
			berrors.InvalidArgument("expected a time choice")
	}

	switch {
	case in.Payload == cbTimeCustom:
		e.sessions.Touch(session, StepAwaitingCustomTime)
		return &Reply{
			Text: "➕ <b>Add New Event - Step 4/4</b>\n\nPlease enter <b>custom time</b>:\n(Format: HH:MM, e.g., 14:30 or 09:15)",
		}, nil
	case in.Payload == cbTimePreviousNight:
		// Night-before notice, fixed at 23:30 the previous evening. The
		// previous-day marker only means something for yearly events; for
		// one-shot events this is just a 23:30 reminder.
		session.Draft.Time = "23:30"
		if session.Draft.IsYearly() {
			session.Draft.ReminderType = store.ReminderPreviousDay
		}
		return e.commit(ctx, session)
	case strings.HasPrefix(in.Payload, cbTimePrefix):
		session.Draft.Time = strings.TrimPrefix(in.Payload, cbTimePrefix)
		return e.commit(ctx, session)
	default:
		return &Reply{Text: "Please select the <b>reminder time</b> using the buttons:", Keyboard: timeKeyboard()},
			berrors.InvalidArgument(fmt.Sprintf("unexpected time choice: %s", in.Payload))
	}
}

func (e *Engine) handleCustomTime(ctx context.Context, session *Session, in Interaction) (*Reply, error) {
	if in.Kind != KindText {
		return &Reply{Text: "Please type the time as text (e.g., 14:30):"},
			berrors.InvalidArgument("expected a time as text")
	}

	clock, err := parseClockInput(in.Payload)
	if err != nil {
		return &Reply{Text: "❌ Invalid time format! Please use HH:MM format (e.g., 14:30 or 09:15)"},
			berrors.InvalidArgument(err.Error())
	}

	session.Draft.Time = clock
	return e.commit(ctx, session)
}

// commit validates the draft, appends it to the store and destroys the
// session. The required-field check should be unreachable through the
// transition graph, but a client can replay a stale button, so it stays.
func (e *Engine) commit(ctx context.Context, session *Session) (*Reply, error) {
	draft := session.Draft
	e.sessions.End(session.PrincipalID)

	if err := draft.Validate(); err != nil {
		return &Reply{Text: "❌ Something went wrong while building your event, please start over with /menu."},
			berrors.InvalidArgument(err.Error())
	}

	draft.Reminded = false
	draft.LastRemindedDate = ""
	draft.CreatedAt = e.now().Format("2006-01-02 15:04:05")

	if _, err := e.store.AppendEvent(ctx, &draft); err != nil {
		// Discard the draft rather than risking a silently lost event.
		return &Reply{Text: "❌ Failed to save your event, please try again later."},
			berrors.StoreUnavailable("failed to append event", err)
	}

	var b strings.Builder
	b.WriteString("✅ <b>Event Added Successfully!</b>\n\n📋 <b>Event Details:</b>\n")
	fmt.Fprintf(&b, "🏷 <b>Type:</b> %s\n", draft.Type)
	fmt.Fprintf(&b, "📝 <b>Note:</b> %s\n", draft.Note)
	fmt.Fprintf(&b, "📅 <b>Date:</b> %s\n", draft.Date)
	fmt.Fprintf(&b, "⏰ <b>Time:</b> %s\n", draft.Time)
	if draft.IsYearly() {
		b.WriteString("🔄 <b>Recurring:</b> Every year\n")
		if draft.ReminderType == store.ReminderPreviousDay {
			b.WriteString("🌃 <b>Special:</b> Night before reminder (for midnight wishes!)\n")
		}
	}
	b.WriteString("\nYour event has been saved!")
	return &Reply{Text: b.String()}, nil
}

func (e *Engine) handleRemovalSelection(session *Session, in Interaction) (*Reply, error) {
	reprompt := fmt.Sprintf("❌ Please reply with a number between 1 and %d.", len(session.Candidates))
	if in.Kind != KindText {
		return &Reply{Text: reprompt, Keyboard: cancelKeyboard()},
			berrors.InvalidArgument("expected a selection as text")
	}

	index, err := strconv.Atoi(strings.TrimSpace(in.Payload))
	if err != nil || index < 1 || index > len(session.Candidates) {
		return &Reply{Text: reprompt, Keyboard: cancelKeyboard()},
			berrors.InvalidArgument(fmt.Sprintf("invalid selection: %q", in.Payload))
	}

	session.Selected = session.Candidates[index-1]
	e.sessions.Touch(session, StepAwaitingDeleteConfirmation)
	return &Reply{
		Text: fmt.Sprintf("🗑️ Delete this event?\n\n<b>%s</b> - %s (%s %s)",
			session.Selected.Type, session.Selected.Note, session.Selected.Date, session.Selected.Time),
		Keyboard: deleteConfirmKeyboard(),
	}, nil
}

func (e *Engine) handleDeleteConfirmation(ctx context.Context, session *Session, in Interaction) (*Reply, error) {
	if in.Kind != KindChoice {
		return &Reply{Text: "Please confirm using the buttons:", Keyboard: deleteConfirmKeyboard()},
			berrors.InvalidArgument("expected a confirmation choice")
	}

	switch in.Payload {
	case cbConfirmDelete:
		selected := session.Selected
		e.sessions.End(session.PrincipalID)
		if selected == nil {
			return &Reply{Text: "❌ Something went wrong, please start over with /menu."},
				berrors.NotFound("no event selected for deletion")
		}
		if err := e.store.DeleteEvent(ctx, selected.ID); err != nil {
			if errors.Is(err, store.ErrEventNotFound) {
				return &Reply{Text: "❌ That event no longer exists."},
					berrors.NotFound(fmt.Sprintf("event %s already gone", selected.ID))
			}
			return &Reply{Text: "❌ Could not remove the event, please try again later."},
				berrors.StoreUnavailable("failed to delete event", err)
		}
		return &Reply{Text: fmt.Sprintf("🗑️ Removed: <b>%s</b> - %s", selected.Type, selected.Note)}, nil
	case cbCancelDelete:
		e.sessions.End(session.PrincipalID)
		return &Reply{Text: "↩️ Deletion cancelled."}, nil
	default:
		return &Reply{Text: "Please confirm using the buttons:", Keyboard: deleteConfirmKeyboard()},
			berrors.InvalidArgument(fmt.Sprintf("unexpected confirmation choice: %s", in.Payload))
	}
}
