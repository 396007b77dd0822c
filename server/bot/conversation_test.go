package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/store"
	"github.com/hrygo/eventbot/store/db/jsonfile"
)

const testPrincipal int64 = 1001

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := jsonfile.NewDB(&profile.Profile{DSN: filepath.Join(t.TempDir(), "events.json")})
	require.NoError(t, err)
	return store.New(driver, nil)
}

func newTestEngine(t *testing.T) (*Engine, *store.Store, *SessionStore) {
	t.Helper()
	st := newTestStore(t)
	sessions := NewSessionStore()
	engine := NewEngine(st, sessions)
	engine.now = func() time.Time {
		return time.Date(2025, time.July, 12, 10, 0, 0, 0, time.Local)
	}
	return engine, st, sessions
}

func step(t *testing.T, engine *Engine, in Interaction) *Reply {
	t.Helper()
	reply, err := engine.HandleInteraction(context.Background(), testPrincipal, in)
	require.NoError(t, err)
	require.NotNil(t, reply)
	return reply
}

func TestAddBirthdayFullFlow(t *testing.T) {
	ctx := context.Background()
	engine, st, sessions := newTestEngine(t)

	reply := step(t, engine, Choice(cbAddEvent))
	assert.Contains(t, reply.Text, "Step 1/4")
	require.NotNil(t, reply.Keyboard)

	reply = step(t, engine, Choice(cbTypePrefix+"birthday"))
	assert.Contains(t, reply.Text, "Step 2/4")

	reply = step(t, engine, Text("John's birthday"))
	assert.Contains(t, reply.Text, "Step 3/4")
	assert.Contains(t, reply.Text, "every year")

	reply = step(t, engine, Choice(cbDateCustom))
	assert.Contains(t, reply.Text, "birth/anniversary date")

	reply = step(t, engine, Text("1995-07-12"))
	assert.Contains(t, reply.Text, "Step 4/4")

	reply = step(t, engine, Choice(cbTimePrefix+"12:00"))
	assert.Contains(t, reply.Text, "Event Added Successfully!")
	assert.Contains(t, reply.Text, "🔄 <b>Recurring:</b> Every year")

	assert.Equal(t, 0, sessions.Count())

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, store.EventTypeBirthday, events[0].Type)
	assert.Equal(t, "John's birthday", events[0].Note)
	assert.Equal(t, "1995-07-12", events[0].Date)
	assert.Equal(t, "12:00", events[0].Time)
	assert.Equal(t, store.RecurrenceYearly, events[0].Recurring)
	assert.False(t, events[0].Reminded)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEmpty(t, events[0].CreatedAt)
}

func TestAddNightBeforeReminder(t *testing.T) {
	ctx := context.Background()
	engine, st, _ := newTestEngine(t)

	step(t, engine, Choice(cbAddEvent))
	step(t, engine, Choice(cbTypePrefix+"anniversary"))
	step(t, engine, Text("Wedding"))
	step(t, engine, Choice(cbDateCustom))
	step(t, engine, Text("2015-06-20"))

	reply := step(t, engine, Choice(cbTimePreviousNight))
	assert.Contains(t, reply.Text, "Event Added Successfully!")
	assert.Contains(t, reply.Text, "🌃 <b>Special:</b> Night before reminder")

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "23:30", events[0].Time)
	assert.Equal(t, store.ReminderPreviousDay, events[0].ReminderType)
}

func TestAddWithTodayAndCustomTime(t *testing.T) {
	ctx := context.Background()
	engine, st, _ := newTestEngine(t)

	step(t, engine, Choice(cbAddEvent))
	step(t, engine, Choice(cbTypePrefix+"meeting"))
	step(t, engine, Text("Team sync"))
	step(t, engine, Choice(cbDateToday))
	step(t, engine, Choice(cbTimeCustom))

	// Invalid custom time re-prompts in place.
	reply, err := engine.HandleInteraction(ctx, testPrincipal, Text("25:00"))
	assert.Error(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "Invalid time format")

	reply = step(t, engine, Text("14:30"))
	assert.Contains(t, reply.Text, "Event Added Successfully!")
	assert.NotContains(t, reply.Text, "Recurring")

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2025-07-12", events[0].Date)
	assert.Equal(t, "14:30", events[0].Time)
	assert.Empty(t, events[0].Recurring)
}

func TestInvalidDateReprompts(t *testing.T) {
	engine, _, sessions := newTestEngine(t)

	step(t, engine, Choice(cbAddEvent))
	step(t, engine, Choice(cbTypePrefix+"meeting"))
	step(t, engine, Text("Team sync"))
	step(t, engine, Choice(cbDateCustom))

	reply, err := engine.HandleInteraction(context.Background(), testPrincipal, Text("2025-02-30"))
	assert.Error(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "Invalid date format")

	// The session survives and a valid date continues the flow.
	assert.Equal(t, 1, sessions.Count())
	reply = step(t, engine, Text("2025-08-01"))
	assert.Contains(t, reply.Text, "Step 4/4")
}

func TestCancelDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	engine, st, sessions := newTestEngine(t)

	step(t, engine, Choice(cbAddEvent))
	step(t, engine, Choice(cbTypePrefix+"meeting"))
	step(t, engine, Text("Team sync"))

	reply := step(t, engine, Choice(cbCancel))
	assert.Contains(t, reply.Text, "cancelled")
	assert.Equal(t, 0, sessions.Count())

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCommitRejectsIncompleteDraft(t *testing.T) {
	ctx := context.Background()
	engine, st, sessions := newTestEngine(t)

	// A replayed stale button can reach the time step with an empty draft.
	sessions.Begin(testPrincipal, StepAwaitingTime)

	reply, err := engine.HandleInteraction(ctx, testPrincipal, Choice(cbTimePrefix+"12:00"))
	assert.Error(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "Something went wrong")
	assert.Equal(t, 0, sessions.Count())

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRemoveFlow(t *testing.T) {
	ctx := context.Background()
	engine, st, sessions := newTestEngine(t)

	idA, err := st.AppendEvent(ctx, &store.Event{Type: store.EventTypeMeeting, Note: "first", Date: "2025-07-15", Time: "09:00"})
	require.NoError(t, err)
	_, err = st.AppendEvent(ctx, &store.Event{Type: store.EventTypeMeeting, Note: "second", Date: "2025-07-16", Time: "10:00"})
	require.NoError(t, err)

	reply := step(t, engine, Choice(cbRemoveEvent))
	assert.Contains(t, reply.Text, "1. <b>Meeting</b> - first")
	assert.Contains(t, reply.Text, "2. <b>Meeting</b> - second")

	// Out-of-range selection re-prompts.
	reply, err = engine.HandleInteraction(ctx, testPrincipal, Text("7"))
	assert.Error(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "between 1 and 2")
	assert.Equal(t, 1, sessions.Count())

	reply = step(t, engine, Text("2"))
	assert.Contains(t, reply.Text, "Delete this event?")
	assert.Contains(t, reply.Text, "second")

	reply = step(t, engine, Choice(cbConfirmDelete))
	assert.Contains(t, reply.Text, "Removed")
	assert.Equal(t, 0, sessions.Count())

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, idA, events[0].ID)
}

func TestRemoveSelectionSurvivesConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	engine, st, _ := newTestEngine(t)

	_, err := st.AppendEvent(ctx, &store.Event{Type: store.EventTypeMeeting, Note: "first", Date: "2025-07-15", Time: "09:00"})
	require.NoError(t, err)
	idB, err := st.AppendEvent(ctx, &store.Event{Type: store.EventTypeMeeting, Note: "second", Date: "2025-07-16", Time: "10:00"})
	require.NoError(t, err)

	step(t, engine, Choice(cbRemoveEvent))
	step(t, engine, Text("2"))

	// The collection changes between selection and confirmation. Deletion
	// goes by id, so the new event cannot be hit by the old index.
	_, err = st.AppendEvent(ctx, &store.Event{Type: store.EventTypeOther, Note: "inserted meanwhile", Date: "2025-07-01", Time: "08:00"})
	require.NoError(t, err)

	reply := step(t, engine, Choice(cbConfirmDelete))
	assert.Contains(t, reply.Text, "second")

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, event := range events {
		assert.NotEqual(t, idB, event.ID)
	}
}

func TestRemoveVanishedEventReportsNotFound(t *testing.T) {
	ctx := context.Background()
	engine, st, sessions := newTestEngine(t)

	id, err := st.AppendEvent(ctx, &store.Event{Type: store.EventTypeMeeting, Note: "first", Date: "2025-07-15", Time: "09:00"})
	require.NoError(t, err)

	step(t, engine, Choice(cbRemoveEvent))
	step(t, engine, Text("1"))

	// Deleted out from under the conversation.
	require.NoError(t, st.DeleteEvent(ctx, id))

	reply, err := engine.HandleInteraction(ctx, testPrincipal, Choice(cbConfirmDelete))
	assert.Error(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "no longer exists")
	assert.Equal(t, 0, sessions.Count())
}

func TestRemoveWithEmptyStore(t *testing.T) {
	engine, _, sessions := newTestEngine(t)

	reply := step(t, engine, Choice(cbRemoveEvent))
	assert.Contains(t, reply.Text, "No events to remove")
	assert.Equal(t, 0, sessions.Count())
}

func TestCancelDelete(t *testing.T) {
	ctx := context.Background()
	engine, st, sessions := newTestEngine(t)

	_, err := st.AppendEvent(ctx, &store.Event{Type: store.EventTypeMeeting, Note: "first", Date: "2025-07-15", Time: "09:00"})
	require.NoError(t, err)

	step(t, engine, Choice(cbRemoveEvent))
	step(t, engine, Text("1"))
	reply := step(t, engine, Choice(cbCancelDelete))
	assert.Contains(t, reply.Text, "Deletion cancelled")
	assert.Equal(t, 0, sessions.Count())

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStrayInputWithoutSession(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	reply, err := engine.HandleInteraction(context.Background(), testPrincipal, Text("hello"))
	assert.NoError(t, err)
	assert.Nil(t, reply)
}

func TestStartAddReplacesAbandonedSession(t *testing.T) {
	engine, _, sessions := newTestEngine(t)

	step(t, engine, Choice(cbAddEvent))
	step(t, engine, Choice(cbTypePrefix+"meeting"))

	// Starting over mid-flow silently drops the old draft.
	reply := step(t, engine, Choice(cbAddEvent))
	assert.Contains(t, reply.Text, "Step 1/4")
	assert.Equal(t, 1, sessions.Count())
	assert.Equal(t, StepAwaitingEventType, sessions.Get(testPrincipal).Step)
}
