package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/store"
)

func newTestDB(t *testing.T) (store.Driver, string) {
	t.Helper()
	dir := t.TempDir()
	driver, err := NewDB(&profile.Profile{DSN: filepath.Join(dir, "events.json")})
	require.NoError(t, err)
	return driver, dir
}

func TestMissingFileReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDB(t)

	events, err := driver.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	state, err := driver.LoadBotState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.LastUpdateID)
}

func TestEventsRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver, dir := newTestDB(t)

	in := []*store.Event{
		{
			ID:           "1",
			Type:         store.EventTypeBirthday,
			Note:         "John's birthday",
			Date:         "1995-07-12",
			Time:         "09:00",
			Recurring:    store.RecurrenceYearly,
			ReminderType: store.ReminderPreviousDay,
			CreatedAt:    "2025-07-01 10:00:00",
		},
		{
			ID:   "2",
			Type: store.EventTypeMeeting,
			Note: "Team sync",
			Date: "2025-07-15",
			Time: "14:30",
		},
	}
	require.NoError(t, driver.ReplaceEvents(ctx, in))

	out, err := driver.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, *in[0], *out[0])
	assert.Equal(t, *in[1], *out[1])

	// The file stays a hand-editable JSON array.
	data, err := os.ReadFile(filepath.Join(dir, "events.json"))
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])
	assert.Contains(t, string(data), `"reminder_type"`)

	// No leftover temp file after the rename.
	_, err = os.Stat(filepath.Join(dir, "events.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestReplaceWithNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	driver, dir := newTestDB(t)

	require.NoError(t, driver.ReplaceEvents(ctx, nil))

	data, err := os.ReadFile(filepath.Join(dir, "events.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestCorruptFileFailsLoudly(t *testing.T) {
	ctx := context.Background()
	driver, dir := newTestDB(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte("{not json"), 0o644))

	_, err := driver.LoadEvents(ctx)
	assert.Error(t, err)
}

func TestBotStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver, _ := newTestDB(t)

	require.NoError(t, driver.SaveBotState(ctx, &store.BotState{LastUpdateID: 7}))

	state, err := driver.LoadBotState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), state.LastUpdateID)
}
