package bot

import (
	"github.com/hrygo/eventbot/plugin/telegram"
)

// Callback payloads carried by inline keyboard buttons.
const (
	cbAddEvent    = "add_event"
	cbTodayEvents = "today_events"
	cbAllEvents   = "all_events"
	cbRemoveEvent = "remove_event"
	cbCancel      = "cancel_event"

	cbTypePrefix = "type_" // type_birthday, type_meeting, ...

	cbDateToday  = "date_today"
	cbDateCustom = "date_custom"

	cbTimePrefix        = "time_" // time_06:00, time_12:00, ...
	cbTimeCustom        = "time_custom"
	cbTimePreviousNight = "time_previous_23:30"

	cbConfirmDelete = "confirm_delete"
	cbCancelDelete  = "cancel_delete"
)

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "➕ Add New Event", CallbackData: cbAddEvent}},
			{{Text: "📅 View Today's Events", CallbackData: cbTodayEvents}},
			{{Text: "🗂 View All Events", CallbackData: cbAllEvents}},
			{{Text: "🗑️ Remove Event", CallbackData: cbRemoveEvent}},
		},
	}
}

func eventTypeKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "🎂 Birthday", CallbackData: cbTypePrefix + "birthday"},
				{Text: "💼 Meeting", CallbackData: cbTypePrefix + "meeting"},
			},
			{
				{Text: "📅 Appointment", CallbackData: cbTypePrefix + "appointment"},
				{Text: "🎉 Anniversary", CallbackData: cbTypePrefix + "anniversary"},
			},
			{
				{Text: "💊 Medicine", CallbackData: cbTypePrefix + "medicine"},
				{Text: "🏃 Exercise", CallbackData: cbTypePrefix + "exercise"},
			},
			{{Text: "📝 Other", CallbackData: cbTypePrefix + "other"}},
			{{Text: "❌ Cancel", CallbackData: cbCancel}},
		},
	}
}

func dateChoiceKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "📆 Today", CallbackData: cbDateToday},
				{Text: "🗓 Custom Date", CallbackData: cbDateCustom},
			},
			{{Text: "❌ Cancel", CallbackData: cbCancel}},
		},
	}
}

func timeKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "🌅 Morning (6:00 AM)", CallbackData: cbTimePrefix + "06:00"},
				{Text: "🌞 Noon (12:00 PM)", CallbackData: cbTimePrefix + "12:00"},
			},
			{
				{Text: "🌇 Evening (6:00 PM)", CallbackData: cbTimePrefix + "18:00"},
				{Text: "🌙 Night (9:00 PM)", CallbackData: cbTimePrefix + "21:00"},
			},
			{{Text: "🌃 Night Before (11:30 PM)", CallbackData: cbTimePreviousNight}},
			{{Text: "⏰ Custom Time", CallbackData: cbTimeCustom}},
			{{Text: "❌ Cancel", CallbackData: cbCancel}},
		},
	}
}

func deleteConfirmKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "✅ Yes, delete it", CallbackData: cbConfirmDelete},
				{Text: "↩️ No, keep it", CallbackData: cbCancelDelete},
			},
		},
	}
}

func cancelKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "❌ Cancel", CallbackData: cbCancel}},
		},
	}
}
