package reminder

import (
	"fmt"

	"github.com/hrygo/eventbot/store"
)

// formatReminderText builds the HTML message for a due reminder. resolved
// is nil for non-recurring events.
func formatReminderText(event *store.Event, resolved *ResolvedEvent) string {
	msg := fmt.Sprintf("🔔 <b>Reminder: %s</b>\n📝 %s\n⏰ %s", event.Type, event.Note, event.Time)

	if resolved == nil {
		return msg
	}
	if resolved.IsPreviousDayReminder {
		msg += "\n🌃 <b>TOMORROW's reminder!</b> (Midnight wish alert)"
		if resolved.HasAge {
			msg += fmt.Sprintf("\n🎂 Will be turning %d years old tomorrow!", resolved.Age)
		}
		return msg
	}
	if resolved.HasAge {
		msg += fmt.Sprintf("\n🎂 Turning %d years old!", resolved.Age)
	} else {
		msg += "\n🔄 Yearly reminder"
	}
	return msg
}

// formatVoiceText builds the plain spoken message for the voice channel.
func formatVoiceText(event *store.Event, resolved *ResolvedEvent) string {
	if resolved != nil && resolved.IsPreviousDayReminder {
		return fmt.Sprintf("Heads up. Tomorrow is %s: %s.", event.Type, event.Note)
	}
	return fmt.Sprintf("Reminder. %s: %s, at %s.", event.Type, event.Note, event.Time)
}
