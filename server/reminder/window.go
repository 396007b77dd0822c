package reminder

import (
	"time"

	"github.com/hrygo/eventbot/store"
)

// DueWindowMinutes is the tolerance around an event's configured time
// within which a reminder counts as on time. The daemon polls roughly once
// a minute; tightening this below the polling interval would drop
// legitimate reminders that fall between two scans.
const DueWindowMinutes = 1

// MinutesOfDay converts an HH:MM clock string to minutes since midnight.
// Malformed input resolves to minute 0 rather than failing, which makes a
// corrupted time field read as "almost certainly not due", except right
// around midnight. Callers that care should check IsValidClock and log.
func MinutesOfDay(clock string) int {
	t, err := time.Parse(store.ClockLayout, clock)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// IsValidClock reports whether the string parses as HH:MM.
func IsValidClock(clock string) bool {
	_, err := time.Parse(store.ClockLayout, clock)
	return err == nil
}

// IsDue decides whether a reminder configured for eventTime should fire
// now: not yet reminded today, and within the fixed due window.
func IsDue(now, eventTime string, alreadyRemindedToday bool) bool {
	if alreadyRemindedToday {
		return false
	}
	diff := MinutesOfDay(now) - MinutesOfDay(eventTime)
	if diff < 0 {
		diff = -diff
	}
	return diff <= DueWindowMinutes
}
