// Package reminder implements the reminder resolution and dispatch engine:
// yearly recurrence resolution, the due-time window, and the background
// daemon that scans the store and notifies.
//
// All date arithmetic runs in the host's local time. The data model carries
// no timezone, so behavior across DST shifts or a host timezone change is
// undefined; events are assumed to be authored and reminded on the same
// clock.
package reminder

import (
	"time"

	"github.com/hrygo/eventbot/store"
)

// ResolvedEvent is a derived view of a yearly event that is active on a
// target date. It carries a copy of the source event; enrichment never
// touches the stored record. Trace it back by ID before mutating dedup
// state.
type ResolvedEvent struct {
	store.Event

	// Age is set for birthdays: the age turned on the occurrence date.
	Age    int
	HasAge bool

	// IsPreviousDayReminder marks a night-before notice for an event whose
	// actual date is tomorrow.
	IsPreviousDayReminder bool
}

// ResolveYearly returns the yearly-recurring events active on the target
// date: those whose occurrence falls on it, plus night-before notices for
// previous-day events whose occurrence is the day after. Pure; safe to call
// any number of times.
func ResolveYearly(target time.Time, events []*store.Event) []ResolvedEvent {
	resolved := []ResolvedEvent{}
	targetY, targetM, targetD := target.Date()

	for _, event := range events {
		if !event.IsYearly() {
			continue
		}
		origin, err := time.Parse(store.DateLayout, event.Date)
		if err != nil {
			continue
		}

		occurrence := occurrenceInYear(targetY, origin.Month(), origin.Day())
		_, occM, occD := occurrence.Date()

		if occM == targetM && occD == targetD {
			r := ResolvedEvent{Event: *event}
			if event.Type == store.EventTypeBirthday {
				r.Age = targetY - origin.Year()
				r.HasAge = true
			}
			resolved = append(resolved, r)
			continue
		}

		if event.ReminderType == store.ReminderPreviousDay {
			prevY, prevM, prevD := occurrence.AddDate(0, 0, -1).Date()
			if prevY == targetY && prevM == targetM && prevD == targetD {
				r := ResolvedEvent{Event: *event, IsPreviousDayReminder: true}
				if event.Type == store.EventTypeBirthday {
					// The age turned on tomorrow's actual date.
					r.Age = targetY + 1 - origin.Year()
					r.HasAge = true
				}
				resolved = append(resolved, r)
			}
		}
	}
	return resolved
}

// occurrenceInYear places a recurring event's month-day into the given
// year. A Feb-29 origin lands on Feb-28 when the year is not a leap year.
func occurrenceInYear(year int, month time.Month, day int) time.Time {
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
