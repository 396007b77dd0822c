package store

import (
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// EventType is the kind of event a reminder is attached to.
type EventType string

const (
	EventTypeBirthday    EventType = "Birthday"
	EventTypeMeeting     EventType = "Meeting"
	EventTypeAppointment EventType = "Appointment"
	EventTypeAnniversary EventType = "Anniversary"
	EventTypeMedicine    EventType = "Medicine"
	EventTypeExercise    EventType = "Exercise"
	EventTypeOther       EventType = "Other"
)

// RecurrenceYearly is the only supported recurrence tag.
const RecurrenceYearly = "yearly"

// ReminderPreviousDay marks events whose reminder fires the evening before
// the anniversary date rather than on it.
const ReminderPreviousDay = "previous_day"

// DateLayout and ClockLayout are the persisted date/time formats.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Event is the persisted unit. Date holds the origin date for recurring
// events (the birth date, not the next occurrence). Reminded is only
// meaningful while LastRemindedDate equals the current date; a stale
// LastRemindedDate is treated as "not yet reminded today".
type Event struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	Note             string    `json:"note"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Recurring        string    `json:"recurring,omitempty"`
	ReminderType     string    `json:"reminder_type,omitempty"`
	Reminded         bool      `json:"reminded"`
	LastRemindedDate string    `json:"last_reminded_date,omitempty"`
	CreatedAt        string    `json:"created_at"`
}

// IsYearly reports whether the event recurs every year.
func (e *Event) IsYearly() bool {
	return e.Recurring == RecurrenceYearly
}

// MonthDay returns the MM-DD portion of the event date, or "" if the date
// is too short to carry one.
func (e *Event) MonthDay() string {
	if len(e.Date) < len(DateLayout) {
		return ""
	}
	return e.Date[5:]
}

// RemindedOn reports whether the dedup marker shows a reminder already
// fired on the given date.
func (e *Event) RemindedOn(date string) bool {
	return e.Reminded && e.LastRemindedDate == date
}

var validEventTypes = map[EventType]bool{
	EventTypeBirthday:    true,
	EventTypeMeeting:     true,
	EventTypeAppointment: true,
	EventTypeAnniversary: true,
	EventTypeMedicine:    true,
	EventTypeExercise:    true,
	EventTypeOther:       true,
}

// Validate checks that a complete event satisfies the model invariants.
// Partially-built drafts are expected to fail here; the conversation engine
// calls this exactly once, at commit time.
func (e *Event) Validate() error {
	if !validEventTypes[e.Type] {
		return errors.Errorf("unknown event type: %q", e.Type)
	}
	if e.Note == "" {
		return errors.New("event note must not be empty")
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return errors.Wrapf(err, "invalid event date %q", e.Date)
	}
	if _, err := time.Parse(ClockLayout, e.Time); err != nil {
		return errors.Wrapf(err, "invalid event time %q", e.Time)
	}
	if e.Recurring != "" && e.Recurring != RecurrenceYearly {
		return errors.Errorf("unsupported recurrence: %q", e.Recurring)
	}
	if e.IsYearly() && e.Type != EventTypeBirthday && e.Type != EventTypeAnniversary {
		return errors.Errorf("yearly recurrence is only valid for birthdays and anniversaries, got %q", e.Type)
	}
	if e.ReminderType != "" && e.ReminderType != ReminderPreviousDay {
		return errors.Errorf("unsupported reminder type: %q", e.ReminderType)
	}
	if e.ReminderType == ReminderPreviousDay && !e.IsYearly() {
		return errors.New("previous-day reminders require yearly recurrence")
	}
	return nil
}

var (
	idMu   sync.Mutex
	lastID int64
)

// GenerateEventID returns a collision-free id derived from the wall clock.
// Successive calls within the same nanosecond are bumped forward so ids stay
// strictly increasing within the process.
func GenerateEventID() string {
	idMu.Lock()
	defer idMu.Unlock()

	id := time.Now().UnixNano()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}
