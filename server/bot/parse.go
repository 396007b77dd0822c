package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/eventbot/store"
)

// parseDateInput accepts a calendar date as either ISO Y-M-D or
// space-separated Y M D, and returns the normalized YYYY-MM-DD form.
func parseDateInput(input string) (string, error) {
	input = strings.TrimSpace(input)

	var parts []string
	if strings.ContainsAny(input, " \t") {
		parts = strings.Fields(input)
	} else {
		parts = strings.Split(input, "-")
	}
	if len(parts) != 3 {
		return "", fmt.Errorf("expected Y-M-D or Y M D, got %q", input)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid year %q", parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid month %q", parts[1])
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid day %q", parts[2])
	}

	// time.Date normalizes out-of-range components (Feb 30 → Mar 2); a
	// round-trip mismatch means the input was not a real date.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", fmt.Errorf("no such date: %q", input)
	}
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("year out of range: %d", year)
	}
	return t.Format(store.DateLayout), nil
}

// parseClockInput accepts H:MM or HH:MM and returns the normalized HH:MM
// form.
func parseClockInput(input string) (string, error) {
	input = strings.TrimSpace(input)

	parts := strings.Split(input, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("expected HH:MM, got %q", input)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
