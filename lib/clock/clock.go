package clock

import (
	"fmt"
	"time"
)

const (
	// ISOLayout is the fixed-width UTC layout used for code expirations.
	// Lexicographic order of values in this layout matches chronological order.
	ISOLayout = "2006-01-02T15:04:05.000000"
	// SeenLayout is the layout of a user's last_seen field.
	SeenLayout = "2006-01-02 15:04:05"

	responseLayout = "2006-01-02T15:04:05Z"
	displayLayout  = "02/01/2006 15:04"
)

// Clock returns the current time. Stores take one so tests can move time.
type Clock func() time.Time

// System is the wall clock.
func System() time.Time {
	return time.Now()
}

func Now() string {
	return time.Now().UTC().Format(responseLayout)
}

// ISO formats t in UTC using ISOLayout.
func ISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO accepts ISOLayout as well as the same layout with a shorter or missing fraction.
func ParseISO(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.999999", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid timestamp: %s", value)
	}
	return t, nil
}

// Display renders an ISO timestamp as DD/MM/YYYY HH:MM, or returns the input unchanged
// when it cannot be parsed.
func Display(value string) string {
	t, err := ParseISO(value)
	if err != nil {
		return value
	}
	return t.Format(displayLayout)
}

// DisplaySeen renders a last_seen value as DD/MM/YYYY HH:MM, or returns it unchanged.
func DisplaySeen(value string) string {
	t, err := time.Parse(SeenLayout, value)
	if err != nil {
		return value
	}
	return t.Format(displayLayout)
}
