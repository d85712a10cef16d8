// Package timeofday provides a comparable wall-clock value for shift windows.
// Shift boundaries are stored as zero-padded "HH:MM" strings; this type keeps
// the comparisons numeric instead of lexical.
package timeofday

import (
	"fmt"
	"time"
)

// Clock is a time of day as minutes since midnight.
type Clock int

// Parse reads a zero-padded "HH:MM" string.
func Parse(s string) (Clock, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
		return 0, fmt.Errorf("timeofday: invalid clock %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("timeofday: invalid clock %q", s)
	}
	return Clock(h*60 + m), nil
}

// FromTime extracts the wall-clock component of t.
func FromTime(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// Add returns the clock shifted by d, wrapping at midnight.
func (c Clock) Add(d time.Duration) Clock {
	total := (int(c) + int(d.Minutes())) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return Clock(total)
}

func (c Clock) Before(o Clock) bool { return c < o }
func (c Clock) After(o Clock) bool  { return c > o }

// String renders the canonical zero-padded form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
