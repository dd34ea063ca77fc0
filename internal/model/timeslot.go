package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation marks caller-supplied or source-declared data that violates a
// model invariant. Wrapped errors carry the detail.
var ErrValidation = errors.New("validation failed")

// TimeOfDay is a wall-clock time on a 24-hour wheel. An end-of-interval value
// of 00:00 is read as 24:00 (end of day); see Minutes.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string. "24:00" is accepted and mapped to
// the midnight sentinel 00:00.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid time %q, expected HH:MM", ErrValidation, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour in %q", ErrValidation, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute in %q", ErrValidation, s)
	}
	if hour == 24 && minute == 0 {
		return TimeOfDay{}, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: time %q out of range", ErrValidation, s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String renders the time as "HH:MM". The sentinel is rendered as "00:00";
// callers that know the value is an interval end should use FormatEnd.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// FormatEnd renders an interval end, mapping the 00:00 sentinel to "24:00".
func (t TimeOfDay) FormatEnd() string {
	if t.Hour == 0 && t.Minute == 0 {
		return "24:00"
	}
	return t.String()
}

// Minutes converts the time to minutes since midnight. When isEnd is set, a
// raw value of 0 is returned as 1440 (the midnight sentinel).
func (t TimeOfDay) Minutes(isEnd bool) int {
	m := t.Hour*60 + t.Minute
	if m == 0 && isEnd {
		return 24 * 60
	}
	return m
}

// TimeOfDayFromMinutes converts minutes since midnight back to a TimeOfDay.
// 1440 maps to the 00:00 sentinel.
func TimeOfDayFromMinutes(m int) TimeOfDay {
	m = m % 1440
	return TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// TimeSlot is one contiguous bookable interval within a day. Immutable: every
// transform produces a new value.
type TimeSlot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewTimeSlot validates time ordering under the end sentinel rule.
func NewTimeSlot(start, end TimeOfDay) (TimeSlot, error) {
	if err := validateOrder(start, end); err != nil {
		return TimeSlot{}, err
	}
	return TimeSlot{Start: start, End: end}, nil
}

// DurationMinutes returns the slot length in minutes.
func (s TimeSlot) DurationMinutes() int {
	return s.End.Minutes(true) - s.Start.Minutes(false)
}

// DesiredRange is the caller's search window. Same ordering and sentinel
// semantics as TimeSlot.
type DesiredRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewDesiredRange validates time ordering under the end sentinel rule.
func NewDesiredRange(start, end TimeOfDay) (DesiredRange, error) {
	if err := validateOrder(start, end); err != nil {
		return DesiredRange{}, err
	}
	return DesiredRange{Start: start, End: end}, nil
}

func validateOrder(start, end TimeOfDay) error {
	if start.Minutes(false) >= end.Minutes(true) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrValidation, start, end.FormatEnd())
	}
	return nil
}
