package view

import (
	"fmt"
	"strings"
	"time"
)

// Mode restricts the projection to a calendar window around a reference date.
type Mode int

const (
	All Mode = iota
	Week
	Month
	Year
)

var modeNames = [...]string{"all", "week", "month", "year"}

func (m Mode) String() string {
	if m < All || m > Year {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the lower-case names used in the config file.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return All, fmt.Errorf("unknown view mode %q", s)
}

// Next cycles All -> Week -> Month -> Year -> All.
func (m Mode) Next() Mode {
	return (m + 1) % (Year + 1)
}

// Window returns the half-open interval [from, to) of local calendar days
// covered by mode around ref. ok is false for All.
func Window(mode Mode, ref time.Time, weekStart time.Weekday) (from, to time.Time, ok bool) {
	day := startOfDay(ref)
	switch mode {
	case Week:
		offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
		from = day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7), true
	case Month:
		from = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return from, from.AddDate(0, 1, 0), true
	case Year:
		from = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		return from, from.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Shift moves ref by n whole view periods. All leaves ref unchanged.
func Shift(mode Mode, ref time.Time, n int) time.Time {
	switch mode {
	case Week:
		return ref.AddDate(0, 0, 7*n)
	case Month:
		// Anchor on the first so Jan 31 + 1 month lands in February.
		first := time.Date(ref.Year(), ref.Month(), 1, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
		return first.AddDate(0, n, 0)
	case Year:
		first := time.Date(ref.Year(), ref.Month(), 1, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
		return first.AddDate(n, 0, 0)
	default:
		return ref
	}
}

// Label is the header text for the window of mode around ref.
func Label(mode Mode, ref time.Time, weekStart time.Weekday) string {
	from, to, ok := Window(mode, ref, weekStart)
	if !ok {
		return "All events"
	}
	switch mode {
	case Week:
		return fmt.Sprintf("Week %s – %s", from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))
	case Month:
		return from.Format("January 2006")
	default:
		return from.Format("2006")
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
