// Package occur expands event templates into concrete occurrences.
package occur

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "calplan/internal/log"
	"calplan/internal/model"
)

// Generate returns every occurrence of t whose start is not after horizon,
// in strictly increasing start order.
//
// Daily, weekly and biweekly templates step by exact multiples of 24 hours,
// so across a DST change the wall-clock time shifts by the offset change.
// Monthly and yearly templates keep the wall-clock time and the day-of-month
// (and month); when a period has no such date (Jan 31 -> February, Feb 29 ->
// a common year) the series stops there instead of skipping ahead or
// clamping.
func Generate(t model.Template, horizon time.Time) []model.Occurrence {
	out, _ := Expand(t, horizon, 0)
	return out
}

// Expand is Generate with a cap on the number of occurrences. A limit of zero
// or less means no cap. The boolean reports whether the cap cut the series.
func Expand(t model.Template, horizon time.Time, limit int) ([]model.Occurrence, bool) {
	if t.Start.After(horizon) {
		return nil, false
	}
	if t.Recurrence == model.None {
		return []model.Occurrence{t.OccurrenceAt(t.Start)}, false
	}

	r, err := ruleFor(t)
	if err != nil {
		appLog.Error("occur: failed to build recurrence rule", err, "template", t.ID, "recurrence", t.Recurrence)
		return nil, false
	}

	// rrule works on whole seconds; carry any remainder of the start over.
	frac := t.Start.Sub(t.Start.Truncate(time.Second))
	loc := t.Start.Location()

	out := make([]model.Occurrence, 0)
	next := r.Iterator()
	var prev time.Time
	for {
		start, ok := next()
		if !ok {
			break
		}
		start = start.In(loc).Add(frac)
		if start.After(horizon) {
			break
		}
		if len(out) > 0 && skippedPeriod(t.Recurrence, prev, start) {
			appLog.Debug("occur: series halted on missing calendar date",
				"template", t.ID,
				"last", prev.Format(time.RFC3339),
				"count", len(out),
			)
			break
		}
		if limit > 0 && len(out) >= limit {
			return out, true
		}
		out = append(out, t.OccurrenceAt(start))
		prev = start
	}
	return out, false
}

func ruleFor(t model.Template) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart:  t.Start,
		Interval: 1,
	}
	// Fixed periods run in UTC, where a day is always 24 hours.
	switch t.Recurrence {
	case model.Daily:
		opt.Freq = rrule.DAILY
		opt.Dtstart = t.Start.UTC()
	case model.Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Dtstart = t.Start.UTC()
	case model.Biweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
		opt.Dtstart = t.Start.UTC()
	case model.Monthly:
		opt.Freq = rrule.MONTHLY
	case model.Yearly:
		opt.Freq = rrule.YEARLY
	default:
		return nil, fmt.Errorf("no rule for recurrence %v", t.Recurrence)
	}
	return rrule.NewRRule(opt)
}

// skippedPeriod reports whether next is more than one period after prev.
// rrule silently jumps over months (years) that lack the start's day.
func skippedPeriod(rec model.Recurrence, prev, next time.Time) bool {
	switch rec {
	case model.Monthly:
		return monthIndex(next)-monthIndex(prev) != 1
	case model.Yearly:
		return next.Year()-prev.Year() != 1
	default:
		return false
	}
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}
