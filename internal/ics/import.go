package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "calplan/internal/log"
	"calplan/internal/model"
)

var (
	errMissingUID   = errors.New("missing UID")
	errMissingStart = errors.New("missing DTSTART")
	errBadSpan      = errors.New("end is not after start")
	errUnsupported  = errors.New("unsupported recurrence")
)

// Sink receives imported templates. *store.Store satisfies it.
type Sink interface {
	Has(id string) bool
	Add(t model.Template) string
}

// ImportResult counts what happened to each VEVENT.
type ImportResult struct {
	Added       int
	Duplicates  int // UID already present
	Unsupported int // rule, exception or override that has no template form
	Invalid     int // missing or malformed fields
}

// Import parses an iCalendar stream and adds every VEVENT that maps onto a
// template. Events are added in file order; the caller saves the sink.
func Import(r io.Reader, sink Sink) (ImportResult, error) {
	var res ImportResult

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return res, fmt.Errorf("parse calendar: %w", err)
	}

	for _, ve := range cal.Events() {
		t, err := templateFrom(ve)
		switch {
		case errors.Is(err, errUnsupported):
			res.Unsupported++
			appLog.Warn("ics import: skipping event", "reason", err.Error(), "uid", t.ID)
			continue
		case err != nil:
			res.Invalid++
			appLog.Warn("ics import: skipping event", "reason", err.Error(), "uid", t.ID)
			continue
		}
		if sink.Has(t.ID) {
			res.Duplicates++
			continue
		}
		sink.Add(t)
		res.Added++
	}

	appLog.Info("ics import completed",
		"added", res.Added,
		"duplicates", res.Duplicates,
		"unsupported", res.Unsupported,
		"invalid", res.Invalid,
	)
	return res, nil
}

func templateFrom(ve *ical.VEvent) (model.Template, error) {
	var t model.Template

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return t, errMissingUID
	}
	t.ID = strings.TrimSpace(uid.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		t.Title = strings.TrimSpace(p.Value)
	}
	if t.Title == "" {
		t.Title = "(untitled)"
	}
	if p := ve.GetProperty(propertyColor); p != nil {
		t.Color = strings.TrimSpace(p.Value)
	}

	// Exceptions and overridden instances have no template form.
	if ve.GetProperty(ical.ComponentPropertyExdate) != nil || ve.GetProperty("RECURRENCE-ID") != nil {
		return t, fmt.Errorf("%w: exceptions", errUnsupported)
	}

	start, end, err := span(ve)
	if err != nil {
		return t, err
	}
	t.Start, t.End = start, end

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rec, err := recurrenceFrom(p.Value)
		if err != nil {
			return t, err
		}
		t.Recurrence = rec
	}

	return t, t.Validate()
}

// span returns the local start and end of ve. All-day events cover whole
// local days; a missing DTEND means one day for them and is invalid
// otherwise.
func span(ve *ical.VEvent) (time.Time, time.Time, error) {
	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return time.Time{}, time.Time{}, errMissingStart
	}

	if isDate(dtStart) {
		start, err := time.ParseInLocation("20060102", strings.TrimSpace(dtStart.Value), time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("DTSTART: %w", err)
		}
		end := start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			e, err := time.ParseInLocation("20060102", strings.TrimSpace(dtEnd.Value), time.Local)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("DTEND: %w", err)
			}
			end = e
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, errBadSpan
		}
		return start, end, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("DTEND: %w", err)
	}
	start, end = start.In(time.Local), end.In(time.Local)
	if !end.After(start) {
		return time.Time{}, time.Time{}, errBadSpan
	}
	return start, end, nil
}

// isDate reports whether p is a VALUE=DATE or bare YYYYMMDD value.
func isDate(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// recurrenceFrom maps an RRULE value onto a recurrence. Only plain
// unbounded rules without BY* parts are representable.
func recurrenceFrom(value string) (model.Recurrence, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return model.None, fmt.Errorf("%w: %v", errUnsupported, err)
	}
	if opt.Count != 0 || !opt.Until.IsZero() || len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 ||
		len(opt.Bymonthday) > 0 || len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 ||
		len(opt.Byweekday) > 0 || len(opt.Byhour) > 0 || len(opt.Byminute) > 0 ||
		len(opt.Bysecond) > 0 || len(opt.Byeaster) > 0 {
		return model.None, fmt.Errorf("%w: %s", errUnsupported, value)
	}

	interval := opt.Interval
	if interval == 0 {
		interval = 1
	}
	switch {
	case opt.Freq == rrule.DAILY && interval == 1:
		return model.Daily, nil
	case opt.Freq == rrule.WEEKLY && interval == 1:
		return model.Weekly, nil
	case opt.Freq == rrule.WEEKLY && interval == 2:
		return model.Biweekly, nil
	case opt.Freq == rrule.MONTHLY && interval == 1:
		return model.Monthly, nil
	case opt.Freq == rrule.YEARLY && interval == 1:
		return model.Yearly, nil
	}
	return model.None, fmt.Errorf("%w: %s", errUnsupported, value)
}
