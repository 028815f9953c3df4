// Package ics converts templates to and from iCalendar.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calplan/internal/log"
	"calplan/internal/model"
)

const productID = "-//calplan//calplan//EN"

// propertyColor is the RFC 7986 COLOR property.
const propertyColor = ical.ComponentProperty("COLOR")

var rruleFor = map[model.Recurrence]string{
	model.Daily:    "FREQ=DAILY",
	model.Weekly:   "FREQ=WEEKLY",
	model.Biweekly: "FREQ=WEEKLY;INTERVAL=2",
	model.Monthly:  "FREQ=MONTHLY",
	model.Yearly:   "FREQ=YEARLY",
}

// Export writes templates as one VCALENDAR with a VEVENT per template. The
// template ID becomes the UID.
func Export(w io.Writer, templates []model.Template, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, t := range templates {
		ev := cal.AddEvent(t.ID)
		ev.SetDtStampTime(now)
		ev.SetStartAt(t.Start)
		ev.SetEndAt(t.End)
		ev.SetSummary(t.Title)
		if t.Color != "" {
			ev.SetProperty(propertyColor, t.Color)
		}
		if rule, ok := rruleFor[t.Recurrence]; ok {
			ev.AddRrule(rule)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	appLog.Info("ics export completed", "event_count", len(templates))
	return nil
}
