// Package form turns the raw text of the add/edit form into templates.
package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"calplan/internal/model"
)

// StartLayout is the format of the start field, interpreted in local time.
const StartLayout = "2006-01-02 15:04"

// Field names, in form order.
const (
	FieldTitle      = "title"
	FieldStart      = "start"
	FieldDuration   = "duration"
	FieldColor      = "color"
	FieldRecurrence = "recurrence"
)

// MaxHours is the longest duration a time.Duration can hold.
const MaxHours = math.MaxInt64 / int64(time.Hour)

// Fields lists the form fields in the order they are shown.
var Fields = []string{FieldTitle, FieldStart, FieldDuration, FieldColor, FieldRecurrence}

// ValidationError reports the first field that failed to validate.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Draft holds the form fields as typed.
type Draft struct {
	Title      string
	Start      string
	Duration   string // whole hours
	Color      string
	Recurrence string
}

// Value returns the field with the given name.
func (d Draft) Value(field string) string {
	switch field {
	case FieldTitle:
		return d.Title
	case FieldStart:
		return d.Start
	case FieldDuration:
		return d.Duration
	case FieldColor:
		return d.Color
	case FieldRecurrence:
		return d.Recurrence
	}
	return ""
}

// Set assigns the field with the given name. Unknown names are ignored.
func (d *Draft) Set(field, value string) {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldStart:
		d.Start = value
	case FieldDuration:
		d.Duration = value
	case FieldColor:
		d.Color = value
	case FieldRecurrence:
		d.Recurrence = value
	}
}

type parsed struct {
	title string
	start time.Time
	hours int
	color string
	rec   model.Recurrence
}

func (d Draft) parse() (parsed, error) {
	var p parsed

	p.title = strings.TrimSpace(d.Title)
	if p.title == "" {
		return p, &ValidationError{Field: FieldTitle, Message: "must not be empty"}
	}

	start, err := time.ParseInLocation(StartLayout, strings.TrimSpace(d.Start), time.Local)
	if err != nil {
		return p, &ValidationError{Field: FieldStart, Message: fmt.Sprintf("expected %s", StartLayout)}
	}
	p.start = start

	hours, err := strconv.Atoi(strings.TrimSpace(d.Duration))
	if err != nil || hours <= 0 {
		return p, &ValidationError{Field: FieldDuration, Message: "must be a positive number of hours"}
	}
	if int64(hours) > MaxHours {
		return p, &ValidationError{Field: FieldDuration, Message: fmt.Sprintf("must be at most %d hours", MaxHours)}
	}
	p.hours = hours

	p.color = strings.TrimSpace(d.Color)

	if rec := strings.TrimSpace(d.Recurrence); rec != "" {
		r, err := model.ParseRecurrence(rec)
		if err != nil {
			return p, &ValidationError{Field: FieldRecurrence, Message: "must be one of None, Daily, Weekly, Biweekly, Monthly, Yearly"}
		}
		p.rec = r
	}
	return p, nil
}

// Validate reports the first invalid field as a *ValidationError.
func (d Draft) Validate() error {
	_, err := d.parse()
	return err
}

// Build validates d and returns the template it describes, carrying id.
func (d Draft) Build(id string) (model.Template, error) {
	p, err := d.parse()
	if err != nil {
		return model.Template{}, err
	}
	t := model.Template{
		ID:         id,
		Title:      p.title,
		Start:      p.start,
		End:        p.start.Add(time.Duration(p.hours) * time.Hour),
		Color:      p.color,
		Recurrence: p.rec,
	}
	if err := t.Validate(); err != nil {
		return model.Template{}, &ValidationError{Field: FieldDuration, Message: err.Error()}
	}
	return t, nil
}

// FromTemplate pre-fills a draft for editing t. The duration is truncated
// to whole hours.
func FromTemplate(t model.Template) Draft {
	return Draft{
		Title:      t.Title,
		Start:      t.Start.In(time.Local).Format(StartLayout),
		Duration:   strconv.Itoa(int(t.Duration() / time.Hour)),
		Color:      t.Color,
		Recurrence: t.Recurrence.String(),
	}
}
