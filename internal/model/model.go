package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Recurrence is the repeat rule of a template.
type Recurrence int

const (
	None Recurrence = iota
	Daily
	Weekly
	Biweekly
	Monthly
	Yearly
)

var recurrenceNames = [...]string{"None", "Daily", "Weekly", "Biweekly", "Monthly", "Yearly"}

// Recurrences lists every rule in display order.
var Recurrences = []Recurrence{None, Daily, Weekly, Biweekly, Monthly, Yearly}

func (r Recurrence) String() string {
	if r < None || r > Yearly {
		return fmt.Sprintf("Recurrence(%d)", int(r))
	}
	return recurrenceNames[r]
}

// ParseRecurrence matches s case-insensitively against the six tags.
// Surrounding whitespace is ignored.
func ParseRecurrence(s string) (Recurrence, error) {
	s = strings.TrimSpace(s)
	for i, name := range recurrenceNames {
		if strings.EqualFold(s, name) {
			return Recurrence(i), nil
		}
	}
	return None, fmt.Errorf("unknown recurrence %q", s)
}

func (r Recurrence) MarshalJSON() ([]byte, error) {
	if r < None || r > Yearly {
		return nil, fmt.Errorf("invalid recurrence %d", int(r))
	}
	return json.Marshal(r.String())
}

func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRecurrence(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Template is a stored event definition. Recurring templates stand for an
// unbounded series of occurrences.
type Template struct {
	ID         string
	Title      string
	Start      time.Time
	End        time.Time
	Color      string // empty means unset
	Recurrence Recurrence
}

// Duration is End - Start.
func (t Template) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Recurring reports whether the template repeats.
func (t Template) Recurring() bool {
	return t.Recurrence != None
}

var (
	ErrEmptyTitle      = errors.New("title is empty")
	ErrNonPositiveSpan = errors.New("end is not after start")
)

// Validate checks the invariants the rest of the system relies on.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.End.After(t.Start) {
		return ErrNonPositiveSpan
	}
	if t.Recurrence < None || t.Recurrence > Yearly {
		return fmt.Errorf("invalid recurrence %d", int(t.Recurrence))
	}
	return nil
}

// templateJSON carries the nullable color of the file format.
type templateJSON struct {
	ID         string     `json:"id,omitempty"`
	Title      string     `json:"title"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Color      *string    `json:"color"`
	Recurrence Recurrence `json:"recurrence"`
}

func (t Template) MarshalJSON() ([]byte, error) {
	out := templateJSON{
		ID:         t.ID,
		Title:      t.Title,
		Start:      t.Start,
		End:        t.End,
		Recurrence: t.Recurrence,
	}
	if t.Color != "" {
		c := t.Color
		out.Color = &c
	}
	return json.Marshal(out)
}

func (t *Template) UnmarshalJSON(data []byte) error {
	var in templateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Template{
		ID:         in.ID,
		Title:      in.Title,
		Start:      in.Start,
		End:        in.End,
		Recurrence: in.Recurrence,
	}
	if in.Color != nil {
		t.Color = *in.Color
	}
	return nil
}

// Occurrence is a single concrete instance of a template, produced by
// shifting the template's start/end by a whole number of periods.
type Occurrence struct {
	TemplateID string

	// InstanceKey identifies one occurrence of a recurring template,
	// derived from its start time.
	InstanceKey string

	Title      string
	Start      time.Time
	End        time.Time
	Color      string
	Recurrence Recurrence
}

// OccurrenceAt returns the occurrence of t that starts at start.
func (t Template) OccurrenceAt(start time.Time) Occurrence {
	return Occurrence{
		TemplateID:  t.ID,
		InstanceKey: start.Format(time.RFC3339Nano),
		Title:       t.Title,
		Start:       start,
		End:         start.Add(t.Duration()),
		Color:       t.Color,
		Recurrence:  t.Recurrence,
	}
}
