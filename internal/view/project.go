// Package view merges the occurrences of all templates into one filtered,
// sorted timeline.
package view

import (
	"errors"
	"sort"
	"time"

	appLog "calplan/internal/log"
	"calplan/internal/model"
	"calplan/internal/occur"
)

const defaultMaxPerTemplate = 50000

// Options controls one projection pass.
type Options struct {
	// Horizon is the inclusive upper bound for recurrence expansion.
	Horizon time.Time

	Mode      Mode
	Reference time.Time
	WeekStart time.Weekday

	// Now is the cut-off for UpcomingOnly.
	Now          time.Time
	UpcomingOnly bool

	// Color, when non-empty, admits only occurrences with exactly this color.
	Color string

	Ascending bool

	// MaxPerTemplate caps the occurrences taken from a single template.
	// Zero means defaultMaxPerTemplate.
	MaxPerTemplate int
}

// Entry is one visible occurrence together with the template it came from.
type Entry struct {
	TemplateID string
	// Index is the template's position in the projected snapshot.
	Index      int
	Occurrence model.Occurrence
}

// Result is the outcome of Project.
type Result struct {
	Entries []Entry
	// Truncated lists template IDs whose expansion hit MaxPerTemplate.
	Truncated []string
}

// Project expands every template up to opts.Horizon, keeps the occurrences
// admitted by the view window, the upcoming-only cut-off and the color
// filter, and sorts them by start. Equal starts keep template order.
func Project(templates []model.Template, opts Options) Result {
	var res Result
	res.Entries = make([]Entry, 0)

	limit := opts.MaxPerTemplate
	if limit <= 0 {
		limit = defaultMaxPerTemplate
	}

	from, to, windowed := Window(opts.Mode, opts.Reference, opts.WeekStart)

	for i, tpl := range templates {
		occs, truncated := occur.Expand(tpl, opts.Horizon, limit)
		if truncated {
			res.Truncated = append(res.Truncated, tpl.ID)
			appLog.Error("view: truncated occurrences for template due to cap",
				errors.New("max occurrences reached"),
				"template", tpl.ID,
				"title", tpl.Title,
				"cap", limit,
			)
		}

		for _, occ := range occs {
			if windowed && (occ.Start.Before(from) || !occ.Start.Before(to)) {
				continue
			}
			if opts.UpcomingOnly && occ.Start.Before(opts.Now) {
				continue
			}
			if opts.Color != "" && occ.Color != opts.Color {
				continue
			}
			res.Entries = append(res.Entries, Entry{TemplateID: tpl.ID, Index: i, Occurrence: occ})
		}
	}

	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].Occurrence.Start.Before(res.Entries[j].Occurrence.Start)
	})
	if !opts.Ascending {
		reverse(res.Entries)
	}

	appLog.Debug("view: projection built",
		"templates", len(templates),
		"visible", len(res.Entries),
		"mode", opts.Mode,
		"upcoming_only", opts.UpcomingOnly,
		"color", opts.Color,
		"ascending", opts.Ascending,
	)
	return res
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

// IndexOf returns the position of the first entry produced by templateID,
// or -1.
func (r Result) IndexOf(templateID string) int {
	for i, e := range r.Entries {
		if e.TemplateID == templateID {
			return i
		}
	}
	return -1
}
