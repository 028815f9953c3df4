// Package planner ties the store, the projection and the selection cursor
// together and maps commands on a visible occurrence back to its template.
package planner

import (
	"errors"
	"fmt"
	"time"

	"calplan/internal/form"
	appLog "calplan/internal/log"
	"calplan/internal/model"
	"calplan/internal/store"
	"calplan/internal/view"
)

var ErrNoSelection = errors.New("no event selected")

// Settings are the startup values of the planner, usually from config.
type Settings struct {
	HorizonYears   int
	MaxPerTemplate int
	WeekStart      time.Weekday
	Mode           view.Mode
	UpcomingOnly   bool
	Ascending      bool
}

// Planner is the single owner of the store during a session.
type Planner struct {
	store    *store.Store
	settings Settings

	mode      view.Mode
	reference time.Time
	now       time.Time
	upcoming  bool
	color     string
	ascending bool

	result view.Result
	cursor int
}

// New builds a planner over s and projects it once at now.
func New(s *store.Store, settings Settings, now time.Time) *Planner {
	if settings.HorizonYears <= 0 {
		settings.HorizonYears = 5
	}
	p := &Planner{
		store:     s,
		settings:  settings,
		mode:      settings.Mode,
		reference: now,
		now:       now,
		upcoming:  settings.UpcomingOnly,
		ascending: settings.Ascending,
	}
	p.Refresh(now)
	return p
}

// Refresh re-projects the current store contents. The cursor follows the
// selected occurrence when it is still visible and is clamped otherwise.
func (p *Planner) Refresh(now time.Time) {
	p.now = now
	prev, hadSel := p.Selected()

	base := now
	if p.reference.After(base) {
		base = p.reference
	}

	p.result = view.Project(p.store.Snapshot(), view.Options{
		Horizon:        base.AddDate(p.settings.HorizonYears, 0, 0),
		Mode:           p.mode,
		Reference:      p.reference,
		WeekStart:      p.settings.WeekStart,
		Now:            now,
		UpcomingOnly:   p.upcoming,
		Color:          p.color,
		Ascending:      p.ascending,
		MaxPerTemplate: p.settings.MaxPerTemplate,
	})
	if hadSel {
		if i := p.indexOf(prev); i >= 0 {
			p.cursor = i
		}
	}
	p.clamp()
}

func (p *Planner) indexOf(e view.Entry) int {
	for i, cur := range p.result.Entries {
		if cur.TemplateID == e.TemplateID && cur.Occurrence.InstanceKey == e.Occurrence.InstanceKey {
			return i
		}
	}
	return -1
}

func (p *Planner) clamp() {
	n := len(p.result.Entries)
	switch {
	case n == 0:
		p.cursor = 0
	case p.cursor >= n:
		p.cursor = n - 1
	case p.cursor < 0:
		p.cursor = 0
	}
}

// Entries returns the visible occurrences in display order.
func (p *Planner) Entries() []view.Entry {
	return p.result.Entries
}

// Truncated lists templates whose expansion hit the safety cap in the last
// refresh.
func (p *Planner) Truncated() []string {
	return p.result.Truncated
}

// Cursor is the index of the selected entry. It is 0 when nothing is visible.
func (p *Planner) Cursor() int {
	return p.cursor
}

// Selected returns the entry under the cursor.
func (p *Planner) Selected() (view.Entry, bool) {
	if p.cursor < 0 || p.cursor >= len(p.result.Entries) {
		return view.Entry{}, false
	}
	return p.result.Entries[p.cursor], true
}

// Move shifts the cursor by delta, clamped to the visible entries.
func (p *Planner) Move(delta int) {
	p.cursor += delta
	p.clamp()
}

// BeginEdit returns the template behind the selected occurrence.
func (p *Planner) BeginEdit() (model.Template, bool) {
	e, ok := p.Selected()
	if !ok {
		return model.Template{}, false
	}
	return p.store.Get(e.TemplateID)
}

// Create adds the template described by d, saves, and selects the new
// template's first visible occurrence when there is one.
func (p *Planner) Create(d form.Draft) (string, error) {
	tpl, err := d.Build("")
	if err != nil {
		return "", err
	}
	id := p.store.Add(tpl)
	appLog.Info("planner: template created", "id", id, "title", tpl.Title, "recurrence", tpl.Recurrence)

	saveErr := p.save()
	p.Refresh(p.now)
	if i := p.result.IndexOf(id); i >= 0 {
		p.cursor = i
	}
	return id, saveErr
}

// Update replaces the template with the given ID, keeping its ID and
// position, and saves.
func (p *Planner) Update(id string, d form.Draft) error {
	tpl, err := d.Build(id)
	if err != nil {
		return err
	}
	if err := p.store.Replace(id, tpl); err != nil {
		return err
	}
	appLog.Info("planner: template updated", "id", id, "title", tpl.Title, "recurrence", tpl.Recurrence)

	saveErr := p.save()
	p.Refresh(p.now)
	return saveErr
}

// DeleteSelected removes the template behind the selected occurrence. For a
// recurring template this drops the whole series.
func (p *Planner) DeleteSelected() (model.Template, error) {
	e, ok := p.Selected()
	if !ok {
		return model.Template{}, ErrNoSelection
	}
	tpl, _ := p.store.Get(e.TemplateID)
	if err := p.store.Delete(e.TemplateID); err != nil {
		return model.Template{}, err
	}
	appLog.Info("planner: template deleted", "id", tpl.ID, "title", tpl.Title, "recurrence", tpl.Recurrence)

	saveErr := p.save()
	p.Refresh(p.now)
	return tpl, saveErr
}

func (p *Planner) save() error {
	if err := p.store.Save(); err != nil {
		appLog.Error("planner: save failed", err, "path", p.store.Path())
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

// CycleMode steps All -> Week -> Month -> Year -> All.
func (p *Planner) CycleMode() {
	p.mode = p.mode.Next()
	p.Refresh(p.now)
}

// ToggleUpcoming flips the upcoming-only filter and moves the cursor to the
// top.
func (p *Planner) ToggleUpcoming() {
	p.upcoming = !p.upcoming
	p.Refresh(p.now)
	p.cursor = 0
}

// ToggleSort flips the sort direction.
func (p *Planner) ToggleSort() {
	p.ascending = !p.ascending
	p.Refresh(p.now)
}

// CycleColor advances the color filter over the colors in use.
func (p *Planner) CycleColor() {
	p.color = view.NextColor(p.color, p.store.Snapshot())
	p.Refresh(p.now)
}

// ShiftReference moves the reference date by n view periods.
func (p *Planner) ShiftReference(n int) {
	p.reference = view.Shift(p.mode, p.reference, n)
	p.Refresh(p.now)
}

// ResetReference moves the reference date back to now.
func (p *Planner) ResetReference(now time.Time) {
	p.reference = now
	p.Refresh(now)
}

// State is the filter state shown in the header.
type State struct {
	Mode         view.Mode
	Label        string
	Reference    time.Time
	UpcomingOnly bool
	Color        string
	Ascending    bool
	Total        int
}

// State returns the current filter state.
func (p *Planner) State() State {
	return State{
		Mode:         p.mode,
		Label:        view.Label(p.mode, p.reference, p.settings.WeekStart),
		Reference:    p.reference,
		UpcomingOnly: p.upcoming,
		Color:        p.color,
		Ascending:    p.ascending,
		Total:        p.store.Len(),
	}
}
