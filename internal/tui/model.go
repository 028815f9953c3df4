// Package tui is the keyboard-driven terminal front end.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"calplan/internal/form"
	appLog "calplan/internal/log"
	"calplan/internal/model"
	"calplan/internal/planner"
	"calplan/internal/view"
)

type screen int

const (
	screenList screen = iota
	screenForm
)

// chrome is the number of lines around the event list.
const chrome = 6

// Model is the Bubble Tea model. It owns the planner for the session.
type Model struct {
	planner *planner.Planner
	palette Palette
	styles  styles
	now     func() time.Time

	screen screen
	editor editor

	status    string
	statusErr bool

	width  int
	height int
	offset int // first visible list row
}

// New returns a model over p. now is the clock used for the upcoming filter
// and the "today" key.
func New(p *planner.Planner, palette Palette, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	return &Model{
		planner: p,
		palette: palette.normalized(),
		styles:  defaultStyles(),
		now:     now,
		height:  24,
	}
}

// SetStatus shows msg in the status bar, e.g. a load warning at startup.
func (m *Model) SetStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenForm {
			return m, m.updateForm(msg)
		}
		return m, m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	now := m.now()
	key := msg.String()
	m.status, m.statusErr = "", false

	// Edit and delete act on the row the user is looking at, so the list is
	// only re-projected for the other keys.
	if key != "d" && key != "e" {
		m.planner.Refresh(now)
	}

	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case "up", "k":
		m.planner.Move(-1)
	case "down", "j":
		m.planner.Move(1)
	case "a":
		m.openEditor(form.Draft{
			Start:      now.Truncate(time.Hour).Add(time.Hour).Format(form.StartLayout),
			Duration:   "1",
			Recurrence: "None",
		}, "")
	case "e":
		tpl, ok := m.planner.BeginEdit()
		if !ok {
			m.SetStatus("No event selected", true)
			return nil
		}
		m.openEditor(form.FromTemplate(tpl), tpl.ID)
	case "d":
		tpl, err := m.planner.DeleteSelected()
		switch {
		case errors.Is(err, planner.ErrNoSelection):
			m.SetStatus("No event selected", true)
		case err != nil:
			m.SetStatus(err.Error(), true)
		case tpl.Recurring():
			m.SetStatus(fmt.Sprintf("Deleted %q and all its repeats", tpl.Title), false)
		default:
			m.SetStatus(fmt.Sprintf("Deleted %q", tpl.Title), false)
		}
	case "s":
		m.planner.ToggleSort()
	case "f":
		m.planner.ToggleUpcoming()
	case "v":
		m.planner.CycleMode()
	case "c":
		m.planner.CycleColor()
	case "left", "h":
		m.planner.ShiftReference(-1)
	case "right", "l":
		m.planner.ShiftReference(1)
	case "t":
		m.planner.ResetReference(now)
	}
	return nil
}

func (m *Model) openEditor(d form.Draft, editID string) {
	m.editor = newEditor(d, editID)
	m.screen = screenForm
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.screen = screenList
		return nil
	case "enter":
		if m.editor.last() {
			m.submit()
			return nil
		}
		m.editor.setFocus(m.editor.focus + 1)
		return nil
	case "tab", "down":
		m.editor.setFocus(m.editor.focus + 1)
		return nil
	case "shift+tab", "up":
		m.editor.setFocus(m.editor.focus - 1)
		return nil
	}
	return m.editor.update(msg)
}

func (m *Model) submit() {
	d := m.editor.draft()
	m.planner.Refresh(m.now())

	var err error
	if m.editor.editID == "" {
		_, err = m.planner.Create(d)
	} else {
		err = m.planner.Update(m.editor.editID, d)
	}

	var verr *form.ValidationError
	if errors.As(err, &verr) {
		m.editor.fail(err)
		return
	}

	m.screen = screenList
	if err != nil {
		appLog.Error("tui: submit failed", err)
		m.SetStatus(err.Error(), true)
		return
	}
	if m.editor.editID == "" {
		m.SetStatus(fmt.Sprintf("Added %q", strings.TrimSpace(d.Title)), false)
	} else {
		m.SetStatus(fmt.Sprintf("Updated %q", strings.TrimSpace(d.Title)), false)
	}
}

func (m *Model) View() string {
	if m.screen == screenForm {
		return m.editor.view(m.styles)
	}
	return m.listView()
}

func (m *Model) listView() string {
	var b strings.Builder
	st := m.planner.State()

	b.WriteString(m.styles.header.Render(st.Label))
	b.WriteString("\n")
	b.WriteString(m.styles.filters.Render(filterLine(st)))
	b.WriteString("\n\n")

	entries := m.planner.Entries()
	if len(entries) == 0 {
		b.WriteString(m.styles.dim.Render("  no events"))
		b.WriteString("\n")
	} else {
		rows := m.height - chrome
		if rows < 1 {
			rows = 1
		}
		m.scrollTo(m.planner.Cursor(), rows)
		end := m.offset + rows
		if end > len(entries) {
			end = len(entries)
		}
		for i := m.offset; i < end; i++ {
			line := m.row(entries[i])
			if i == m.planner.Cursor() {
				line = m.styles.selected.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.status != "" && m.statusErr:
		b.WriteString(m.styles.errText.Render(m.status))
	case m.status != "":
		b.WriteString(m.styles.status.Render(m.status))
	case len(m.planner.Truncated()) > 0:
		b.WriteString(m.styles.errText.Render(fmt.Sprintf("%d recurring event(s) truncated", len(m.planner.Truncated()))))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("a add • e edit • d delete • v view • ←/→ period • t today • f upcoming • c color • s sort • q quit"))
	return b.String()
}

func (m *Model) scrollTo(cursor, rows int) {
	if cursor < m.offset {
		m.offset = cursor
	}
	if cursor >= m.offset+rows {
		m.offset = cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) row(e view.Entry) string {
	o := e.Occurrence
	endLayout := "15:04"
	if o.Start.Format("2006-01-02") != o.End.Format("2006-01-02") {
		endLayout = "01-02 15:04"
	}
	when := o.Start.Format("Mon 2006-01-02 15:04") + " - " + o.End.Format(endLayout)
	title := m.palette.style(o.Color).Render(o.Title)
	line := "  " + when + "  " + title
	if o.Recurrence != model.None {
		line += m.styles.dim.Render("  ↻ " + o.Recurrence.String())
	}
	return line
}

func filterLine(st planner.State) string {
	parts := []string{"view: " + st.Mode.String()}
	if st.Ascending {
		parts = append(parts, "sort: oldest first")
	} else {
		parts = append(parts, "sort: newest first")
	}
	if st.UpcomingOnly {
		parts = append(parts, "upcoming only")
	}
	if st.Color != "" {
		parts = append(parts, "color: "+st.Color)
	}
	parts = append(parts, fmt.Sprintf("%d templates", st.Total))
	return strings.Join(parts, " | ")
}
