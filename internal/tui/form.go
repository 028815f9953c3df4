package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"calplan/internal/form"
)

var fieldLabels = map[string]string{
	form.FieldTitle:      "Title",
	form.FieldStart:      "Start",
	form.FieldDuration:   "Hours",
	form.FieldColor:      "Color",
	form.FieldRecurrence: "Repeat",
}

var fieldPlaceholders = map[string]string{
	form.FieldTitle:      "Team standup",
	form.FieldStart:      form.StartLayout,
	form.FieldDuration:   "1",
	form.FieldColor:      "blue",
	form.FieldRecurrence: "None, Daily, Weekly, Biweekly, Monthly, Yearly",
}

// editor is the add/edit form: one text input per draft field.
type editor struct {
	inputs []textinput.Model
	focus  int
	editID string // empty when adding
	err    error
}

func newEditor(d form.Draft, editID string) editor {
	e := editor{editID: editID}
	for _, f := range form.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fieldPlaceholders[f]
		ti.CharLimit = 200
		ti.SetValue(d.Value(f))
		e.inputs = append(e.inputs, ti)
	}
	e.inputs[0].Focus()
	return e
}

func (e *editor) draft() form.Draft {
	var d form.Draft
	for i, f := range form.Fields {
		d.Set(f, e.inputs[i].Value())
	}
	return d
}

func (e *editor) setFocus(i int) {
	if i < 0 {
		i = 0
	}
	if i >= len(e.inputs) {
		i = len(e.inputs) - 1
	}
	e.inputs[e.focus].Blur()
	e.focus = i
	e.inputs[e.focus].Focus()
}

func (e *editor) last() bool {
	return e.focus == len(e.inputs)-1
}

// fail records err and moves focus to the offending field when known.
func (e *editor) fail(err error) {
	e.err = err
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		for i, f := range form.Fields {
			if f == verr.Field {
				e.setFocus(i)
				break
			}
		}
	}
}

func (e *editor) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return cmd
}

func (e *editor) view(st styles) string {
	var b strings.Builder
	title := "Add event"
	if e.editID != "" {
		title = "Edit event"
	}
	b.WriteString(st.header.Render(title))
	b.WriteString("\n\n")
	for i, f := range form.Fields {
		label := st.label
		if i == e.focus {
			label = st.focused
		}
		b.WriteString(label.Render(fieldLabels[f]))
		b.WriteString(e.inputs[i].View())
		b.WriteString("\n")
	}
	if e.err != nil {
		b.WriteString("\n")
		b.WriteString(st.errText.Render(e.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(st.help.Render("enter next/save • tab/shift+tab move • esc cancel"))
	return b.String()
}
