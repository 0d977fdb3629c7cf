package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/forms"
)

// fieldSpec describes one input of a form.
type fieldSpec struct {
	rule        *forms.Rule
	placeholder string
	initial     string
}

func spec(rule *forms.Rule, placeholder string) fieldSpec {
	return fieldSpec{rule: rule, placeholder: placeholder}
}

type formField struct {
	fieldSpec
	input textinput.Model
}

// form is a vertical group of text inputs validated by forms rules.
// Exactly one input has focus while the form is active.
type form struct {
	title  string
	fields []formField
	focus  int
	active bool
	errs   forms.Errors
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newForm(title string, specs ...fieldSpec) *form {
	f := &form{title: title}
	for _, s := range specs {
		f.add(s)
	}
	return f
}

// add appends a field and returns its index.
func (f *form) add(s fieldSpec) int {
	ti := newTextInput(s.placeholder, 128)
	ti.Prompt = ""
	ti.SetValue(s.initial)
	f.fields = append(f.fields, formField{fieldSpec: s, input: ti})
	return len(f.fields) - 1
}

// removeLast drops the final field unless only keep fields remain.
func (f *form) removeLast(keep int) bool {
	if len(f.fields) <= keep {
		return false
	}
	f.fields = f.fields[:len(f.fields)-1]
	if f.focus >= len(f.fields) {
		f.setFocus(len(f.fields) - 1)
	}
	return true
}

func (f *form) open() {
	f.active = true
	f.setFocus(0)
}

func (f *form) close() {
	f.active = false
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
}

// reset restores initial values and clears errors.
func (f *form) reset() {
	for i := range f.fields {
		f.fields[i].input.SetValue(f.fields[i].initial)
	}
	f.errs = nil
}

func (f *form) setFocus(idx int) {
	if len(f.fields) == 0 {
		return
	}
	f.focus = clamp(idx, len(f.fields))
	for i := range f.fields {
		if i == f.focus && f.active {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
}

func (f *form) next() {
	if len(f.fields) > 0 {
		f.setFocus((f.focus + 1) % len(f.fields))
	}
}

func (f *form) prev() {
	if len(f.fields) > 0 {
		f.setFocus((f.focus - 1 + len(f.fields)) % len(f.fields))
	}
}

func (f *form) set(key, value string) {
	for i := range f.fields {
		if f.fields[i].rule.Key == key {
			f.fields[i].input.SetValue(value)
			return
		}
	}
}

func (f *form) value(key string) string {
	for _, fld := range f.fields {
		if fld.rule.Key == key {
			return fld.input.Value()
		}
	}
	return ""
}

func (f *form) values() forms.Values {
	out := make(forms.Values, len(f.fields))
	for _, fld := range f.fields {
		out[fld.rule.Key] = fld.input.Value()
	}
	return out
}

func (f *form) rules() []*forms.Rule {
	out := make([]*forms.Rule, len(f.fields))
	for i, fld := range f.fields {
		out[i] = fld.rule
	}
	return out
}

// handleKey moves focus or edits the focused input. It reports true when
// the user asked to submit.
func (f *form) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.close()
		return false, nil
	case tea.KeyEnter:
		return true, nil
	case tea.KeyTab, tea.KeyDown:
		f.next()
		return false, nil
	case tea.KeyShiftTab, tea.KeyUp:
		f.prev()
		return false, nil
	}
	if len(f.fields) == 0 {
		return false, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return false, cmd
}

// validate checks every field. On failure it marks the bad fields and
// returns the local notification; nothing is sent to the API.
func (f *form) validate() (forms.Result, tea.Cmd, bool) {
	res, err := forms.Validate(f.rules(), f.values())
	if err != nil {
		f.errs = nil
		var errs forms.Errors
		if errors.As(err, &errs) {
			f.errs = errs
		}
		return res, notifyError(f.title + ": " + err.Error()), false
	}
	f.errs = nil
	return res, nil, true
}

func (f *form) view(theme Theme) string {
	styles := theme.Styles()
	labelStyle := styles.MutedText.Width(20)
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(f.title))
	for i, fld := range f.fields {
		b.WriteString("\n")
		label := fld.rule.Label
		if fld.rule.IsRequired() {
			label += " *"
		}
		if i == f.focus && f.active {
			b.WriteString(styles.AccentText.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(fld.input.View())
		if verr, ok := f.errs.Field(fld.rule.Key); ok {
			b.WriteString("  " + styles.DangerText.Render(verr.Message))
		}
	}
	return b.String()
}

// formHints are shown while a form owns the keyboard.
func formHints() []hint {
	return []hint{{"enter", "Submit"}, {"tab", "Next field"}, {"esc", "Cancel"}}
}
