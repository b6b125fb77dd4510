package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/robby/learnhub/internal/wizard"
)

// controlKind selects how a control edits its field.
type controlKind int

const (
	controlText controlKind = iota
	controlArea
	controlSelect
	controlMulti
	controlFile
)

// control is one editable field on a form page. The applicant wizard and the
// admin create form share it.
type control struct {
	field   string
	label   string
	kind    controlKind
	input   textinput.Model
	area    textarea.Model
	options []string
	values  []string // Submitted values for options, nil when the labels are the values
	cursor  int      // Selected option (select, -1 for none) or highlighted option (multi)
}

func newTextControl(field, label, value string, width int) control {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Width = width
	ti.SetValue(value)
	return control{field: field, label: label, kind: controlText, input: ti}
}

func newAreaControl(field, label, value string, width int) control {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = wizard.MaxStatementLength + 200
	ta.SetWidth(width)
	ta.SetHeight(5)
	ta.Placeholder = fmt.Sprintf("Between %d and %d characters", wizard.MinStatementLength, wizard.MaxStatementLength)
	ta.SetValue(value)
	return control{field: field, label: label, kind: controlArea, area: ta}
}

func newSelectControl(field, label string, options []string, value string) control {
	c := control{field: field, label: label, kind: controlSelect, options: options, cursor: -1}
	for i, o := range options {
		if o == value {
			c.cursor = i
		}
	}
	return c
}

// value returns the control's current submitted value.
func (c control) value() string {
	switch c.kind {
	case controlText, controlFile:
		return strings.TrimSpace(c.input.Value())
	case controlArea:
		return strings.TrimSpace(c.area.Value())
	case controlSelect:
		if c.cursor < 0 || c.cursor >= len(c.options) {
			return ""
		}
		if c.values != nil {
			return c.values[c.cursor]
		}
		return c.options[c.cursor]
	}
	return ""
}

func (c *control) cycle(delta int) {
	if len(c.options) == 0 {
		return
	}
	if c.cursor < 0 {
		c.cursor = 0
		return
	}
	c.cursor = (c.cursor + delta + len(c.options)) % len(c.options)
}

func (c *control) setFocus(focused bool) {
	switch c.kind {
	case controlText, controlFile:
		if focused {
			c.input.Focus()
		} else {
			c.input.Blur()
		}
	case controlArea:
		if focused {
			c.area.Focus()
		} else {
			c.area.Blur()
		}
	}
}

// view renders the label, the editor and errMsg below it. checked reports
// which options of a multi control are set.
func (c control) view(focused bool, checked func(string) bool, errMsg string) string {
	label := LabelStyle.Render(c.label)
	if focused {
		label = FocusedLabelStyle.Render(c.label)
	}

	var body string
	switch c.kind {
	case controlText, controlFile:
		body = c.input.View()
	case controlArea:
		body = c.area.View()
	case controlSelect:
		value := dimStyle.Render("choose with ← →")
		if c.cursor >= 0 && c.cursor < len(c.options) {
			value = c.options[c.cursor]
		}
		body = "‹ " + value + " ›"
		if focused {
			body = SelectedItemStyle.Render(body)
		}
	case controlMulti:
		rows := make([]string, 0, len(c.options))
		for i, o := range c.options {
			mark := "[ ]"
			if checked != nil && checked(o) {
				mark = "[x]"
			}
			row := mark + " " + o
			if focused && i == c.cursor {
				row = SelectedItemStyle.Render("> " + row)
			} else {
				row = "  " + row
			}
			rows = append(rows, row)
		}
		body = strings.Join(rows, "\n")
	}

	out := label + "\n" + body
	if errMsg != "" {
		out += "\n" + FieldErrorStyle.Render(errMsg)
	}
	return out
}
