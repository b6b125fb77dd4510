package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the admin list and detail views.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding

	// Actions
	New          key.Binding
	Edit         key.Binding
	Delete       key.Binding
	Refresh      key.Binding
	TrackFilter  key.Binding
	Cohort       key.Binding
	Browser      key.Binding
	Upload       key.Binding
	AddLink      key.Binding
	Remove       key.Binding
	Required     key.Binding
	Save         key.Binding
	Submissions  key.Binding
	Help         key.Binding
	Quit         key.Binding
	ConfirmQuit  key.Binding
	ConfirmYes   key.Binding
	ConfirmNo    key.Binding
	ApplyInput   key.Binding
	CancelInput  key.Binding
	NextAttached key.Binding
	PrevAttached key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous row"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next row"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc/q", "back"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit cohort or track"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		TrackFilter: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle track filter"),
		),
		Cohort: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "change cohort"),
		),
		Browser: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open link in browser"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload file"),
		),
		AddLink: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "add link"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove attachment"),
		),
		Required: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "toggle required"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Submissions: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "submissions"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("Q"),
			key.WithHelp("Q", "quit"),
		),
		ConfirmQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
		ConfirmYes: key.NewBinding(
			key.WithKeys("y", "Y"),
		),
		ConfirmNo: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
		),
		ApplyInput: key.NewBinding(
			key.WithKeys("enter"),
		),
		CancelInput: key.NewBinding(
			key.WithKeys("esc"),
		),
		NextAttached: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next attachment"),
		),
		PrevAttached: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous attachment"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Back, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.New, k.Edit, k.Delete, k.Refresh, k.TrackFilter, k.Cohort},
		{k.Browser, k.Upload, k.AddLink, k.Remove, k.Required},
		{k.NextAttached, k.PrevAttached, k.Save, k.Submissions, k.Help, k.Quit},
	}
}

// WizardKeyMap defines the key bindings of the applicant wizard.
type WizardKeyMap struct {
	NextField key.Binding
	PrevField key.Binding
	NextStep  key.Binding
	PrevStep  key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Submit    key.Binding
	Browser   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultWizardKeyMap returns the default wizard bindings.
func DefaultWizardKeyMap() WizardKeyMap {
	return WizardKeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous field"),
		),
		NextStep: key.NewBinding(
			key.WithKeys("ctrl+n", "enter"),
			key.WithHelp("enter/ctrl+n", "continue"),
		),
		PrevStep: key.NewBinding(
			key.WithKeys("esc", "ctrl+b"),
			key.WithHelp("esc", "back"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous option"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next option"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle tool"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s", "enter"),
			key.WithHelp("enter/ctrl+s", "submit"),
		),
		Browser: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open link"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k WizardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.NextStep, k.PrevStep, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k WizardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.Left, k.Right, k.Toggle},
		{k.NextStep, k.PrevStep, k.Submit, k.Browser},
		{k.Help, k.Quit},
	}
}
