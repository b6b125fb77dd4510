package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/learnhub/internal/store"
)

// resourceItem wraps a store.Resource for use in bubbles/list.
type resourceItem struct {
	resource store.Resource
	count    int // -1 until loaded
}

func (i resourceItem) FilterValue() string { return string(i.resource) }

func (i resourceItem) Description() string {
	switch i.resource {
	case store.ResourceCohorts:
		return "Intakes, dates and application deadlines"
	case store.ResourceTracks:
		return "Curricula offered to applicants"
	case store.ResourceMentors:
		return "Mentor accounts"
	case store.ResourceStudents:
		return "Student accounts"
	case store.ResourceStreams:
		return "Posts for the selected cohort"
	case store.ResourceTasks:
		return "Assignments and their submissions"
	}
	return ""
}

// resourceDelegate renders menu entries on two lines.
type resourceDelegate struct{}

func (d resourceDelegate) Height() int                             { return 2 }
func (d resourceDelegate) Spacing() int                            { return 1 }
func (d resourceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d resourceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(resourceItem)
	if !ok {
		return
	}

	str := i.resource.Title()
	if i.count >= 0 {
		str = fmt.Sprintf("%s (%d)", str, i.count)
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
		fmt.Fprint(w, "\n  "+NormalItemStyle.Render(i.Description()))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
		fmt.Fprint(w, "\n  "+dimStyle.Render(i.Description()))
	}
}

// MenuModel lists the dashboard resources.
type MenuModel struct {
	list  list.Model
	store *store.Store
}

// NewMenuModel creates the dashboard menu. Row counts come from s.
func NewMenuModel(s *store.Store) MenuModel {
	items := make([]list.Item, len(store.Resources))
	for i, r := range store.Resources {
		count := -1
		if rows := s.Rows(r); len(rows) > 0 {
			count = len(rows)
		}
		items[i] = resourceItem{resource: r, count: count}
	}

	l := list.New(items, resourceDelegate{}, 80, 20)
	l.Title = "Dashboard"
	if v := s.Viewer(); v.FullName() != "" {
		l.Title = fmt.Sprintf("Dashboard · %s", v.FullName())
	}
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle
	l.Styles.HelpStyle = HelpStyle

	return MenuModel{list: l, store: s}
}

// Init initializes the model.
func (m MenuModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 2)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, func() tea.Msg { return QuitMsg{} }
		case "enter":
			if item, ok := m.list.SelectedItem().(resourceItem); ok {
				return m, func() tea.Msg { return ResourceSelectedMsg{Resource: item.resource} }
			}
		case "c":
			return m, func() tea.Msg { return openCohortPicker{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m MenuModel) View() string {
	return m.list.View()
}
