package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/robby/learnhub/internal/domain"
)

// cohortItem represents a cohort in the picker.
type cohortItem struct {
	cohort   domain.Cohort
	selected bool
}

func (i cohortItem) FilterValue() string { return i.cohort.Name }

// cohortItemDelegate handles rendering of cohort items.
type cohortItemDelegate struct{}

func (d cohortItemDelegate) Height() int                             { return 1 }
func (d cohortItemDelegate) Spacing() int                            { return 0 }
func (d cohortItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d cohortItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(cohortItem)
	if !ok {
		return
	}

	// Format: name (#number) [active] *
	str := fmt.Sprintf("%s (#%d)", i.cohort.Name, i.cohort.Number)
	if i.cohort.IsActive {
		str += " [active]"
	}
	if i.selected {
		str += " *"
	}

	fn := NormalItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return SelectedItemStyle.Render("> " + s[0])
		}
	}

	fmt.Fprint(w, fn(str))
}

// CohortPickerModel lets the admin choose the cohort that scopes streams and tasks.
type CohortPickerModel struct {
	list list.Model
}

// NewCohortPickerModel creates a picker; the currently selected cohort is marked.
func NewCohortPickerModel(cohorts []domain.Cohort, selectedID string) CohortPickerModel {
	items := make([]list.Item, len(cohorts))
	cursor := 0
	for i, c := range cohorts {
		items[i] = cohortItem{cohort: c, selected: c.ID == selectedID}
		if c.ID == selectedID {
			cursor = i
		}
	}

	l := list.New(items, cohortItemDelegate{}, 80, 20)
	l.Title = "Select Cohort"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle
	l.Styles.PaginationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	l.Styles.HelpStyle = HelpStyle
	l.Select(cursor)

	return CohortPickerModel{list: l}
}

// Init initializes the model.
func (m CohortPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages.
func (m CohortPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(cohortItem); ok {
				return m, func() tea.Msg { return CohortSelectedMsg{CohortID: item.cohort.ID} }
			}
		case "q", "esc":
			if !m.list.SettingFilter() {
				return m, func() tea.Msg { return backMsg{} }
			}
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 2)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m CohortPickerModel) View() string {
	if len(m.list.Items()) == 0 {
		return TitleStyle.Render("Select Cohort") + "\n" + dimStyle.Render("No cohorts yet. Press esc to go back.")
	}
	return m.list.View()
}
