package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/store"
	"go.uber.org/zap"
)

// Layout constants
const (
	rowHeight    = 2 // Title line + subtitle line
	boardChrome  = 6 // Header, scope line, status and help lines
	pageJumpSize = 10
)

// errNoCohort is reported when a scoped list is opened before any cohort exists.
var errNoCohort = errors.New("no cohort selected, press c to choose one")

var (
	rowTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	scopeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99"))
)

// BoardModel lists the rows of one dashboard resource.
type BoardModel struct {
	// Dependencies
	store    *store.Store
	client   AdminClient
	ctx      context.Context
	logger   *zap.Logger
	resource store.Resource

	// UI components
	keymap  KeyMap
	help    HelpModel
	spinner spinner.Model

	// List state
	selected int
	offset   int

	// View state
	width         int
	height        int
	showHelp      bool
	loading       bool
	confirmDelete bool
	errorToast    string
	notice        string
}

// NewBoardModel creates the list screen for resource.
func NewBoardModel(resource store.Resource, s *store.Store, client AdminClient, ctx context.Context, logger *zap.Logger) BoardModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return BoardModel{
		store:    s,
		client:   client,
		ctx:      ctx,
		logger:   logger,
		resource: resource,
		keymap:   DefaultKeyMap(),
		help:     NewHelpModel(DefaultKeyMap()),
		spinner:  sp,
		loading:  true,
	}
}

// Init starts loading the rows.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.load())
}

// Resource returns the listed resource.
func (m BoardModel) Resource() store.Resource {
	return m.resource
}

// Update handles messages.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		(&m).clampSelection()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rowsLoadedMsg:
		if msg.resource != m.resource {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errorToast = fmt.Sprintf("Load failed: %s", api.Message(msg.err))
			return m, nil
		}
		if err := msg.apply(m.store); err != nil {
			m.errorToast = err.Error()
		}
		(&m).clampSelection()
		return m, nil

	case deleteDoneMsg:
		// The store is settled even when the list shown has changed meanwhile
		if msg.err != nil {
			if err := m.store.Rollback(msg.resource, msg.id); err != nil {
				m.logger.Warn("failed to roll back delete", zap.Error(err))
			}
		} else {
			m.store.Commit(msg.resource, msg.id)
		}
		if msg.resource != m.resource {
			return m, nil
		}
		if msg.err != nil {
			m.errorToast = fmt.Sprintf("Delete failed: %s", api.Message(msg.err))
			(&m).clampSelection()
			return m, nil
		}
		m.notice = "Deleted " + msg.title
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	if key.Matches(msg, k.ConfirmQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, k.Help) || key.Matches(msg, k.Back) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.confirmDelete {
		m.confirmDelete = false
		if key.Matches(msg, k.ConfirmYes) {
			return m.deleteSelected()
		}
		return m, nil
	}

	m.errorToast = ""
	m.notice = ""

	switch {
	case key.Matches(msg, k.Quit):
		return m, func() tea.Msg { return QuitMsg{} }
	case key.Matches(msg, k.Back):
		return m, func() tea.Msg { return backMsg{} }
	case key.Matches(msg, k.Help):
		m.showHelp = true
	case key.Matches(msg, k.Down):
		(&m).moveSelection(1)
	case key.Matches(msg, k.Up):
		(&m).moveSelection(-1)
	case msg.String() == "ctrl+d":
		(&m).moveSelection(pageJumpSize)
	case msg.String() == "ctrl+u":
		(&m).moveSelection(-pageJumpSize)
	case key.Matches(msg, k.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.load())
	case key.Matches(msg, k.New):
		r := m.resource
		return m, func() tea.Msg { return openFormMsg{resource: r} }
	case key.Matches(msg, k.Edit):
		row, ok := m.selectedRow()
		if ok && editable(m.resource) {
			r := m.resource
			return m, func() tea.Msg { return openFormMsg{resource: r, id: row.ID} }
		}
	case key.Matches(msg, k.Delete):
		if _, ok := m.selectedRow(); ok {
			m.confirmDelete = true
		}
	case key.Matches(msg, k.Cohort):
		return m, func() tea.Msg { return openCohortPicker{} }
	case key.Matches(msg, k.TrackFilter):
		if !m.resource.Scoped() {
			return m, nil
		}
		m.store.CycleTrackFilter()
		m.selected, m.offset = 0, 0
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.load())
	case key.Matches(msg, k.Open):
		row, ok := m.selectedRow()
		if ok && m.resource.Scoped() {
			r := m.resource
			return m, func() tea.Msg { return openDetailMsg{resource: r, id: row.ID} }
		}
	case key.Matches(msg, k.Submissions):
		row, ok := m.selectedRow()
		if ok && m.resource == store.ResourceTasks {
			return m, func() tea.Msg { return openSubmissionsMsg{taskID: row.ID} }
		}
	}

	return m, nil
}

// deleteSelected removes the selected row at once and deletes it in the background.
// A failed request restores the row at its old position.
func (m BoardModel) deleteSelected() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	if err := m.store.Remove(m.resource, row.ID); err != nil {
		m.errorToast = err.Error()
		return m, nil
	}
	(&m).clampSelection()

	client, ctx, r := m.client, m.ctx, m.resource
	return m, func() tea.Msg {
		var err error
		switch r {
		case store.ResourceCohorts:
			err = client.DeleteCohort(ctx, row.ID)
		case store.ResourceTracks:
			err = client.DeleteTrack(ctx, row.ID)
		case store.ResourceMentors, store.ResourceStudents:
			err = client.DeleteUser(ctx, row.ID)
		case store.ResourceStreams:
			err = client.DeleteStream(ctx, row.ID)
		case store.ResourceTasks:
			err = client.DeleteTask(ctx, row.ID)
		default:
			err = fmt.Errorf("%w: %s", store.ErrUnknownResource, r)
		}
		if err != nil {
			return expiredOr(err, func(err error) tea.Msg {
				return deleteDoneMsg{resource: r, id: row.ID, title: row.Title, err: err}
			})
		}
		return deleteDoneMsg{resource: r, id: row.ID, title: row.Title}
	}
}

// load fetches the rows of the resource. The result is applied to the store
// by Update, never from the command goroutine.
func (m BoardModel) load() tea.Cmd {
	return loadResource(m.ctx, m.client, m.resource, m.store.CohortID(), m.store.TrackFilter())
}

func loadResource(ctx context.Context, client AdminClient, r store.Resource, cohortID string, track domain.Choice) tea.Cmd {
	return func() tea.Msg {
		fail := func(err error) tea.Msg { return rowsLoadedMsg{resource: r, err: err} }

		switch r {
		case store.ResourceCohorts:
			cohorts, err := client.ListCohorts(ctx)
			if err != nil {
				return expiredOr(err, fail)
			}
			return rowsLoadedMsg{resource: r, apply: func(s *store.Store) error {
				s.SetCohorts(cohorts)
				return nil
			}}

		case store.ResourceTracks:
			tracks, err := client.ListTracks(ctx, false)
			if err != nil {
				return expiredOr(err, fail)
			}
			return rowsLoadedMsg{resource: r, apply: func(s *store.Store) error {
				s.SetTracks(tracks)
				return nil
			}}

		case store.ResourceMentors, store.ResourceStudents:
			users, err := client.ListUsers(ctx, r.Role())
			if err != nil {
				return expiredOr(err, fail)
			}
			return rowsLoadedMsg{resource: r, apply: func(s *store.Store) error {
				return s.SetUsers(r, users)
			}}

		case store.ResourceStreams:
			if cohortID == "" {
				return fail(errNoCohort)
			}
			streams, err := client.ListStreams(ctx, cohortID, track)
			if err != nil {
				return expiredOr(err, fail)
			}
			return rowsLoadedMsg{resource: r, apply: func(s *store.Store) error {
				s.SetStreams(streams)
				return nil
			}}

		case store.ResourceTasks:
			if cohortID == "" {
				return fail(errNoCohort)
			}
			tasks, err := client.ListTasks(ctx, cohortID, track)
			if err != nil {
				return expiredOr(err, fail)
			}
			return rowsLoadedMsg{resource: r, apply: func(s *store.Store) error {
				s.SetTasks(tasks)
				return nil
			}}
		}
		return fail(fmt.Errorf("%w: %s", store.ErrUnknownResource, r))
	}
}

func (m BoardModel) selectedRow() (store.Row, bool) {
	rows := m.store.Rows(m.resource)
	if m.selected < 0 || m.selected >= len(rows) {
		return store.Row{}, false
	}
	return rows[m.selected], true
}

func (m *BoardModel) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
}

// clampSelection keeps the selection inside the rows and scrolls it into view.
func (m *BoardModel) clampSelection() {
	n := len(m.store.Rows(m.resource))
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}

	visible := m.visibleRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
}

func (m BoardModel) visibleRows() int {
	height := m.height
	if height == 0 {
		height = 24
	}
	return max(1, (height-boardChrome)/rowHeight)
}

// View renders the list.
func (m BoardModel) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	if m.resource.Scoped() {
		sections = append(sections, m.renderScope())
	}

	switch {
	case m.showHelp:
		sections = append(sections, m.help.View(width))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	case m.loading && len(m.store.Rows(m.resource)) == 0:
		sections = append(sections, m.spinner.View()+" Loading...")
	default:
		sections = append(sections, m.renderRows(width))
	}

	sections = append(sections, m.renderStatus())
	sections = append(sections, HelpStyle.Render(m.renderHints()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BoardModel) renderHeader() string {
	title := TitleStyle.Render(m.resource.Title())
	count := dimStyle.Render(fmt.Sprintf(" %d", len(m.store.Rows(m.resource))))
	if m.loading {
		count += " " + m.spinner.View()
	}
	return title + count
}

func (m BoardModel) renderScope() string {
	cohort := "none selected"
	for _, c := range m.store.Cohorts() {
		if c.ID == m.store.CohortID() {
			cohort = c.Name
		}
	}
	return scopeStyle.Render(fmt.Sprintf("Cohort: %s · Track: %s", cohort, m.store.TrackFilterLabel()))
}

func (m BoardModel) renderRows(width int) string {
	rows := m.store.Rows(m.resource)
	if len(rows) == 0 {
		return dimStyle.Render(fmt.Sprintf("No %s yet. Press n to create one.", m.resource))
	}

	end := min(len(rows), m.offset+m.visibleRows())
	lines := make([]string, 0, (end-m.offset)*rowHeight)
	for i := m.offset; i < end; i++ {
		title := truncate(rows[i].Title, width-4)
		sub := truncate(rows[i].Subtitle, width-4)
		if i == m.selected {
			lines = append(lines, selectedRowStyle.Render("> "+title))
		} else {
			lines = append(lines, rowTitleStyle.Render("  "+title))
		}
		lines = append(lines, "  "+dimStyle.Render(sub))
	}
	if end < len(rows) {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  ... %d more", len(rows)-end)))
	}
	return strings.Join(lines, "\n")
}

func (m BoardModel) renderStatus() string {
	switch {
	case m.confirmDelete:
		row, _ := m.selectedRow()
		return warningStyle.Render(fmt.Sprintf("Delete %q? [y/N]", row.Title))
	case m.errorToast != "":
		return ErrorStyle.Render(m.errorToast)
	case m.notice != "":
		return SuccessStyle.Render(m.notice)
	}
	return ""
}

func (m BoardModel) renderHints() string {
	parts := []string{"[j/k]move", "[n]new", "[d]delete", "[r]refresh"}
	if m.resource.Scoped() {
		parts = append(parts, "[enter]open", "[t]track", "[c]cohort")
	}
	if m.resource == store.ResourceTasks {
		parts = append(parts, "[s]submissions")
	}
	parts = append(parts, "[esc]back", "[?]help")
	return strings.Join(parts, " ")
}

// truncate shortens s to width runes with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// Messages for the list screen.
type (
	rowsLoadedMsg struct {
		resource store.Resource
		apply    func(*store.Store) error
		err      error
	}

	deleteDoneMsg struct {
		resource store.Resource
		id       string
		title    string
		err      error
	}

	openSubmissionsMsg struct{ taskID string }
)
