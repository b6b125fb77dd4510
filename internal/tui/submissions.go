package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
)

// submissionItem wraps a domain.Submission for use in bubbles/list.
type submissionItem struct {
	sub      domain.Submission
	maxScore int
}

func (i submissionItem) FilterValue() string {
	return i.sub.StudentName
}

func (i submissionItem) Description() string {
	status := "not graded"
	if i.sub.Graded {
		status = fmt.Sprintf("%d/%d", i.sub.Score, i.maxScore)
	}
	when := ""
	if !i.sub.SubmittedAt.IsZero() {
		when = " · " + i.sub.SubmittedAt.Format("2 Jan 2006 15:04")
	}
	return status + when
}

// submissionDelegate renders a submission on two lines.
type submissionDelegate struct{}

func (d submissionDelegate) Height() int                             { return 2 }
func (d submissionDelegate) Spacing() int                            { return 1 }
func (d submissionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d submissionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(submissionItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.sub.StudentName)
	desc := i.Description()

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
		fmt.Fprint(w, "\n  "+NormalItemStyle.Render(desc))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
		fmt.Fprint(w, "\n  "+lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(desc))
	}
}

// SubmissionsModel is the read-only list of a task's submissions.
type SubmissionsModel struct {
	client  AdminClient
	ctx     context.Context
	task    domain.Task
	list    list.Model
	spinner spinner.Model
	loading bool
	err     string
}

// NewSubmissionsModel creates the submissions screen for task.
func NewSubmissionsModel(task domain.Task, client AdminClient, ctx context.Context) SubmissionsModel {
	l := list.New(nil, submissionDelegate{}, 80, 20)
	l.Title = "Submissions · " + task.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return SubmissionsModel{
		client:  client,
		ctx:     ctx,
		task:    task,
		list:    l,
		spinner: sp,
		loading: true,
	}
}

// Init starts loading the submissions.
func (m SubmissionsModel) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), m.spinner.Tick, m.load())
}

func (m SubmissionsModel) load() tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.task.ID
	return func() tea.Msg {
		subs, err := client.ListSubmissions(ctx, id)
		if err != nil {
			return expiredOr(err, func(err error) tea.Msg { return submissionsLoadedMsg{err: err} })
		}
		return submissionsLoadedMsg{subs: subs}
	}
}

// Update handles messages.
func (m SubmissionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 2)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submissionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = api.Message(msg.err)
			return m, nil
		}
		items := make([]list.Item, len(msg.subs))
		for i, s := range msg.subs {
			items[i] = submissionItem{sub: s, maxScore: m.task.MaxScore}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backMsg{} }
		case "o":
			if item, ok := m.list.SelectedItem().(submissionItem); ok && item.sub.Link != "" {
				_ = browser.OpenURL(item.sub.Link)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m SubmissionsModel) View() string {
	switch {
	case m.loading:
		return m.spinner.View() + " Loading submissions..."
	case m.err != "":
		return ErrorStyle.Render("Error: "+m.err) + "\n" + HelpStyle.Render("esc back")
	case len(m.list.Items()) == 0:
		return TitleStyle.Render(m.list.Title) + "\n" + dimStyle.Render("No submissions yet. Press esc to go back.")
	}
	return m.list.View()
}

type submissionsLoadedMsg struct {
	subs []domain.Submission
	err  error
}
