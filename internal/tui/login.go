package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/auth"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/validate"
)

// LoginModel asks for admin credentials and starts the session.
type LoginModel struct {
	client  AdminClient
	session *auth.Session
	ctx     context.Context

	email    textinput.Model
	password textinput.Model
	spinner  spinner.Model
	focus    int

	loading bool
	notice  string
	err     string
}

// NewLoginModel creates the login screen. email pre-fills the first input;
// notice is shown above the form (e.g. after the session expired).
func NewLoginModel(client AdminClient, session *auth.Session, ctx context.Context, email, notice string) LoginModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	em := textinput.New()
	em.Placeholder = "admin@example.com"
	em.Prompt = "> "
	em.CharLimit = 254
	em.Width = 40
	em.SetValue(email)

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.Prompt = "> "
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.Width = 40

	m := LoginModel{
		client:   client,
		session:  session,
		ctx:      ctx,
		email:    em,
		password: pw,
		spinner:  sp,
		notice:   notice,
	}
	if email != "" {
		m.focus = 1
	}
	m.applyFocus()
	return m
}

// Init initializes the model.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.err = api.Message(msg.err)
			m.password.SetValue("")
			m.focus = 1
			m.applyFocus()
			return m, nil
		}
		user := msg.user
		return m, func() tea.Msg { return LoggedInMsg{User: user} }

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg { return QuitMsg{} }
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			m.applyFocus()
			return m, textinput.Blink
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				m.applyFocus()
				return m, textinput.Blink
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *LoginModel) applyFocus() {
	if m.focus == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
}

func (m LoginModel) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if msg := validate.Email(email); msg != "" {
		m.err = msg
		m.focus = 0
		m.applyFocus()
		return m, nil
	}
	if password == "" {
		m.err = "Password is required"
		return m, nil
	}

	m.err = ""
	m.notice = ""
	m.loading = true
	client, session, ctx := m.client, m.session, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		token, user, err := client.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		if err := session.Begin(token); err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{user: user}
	})
}

// View renders the model.
func (m LoginModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("learnhub admin"))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(warningStyle.Render(m.notice) + "\n\n")
	}
	labels := []string{"Email", "Password"}
	inputs := []string{m.email.View(), m.password.View()}
	for i := range inputs {
		label := LabelStyle.Render(labels[i])
		if i == m.focus {
			label = FocusedLabelStyle.Render(labels[i])
		}
		b.WriteString(label + "\n" + inputs[i] + "\n\n")
	}
	if m.loading {
		b.WriteString(m.spinner.View() + " Signing in...\n")
	}
	if m.err != "" {
		b.WriteString(ErrorStyle.Render(m.err) + "\n")
	}
	b.WriteString(HelpStyle.Render("tab switch field • enter sign in • esc quit"))
	return b.String()
}

type loginDoneMsg struct {
	user domain.User
	err  error
}
