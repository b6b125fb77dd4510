package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/attach"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/refdata"
	"github.com/robby/learnhub/internal/validate"
	"github.com/robby/learnhub/internal/wizard"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// applyScreen is the position of the applicant flow.
type applyScreen int

const (
	applyLoading applyScreen = iota
	applyClosed
	applyWizard
	applySubmitting
	applySuccess
)

// fallbackTools is offered when a track has no curated tool list.
var fallbackTools = []string{"Git", "Google Workspace", "Microsoft Office", "Notion", "Other"}

// ApplyModel is the root model of the applicant wizard.
type ApplyModel struct {
	// Dependencies
	client     ApplyClient
	submitter  *wizard.Submitter
	data       *refdata.Data
	ctx        context.Context
	logger     *zap.Logger
	resetDelay time.Duration
	resetGen   int
	now        func() time.Time

	// Wizard state
	form *wizard.Form
	ctrl *wizard.Controller

	// Fetched on mount
	cohort domain.Cohort
	tracks []domain.Track

	// UI components
	keymap   WizardKeyMap
	help     HelpModel
	spinner  spinner.Model
	progress progress.Model

	// View state
	screen   applyScreen
	controls []control
	focus    int
	toast    string
	closed   string
	showHelp bool
	width    int
	height   int
}

// ApplyConfig carries the wizard's dependencies.
type ApplyConfig struct {
	Client     ApplyClient
	Variant    wizard.Variant
	Data       *refdata.Data
	ResetDelay time.Duration
	Logger     *zap.Logger
}

// NewApplyModel creates the applicant wizard.
func NewApplyModel(ctx context.Context, cfg ApplyConfig) ApplyModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ApplyModel{
		client:     cfg.Client,
		submitter:  wizard.NewSubmitter(cfg.Client, cfg.Variant, logger),
		data:       cfg.Data,
		ctx:        ctx,
		logger:     logger,
		resetDelay: cfg.ResetDelay,
		now:        time.Now,
		form:       wizard.NewForm(cfg.Variant),
		ctrl:       wizard.NewController(),
		keymap:     DefaultWizardKeyMap(),
		help:       NewHelpModel(DefaultWizardKeyMap()),
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		screen:     applyLoading,
		width:      80,
	}
}

// Init starts the concurrent cohort and track fetch.
func (m ApplyModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.fetchRefs())
}

// Update handles messages.
func (m ApplyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(60, max(20, msg.Width-20))
		if m.screen == applyWizard {
			(&m).rebuild()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refsLoadedMsg:
		return m.handleRefs(msg)

	case submitDoneMsg:
		return m.handleSubmitted(msg.outcome)

	case resetFormMsg:
		// A success schedules one reset; whichever of the timer or enter
		// arrives second is stale.
		if msg.gen != m.resetGen || m.screen != applySuccess {
			return m, nil
		}
		m.resetGen++
		m.form.Reset()
		m.ctrl.Reset()
		m.form.SetCohortNumber(m.cohort.Number)
		m.screen = applyWizard
		m.toast = ""
		m.focus = 0
		(&m).rebuild()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m ApplyModel) handleRefs(msg refsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("failed to load application context", zap.Error(msg.err))
		m.screen = applyClosed
		m.closed = "Applications are not open right now. " + api.Message(msg.err)
		return m, nil
	}
	if !msg.cohort.AcceptingApplications(m.now()) {
		m.screen = applyClosed
		m.closed = fmt.Sprintf("Applications for %s closed on %s.",
			msg.cohort.Name, msg.cohort.ApplicationDeadline.Format("2 January 2006"))
		return m, nil
	}

	m.cohort = msg.cohort
	m.tracks = offeredTracks(msg.cohort, msg.tracks)
	m.form.SetCohortNumber(msg.cohort.Number)
	m.screen = applyWizard
	(&m).rebuild()
	return m, nil
}

// offeredTracks prefers the cohort's own active tracks over the global list.
func offeredTracks(c domain.Cohort, active []domain.Track) []domain.Track {
	var tracks []domain.Track
	for _, t := range c.Tracks {
		if t.IsActive {
			tracks = append(tracks, t)
		}
	}
	if len(tracks) == 0 {
		tracks = active
	}
	return tracks
}

func (m ApplyModel) handleSubmitted(out wizard.Outcome) (tea.Model, tea.Cmd) {
	if out.Success {
		m.screen = applySuccess
		m.toast = out.Message
		m.resetGen++
		gen := m.resetGen
		return m, tea.Tick(m.resetDelay, func(time.Time) tea.Msg { return resetFormMsg{gen: gen} })
	}

	m.screen = applyWizard
	m.toast = out.Message
	if len(out.FieldErrors) > 0 {
		m.form.SetErrors(out.FieldErrors)
		m.ctrl.GoTo(wizard.EarliestStep(out.FieldErrors, m.form.Variant()))
	}
	(&m).rebuild()
	(&m).focusFirstError()
	return m, nil
}

func (m ApplyModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	if key.Matches(msg, k.Quit) {
		return m, tea.Quit
	}

	switch m.screen {
	case applyLoading, applySubmitting:
		return m, nil
	case applyClosed:
		if msg.String() == "q" || msg.String() == "esc" || msg.String() == "enter" {
			return m, tea.Quit
		}
		return m, nil
	case applySuccess:
		if msg.String() == "enter" {
			gen := m.resetGen
			return m, func() tea.Msg { return resetFormMsg{gen: gen} }
		}
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, k.Help) || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}
	if key.Matches(msg, k.Help) {
		m.showHelp = true
		return m, nil
	}

	c := m.focused()
	inArea := c != nil && c.kind == controlArea
	step := m.ctrl.Current()

	switch {
	case key.Matches(msg, k.PrevStep):
		(&m).commitFocused()
		if m.ctrl.Previous(m.form) {
			m.toast = ""
			m.focus = 0
			(&m).rebuild()
		}
		return m, nil

	case step == wizard.StepFinalReview && key.Matches(msg, k.Submit):
		return m.submit()

	case key.Matches(msg, k.NextStep) && !(inArea && msg.String() == "enter"):
		(&m).commitFocused()
		if m.ctrl.Next(m.form) {
			m.toast = ""
			m.focus = 0
			(&m).rebuild()
			return m, m.focusCmd()
		}
		(&m).rebuild()
		(&m).focusFirstError()
		return m, m.focusCmd()

	case key.Matches(msg, k.NextField) && !(inArea && msg.String() == "down"):
		(&m).commitFocused()
		(&m).moveFocus(1)
		return m, m.focusCmd()

	case key.Matches(msg, k.PrevField) && !(inArea && msg.String() == "up"):
		(&m).commitFocused()
		(&m).moveFocus(-1)
		return m, m.focusCmd()

	case key.Matches(msg, k.Browser):
		if c != nil && (c.field == wizard.FieldGitHubLink || c.field == wizard.FieldPortfolioLink) {
			link := strings.TrimSpace(m.form.Field(c.field))
			if validate.URL(link) == "" {
				_ = browser.OpenURL(link)
			}
		}
		return m, nil
	}

	if c == nil {
		return m, nil
	}
	return m.updateControl(msg)
}

// updateControl routes a key to the focused control and copies its value into the form.
func (m ApplyModel) updateControl(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	c := &m.controls[m.focus]
	var cmd tea.Cmd

	switch c.kind {
	case controlSelect:
		switch {
		case key.Matches(msg, k.Left):
			c.cycle(-1)
		case key.Matches(msg, k.Right), key.Matches(msg, k.Toggle):
			c.cycle(1)
		default:
			return m, nil
		}
		(&m).applySelect(c.field, c.options[c.cursor])
		(&m).rebuild()

	case controlMulti:
		switch {
		case key.Matches(msg, k.Left):
			c.cursor = max(0, c.cursor-1)
		case key.Matches(msg, k.Right):
			c.cursor = min(len(c.options)-1, c.cursor+1)
		case key.Matches(msg, k.Toggle):
			if len(c.options) > 0 {
				m.form.ToggleTool(c.options[c.cursor])
			}
		}

	case controlText:
		c.input, cmd = c.input.Update(msg)
		_ = m.form.SetField(c.field, c.input.Value())

	case controlFile:
		c.input, cmd = c.input.Update(msg)

	case controlArea:
		c.area, cmd = c.area.Update(msg)
		_ = m.form.SetField(c.field, c.area.Value())
	}
	return m, cmd
}

// applySelect stores a select control's option in the form.
func (m *ApplyModel) applySelect(field, option string) {
	switch field {
	case wizard.FieldCountry:
		m.form.SetCountry(domain.ParseChoice(option))
	case wizard.FieldState:
		state := domain.ParseChoice(option)
		country := m.form.Values().Country
		// A named state must belong to a listed country
		if state.Kind() == domain.ChoiceSpecific && !m.data.HasState(country.Value(), state.Value()) {
			return
		}
		m.form.SetState(state)
	case wizard.FieldTrack:
		for _, t := range m.tracks {
			if t.Name == option {
				m.form.SelectTrack(t)
				return
			}
		}
	default:
		_ = m.form.SetField(field, option)
	}
}

// commitFocused finalizes the focused control when focus leaves it.
// The CV path is only inspected then, not on every keystroke.
func (m *ApplyModel) commitFocused() {
	c := m.focused()
	if c == nil || c.kind != controlFile {
		return
	}
	path := strings.TrimSpace(c.input.Value())
	if path == "" {
		m.form.SetCV(nil)
		return
	}
	if cur := m.form.Values().CV; cur != nil && cur.Path == path {
		return
	}
	file, err := attach.Inspect(path)
	if err != nil {
		m.form.SetCV(nil)
		m.form.SetError(wizard.FieldCV, "Could not read that file. Check the path and try again.")
		return
	}
	m.form.SetCV(file)
}

func (m ApplyModel) submit() (tea.Model, tea.Cmd) {
	m.screen = applySubmitting
	m.toast = ""
	values := m.form.Values()
	submitter, ctx := m.submitter, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return submitDoneMsg{outcome: submitter.Submit(ctx, values)}
	})
}

func (m ApplyModel) fetchRefs() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		var (
			cohort domain.Cohort
			tracks []domain.Track
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			c, err := client.CurrentActiveCohort(gctx)
			if err != nil {
				return err
			}
			cohort = c
			return nil
		})
		g.Go(func() error {
			t, err := client.ListTracks(gctx, true)
			if err != nil {
				return err
			}
			tracks = t
			return nil
		})
		if err := g.Wait(); err != nil {
			return refsLoadedMsg{err: err}
		}
		return refsLoadedMsg{cohort: cohort, tracks: tracks}
	}
}

// focused returns the focused control, or nil on steps without controls.
func (m ApplyModel) focused() *control {
	if m.focus < 0 || m.focus >= len(m.controls) {
		return nil
	}
	return &m.controls[m.focus]
}

func (m *ApplyModel) moveFocus(delta int) {
	if len(m.controls) == 0 {
		return
	}
	m.focus = (m.focus + delta + len(m.controls)) % len(m.controls)
	m.applyFocus()
}

func (m *ApplyModel) focusFirstError() {
	for i, c := range m.controls {
		if m.form.Error(c.field) != "" {
			m.focus = i
			break
		}
	}
	m.applyFocus()
}

func (m *ApplyModel) applyFocus() {
	for i := range m.controls {
		m.controls[i].setFocus(i == m.focus)
	}
}

func (m ApplyModel) focusCmd() tea.Cmd {
	c := m.focused()
	if c == nil {
		return nil
	}
	switch c.kind {
	case controlText, controlFile:
		return textinput.Blink
	case controlArea:
		return textarea.Blink
	}
	return nil
}

// rebuild recreates the controls of the current step from the form,
// keeping focus on the same field where it still exists.
func (m *ApplyModel) rebuild() {
	prev := ""
	if c := m.focused(); c != nil {
		prev = c.field
	}

	m.controls = m.buildControls(m.ctrl.Current())
	m.focus = min(m.focus, max(0, len(m.controls)-1))
	for i, c := range m.controls {
		if c.field == prev {
			m.focus = i
			break
		}
	}
	m.applyFocus()
}

func (m ApplyModel) buildControls(step wizard.Step) []control {
	f := m.form
	v := f.Values()
	width := min(60, max(20, m.width-8))
	var cs []control

	switch step {
	case wizard.StepPersonalInfo:
		cs = append(cs,
			newTextControl(wizard.FieldFirstName, "First name", v.FirstName, width),
			newTextControl(wizard.FieldLastName, "Last name", v.LastName, width),
			newTextControl(wizard.FieldEmail, "Email", v.Email, width),
			newTextControl(wizard.FieldPhoneNumber, "Phone number", v.PhoneNumber, width),
			newSelectControl(wizard.FieldGender, "Gender", wizard.Genders, v.Gender),
			newSelectControl(wizard.FieldCountry, "Country", m.data.Countries(), v.Country.String()),
		)
		if v.Country.IsOther() {
			cs = append(cs, newTextControl(wizard.FieldOtherCountry, "Country name", v.OtherCountry, width))
		}
		if !v.Country.IsUnset() {
			cs = append(cs, newSelectControl(wizard.FieldState, "State", m.data.States(v.Country), v.State.String()))
		}
		if v.State.IsOther() {
			cs = append(cs, newTextControl(wizard.FieldOtherState, "State name", v.OtherState, width))
		}

	case wizard.StepTrackSelection:
		names := make([]string, 0, len(m.tracks))
		for _, t := range m.tracks {
			names = append(names, t.Name)
		}
		cs = append(cs, newSelectControl(wizard.FieldTrack, "Track", names, v.Track.Name))
		if !v.Track.IsZero() {
			tools := m.data.ToolsForTrack(v.Track.Key())
			if len(tools) == 0 {
				tools = fallbackTools
			}
			cs = append(cs, control{field: wizard.FieldTools, label: "Tools you already use", kind: controlMulti, options: tools})
		}

	case wizard.StepBackground:
		path := ""
		if v.CV != nil {
			path = v.CV.Path
		}
		cv := newTextControl(wizard.FieldCV, "CV file path (PDF or Word, max 10MB)", path, width)
		cv.kind = controlFile
		cv.input.CharLimit = 1024

		github := "GitHub profile (optional)"
		portfolio := "Portfolio link"
		if wizard.IsProgrammingTrack(v.Track.Key()) {
			github = "GitHub profile"
			portfolio = "Portfolio or project link (optional)"
		}
		cs = append(cs,
			cv,
			newTextControl(wizard.FieldGitHubLink, github, v.GitHubLink, width),
			newTextControl(wizard.FieldPortfolioLink, portfolio, v.PortfolioLink, width),
			newSelectControl(wizard.FieldReferralSource, "How did you hear about us?", wizard.ReferralSources, v.ReferralSource),
		)
		if v.ReferralSource == wizard.ReferralOther {
			cs = append(cs, newTextControl(wizard.FieldReferralOther, "Tell us more", v.ReferralOther, width))
		}
		variant := f.Variant()
		cs = append(cs, newAreaControl(variant.StatementField(), variant.StatementLabel(), v.Statement, width))
	}
	return cs
}

// View renders the current screen.
func (m ApplyModel) View() string {
	switch m.screen {
	case applyLoading:
		return m.spinner.View() + " Loading the current cohort...\n\n" + dimStyle.Render("ctrl+c to quit")
	case applyClosed:
		return TitleStyle.Render("Applications") + "\n" +
			wordwrap.String(m.closed, max(20, m.width-4)) + "\n" +
			HelpStyle.Render("Press q to quit")
	case applySuccess:
		modal := ModalStyle.Render(
			SuccessStyle.Render("Application submitted") + "\n\n" +
				wordwrap.String(m.toast, 50) + "\n\n" +
				dimStyle.Render("The form will reset shortly. Press enter to start again now."),
		)
		return lipgloss.Place(max(m.width, 60), max(m.height, 12), lipgloss.Center, lipgloss.Center, modal)
	}

	if m.showHelp {
		return m.help.View(m.width)
	}

	var b strings.Builder
	step := m.ctrl.Current()
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Apply to %s", m.cohort.Name)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Step %d of %d: %s\n", m.ctrl.Index()+1, len(wizard.Steps), step.Title()))
	b.WriteString(m.progress.ViewAs(float64(m.ctrl.Index()) / float64(len(wizard.Steps)-1)))
	b.WriteString("\n\n")

	switch step {
	case wizard.StepAbout:
		b.WriteString(m.renderAbout())
	case wizard.StepFinalReview:
		b.WriteString(m.renderReview())
	default:
		values := m.form.Values()
		for i, c := range m.controls {
			b.WriteString(c.view(i == m.focus, values.HasTool, m.form.Error(c.field)))
			b.WriteString("\n")
		}
	}

	if m.screen == applySubmitting {
		b.WriteString("\n" + m.spinner.View() + " Submitting your application...")
	}
	if m.toast != "" {
		b.WriteString("\n" + ErrorStyle.Render(wordwrap.String(m.toast, max(20, m.width-4))))
	}
	b.WriteString("\n" + HelpStyle.Render(m.help.ShortView(m.width)))
	return b.String()
}

func (m ApplyModel) renderAbout() string {
	width := max(20, min(80, m.width-4))
	var b strings.Builder
	b.WriteString(wordwrap.String(fmt.Sprintf(
		"%s is a free, mentor-led programme. Tell us about yourself, pick a track, "+
			"share your background and we will review your application.", m.cohort.Name), width))
	b.WriteString("\n\n")
	if !m.cohort.StartDate.IsZero() {
		b.WriteString(LabelStyle.Render("Starts: ") + m.cohort.StartDate.Format("2 January 2006") + "\n")
	}
	if !m.cohort.ApplicationDeadline.IsZero() {
		b.WriteString(LabelStyle.Render("Apply by: ") + m.cohort.ApplicationDeadline.Format("2 January 2006") + "\n")
	}
	if len(m.tracks) > 0 {
		b.WriteString(LabelStyle.Render("Tracks:") + "\n")
		for _, t := range m.tracks {
			b.WriteString("  • " + t.Name + "\n")
		}
	}
	return b.String()
}

func (m ApplyModel) renderReview() string {
	width := max(20, min(80, m.width-4))
	var b strings.Builder
	for _, row := range m.form.Review() {
		value := row[1]
		if value == "" {
			value = dimStyle.Render("(not provided)")
		}
		b.WriteString(LabelStyle.Render(row[0]+":") + " ")
		if len(value) > width-len(row[0])-2 {
			b.WriteString("\n" + wordwrap.String(value, width) + "\n")
			continue
		}
		b.WriteString(value + "\n")
	}
	if errs := m.form.Errors(); len(errs) > 0 {
		b.WriteString("\n")
		for _, field := range errs.Fields() {
			b.WriteString(FieldErrorStyle.Render("• "+errs[field]) + "\n")
		}
	}
	return b.String()
}

// Messages for the applicant flow.
type (
	refsLoadedMsg struct {
		cohort domain.Cohort
		tracks []domain.Track
		err    error
	}
	submitDoneMsg struct{ outcome wizard.Outcome }
	resetFormMsg  struct{ gen int }
)
