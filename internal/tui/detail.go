package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/attach"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/store"
	"github.com/robby/learnhub/internal/validate"
	"go.uber.org/zap"
)

// Layout constants
const (
	attachmentPanelHeight = 8
	detailChrome          = 6 // Header, meta line, status, hints and borders
)

var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	requiredBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("228")).
				Padding(0, 1)
)

// inputMode is the one-line prompt currently open in the detail view.
type inputMode int

const (
	inputNone inputMode = iota
	inputUploadPath
	inputLinkURL
	inputLinkTitle
)

// DetailModel shows a stream post or task with its attachments and lets the
// admin upload files, add links and save the attachment list.
type DetailModel struct {
	// Dependencies
	client   AdminClient
	ctx      context.Context
	logger   *zap.Logger
	resource store.Resource

	// Content (one of the two, depending on resource)
	stream domain.Stream
	task   domain.Task

	attachments *attach.Aggregator

	// UI components
	keymap   KeyMap
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model
	input    textinput.Model

	// State
	mode        inputMode
	pendingURL  string
	cursor      int
	uploading   bool
	percent     int
	progressCh  chan int
	saving      bool
	dirty       bool
	saved       bool
	confirmExit bool
	errorMsg    string
	successMsg  string

	// View dimensions
	width  int
	height int
}

// NewStreamDetailModel creates the detail view of a stream post.
func NewStreamDetailModel(s domain.Stream, client AdminClient, ctx context.Context, logger *zap.Logger, maxItems int) DetailModel {
	m := newDetailModel(store.ResourceStreams, client, ctx, logger)
	m.stream = s
	m.attachments = attach.New(client,
		attach.WithContext(attach.ContextStream),
		attach.WithMaxItems(maxItems),
		attach.WithLogger(m.logger))
	m.attachments.Load(s.Attachments)
	return m
}

// NewTaskDetailModel creates the detail view of a task.
func NewTaskDetailModel(t domain.Task, client AdminClient, ctx context.Context, logger *zap.Logger, maxItems int) DetailModel {
	m := newDetailModel(store.ResourceTasks, client, ctx, logger)
	m.task = t
	m.attachments = attach.New(client,
		attach.WithContext(attach.ContextTask),
		attach.WithMaxItems(maxItems),
		attach.WithLogger(m.logger))
	m.attachments.Load(t.Resources)
	return m
}

func newDetailModel(r store.Resource, client AdminClient, ctx context.Context, logger *zap.Logger) DetailModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1024
	ti.Width = 60

	vp := viewport.New(60, 10) // Resized on WindowSizeMsg
	vp.MouseWheelEnabled = true

	return DetailModel{
		client:   client,
		ctx:      ctx,
		logger:   logger,
		resource: r,
		keymap:   DefaultKeyMap(),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		viewport: vp,
		input:    ti,
	}
}

// Init initializes the detail model.
func (m DetailModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages.
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		(&m).resizeComponents()
		return m, nil

	case spinner.TickMsg:
		if !m.uploading && !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.percent = msg.percent
		return m, waitForProgress(m.progressCh)

	case uploadChannelDone:
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		m.progressCh = nil
		if msg.err != nil {
			m.errorMsg = "Upload failed: " + api.Message(msg.err)
			return m, nil
		}
		if err := m.attachments.Add(msg.attachment); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.dirty = true
		m.cursor = m.attachments.Len() - 1
		m.successMsg = "Uploaded " + msg.attachment.Title
		return m, nil

	case detailSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.errorMsg = "Save failed: " + api.Message(msg.err)
			return m, nil
		}
		if m.resource == store.ResourceStreams {
			m.stream = msg.stream
		} else {
			m.task = msg.task
		}
		m.dirty = false
		m.saved = true
		m.successMsg = "Saved"
		(&m).updateViewportContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// resizeComponents sets component dimensions and re-renders the body.
func (m *DetailModel) resizeComponents() {
	m.viewport.Width = max(20, m.width-4)
	m.viewport.Height = max(3, m.height-attachmentPanelHeight-detailChrome)
	m.input.Width = max(20, m.width-8)
	m.progress.Width = min(60, max(20, m.width-20))
	m.updateViewportContent()
}

func (m *DetailModel) updateViewportContent() {
	m.viewport.SetContent(renderMarkdown(m.body(), m.viewport.Width))
}

// renderMarkdown renders body for the terminal, falling back to plain wrapped text.
func renderMarkdown(body string, width int) string {
	if strings.TrimSpace(body) == "" {
		return dimStyle.Render("(no content)")
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if out, err := r.Render(body); err == nil {
			return out
		}
	}
	return wordwrap.String(body, width)
}

func (m DetailModel) title() string {
	if m.resource == store.ResourceStreams {
		return m.stream.Title
	}
	return m.task.Title
}

func (m DetailModel) body() string {
	if m.resource == store.ResourceStreams {
		return m.stream.Content
	}
	return m.task.Description
}

func (m DetailModel) meta() string {
	var parts []string
	if m.resource == store.ResourceStreams {
		parts = append(parts, m.stream.Type)
		if m.stream.Author != "" {
			parts = append(parts, "by "+m.stream.Author)
		}
		if !m.stream.CreatedAt.IsZero() {
			parts = append(parts, m.stream.CreatedAt.Format("2 Jan 2006"))
		}
	} else {
		parts = append(parts, m.task.Type)
		if !m.task.DueDate.IsZero() {
			parts = append(parts, "due "+m.task.DueDate.Format("2 Jan 2006 15:04"))
		}
		if m.task.MaxScore > 0 {
			parts = append(parts, fmt.Sprintf("%d pts", m.task.MaxScore))
		}
	}
	return strings.Join(parts, " · ")
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	if key.Matches(msg, k.ConfirmQuit) {
		return m, tea.Quit
	}

	// Unsaved changes dialog
	if m.confirmExit {
		switch {
		case key.Matches(msg, k.ConfirmYes):
			m.confirmExit = false
			saved := m.saved
			return m, func() tea.Msg { return closeDetailMsg{changed: saved} }
		case key.Matches(msg, k.Save):
			m.confirmExit = false
			return m.save()
		case key.Matches(msg, k.ConfirmNo):
			m.confirmExit = false
		}
		return m, nil
	}

	if m.mode != inputNone {
		return m.handleInput(msg)
	}

	if m.saving {
		return m, nil
	}

	m.errorMsg = ""
	m.successMsg = ""

	switch {
	case key.Matches(msg, k.Back):
		if m.dirty {
			m.confirmExit = true
			return m, nil
		}
		saved := m.saved
		return m, func() tea.Msg { return closeDetailMsg{changed: saved} }

	case key.Matches(msg, k.Save):
		if m.uploading {
			m.errorMsg = "Wait for the upload to finish"
			return m, nil
		}
		return m.save()

	case key.Matches(msg, k.Upload):
		if m.uploading {
			return m, nil
		}
		return m.openInput(inputUploadPath, "path/to/file.pdf")

	case key.Matches(msg, k.AddLink):
		if m.uploading {
			return m, nil
		}
		return m.openInput(inputLinkURL, "https://")

	case key.Matches(msg, k.Remove):
		if m.uploading {
			return m, nil
		}
		if err := m.attachments.Remove(m.cursor); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.dirty = true
		m.cursor = min(m.cursor, max(0, m.attachments.Len()-1))

	case key.Matches(msg, k.Required):
		if m.resource != store.ResourceTasks {
			return m, nil
		}
		if err := m.attachments.ToggleRequired(m.cursor); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.dirty = true

	case key.Matches(msg, k.NextAttached):
		if n := m.attachments.Len(); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}

	case key.Matches(msg, k.PrevAttached):
		if n := m.attachments.Len(); n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}

	case key.Matches(msg, k.Browser):
		items := m.attachments.Items()
		if m.cursor < len(items) && items[m.cursor].URL != "" {
			_ = browser.OpenURL(items[m.cursor].URL)
		}

	case key.Matches(msg, k.Submissions):
		if m.resource == store.ResourceTasks {
			id := m.task.ID
			return m, func() tea.Msg { return openSubmissionsMsg{taskID: id} }
		}

	case key.Matches(msg, k.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, k.Up):
		m.viewport.LineUp(1)
	case msg.String() == "ctrl+d":
		m.viewport.HalfViewDown()
	case msg.String() == "ctrl+u":
		m.viewport.HalfViewUp()
	case msg.String() == "g":
		m.viewport.GotoTop()
	case msg.String() == "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

func (m DetailModel) openInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m, textinput.Blink
}

func (m *DetailModel) closeInput() {
	m.mode = inputNone
	m.pendingURL = ""
	m.input.Blur()
	m.input.Reset()
}

// handleInput drives the upload path and link prompts.
func (m DetailModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	switch {
	case key.Matches(msg, k.CancelInput):
		(&m).closeInput()
		return m, nil

	case key.Matches(msg, k.ApplyInput):
		value := strings.TrimSpace(m.input.Value())
		switch m.mode {
		case inputUploadPath:
			(&m).closeInput()
			return m.startUpload(value)

		case inputLinkURL:
			if errMsg := validate.URL(value); errMsg != "" {
				m.errorMsg = errMsg
				return m, nil
			}
			m.errorMsg = ""
			m.mode = inputLinkTitle
			m.pendingURL = value
			m.input.Reset()
			m.input.Placeholder = "Title (defaults to the URL)"
			return m, nil

		case inputLinkTitle:
			link := m.pendingURL
			(&m).closeInput()
			if err := m.attachments.AddLink(link, value, ""); err != nil {
				m.errorMsg = err.Error()
				return m, nil
			}
			m.dirty = true
			m.cursor = m.attachments.Len() - 1
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startUpload validates the file locally, then transfers it off the update loop.
// Progress arrives as progressMsg values read from a channel.
func (m DetailModel) startUpload(path string) (tea.Model, tea.Cmd) {
	file, err := attach.Inspect(path)
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}
	if err := m.attachments.Check(file); err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}

	ch := make(chan int, 16)
	m.progressCh = ch
	m.uploading = true
	m.percent = 0

	agg, ctx := m.attachments, m.ctx
	upload := func() tea.Msg {
		defer close(ch)
		att, err := agg.Transfer(ctx, file, func(percent int) {
			select {
			case ch <- percent:
			default:
			}
		})
		if err != nil {
			return expiredOr(err, func(err error) tea.Msg { return uploadDoneMsg{err: err} })
		}
		return uploadDoneMsg{attachment: att}
	}
	return m, tea.Batch(m.spinner.Tick, upload, waitForProgress(ch))
}

// waitForProgress reads the next upload progress value.
func waitForProgress(ch <-chan int) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return uploadChannelDone{}
		}
		return progressMsg{percent: p}
	}
}

func (m DetailModel) save() (tea.Model, tea.Cmd) {
	m.saving = true
	m.errorMsg = ""
	client, ctx := m.client, m.ctx
	items := m.attachments.Items()

	if m.resource == store.ResourceStreams {
		s := m.stream
		in := api.StreamInput{
			Title:       s.Title,
			Content:     s.Content,
			Type:        s.Type,
			CohortID:    s.CohortID,
			TrackID:     s.TrackID,
			Attachments: items,
		}
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			updated, err := client.UpdateStream(ctx, s.ID, in)
			if err != nil {
				return expiredOr(err, func(err error) tea.Msg { return detailSavedMsg{err: err} })
			}
			return detailSavedMsg{stream: updated}
		})
	}

	t := m.task
	in := api.TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Type:        t.Type,
		CohortID:    t.CohortID,
		TrackID:     t.TrackID,
		DueDate:     t.DueDate,
		MaxScore:    t.MaxScore,
		Resources:   items,
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		updated, err := client.UpdateTask(ctx, t.ID, in)
		if err != nil {
			return expiredOr(err, func(err error) tea.Msg { return detailSavedMsg{err: err} })
		}
		return detailSavedMsg{task: updated}
	})
}

// View renders the detail view.
func (m DetailModel) View() string {
	width := m.width
	if width == 0 {
		width = 100
	}

	title := detailTitleStyle.Render(m.title())
	if m.dirty {
		title += " " + warningStyle.Render("(unsaved)")
	}
	sections := []string{
		title,
		dimStyle.Render(m.meta()),
		panelBorderStyle.Width(width - 2).Render(m.viewport.View()),
		m.renderAttachments(width),
	}

	switch {
	case m.confirmExit:
		sections = append(sections, warningStyle.Render("Unsaved attachments! [y]discard [n]cancel [ctrl+s]save"))
	case m.mode != inputNone:
		sections = append(sections, PromptStyle.Render(m.inputLabel())+"\n"+m.input.View())
	case m.uploading:
		sections = append(sections, m.spinner.View()+" Uploading "+m.progress.ViewAs(float64(m.percent)/100))
	case m.saving:
		sections = append(sections, m.spinner.View()+" Saving...")
	}
	if m.errorMsg != "" {
		sections = append(sections, ErrorStyle.Render(m.errorMsg))
	}
	if m.successMsg != "" {
		sections = append(sections, SuccessStyle.Render(m.successMsg))
	}
	sections = append(sections, HelpStyle.Render(m.renderHints()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DetailModel) inputLabel() string {
	switch m.mode {
	case inputUploadPath:
		return "File to upload (enter to upload, esc to cancel)"
	case inputLinkURL:
		return "Link URL"
	case inputLinkTitle:
		return "Link title"
	}
	return ""
}

func (m DetailModel) renderAttachments(width int) string {
	label := "Attachments"
	if m.resource == store.ResourceTasks {
		label = "Resources"
	}
	items := m.attachments.Items()
	header := LabelStyle.Render(fmt.Sprintf("%s (%d)", label, len(items)))
	if len(items) == 0 {
		return header + "\n" + dimStyle.Render("  none, press u to upload a file or l to add a link")
	}

	lines := []string{header}
	start := max(0, min(m.cursor-attachmentPanelHeight+2, len(items)-attachmentPanelHeight+1))
	end := min(len(items), start+attachmentPanelHeight-1)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderAttachment(i, items[i], width))
	}
	return strings.Join(lines, "\n")
}

func (m DetailModel) renderAttachment(i int, a domain.Attachment, width int) string {
	var line string
	if a.Kind == domain.AttachmentFile {
		line = fmt.Sprintf("[file] %s (%s)", a.Title, humanSize(a.Size))
	} else {
		line = fmt.Sprintf("[link] %s", a.Title)
		if a.Title != a.URL {
			line += " " + dimStyle.Render(a.URL)
		}
	}
	line = truncate(line, width-6)
	if a.IsRequired {
		line += " " + requiredBadgeStyle.Render("required")
	}
	if i == m.cursor {
		return SelectedItemStyle.Render("> ") + line
	}
	return "  " + line
}

func (m DetailModel) renderHints() string {
	parts := []string{"[esc]back", "[j/k]scroll", "[u]upload", "[l]link", "[x]remove", "[tab]next", "[o]open"}
	if m.resource == store.ResourceTasks {
		parts = append(parts, "[R]required", "[s]submissions")
	}
	parts = append(parts, "[ctrl+s]save")
	return strings.Join(parts, " ")
}

// humanSize formats a byte count.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// Messages for the detail view.
type (
	uploadDoneMsg struct {
		attachment domain.Attachment
		err        error
	}

	detailSavedMsg struct {
		stream domain.Stream
		task   domain.Task
		err    error
	}
)
