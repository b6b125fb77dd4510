package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/store"
	"github.com/robby/learnhub/internal/validate"
	"go.uber.org/zap"
)

// Input layouts accepted by the create form.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var (
	streamTypes = []string{domain.StreamTypeAnnouncement, domain.StreamTypeLesson, domain.StreamTypeUpdate}
	taskTypes   = []string{domain.TaskTypeAssignment, domain.TaskTypeProject, domain.TaskTypeQuiz, domain.TaskTypeReading}
)

// EditorModel is the create or edit form for one dashboard resource.
// Control fields are named after the backend's payload keys so that
// validation errors from the server land on the right control.
type EditorModel struct {
	client   AdminClient
	store    *store.Store
	ctx      context.Context
	logger   *zap.Logger
	resource store.Resource
	editID   string // Set when editing an existing cohort or track

	controls []control
	checked  map[string]bool // Multi options that are set, by label
	focus    int
	errors   map[string]string

	spinner  spinner.Model
	saving   bool
	errorMsg string
	width    int
}

// NewEditorModel creates the create form for resource.
func NewEditorModel(resource store.Resource, s *store.Store, client AdminClient, ctx context.Context, logger *zap.Logger) EditorModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := EditorModel{
		client:   client,
		store:    s,
		ctx:      ctx,
		logger:   logger,
		resource: resource,
		checked:  make(map[string]bool),
		errors:   make(map[string]string),
		spinner:  sp,
		width:    80,
	}
	m.controls = m.buildControls()
	m.applyFocus()
	return m
}

// editable reports whether rows of r can be edited in place.
func editable(r store.Resource) bool {
	return r == store.ResourceCohorts || r == store.ResourceTracks
}

// NewEditModel creates the form for an existing cohort or track, filled from row.
func NewEditModel(resource store.Resource, row store.Row, s *store.Store, client AdminClient, ctx context.Context, logger *zap.Logger) EditorModel {
	m := NewEditorModel(resource, s, client, ctx, logger)
	m.editID = row.ID

	set := func(field, value string) {
		for i := range m.controls {
			c := &m.controls[i]
			if c.field != field {
				continue
			}
			switch c.kind {
			case controlText:
				c.input.SetValue(value)
			case controlArea:
				c.area.SetValue(value)
			case controlSelect:
				for j, o := range c.options {
					if c.values != nil {
						o = c.values[j]
					}
					if o == value {
						c.cursor = j
					}
				}
			}
		}
	}
	day := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	}

	switch v := row.Value.(type) {
	case domain.Cohort:
		set("name", v.Name)
		set("cohortNumber", strconv.Itoa(v.Number))
		set("startDate", day(v.StartDate))
		set("endDate", day(v.EndDate))
		set("applicationDeadline", day(v.ApplicationDeadline))
		set("isActive", strconv.FormatBool(v.IsActive))
		for _, t := range v.Tracks {
			if name := s.TrackName(t.ID); name != "" {
				m.checked[name] = true
			}
		}
	case domain.Track:
		set("name", v.Name)
		set("description", v.Description)
		set("isActive", strconv.FormatBool(v.IsActive))
	}
	return m
}

func (m EditorModel) buildControls() []control {
	const width = 50
	tracks := m.store.Tracks()
	trackSelect := func(noneLabel string) control {
		options := []string{noneLabel}
		values := []string{""}
		for _, t := range tracks {
			options = append(options, t.Name)
			values = append(values, t.ID)
		}
		c := newSelectControl("track", "Track", options, noneLabel)
		c.values = values
		return c
	}
	activeSelect := func() control {
		c := newSelectControl("isActive", "Active", []string{"yes", "no"}, "yes")
		c.values = []string{"true", "false"}
		return c
	}
	body := func(field, label string) control {
		c := newAreaControl(field, label, "", width)
		c.area.CharLimit = 20000
		c.area.Placeholder = "Markdown is supported"
		c.area.SetHeight(6)
		return c
	}

	switch m.resource {
	case store.ResourceCohorts:
		names := make([]string, 0, len(tracks))
		ids := make([]string, 0, len(tracks))
		for _, t := range tracks {
			names = append(names, t.Name)
			ids = append(ids, t.ID)
		}
		return []control{
			newTextControl("name", "Name", "", width),
			newTextControl("cohortNumber", "Cohort number", "", width),
			newTextControl("startDate", "Start date (YYYY-MM-DD)", "", width),
			newTextControl("endDate", "End date (YYYY-MM-DD)", "", width),
			newTextControl("applicationDeadline", "Application deadline (YYYY-MM-DD)", "", width),
			{field: "tracks", label: "Tracks offered (space to toggle)", kind: controlMulti, options: names, values: ids},
			activeSelect(),
		}
	case store.ResourceTracks:
		return []control{
			newTextControl("name", "Name", "", width),
			body("description", "Description"),
			activeSelect(),
		}
	case store.ResourceMentors, store.ResourceStudents:
		return []control{
			newTextControl("firstName", "First name", "", width),
			newTextControl("lastName", "Last name", "", width),
			newTextControl("email", "Email", "", width),
			trackSelect("No track"),
		}
	case store.ResourceStreams:
		return []control{
			newTextControl("title", "Title", "", width),
			newSelectControl("type", "Type", streamTypes, domain.StreamTypeAnnouncement),
			trackSelect("All tracks"),
			body("content", "Content"),
		}
	case store.ResourceTasks:
		return []control{
			newTextControl("title", "Title", "", width),
			newSelectControl("type", "Type", taskTypes, domain.TaskTypeAssignment),
			trackSelect("All tracks"),
			newTextControl("dueDate", "Due (YYYY-MM-DD or YYYY-MM-DD HH:MM)", "", width),
			newTextControl("maxScore", "Max score", "100", width),
			body("description", "Description"),
		}
	}
	return nil
}

// Init initializes the model.
func (m EditorModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case editorSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.applyServerErrors(msg.err)
			return m, nil
		}
		done := closeFormMsg{resource: m.resource, title: msg.title, created: m.editID == "", updated: m.editID != ""}
		return m, func() tea.Msg { return done }

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m EditorModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.saving {
		return m, nil
	}

	c := m.focused()
	inArea := c != nil && c.kind == controlArea

	switch msg.String() {
	case "esc":
		r := m.resource
		return m, func() tea.Msg { return closeFormMsg{resource: r} }
	case "ctrl+s":
		return m.submit()
	case "tab":
		(&m).moveFocus(1)
		return m, m.blink()
	case "shift+tab":
		(&m).moveFocus(-1)
		return m, m.blink()
	case "down", "enter":
		if !inArea {
			(&m).moveFocus(1)
			return m, m.blink()
		}
	case "up":
		if !inArea {
			(&m).moveFocus(-1)
			return m, m.blink()
		}
	}

	if c == nil {
		return m, nil
	}
	delete(m.errors, c.field)

	var cmd tea.Cmd
	switch c.kind {
	case controlSelect:
		switch msg.String() {
		case "left":
			c.cycle(-1)
		case "right", " ":
			c.cycle(1)
		}
	case controlMulti:
		switch msg.String() {
		case "left":
			c.cursor = max(0, c.cursor-1)
		case "right":
			c.cursor = min(len(c.options)-1, c.cursor+1)
		case " ":
			if len(c.options) > 0 {
				o := c.options[c.cursor]
				m.checked[o] = !m.checked[o]
			}
		}
	case controlText:
		c.input, cmd = c.input.Update(msg)
	case controlArea:
		c.area, cmd = c.area.Update(msg)
	}
	return m, cmd
}

func (m EditorModel) focused() *control {
	if m.focus < 0 || m.focus >= len(m.controls) {
		return nil
	}
	return &m.controls[m.focus]
}

func (m *EditorModel) moveFocus(delta int) {
	if len(m.controls) == 0 {
		return
	}
	m.focus = (m.focus + delta + len(m.controls)) % len(m.controls)
	m.applyFocus()
}

func (m *EditorModel) applyFocus() {
	for i := range m.controls {
		m.controls[i].setFocus(i == m.focus)
	}
}

func (m EditorModel) blink() tea.Cmd {
	if c := m.focused(); c != nil && c.kind == controlArea {
		return textarea.Blink
	}
	return textinput.Blink
}

// value returns the submitted value of field.
func (m EditorModel) value(field string) string {
	for _, c := range m.controls {
		if c.field == field {
			return c.value()
		}
	}
	return ""
}

// checkedValues returns the submitted values of the set options of a multi control.
func (m EditorModel) checkedValues(field string) []string {
	var out []string
	for _, c := range m.controls {
		if c.field != field {
			continue
		}
		for i, o := range c.options {
			if m.checked[o] {
				out = append(out, c.values[i])
			}
		}
	}
	return out
}

// check validates the form and returns errors keyed by field.
func (m EditorModel) check() map[string]string {
	errs := make(map[string]string)
	set := func(field, msg string) {
		if msg != "" {
			if _, ok := errs[field]; !ok {
				errs[field] = msg
			}
		}
	}
	date := func(field, label string) {
		v := m.value(field)
		if v == "" {
			set(field, label+" is required")
			return
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			set(field, label+" must look like 2025-03-01")
		}
	}

	switch m.resource {
	case store.ResourceCohorts:
		set("name", validate.Required(m.value("name"), "Name"))
		if n, err := strconv.Atoi(m.value("cohortNumber")); err != nil || n <= 0 {
			set("cohortNumber", "Cohort number must be a positive number")
		}
		date("startDate", "Start date")
		date("endDate", "End date")
		date("applicationDeadline", "Application deadline")
		if len(errs) == 0 {
			start, _ := time.Parse(dateLayout, m.value("startDate"))
			end, _ := time.Parse(dateLayout, m.value("endDate"))
			if !end.After(start) {
				set("endDate", "End date must be after the start date")
			}
		}
	case store.ResourceTracks:
		set("name", validate.Required(m.value("name"), "Name"))
	case store.ResourceMentors, store.ResourceStudents:
		set("firstName", validate.Required(m.value("firstName"), "First name"))
		set("lastName", validate.Required(m.value("lastName"), "Last name"))
		set("email", validate.Email(m.value("email")))
	case store.ResourceStreams:
		set("title", validate.Required(m.value("title"), "Title"))
		set("content", validate.Required(m.value("content"), "Content"))
		if m.store.CohortID() == "" {
			errs[""] = errNoCohort.Error()
		}
	case store.ResourceTasks:
		set("title", validate.Required(m.value("title"), "Title"))
		set("description", validate.Required(m.value("description"), "Description"))
		_, msg := parseDue(m.value("dueDate"))
		set("dueDate", msg)
		if n, err := strconv.Atoi(m.value("maxScore")); err != nil || n <= 0 {
			set("maxScore", "Max score must be a positive number")
		}
		if m.store.CohortID() == "" {
			errs[""] = errNoCohort.Error()
		}
	}
	return errs
}

// parseDue accepts a date or a date and time; a bare date is due at the end of the day.
// The string result is a validation message, empty when v parsed.
func parseDue(v string) (time.Time, string) {
	if v == "" {
		return time.Time{}, "Due date is required"
	}
	if t, err := time.ParseInLocation(dateTimeLayout, v, time.Local); err == nil {
		return t, ""
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, "Due date must look like 2025-03-01 or 2025-03-01 17:00"
	}
	return t.Add(24*time.Hour - time.Minute), ""
}

func (m EditorModel) submit() (tea.Model, tea.Cmd) {
	errs := m.check()
	if len(errs) > 0 {
		m.errors = errs
		m.errorMsg = errs[""]
		if m.errorMsg == "" {
			m.errorMsg = "Please fix the highlighted fields"
		}
		for i, c := range m.controls {
			if _, ok := errs[c.field]; ok {
				m.focus = i
				break
			}
		}
		m.applyFocus()
		return m, nil
	}

	m.errors = make(map[string]string)
	m.errorMsg = ""
	m.saving = true
	return m, tea.Batch(m.spinner.Tick, m.createCmd())
}

// createCmd snapshots the form and sends the create or update request.
func (m EditorModel) createCmd() tea.Cmd {
	client, ctx, r, id := m.client, m.ctx, m.resource, m.editID
	cohortID := m.store.CohortID()
	fail := func(err error) tea.Msg {
		return expiredOr(err, func(err error) tea.Msg { return editorSavedMsg{err: err} })
	}
	atoi := func(field string) int {
		n, _ := strconv.Atoi(m.value(field))
		return n
	}
	date := func(field string) time.Time {
		t, _ := time.Parse(dateLayout, m.value(field))
		return t
	}

	switch r {
	case store.ResourceCohorts:
		in := api.CohortInput{
			Name:                m.value("name"),
			Number:              atoi("cohortNumber"),
			StartDate:           date("startDate"),
			EndDate:             date("endDate"),
			ApplicationDeadline: date("applicationDeadline"),
			TrackIDs:            m.checkedValues("tracks"),
			IsActive:            m.value("isActive") == "true",
		}
		return func() tea.Msg {
			var (
				c   domain.Cohort
				err error
			)
			if id != "" {
				c, err = client.UpdateCohort(ctx, id, in)
			} else {
				c, err = client.CreateCohort(ctx, in)
			}
			if err != nil {
				return fail(err)
			}
			return editorSavedMsg{title: c.Name}
		}

	case store.ResourceTracks:
		in := api.TrackInput{
			Name:        m.value("name"),
			Description: m.value("description"),
			IsActive:    m.value("isActive") == "true",
		}
		return func() tea.Msg {
			var (
				t   domain.Track
				err error
			)
			if id != "" {
				t, err = client.UpdateTrack(ctx, id, in)
			} else {
				t, err = client.CreateTrack(ctx, in)
			}
			if err != nil {
				return fail(err)
			}
			return editorSavedMsg{title: t.Name}
		}

	case store.ResourceMentors, store.ResourceStudents:
		in := api.UserInput{
			FirstName: m.value("firstName"),
			LastName:  m.value("lastName"),
			Email:     m.value("email"),
			Role:      r.Role(),
			TrackID:   m.value("track"),
			CohortID:  cohortID,
		}
		return func() tea.Msg {
			u, err := client.CreateUser(ctx, in)
			if err != nil {
				return fail(err)
			}
			return editorSavedMsg{title: u.FullName()}
		}

	case store.ResourceStreams:
		in := api.StreamInput{
			Title:    m.value("title"),
			Content:  m.value("content"),
			Type:     m.value("type"),
			CohortID: cohortID,
			TrackID:  m.value("track"),
		}
		return func() tea.Msg {
			s, err := client.CreateStream(ctx, in)
			if err != nil {
				return fail(err)
			}
			return editorSavedMsg{title: s.Title}
		}

	case store.ResourceTasks:
		due, _ := parseDue(m.value("dueDate"))
		in := api.TaskInput{
			Title:       m.value("title"),
			Description: m.value("description"),
			Type:        m.value("type"),
			CohortID:    cohortID,
			TrackID:     m.value("track"),
			DueDate:     due,
			MaxScore:    atoi("maxScore"),
		}
		return func() tea.Msg {
			t, err := client.CreateTask(ctx, in)
			if err != nil {
				return fail(err)
			}
			return editorSavedMsg{title: t.Title}
		}
	}
	return func() tea.Msg {
		return editorSavedMsg{err: fmt.Errorf("%w: %s", store.ErrUnknownResource, r)}
	}
}

// applyServerErrors shows backend validation errors on their controls.
func (m *EditorModel) applyServerErrors(err error) {
	m.errorMsg = api.Message(err)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return
	}
	for _, fe := range apiErr.FieldErrors {
		for _, c := range m.controls {
			if c.field == fe.Field {
				m.errors[fe.Field] = fe.Message
			}
		}
	}
}

// View renders the form.
func (m EditorModel) View() string {
	var b strings.Builder
	noun, action := strings.TrimSuffix(string(m.resource), "s"), "create"
	if m.editID != "" {
		b.WriteString(TitleStyle.Render("Edit " + noun))
		action = "save"
	} else {
		b.WriteString(TitleStyle.Render("New " + noun))
	}
	b.WriteString("\n")
	for i, c := range m.controls {
		b.WriteString(c.view(i == m.focus, func(o string) bool { return m.checked[o] }, m.errors[c.field]))
		b.WriteString("\n")
	}
	if m.saving {
		b.WriteString(m.spinner.View() + " Saving...\n")
	}
	if m.errorMsg != "" {
		b.WriteString(ErrorStyle.Render(m.errorMsg) + "\n")
	}
	b.WriteString(HelpStyle.Render("tab next field • ←/→ choose • space toggle • ctrl+s " + action + " • esc cancel"))
	return b.String()
}

type editorSavedMsg struct {
	title string
	err   error
}
