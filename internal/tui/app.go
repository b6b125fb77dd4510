package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/learnhub/internal/auth"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AppScreen represents the different screens of the admin dashboard.
type AppScreen int

const (
	ScreenLogin AppScreen = iota
	ScreenLoading
	ScreenMenu
	ScreenBoard
	ScreenDetail
	ScreenEditor
	ScreenCohortPicker
	ScreenSubmissions
)

// Routes recorded on the session. None of them is public, so a 401 on any
// admin screen ends the session.
const (
	routeLogin = "/login"
	routeAdmin = "/admin"
)

// sessionExpiredNotice is shown on the login screen after a 401.
const sessionExpiredNotice = "Your session has expired. Please sign in again."

// AppConfig carries the dashboard's dependencies.
type AppConfig struct {
	Client         AdminClient
	Session        *auth.Session
	Store          *store.Store
	Logger         *zap.Logger
	Email          string // Pre-fills the login screen
	MaxAttachments int
}

// AppModel is the root Bubble Tea model of the admin dashboard.
// It orchestrates login -> menu -> list -> detail/create screens.
type AppModel struct {
	// Dependencies
	client  AdminClient
	session *auth.Session
	store   *store.Store
	ctx     context.Context
	logger  *zap.Logger

	email          string
	maxAttachments int

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	returnScreen  AppScreen // Screen to restore when a picker or the submissions list closes
	err           error
	loadingMsg    string

	// Cached models to preserve state across screen transitions
	boardModel  *BoardModel
	detailModel *DetailModel
}

// NewAppModel creates the dashboard. If the session already holds a token the
// login screen is skipped.
func NewAppModel(ctx context.Context, cfg AppConfig) AppModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := cfg.Store
	if s == nil {
		s = store.New()
	}
	return AppModel{
		client:         cfg.Client,
		session:        cfg.Session,
		store:          s,
		ctx:            ctx,
		logger:         logger,
		email:          cfg.Email,
		maxAttachments: cfg.MaxAttachments,
		currentScreen:  ScreenLoading,
		loadingMsg:     "Loading dashboard...",
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	if m.session.State() == auth.StateAuthenticated {
		m.session.SetRoute(routeAdmin)
		return m.bootstrap()
	}
	return func() tea.Msg { return showLoginMsg{} }
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.currentModel == nil {
			return m, tea.Quit
		}
		if m.err != nil {
			if msg.String() == "r" {
				m.err = nil
				m.currentScreen = ScreenLoading
				return m, m.bootstrap()
			}
			return m, nil
		}

	case ErrorMsg:
		m.err = msg.Err
		m.currentModel = nil
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case showLoginMsg:
		return m.showLogin("")

	case SessionExpiredMsg:
		// Deletes may still be pending; their rows come back before the store is dropped.
		m.store.RollbackAll()
		m.store.Reset()
		m.boardModel = nil
		m.detailModel = nil
		m.logger.Info("session expired")
		return m.showLogin(sessionExpiredNotice)

	case LoggedInMsg:
		m.store.SetViewer(msg.User)
		m.email = msg.User.Email
		m.logger.Info("signed in", zap.String("user_id", msg.User.ID))
		m.currentScreen = ScreenLoading
		m.currentModel = nil
		m.session.SetRoute(routeAdmin)
		return m, m.bootstrap()

	case bootstrapMsg:
		m.store.SetTracks(msg.tracks)
		m.store.SetCohorts(msg.cohorts)
		return m.showMenu()

	case ResourceSelectedMsg:
		return m.showBoard(msg.Resource)

	case openCohortPicker:
		m.returnScreen = m.currentScreen
		m.currentScreen = ScreenCohortPicker
		picker := NewCohortPickerModel(m.store.Cohorts(), m.store.CohortID())
		m.currentModel = picker
		return m, picker.Init()

	case CohortSelectedMsg:
		if err := m.store.SelectCohort(msg.CohortID); err != nil {
			m.logger.Warn("failed to select cohort", zap.Error(err))
		}
		if m.returnScreen == ScreenBoard && m.boardModel != nil {
			// Reload the list for the new scope
			return m.showBoard(m.boardModel.Resource())
		}
		return m.restore(m.returnScreen)

	case backMsg:
		switch m.currentScreen {
		case ScreenBoard:
			return m.showMenu()
		case ScreenCohortPicker, ScreenSubmissions:
			return m.restore(m.returnScreen)
		}
		return m, nil

	case openDetailMsg:
		return m.showDetail(msg.resource, msg.id)

	case closeDetailMsg:
		m.detailModel = nil
		if msg.changed && m.boardModel != nil {
			return m.showBoard(m.boardModel.Resource())
		}
		return m.restore(ScreenBoard)

	case openFormMsg:
		editor := NewEditorModel(msg.resource, m.store, m.client, m.ctx, m.logger)
		route := fmt.Sprintf("%s/%s/new", routeAdmin, msg.resource)
		if msg.id != "" {
			row, err := m.store.Get(msg.resource, msg.id)
			if err != nil {
				m.logger.Warn("failed to open editor", zap.Error(err))
				return m, nil
			}
			editor = NewEditModel(msg.resource, row, m.store, m.client, m.ctx, m.logger)
			route = fmt.Sprintf("%s/%s/%s/edit", routeAdmin, msg.resource, msg.id)
		}
		m.currentScreen = ScreenEditor
		m.currentModel = editor
		m.session.SetRoute(route)
		return m, editor.Init()

	case closeFormMsg:
		if !msg.created && !msg.updated {
			return m.restore(ScreenBoard)
		}
		verb, event := "Created", "created"
		if msg.updated {
			verb, event = "Updated", "updated"
		}
		m.logger.Info(event, zap.String("resource", string(msg.resource)), zap.String("title", msg.title))
		next, cmd := m.showBoard(msg.resource)
		app := next.(AppModel)
		if app.boardModel != nil {
			app.boardModel.notice = verb + " " + msg.title
			app.currentModel = *app.boardModel
		}
		return app, cmd

	case openSubmissionsMsg:
		task, err := m.store.Task(msg.taskID)
		if err != nil && m.detailModel != nil && m.detailModel.task.ID == msg.taskID {
			task, err = m.detailModel.task, nil
		}
		if err != nil {
			m.logger.Warn("failed to open submissions", zap.Error(err))
			return m, nil
		}
		m.returnScreen = m.currentScreen
		m.currentScreen = ScreenSubmissions
		subs := NewSubmissionsModel(task, m.client, m.ctx)
		m.currentModel = subs
		m.session.SetRoute(fmt.Sprintf("%s/tasks/%s/submissions", routeAdmin, task.ID))
		return m, subs.Init()
	}

	// A delete finishing after the list was left still settles the store
	if done, ok := msg.(deleteDoneMsg); ok && m.currentScreen != ScreenBoard {
		if done.err != nil {
			_ = m.store.Rollback(done.resource, done.id)
		} else {
			m.store.Commit(done.resource, done.id)
		}
		return m, nil
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep cached models in sync
		switch m.currentScreen {
		case ScreenBoard:
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		case ScreenDetail:
			if dm, ok := m.currentModel.(DetailModel); ok {
				m.detailModel = &dm
			}
		}
		return m, cmd
	}

	return m, nil
}

func (m AppModel) showLogin(notice string) (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenLogin
	m.session.SetRoute(routeLogin)
	login := NewLoginModel(m.client, m.session, m.ctx, m.email, notice)
	m.currentModel = login
	return m, login.Init()
}

func (m AppModel) showMenu() (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenMenu
	m.session.SetRoute(routeAdmin)
	menu := NewMenuModel(m.store)
	m.currentModel = menu
	return m, menu.Init()
}

// showBoard opens a fresh list for r, which reloads its rows.
func (m AppModel) showBoard(r store.Resource) (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenBoard
	m.session.SetRoute(fmt.Sprintf("%s/%s", routeAdmin, r))
	board := NewBoardModel(r, m.store, m.client, m.ctx, m.logger)
	m.boardModel = &board
	m.currentModel = board
	return m, board.Init()
}

func (m AppModel) showDetail(r store.Resource, id string) (tea.Model, tea.Cmd) {
	var detail DetailModel
	switch r {
	case store.ResourceStreams:
		s, err := m.store.Stream(id)
		if err != nil {
			m.logger.Warn("failed to open stream", zap.Error(err))
			return m, nil
		}
		detail = NewStreamDetailModel(s, m.client, m.ctx, m.logger, m.maxAttachments)
	case store.ResourceTasks:
		t, err := m.store.Task(id)
		if err != nil {
			m.logger.Warn("failed to open task", zap.Error(err))
			return m, nil
		}
		detail = NewTaskDetailModel(t, m.client, m.ctx, m.logger, m.maxAttachments)
	default:
		return m, nil
	}

	m.currentScreen = ScreenDetail
	m.session.SetRoute(fmt.Sprintf("%s/%s/%s", routeAdmin, r, id))
	m.detailModel = &detail
	m.currentModel = detail
	return m, detail.Init()
}

// restore returns to a cached screen without reloading it.
func (m AppModel) restore(screen AppScreen) (tea.Model, tea.Cmd) {
	switch {
	case screen == ScreenDetail && m.detailModel != nil:
		m.currentScreen = ScreenDetail
		m.currentModel = *m.detailModel
	case screen == ScreenBoard && m.boardModel != nil:
		m.currentScreen = ScreenBoard
		m.session.SetRoute(fmt.Sprintf("%s/%s", routeAdmin, m.boardModel.Resource()))
		m.currentModel = *m.boardModel
	default:
		return m.showMenu()
	}
	// Request window size to ensure proper rendering
	return m, tea.WindowSize()
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)) +
			"\n\n" + HelpStyle.Render("Press r to retry or Ctrl+C to quit")
	}
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}

// bootstrap loads the cohorts and tracks every screen depends on.
func (m AppModel) bootstrap() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		var (
			cohorts []domain.Cohort
			tracks  []domain.Track
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			c, err := client.ListCohorts(gctx)
			cohorts = c
			return err
		})
		g.Go(func() error {
			t, err := client.ListTracks(gctx, false)
			tracks = t
			return err
		})
		if err := g.Wait(); err != nil {
			return expiredOr(err, func(err error) tea.Msg {
				return ErrorMsg{Err: fmt.Errorf("failed to load dashboard: %w", err)}
			})
		}
		return bootstrapMsg{cohorts: cohorts, tracks: tracks}
	}
}

// Custom messages for app transitions.
type (
	showLoginMsg struct{}

	bootstrapMsg struct {
		cohorts []domain.Cohort
		tracks  []domain.Track
	}
)
