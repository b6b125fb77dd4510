package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeClient implements AdminClient and ApplyClient in memory.
type fakeClient struct {
	mu sync.Mutex

	active      domain.Cohort
	cohorts     []domain.Cohort
	tracks      []domain.Track
	users       []domain.User
	streams     []domain.Stream
	tasks       []domain.Task
	submissions []domain.Submission

	loginErr  error
	listErr   error
	deleteErr error
	createErr error
	applyErr  error

	applyCalls    int
	uploads       int
	deleted       []string
	trackQueries  []domain.Choice
	createdTrack  api.TrackInput
	createdUser   api.UserInput
	updatedID     string
	updatedCohort api.CohortInput
	updatedTrack  api.TrackInput
	updatedStream api.StreamInput
	updatedTask   api.TaskInput
}

func (f *fakeClient) record(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func (f *fakeClient) Login(_ context.Context, email, _ string) (string, domain.User, error) {
	if f.loginErr != nil {
		return "", domain.User{}, f.loginErr
	}
	return "tok-123", domain.User{ID: "u1", FirstName: "Grace", LastName: "Hopper", Email: email, Role: domain.RoleAdmin}, nil
}

func (f *fakeClient) CurrentActiveCohort(context.Context) (domain.Cohort, error) {
	return f.active, f.listErr
}

func (f *fakeClient) ListCohorts(context.Context) ([]domain.Cohort, error) {
	return f.cohorts, f.listErr
}

func (f *fakeClient) CreateCohort(_ context.Context, in api.CohortInput) (domain.Cohort, error) {
	return domain.Cohort{ID: "new", Name: in.Name}, f.createErr
}

func (f *fakeClient) UpdateCohort(_ context.Context, id string, in api.CohortInput) (domain.Cohort, error) {
	f.record(func() { f.updatedID, f.updatedCohort = id, in })
	if f.createErr != nil {
		return domain.Cohort{}, f.createErr
	}
	return domain.Cohort{ID: id, Name: in.Name, Number: in.Number}, nil
}

func (f *fakeClient) DeleteCohort(_ context.Context, id string) error {
	return f.delete(id)
}

func (f *fakeClient) ListTracks(context.Context, bool) ([]domain.Track, error) {
	return f.tracks, f.listErr
}

func (f *fakeClient) CreateTrack(_ context.Context, in api.TrackInput) (domain.Track, error) {
	f.record(func() { f.createdTrack = in })
	if f.createErr != nil {
		return domain.Track{}, f.createErr
	}
	return domain.Track{ID: "new", Name: in.Name}, nil
}

func (f *fakeClient) UpdateTrack(_ context.Context, id string, in api.TrackInput) (domain.Track, error) {
	f.record(func() { f.updatedID, f.updatedTrack = id, in })
	if f.createErr != nil {
		return domain.Track{}, f.createErr
	}
	return domain.Track{ID: id, Name: in.Name}, nil
}

func (f *fakeClient) DeleteTrack(_ context.Context, id string) error {
	return f.delete(id)
}

func (f *fakeClient) ListUsers(_ context.Context, role string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, f.listErr
}

func (f *fakeClient) CreateUser(_ context.Context, in api.UserInput) (domain.User, error) {
	f.record(func() { f.createdUser = in })
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	return domain.User{ID: "new", FirstName: in.FirstName, LastName: in.LastName}, nil
}

func (f *fakeClient) DeleteUser(_ context.Context, id string) error {
	return f.delete(id)
}

func (f *fakeClient) ListStreams(_ context.Context, _ string, track domain.Choice) ([]domain.Stream, error) {
	f.record(func() { f.trackQueries = append(f.trackQueries, track) })
	return f.streams, f.listErr
}

func (f *fakeClient) CreateStream(_ context.Context, in api.StreamInput) (domain.Stream, error) {
	return domain.Stream{ID: "new", Title: in.Title}, f.createErr
}

func (f *fakeClient) UpdateStream(_ context.Context, id string, in api.StreamInput) (domain.Stream, error) {
	f.record(func() { f.updatedStream = in })
	return domain.Stream{ID: id, Title: in.Title, Content: in.Content, Type: in.Type, Attachments: in.Attachments}, nil
}

func (f *fakeClient) DeleteStream(_ context.Context, id string) error {
	return f.delete(id)
}

func (f *fakeClient) ListTasks(_ context.Context, _ string, track domain.Choice) ([]domain.Task, error) {
	f.record(func() { f.trackQueries = append(f.trackQueries, track) })
	return f.tasks, f.listErr
}

func (f *fakeClient) CreateTask(_ context.Context, in api.TaskInput) (domain.Task, error) {
	return domain.Task{ID: "new", Title: in.Title}, f.createErr
}

func (f *fakeClient) UpdateTask(_ context.Context, id string, in api.TaskInput) (domain.Task, error) {
	f.record(func() { f.updatedTask = in })
	return domain.Task{ID: id, Title: in.Title, Description: in.Description, Type: in.Type, Resources: in.Resources}, nil
}

func (f *fakeClient) DeleteTask(_ context.Context, id string) error {
	return f.delete(id)
}

func (f *fakeClient) ListSubmissions(context.Context, string) ([]domain.Submission, error) {
	return f.submissions, f.listErr
}

func (f *fakeClient) UploadFile(_ context.Context, file *domain.LocalFile, progress api.ProgressFunc) (domain.Attachment, error) {
	f.record(func() { f.uploads++ })
	if progress != nil {
		progress(50)
		progress(100)
	}
	return domain.Attachment{
		Kind:     domain.AttachmentFile,
		URL:      "https://files.example.com/" + file.Name,
		Title:    file.Name,
		MimeType: file.MimeType,
		Size:     file.Size,
	}, nil
}

func (f *fakeClient) Apply(_ context.Context, body io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.record(func() { f.applyCalls++ })
	if f.applyErr != nil {
		return "", f.applyErr
	}
	return "Application received", nil
}

func (f *fakeClient) delete(id string) error {
	f.record(func() { f.deleted = append(f.deleted, id) })
	return f.deleteErr
}

// keyPress builds the tea.KeyMsg for a key name as bubbletea reports it.
func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+h":
		return tea.KeyMsg{Type: tea.KeyCtrlH}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// collect runs cmd and any batched commands, returning their messages in order.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// findMsg returns the first message of type T.
func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// createTestStore creates a store with two tracks and one cohort.
func createTestStore() *store.Store {
	s := store.New()
	s.SetTracks([]domain.Track{
		{ID: "tr1", Name: "Frontend Development", Slug: "frontend-development", IsActive: true},
		{ID: "tr2", Name: "Product Design", Slug: "product-design", IsActive: true},
	})
	s.SetCohorts([]domain.Cohort{{ID: "c5", Name: "Cohort 5", Number: 5, IsActive: true}})
	return s
}

func createTestBoard(t *testing.T, r store.Resource, s *store.Store, client *fakeClient) BoardModel {
	t.Helper()
	board := NewBoardModel(r, s, client, context.Background(), zaptest.NewLogger(t))
	next, _ := board.Update(board.load()())
	return next.(BoardModel)
}

func press(t *testing.T, m BoardModel, keys ...string) (BoardModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyPress(k))
		m = next.(BoardModel)
	}
	return m, cmd
}

func threeTracks() []domain.Track {
	return []domain.Track{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Beta"},
		{ID: "g", Name: "Gamma"},
	}
}

func rowIDs(rows []store.Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestBoardModel_Load(t *testing.T) {
	client := &fakeClient{tracks: threeTracks()}
	s := createTestStore()
	board := createTestBoard(t, store.ResourceTracks, s, client)

	assert.False(t, board.loading)
	assert.Equal(t, []string{"a", "b", "g"}, rowIDs(s.Rows(store.ResourceTracks)))
	assert.Contains(t, board.View(), "Beta")
}

func TestBoardModel_LoadError(t *testing.T) {
	client := &fakeClient{listErr: &api.Error{StatusCode: 403, Message: "Forbidden"}}
	board := createTestBoard(t, store.ResourceMentors, createTestStore(), client)

	assert.Equal(t, "Load failed: Forbidden", board.errorToast)
}

func TestBoardModel_Navigation(t *testing.T) {
	client := &fakeClient{tracks: threeTracks()}
	board := createTestBoard(t, store.ResourceTracks, createTestStore(), client)

	board, _ = press(t, board, "j", "j")
	assert.Equal(t, 2, board.selected)

	board, _ = press(t, board, "k")
	assert.Equal(t, 1, board.selected)

	board, _ = press(t, board, "j", "j", "j", "j")
	assert.Equal(t, 2, board.selected, "selection stops at the last row")

	board, _ = press(t, board, "up", "up", "up")
	assert.Equal(t, 0, board.selected, "selection stops at the first row")
}

func TestBoardModel_Delete(t *testing.T) {
	t.Run("failure restores the row at its index", func(t *testing.T) {
		client := &fakeClient{tracks: threeTracks(), deleteErr: &api.Error{StatusCode: 500, Message: "boom"}}
		s := createTestStore()
		board := createTestBoard(t, store.ResourceTracks, s, client)

		board, _ = press(t, board, "j", "d")
		require.True(t, board.confirmDelete)
		board, cmd := press(t, board, "y")
		require.NotNil(t, cmd)

		// Removed before the request completes
		assert.Equal(t, []string{"a", "g"}, rowIDs(s.Rows(store.ResourceTracks)))

		next, _ := board.Update(cmd())
		board = next.(BoardModel)

		assert.Equal(t, []string{"a", "b", "g"}, rowIDs(s.Rows(store.ResourceTracks)))
		assert.Equal(t, "Beta", s.TrackName("b"))
		assert.Contains(t, board.errorToast, "Delete failed")
		assert.Equal(t, []string{"b"}, client.deleted)
	})

	t.Run("success commits", func(t *testing.T) {
		client := &fakeClient{tracks: threeTracks()}
		s := createTestStore()
		board := createTestBoard(t, store.ResourceTracks, s, client)

		board, cmd := press(t, board, "d", "y")
		next, _ := board.Update(cmd())
		board = next.(BoardModel)

		assert.Equal(t, []string{"b", "g"}, rowIDs(s.Rows(store.ResourceTracks)))
		assert.Equal(t, "Deleted Alpha", board.notice)
		assert.False(t, s.Pending(store.ResourceTracks, "a"))
		assert.ErrorIs(t, s.Rollback(store.ResourceTracks, "a"), store.ErrNoRollback)
	})

	t.Run("overlapping deletes settle independently", func(t *testing.T) {
		client := &fakeClient{tracks: threeTracks()}
		s := createTestStore()
		board := createTestBoard(t, store.ResourceTracks, s, client)

		board, deleteA := press(t, board, "d", "y")
		board, deleteB := press(t, board, "d", "y")
		require.NotNil(t, deleteA)
		require.NotNil(t, deleteB)
		assert.Equal(t, []string{"g"}, rowIDs(s.Rows(store.ResourceTracks)))

		// B succeeds first, then A fails
		next, _ := board.Update(deleteB())
		board = next.(BoardModel)
		client.deleteErr = &api.Error{StatusCode: 500, Message: "boom"}
		next, _ = board.Update(deleteA())
		board = next.(BoardModel)

		assert.Equal(t, []string{"a", "g"}, rowIDs(s.Rows(store.ResourceTracks)))
		assert.Equal(t, "Alpha", s.TrackName("a"))
		assert.Empty(t, s.TrackName("b"))
		assert.Contains(t, board.errorToast, "Delete failed")
		assert.Equal(t, []string{"b", "a"}, client.deleted)
	})

	t.Run("declined confirmation keeps the row", func(t *testing.T) {
		client := &fakeClient{tracks: threeTracks()}
		s := createTestStore()
		board := createTestBoard(t, store.ResourceTracks, s, client)

		board, cmd := press(t, board, "d", "n")
		assert.Nil(t, cmd)
		assert.False(t, board.confirmDelete)
		assert.Len(t, s.Rows(store.ResourceTracks), 3)
		assert.Empty(t, client.deleted)
	})

	t.Run("expired session", func(t *testing.T) {
		client := &fakeClient{
			tracks:    threeTracks(),
			deleteErr: &api.Error{StatusCode: 401, Message: "jwt expired", SessionExpired: true},
		}
		board := createTestBoard(t, store.ResourceTracks, createTestStore(), client)

		_, cmd := press(t, board, "d", "y")
		assert.IsType(t, SessionExpiredMsg{}, cmd())
	})
}

func TestBoardModel_TrackFilter(t *testing.T) {
	client := &fakeClient{streams: []domain.Stream{{ID: "s1", Title: "Welcome", Type: domain.StreamTypeAnnouncement}}}
	s := createTestStore()
	board := createTestBoard(t, store.ResourceStreams, s, client)
	require.Len(t, client.trackQueries, 1)
	assert.True(t, client.trackQueries[0].IsUnset())

	board, cmd := press(t, board, "t")
	msg, ok := findMsg[rowsLoadedMsg](collect(cmd))
	require.True(t, ok)
	next, _ := board.Update(msg)
	board = next.(BoardModel)

	assert.Equal(t, domain.Specific("tr1"), client.trackQueries[1])
	assert.Contains(t, board.View(), "Track: Frontend Development")

	board, _ = press(t, board, "t")
	board, _ = press(t, board, "t")
	assert.True(t, s.TrackFilter().IsUnset())
	assert.Contains(t, board.View(), "Track: All tracks")
}

func TestBoardModel_TrackFilterIgnoredForUnscoped(t *testing.T) {
	client := &fakeClient{tracks: threeTracks()}
	s := createTestStore()
	board := createTestBoard(t, store.ResourceTracks, s, client)

	_, cmd := press(t, board, "t")
	assert.Nil(t, cmd)
	assert.True(t, s.TrackFilter().IsUnset())
}

func TestBoardModel_NoCohort(t *testing.T) {
	client := &fakeClient{}
	board := createTestBoard(t, store.ResourceTasks, store.New(), client)

	assert.Contains(t, board.errorToast, errNoCohort.Error())
	assert.Empty(t, client.trackQueries, "no request without a cohort")
}

func TestBoardModel_Open(t *testing.T) {
	client := &fakeClient{tasks: []domain.Task{{ID: "t1", Title: "Build a landing page"}}}
	board := createTestBoard(t, store.ResourceTasks, createTestStore(), client)

	_, cmd := press(t, board, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, openDetailMsg{resource: store.ResourceTasks, id: "t1"}, cmd())

	_, cmd = press(t, board, "s")
	require.NotNil(t, cmd)
	assert.Equal(t, openSubmissionsMsg{taskID: "t1"}, cmd())

	_, cmd = press(t, board, "n")
	require.NotNil(t, cmd)
	assert.Equal(t, openFormMsg{resource: store.ResourceTasks}, cmd())
}

func TestBoardModel_OpenIgnoredForUnscoped(t *testing.T) {
	client := &fakeClient{tracks: threeTracks()}
	board := createTestBoard(t, store.ResourceTracks, createTestStore(), client)

	_, cmd := press(t, board, "enter")
	assert.Nil(t, cmd)
}

func TestBoardModel_Edit(t *testing.T) {
	client := &fakeClient{tracks: threeTracks()}
	board := createTestBoard(t, store.ResourceTracks, createTestStore(), client)

	_, cmd := press(t, board, "j", "e")
	require.NotNil(t, cmd)
	assert.Equal(t, openFormMsg{resource: store.ResourceTracks, id: "b"}, cmd())

	t.Run("streams are edited in the detail view", func(t *testing.T) {
		client := &fakeClient{streams: []domain.Stream{{ID: "s1", Title: "Welcome"}}}
		board := createTestBoard(t, store.ResourceStreams, createTestStore(), client)
		_, cmd := press(t, board, "e")
		assert.Nil(t, cmd)
	})
}

func TestBoardModel_BackAndHelp(t *testing.T) {
	board := createTestBoard(t, store.ResourceTracks, createTestStore(), &fakeClient{})

	board, _ = press(t, board, "?")
	assert.True(t, board.showHelp)
	board, cmd := press(t, board, "?")
	assert.False(t, board.showHelp)
	assert.Nil(t, cmd)

	_, cmd = press(t, board, "esc")
	require.NotNil(t, cmd)
	assert.Equal(t, backMsg{}, cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("x", 100), 20), "…"))
}

func TestExpiredOr(t *testing.T) {
	fallback := func(err error) tea.Msg { return ErrorMsg{Err: err} }

	expired := &api.Error{StatusCode: 401, SessionExpired: true}
	assert.Equal(t, SessionExpiredMsg{}, expiredOr(expired, fallback))

	other := errors.New("boom")
	assert.Equal(t, ErrorMsg{Err: other}, expiredOr(other, fallback))
}
