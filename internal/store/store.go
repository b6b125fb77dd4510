// Package store provides the in-memory state of the admin dashboard.
// It keeps the fetched resource lists, the cohort and track scope used to fetch
// streams and tasks, and the rollback state for optimistic deletes.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robby/learnhub/internal/domain"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRollback indicates there is no pending removal to undo.
	ErrNoRollback = errors.New("no rollback state available")
	// ErrUnknownResource indicates an unsupported resource kind.
	ErrUnknownResource = errors.New("unknown resource")
)

// Resource names one of the dashboard lists.
type Resource string

// Resources managed by the dashboard.
const (
	ResourceCohorts  Resource = "cohorts"
	ResourceTracks   Resource = "tracks"
	ResourceMentors  Resource = "mentors"
	ResourceStudents Resource = "students"
	ResourceStreams  Resource = "streams"
	ResourceTasks    Resource = "tasks"
)

// Resources in menu order.
var Resources = []Resource{
	ResourceCohorts, ResourceTracks, ResourceMentors, ResourceStudents, ResourceStreams, ResourceTasks,
}

// Title returns the menu label.
func (r Resource) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// Scoped reports whether the list depends on the selected cohort and track filter.
func (r Resource) Scoped() bool {
	return r == ResourceStreams || r == ResourceTasks
}

// Role returns the user role listed by r, or "".
func (r Resource) Role() string {
	switch r {
	case ResourceMentors:
		return domain.RoleMentor
	case ResourceStudents:
		return domain.RoleStudent
	}
	return ""
}

// Row is one list entry. Value holds the domain value it was built from.
type Row struct {
	ID       string
	Title    string
	Subtitle string
	Value    interface{}
}

type removalKey struct {
	resource Resource
	id       string
}

// removal remembers a deleted row and the ids that followed it, so it can be
// put back in place even when other rows were removed meanwhile.
type removal struct {
	row  Row
	next []string
}

// Store manages dashboard state. It is owned by the UI update loop.
type Store struct {
	viewer  domain.User
	rows    map[Resource][]Row
	tracks  map[string]domain.Track
	cohorts []domain.Cohort

	cohortID    string
	trackFilter domain.Choice

	// Rollback state for optimistic deletes still in flight
	pending map[removalKey]removal
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		rows:    make(map[Resource][]Row),
		tracks:  make(map[string]domain.Track),
		pending: make(map[removalKey]removal),
	}
}

// SetViewer records the signed-in user.
func (s *Store) SetViewer(u domain.User) {
	s.viewer = u
}

// Viewer returns the signed-in user.
func (s *Store) Viewer() domain.User {
	return s.viewer
}

// SetCohorts replaces the cohort list. If no cohort is selected yet, or the
// selected one is gone, the active cohort (else the first) is selected.
func (s *Store) SetCohorts(cohorts []domain.Cohort) {
	s.cohorts = append([]domain.Cohort(nil), cohorts...)
	rows := make([]Row, 0, len(cohorts))
	found := false
	for _, c := range cohorts {
		rows = append(rows, Row{ID: c.ID, Title: c.Name, Subtitle: cohortSubtitle(c), Value: c})
		if c.ID == s.cohortID {
			found = true
		}
	}
	s.rows[ResourceCohorts] = rows

	if !found {
		s.cohortID = ""
		for _, c := range cohorts {
			if c.IsActive {
				s.cohortID = c.ID
				break
			}
		}
		if s.cohortID == "" && len(cohorts) > 0 {
			s.cohortID = cohorts[0].ID
		}
	}
}

// SetTracks replaces the track list.
func (s *Store) SetTracks(tracks []domain.Track) {
	s.tracks = make(map[string]domain.Track, len(tracks))
	rows := make([]Row, 0, len(tracks))
	for _, t := range tracks {
		s.tracks[t.ID] = t
		sub := t.Description
		if !t.IsActive {
			sub = strings.TrimSpace("inactive · " + sub)
		}
		rows = append(rows, Row{ID: t.ID, Title: t.Name, Subtitle: sub, Value: t})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Title < rows[j].Title })
	s.rows[ResourceTracks] = rows

	if id := s.trackFilter.Value(); id != "" {
		if _, ok := s.tracks[id]; !ok {
			s.trackFilter = domain.Unset()
		}
	}
}

// SetUsers replaces the mentor or student list.
func (s *Store) SetUsers(r Resource, users []domain.User) error {
	if r.Role() == "" {
		return fmt.Errorf("%w: %s", ErrUnknownResource, r)
	}
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		sub := u.Email
		if name := s.TrackName(u.TrackID); name != "" {
			sub += " · " + name
		}
		rows = append(rows, Row{ID: u.ID, Title: u.FullName(), Subtitle: sub, Value: u})
	}
	s.rows[r] = rows
	return nil
}

// SetStreams replaces the stream list.
func (s *Store) SetStreams(streams []domain.Stream) {
	rows := make([]Row, 0, len(streams))
	for _, st := range streams {
		parts := []string{st.Type, s.trackLabel(st.TrackID)}
		if !st.CreatedAt.IsZero() {
			parts = append(parts, st.CreatedAt.Format("2 Jan 2006"))
		}
		rows = append(rows, Row{ID: st.ID, Title: st.Title, Subtitle: joinNonEmpty(parts), Value: st})
	}
	s.rows[ResourceStreams] = rows
}

// SetTasks replaces the task list.
func (s *Store) SetTasks(tasks []domain.Task) {
	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		parts := []string{t.Type, s.trackLabel(t.TrackID)}
		if !t.DueDate.IsZero() {
			parts = append(parts, "due "+t.DueDate.Format("2 Jan 2006"))
		}
		if t.MaxScore > 0 {
			parts = append(parts, fmt.Sprintf("%d pts", t.MaxScore))
		}
		rows = append(rows, Row{ID: t.ID, Title: t.Title, Subtitle: joinNonEmpty(parts), Value: t})
	}
	s.rows[ResourceTasks] = rows
}

// Rows returns a copy of the rows of r.
func (s *Store) Rows(r Resource) []Row {
	rows := s.rows[r]
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// Get returns the row with id in r.
func (s *Store) Get(r Resource, id string) (Row, error) {
	for _, row := range s.rows[r] {
		if row.ID == id {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("%w: %s %s", ErrNotFound, r, id)
}

// Stream returns a stream by ID.
func (s *Store) Stream(id string) (domain.Stream, error) {
	row, err := s.Get(ResourceStreams, id)
	if err != nil {
		return domain.Stream{}, err
	}
	return row.Value.(domain.Stream), nil
}

// Task returns a task by ID.
func (s *Store) Task(id string) (domain.Task, error) {
	row, err := s.Get(ResourceTasks, id)
	if err != nil {
		return domain.Task{}, err
	}
	return row.Value.(domain.Task), nil
}

// Tracks returns the known tracks sorted by name.
func (s *Store) Tracks() []domain.Track {
	tracks := make([]domain.Track, 0, len(s.tracks))
	for _, row := range s.rows[ResourceTracks] {
		tracks = append(tracks, row.Value.(domain.Track))
	}
	return tracks
}

// TrackName returns the name of track id, or "" if unknown.
func (s *Store) TrackName(id string) string {
	return s.tracks[id].Name
}

func (s *Store) trackLabel(id string) string {
	if id == "" {
		return "all tracks"
	}
	if name := s.TrackName(id); name != "" {
		return name
	}
	return id
}

// Cohorts returns the cohort list.
func (s *Store) Cohorts() []domain.Cohort {
	return append([]domain.Cohort(nil), s.cohorts...)
}

// CohortID returns the selected cohort.
func (s *Store) CohortID() string {
	return s.cohortID
}

// SelectCohort selects a cohort by ID.
func (s *Store) SelectCohort(id string) error {
	for _, c := range s.cohorts {
		if c.ID == id {
			s.cohortID = id
			return nil
		}
	}
	return fmt.Errorf("%w: cohort %s", ErrNotFound, id)
}

// TrackFilter returns the track filter applied to streams and tasks.
func (s *Store) TrackFilter() domain.Choice {
	return s.trackFilter
}

// TrackFilterLabel renders the filter for display.
func (s *Store) TrackFilterLabel() string {
	if s.trackFilter.IsUnset() {
		return "All tracks"
	}
	return s.trackLabel(s.trackFilter.Value())
}

// CycleTrackFilter moves the filter to the next option: all tracks, then each
// track by name, then back to all.
func (s *Store) CycleTrackFilter() domain.Choice {
	tracks := s.Tracks()
	if len(tracks) == 0 {
		s.trackFilter = domain.Unset()
		return s.trackFilter
	}
	if s.trackFilter.IsUnset() {
		s.trackFilter = domain.Specific(tracks[0].ID)
		return s.trackFilter
	}
	for i, t := range tracks {
		if t.ID == s.trackFilter.Value() && i+1 < len(tracks) {
			s.trackFilter = domain.Specific(tracks[i+1].ID)
			return s.trackFilter
		}
	}
	s.trackFilter = domain.Unset()
	return s.trackFilter
}

// Remove optimistically removes the row id from r. The removal can be undone
// with Rollback(r, id) until Commit(r, id). Removals of different rows are
// tracked independently.
func (s *Store) Remove(r Resource, id string) error {
	rows := s.rows[r]
	for i, row := range rows {
		if row.ID != id {
			continue
		}
		next := make([]string, 0, len(rows)-i-1)
		for _, after := range rows[i+1:] {
			next = append(next, after.ID)
		}
		s.pending[removalKey{r, id}] = removal{row: row, next: next}
		s.rows[r] = append(rows[:i:i], rows[i+1:]...)
		if r == ResourceTracks {
			delete(s.tracks, id)
		}
		return nil
	}
	return fmt.Errorf("%w: %s %s", ErrNotFound, r, id)
}

// Pending reports whether a removal of id from r awaits Commit or Rollback.
func (s *Store) Pending(r Resource, id string) bool {
	_, ok := s.pending[removalKey{r, id}]
	return ok
}

// Rollback reinserts the removed row id at its original position: before the
// first row that followed it and is still listed.
// It should be called when the delete request fails.
func (s *Store) Rollback(r Resource, id string) error {
	k := removalKey{r, id}
	p, ok := s.pending[k]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNoRollback, r, id)
	}
	delete(s.pending, k)

	rows := s.rows[r]
	idx := len(rows)
	for _, nextID := range p.next {
		if i := indexOf(rows, nextID); i >= 0 {
			idx = i
			break
		}
	}
	restored := make([]Row, 0, len(rows)+1)
	restored = append(restored, rows[:idx]...)
	restored = append(restored, p.row)
	restored = append(restored, rows[idx:]...)
	s.rows[r] = restored

	if r == ResourceTracks {
		s.tracks[p.row.ID] = p.row.Value.(domain.Track)
	}
	return nil
}

// RollbackAll restores every pending removal.
func (s *Store) RollbackAll() {
	for k := range s.pending {
		_ = s.Rollback(k.resource, k.id)
	}
}

// Commit drops the rollback state of id once its delete succeeded.
func (s *Store) Commit(r Resource, id string) {
	delete(s.pending, removalKey{r, id})
}

func indexOf(rows []Row, id string) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// Reset clears everything, e.g. on logout.
func (s *Store) Reset() {
	*s = *New()
}

func cohortSubtitle(c domain.Cohort) string {
	parts := []string{}
	if c.Number > 0 {
		parts = append(parts, fmt.Sprintf("#%d", c.Number))
	}
	if !c.StartDate.IsZero() {
		parts = append(parts, c.StartDate.Format("Jan 2006")+" to "+formatOr(c.EndDate, "?"))
	}
	if !c.ApplicationDeadline.IsZero() {
		parts = append(parts, "apply by "+c.ApplicationDeadline.Format("2 Jan 2006"))
	}
	if c.IsActive {
		parts = append(parts, "active")
	}
	return joinNonEmpty(parts)
}

func formatOr(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.Format("Jan 2006")
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}
