package store

import (
	"testing"
	"time"

	"github.com/robby/learnhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestTracks() []domain.Track {
	return []domain.Track{
		{ID: "tr_fe", Name: "Frontend Development", Slug: "frontend-development", IsActive: true},
		{ID: "tr_be", Name: "Backend Development", Slug: "backend-development", IsActive: true},
		{ID: "tr_pd", Name: "Product Design", IsActive: false},
	}
}

func createTestCohorts() []domain.Cohort {
	return []domain.Cohort{
		{ID: "c4", Name: "Cohort 4", Number: 4},
		{
			ID:                  "c5",
			Name:                "Cohort 5",
			Number:              5,
			StartDate:           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:             time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			ApplicationDeadline: time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
			IsActive:            true,
		},
	}
}

func createTestStreams() []domain.Stream {
	return []domain.Stream{
		{ID: "s1", Title: "Welcome", Type: domain.StreamTypeAnnouncement},
		{ID: "s2", Title: "HTML basics", Type: domain.StreamTypeLesson, TrackID: "tr_fe"},
		{ID: "s3", Title: "Schedule change", Type: domain.StreamTypeUpdate, TrackID: "tr_gone"},
	}
}

func createTestStore() *Store {
	s := New()
	s.SetTracks(createTestTracks())
	s.SetCohorts(createTestCohorts())
	s.SetStreams(createTestStreams())
	return s
}

func rowIDs(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestNew(t *testing.T) {
	s := New()
	assert.Empty(t, s.Rows(ResourceCohorts))
	assert.Empty(t, s.CohortID())
	assert.True(t, s.TrackFilter().IsUnset())
}

func TestSetCohorts(t *testing.T) {
	t.Run("selects the active cohort", func(t *testing.T) {
		s := createTestStore()
		assert.Equal(t, "c5", s.CohortID())

		row, err := s.Get(ResourceCohorts, "c5")
		require.NoError(t, err)
		assert.Equal(t, "#5 · Mar 2025 to Sep 2025 · apply by 14 Feb 2025 · active", row.Subtitle)
	})

	t.Run("keeps a valid selection", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.SelectCohort("c4"))
		s.SetCohorts(createTestCohorts())
		assert.Equal(t, "c4", s.CohortID())
	})

	t.Run("falls back to first", func(t *testing.T) {
		s := New()
		s.SetCohorts([]domain.Cohort{{ID: "a"}, {ID: "b"}})
		assert.Equal(t, "a", s.CohortID())
	})

	t.Run("unknown cohort", func(t *testing.T) {
		s := createTestStore()
		assert.ErrorIs(t, s.SelectCohort("nope"), ErrNotFound)
	})
}

func TestSetTracks(t *testing.T) {
	s := createTestStore()

	assert.Equal(t, []string{"tr_be", "tr_fe", "tr_pd"}, rowIDs(s.Rows(ResourceTracks)))
	row, err := s.Get(ResourceTracks, "tr_pd")
	require.NoError(t, err)
	assert.Equal(t, "inactive ·", row.Subtitle)
	assert.Equal(t, "Frontend Development", s.TrackName("tr_fe"))
}

func TestStreamRows(t *testing.T) {
	s := createTestStore()
	rows := s.Rows(ResourceStreams)
	require.Len(t, rows, 3)
	assert.Equal(t, "announcement · all tracks", rows[0].Subtitle)
	assert.Equal(t, "lesson · Frontend Development", rows[1].Subtitle)
	assert.Equal(t, "update · tr_gone", rows[2].Subtitle)

	st, err := s.Stream("s2")
	require.NoError(t, err)
	assert.Equal(t, "HTML basics", st.Title)

	_, err = s.Task("s2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetUsers(t *testing.T) {
	s := createTestStore()
	err := s.SetUsers(ResourceMentors, []domain.User{
		{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", TrackID: "tr_be"},
	})
	require.NoError(t, err)

	rows := s.Rows(ResourceMentors)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada Lovelace", rows[0].Title)
	assert.Equal(t, "ada@example.com · Backend Development", rows[0].Subtitle)

	assert.ErrorIs(t, s.SetUsers(ResourceStreams, nil), ErrUnknownResource)
}

func TestCycleTrackFilter(t *testing.T) {
	s := createTestStore()

	var labels []string
	for i := 0; i < 4; i++ {
		s.CycleTrackFilter()
		labels = append(labels, s.TrackFilterLabel())
	}
	assert.Equal(t, []string{"Backend Development", "Frontend Development", "Product Design", "All tracks"}, labels)

	s.CycleTrackFilter()
	assert.Equal(t, "tr_be", s.TrackFilter().Value())

	// Dropping the filtered track resets the filter.
	s.SetTracks(createTestTracks()[:1])
	assert.True(t, s.TrackFilter().IsUnset())
}

func TestRemoveAndRollback(t *testing.T) {
	t.Run("rollback restores original index", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.Remove(ResourceStreams, "s2"))
		assert.Equal(t, []string{"s1", "s3"}, rowIDs(s.Rows(ResourceStreams)))

		require.NoError(t, s.Rollback(ResourceStreams, "s2"))
		assert.Equal(t, []string{"s1", "s2", "s3"}, rowIDs(s.Rows(ResourceStreams)))

		assert.ErrorIs(t, s.Rollback(ResourceStreams, "s2"), ErrNoRollback)
	})

	t.Run("commit forgets removal", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.Remove(ResourceStreams, "s1"))
		require.True(t, s.Pending(ResourceStreams, "s1"))
		s.Commit(ResourceStreams, "s1")
		assert.False(t, s.Pending(ResourceStreams, "s1"))
		assert.ErrorIs(t, s.Rollback(ResourceStreams, "s1"), ErrNoRollback)
		assert.Equal(t, []string{"s2", "s3"}, rowIDs(s.Rows(ResourceStreams)))
	})

	t.Run("rollback after list shrank", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.Remove(ResourceStreams, "s3"))
		s.SetStreams(createTestStreams()[:1])
		require.NoError(t, s.Rollback(ResourceStreams, "s3"))
		assert.Equal(t, []string{"s1", "s3"}, rowIDs(s.Rows(ResourceStreams)))
	})

	t.Run("tracks", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.Remove(ResourceTracks, "tr_fe"))
		assert.Empty(t, s.TrackName("tr_fe"))
		require.NoError(t, s.Rollback(ResourceTracks, "tr_fe"))
		assert.Equal(t, "Frontend Development", s.TrackName("tr_fe"))
	})

	t.Run("overlapping removals roll back independently", func(t *testing.T) {
		for _, order := range [][]string{{"s1", "s2"}, {"s2", "s1"}} {
			s := createTestStore()
			require.NoError(t, s.Remove(ResourceStreams, "s1"))
			require.NoError(t, s.Remove(ResourceStreams, "s2"))
			assert.Equal(t, []string{"s3"}, rowIDs(s.Rows(ResourceStreams)))

			require.NoError(t, s.Rollback(ResourceStreams, order[0]))
			require.NoError(t, s.Rollback(ResourceStreams, order[1]))
			assert.Equal(t, []string{"s1", "s2", "s3"}, rowIDs(s.Rows(ResourceStreams)), "order %v", order)
		}
	})

	t.Run("failed delete survives a committed neighbour", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.Remove(ResourceStreams, "s1"))
		require.NoError(t, s.Remove(ResourceStreams, "s2"))
		s.Commit(ResourceStreams, "s2")

		require.NoError(t, s.Rollback(ResourceStreams, "s1"))
		assert.Equal(t, []string{"s1", "s3"}, rowIDs(s.Rows(ResourceStreams)))
	})

	t.Run("rollback all", func(t *testing.T) {
		s := createTestStore()
		require.NoError(t, s.Remove(ResourceStreams, "s3"))
		require.NoError(t, s.Remove(ResourceTracks, "tr_fe"))
		s.RollbackAll()
		assert.Equal(t, []string{"s1", "s2", "s3"}, rowIDs(s.Rows(ResourceStreams)))
		assert.Equal(t, "Frontend Development", s.TrackName("tr_fe"))
	})

	t.Run("missing row", func(t *testing.T) {
		s := createTestStore()
		assert.ErrorIs(t, s.Remove(ResourceStreams, "zzz"), ErrNotFound)
	})
}

func TestRowsReturnsCopy(t *testing.T) {
	s := createTestStore()
	rows := s.Rows(ResourceStreams)
	rows[0].Title = "mutated"

	row, err := s.Get(ResourceStreams, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", row.Title)
}

func TestReset(t *testing.T) {
	s := createTestStore()
	s.SetViewer(domain.User{ID: "admin"})
	s.Reset()

	assert.Empty(t, s.Rows(ResourceStreams))
	assert.Empty(t, s.CohortID())
	assert.Empty(t, s.Viewer().ID)
}

func TestResourceHelpers(t *testing.T) {
	assert.Equal(t, "Students", ResourceStudents.Title())
	assert.True(t, ResourceTasks.Scoped())
	assert.False(t, ResourceMentors.Scoped())
	assert.Equal(t, domain.RoleStudent, ResourceStudents.Role())
}
