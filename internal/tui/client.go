package tui

import (
	"context"

	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/attach"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/wizard"
)

// ApplyClient is the part of the backend the applicant wizard uses.
// *api.Client implements it.
type ApplyClient interface {
	wizard.Applier
	CurrentActiveCohort(ctx context.Context) (domain.Cohort, error)
	ListTracks(ctx context.Context, activeOnly bool) ([]domain.Track, error)
}

// AdminClient is the part of the backend the admin dashboard uses.
// *api.Client implements it.
type AdminClient interface {
	attach.Uploader

	Login(ctx context.Context, email, password string) (string, domain.User, error)

	ListCohorts(ctx context.Context) ([]domain.Cohort, error)
	CreateCohort(ctx context.Context, in api.CohortInput) (domain.Cohort, error)
	UpdateCohort(ctx context.Context, id string, in api.CohortInput) (domain.Cohort, error)
	DeleteCohort(ctx context.Context, id string) error

	ListTracks(ctx context.Context, activeOnly bool) ([]domain.Track, error)
	CreateTrack(ctx context.Context, in api.TrackInput) (domain.Track, error)
	UpdateTrack(ctx context.Context, id string, in api.TrackInput) (domain.Track, error)
	DeleteTrack(ctx context.Context, id string) error

	ListUsers(ctx context.Context, role string) ([]domain.User, error)
	CreateUser(ctx context.Context, in api.UserInput) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListStreams(ctx context.Context, cohortID string, track domain.Choice) ([]domain.Stream, error)
	CreateStream(ctx context.Context, in api.StreamInput) (domain.Stream, error)
	UpdateStream(ctx context.Context, id string, in api.StreamInput) (domain.Stream, error)
	DeleteStream(ctx context.Context, id string) error

	ListTasks(ctx context.Context, cohortID string, track domain.Choice) ([]domain.Task, error)
	CreateTask(ctx context.Context, in api.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, in api.TaskInput) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListSubmissions(ctx context.Context, taskID string) ([]domain.Submission, error)
}

var (
	_ ApplyClient = (*api.Client)(nil)
	_ AdminClient = (*api.Client)(nil)
)
