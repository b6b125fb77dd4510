package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/robby/learnhub/internal/domain"
)

// Login exchanges credentials for a bearer token.
// The caller decides whether to start a session with it.
func (c *Client) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to log in: %w", err)
	}

	data := env.Get("data")
	token := firstString(data, "token", "accessToken")
	if token == "" {
		return "", domain.User{}, errors.New("failed to log in: response carried no token")
	}
	return token, decodeUser(objectOf(data, "user")), nil
}

// CurrentActiveCohort fetches the cohort currently accepting applications.
func (c *Client) CurrentActiveCohort(ctx context.Context) (domain.Cohort, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/cohorts/current-active", nil, nil)
	if err != nil {
		return domain.Cohort{}, fmt.Errorf("failed to get active cohort: %w", err)
	}
	cohort := decodeCohort(objectOf(env.Get("data"), "cohort"))
	if cohort.ID == "" {
		return domain.Cohort{}, errors.New("no active cohort")
	}
	return cohort, nil
}

// CohortInput is the payload for creating or updating a cohort.
type CohortInput struct {
	Name                string    `json:"name"`
	Number              int       `json:"cohortNumber"`
	StartDate           time.Time `json:"startDate"`
	EndDate             time.Time `json:"endDate"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
	TrackIDs            []string  `json:"tracks,omitempty"`
	IsActive            bool      `json:"isActive"`
}

// ListCohorts returns all cohorts.
func (c *Client) ListCohorts(ctx context.Context) ([]domain.Cohort, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/cohorts", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cohorts: %w", err)
	}
	items := listOf(env.Get("data"), "cohorts")
	cohorts := make([]domain.Cohort, 0, len(items))
	for _, item := range items {
		cohorts = append(cohorts, decodeCohort(item))
	}
	return cohorts, nil
}

// CreateCohort creates a cohort.
func (c *Client) CreateCohort(ctx context.Context, in CohortInput) (domain.Cohort, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/cohorts", nil, in)
	if err != nil {
		return domain.Cohort{}, fmt.Errorf("failed to create cohort: %w", err)
	}
	return decodeCohort(objectOf(env.Get("data"), "cohort")), nil
}

// UpdateCohort replaces a cohort's editable fields.
func (c *Client) UpdateCohort(ctx context.Context, id string, in CohortInput) (domain.Cohort, error) {
	env, err := c.doJSON(ctx, http.MethodPut, "/cohorts/"+url.PathEscape(id), nil, in)
	if err != nil {
		return domain.Cohort{}, fmt.Errorf("failed to update cohort: %w", err)
	}
	return decodeCohort(objectOf(env.Get("data"), "cohort")), nil
}

// DeleteCohort deletes a cohort.
func (c *Client) DeleteCohort(ctx context.Context, id string) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, "/cohorts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete cohort: %w", err)
	}
	return nil
}

// TrackInput is the payload for creating or updating a track.
type TrackInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// ListTracks returns all tracks, or only active ones.
func (c *Client) ListTracks(ctx context.Context, activeOnly bool) ([]domain.Track, error) {
	path := "/tracks"
	if activeOnly {
		path = "/tracks/active"
	}
	env, err := c.doJSON(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return decodeTracks(listOf(env.Get("data"), "tracks")), nil
}

// CreateTrack creates a track.
func (c *Client) CreateTrack(ctx context.Context, in TrackInput) (domain.Track, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/tracks", nil, in)
	if err != nil {
		return domain.Track{}, fmt.Errorf("failed to create track: %w", err)
	}
	return decodeTrack(objectOf(env.Get("data"), "track")), nil
}

// UpdateTrack replaces a track's editable fields.
func (c *Client) UpdateTrack(ctx context.Context, id string, in TrackInput) (domain.Track, error) {
	env, err := c.doJSON(ctx, http.MethodPut, "/tracks/"+url.PathEscape(id), nil, in)
	if err != nil {
		return domain.Track{}, fmt.Errorf("failed to update track: %w", err)
	}
	return decodeTrack(objectOf(env.Get("data"), "track")), nil
}

// DeleteTrack deletes a track.
func (c *Client) DeleteTrack(ctx context.Context, id string) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, "/tracks/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return nil
}

// UserInput is the payload for creating a mentor or student account.
type UserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TrackID   string `json:"track,omitempty"`
	CohortID  string `json:"cohort,omitempty"`
}

// ListUsers returns users with the given role (empty for all).
func (c *Client) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	var query url.Values
	if role != "" {
		query = url.Values{"role": {role}}
	}
	env, err := c.doJSON(ctx, http.MethodGet, "/users", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	items := listOf(env.Get("data"), "users")
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		users = append(users, decodeUser(item))
	}
	return users, nil
}

// CreateUser creates an account.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (domain.User, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/users", nil, in)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return decodeUser(objectOf(env.Get("data"), "user")), nil
}

// DeleteUser deletes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
