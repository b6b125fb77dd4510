package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/robby/learnhub/internal/domain"
)

type fileJSON struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Size  int64  `json:"size"`
}

type linkJSON struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// splitAttachments separates files from links for the wire format.
func splitAttachments(items []domain.Attachment) ([]fileJSON, []linkJSON) {
	files := []fileJSON{}
	links := []linkJSON{}
	for _, a := range items {
		if a.Kind == domain.AttachmentFile {
			files = append(files, fileJSON{URL: a.URL, Title: a.Title, Type: a.MimeType, Size: a.Size})
			continue
		}
		links = append(links, linkJSON{URL: a.URL, Title: a.Title, Description: a.Description, IsRequired: a.IsRequired})
	}
	return files, links
}

// scopeQuery builds the cohort/track filter. An unset track means all tracks.
func scopeQuery(cohortID string, track domain.Choice) url.Values {
	q := url.Values{}
	if cohortID != "" {
		q.Set("cohortId", cohortID)
	}
	if v := track.Value(); v != "" {
		q.Set("trackId", v)
	}
	return q
}

// StreamInput is the payload for creating or updating a stream post.
type StreamInput struct {
	Title       string
	Content     string
	Type        string
	CohortID    string
	TrackID     string // Empty posts to all tracks
	Attachments []domain.Attachment
}

func (in StreamInput) payload() map[string]interface{} {
	files, links := splitAttachments(in.Attachments)
	p := map[string]interface{}{
		"title":   in.Title,
		"content": in.Content,
		"type":    in.Type,
		"cohort":  in.CohortID,
		"files":   files,
		"links":   links,
	}
	if in.TrackID != "" {
		p["track"] = in.TrackID
	}
	return p
}

// ListStreams returns stream posts for a cohort, optionally filtered by track.
func (c *Client) ListStreams(ctx context.Context, cohortID string, track domain.Choice) ([]domain.Stream, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/streams", scopeQuery(cohortID, track), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	items := listOf(env.Get("data"), "streams")
	streams := make([]domain.Stream, 0, len(items))
	for _, item := range items {
		streams = append(streams, decodeStream(item))
	}
	return streams, nil
}

// CreateStream publishes a stream post.
func (c *Client) CreateStream(ctx context.Context, in StreamInput) (domain.Stream, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/streams", nil, in.payload())
	if err != nil {
		return domain.Stream{}, fmt.Errorf("failed to create stream: %w", err)
	}
	return decodeStream(objectOf(env.Get("data"), "stream")), nil
}

// UpdateStream replaces a stream post, including its attachments.
func (c *Client) UpdateStream(ctx context.Context, id string, in StreamInput) (domain.Stream, error) {
	env, err := c.doJSON(ctx, http.MethodPut, "/streams/"+url.PathEscape(id), nil, in.payload())
	if err != nil {
		return domain.Stream{}, fmt.Errorf("failed to update stream: %w", err)
	}
	return decodeStream(objectOf(env.Get("data"), "stream")), nil
}

// DeleteStream deletes a stream post.
func (c *Client) DeleteStream(ctx context.Context, id string) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, "/streams/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}
	return nil
}

// TaskInput is the payload for creating or updating a task.
type TaskInput struct {
	Title       string
	Description string
	Type        string
	CohortID    string
	TrackID     string
	DueDate     time.Time
	MaxScore    int
	Resources   []domain.Attachment
}

func (in TaskInput) payload() map[string]interface{} {
	files, links := splitAttachments(in.Resources)
	resources := make([]interface{}, 0, len(files)+len(links))
	for _, f := range files {
		resources = append(resources, f)
	}
	for _, l := range links {
		resources = append(resources, l)
	}
	p := map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"type":        in.Type,
		"cohort":      in.CohortID,
		"dueDate":     in.DueDate.Format(time.RFC3339),
		"maxScore":    in.MaxScore,
		"resources":   resources,
	}
	if in.TrackID != "" {
		p["track"] = in.TrackID
	}
	return p
}

// ListTasks returns tasks for a cohort, optionally filtered by track.
func (c *Client) ListTasks(ctx context.Context, cohortID string, track domain.Choice) ([]domain.Task, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/tasks", scopeQuery(cohortID, track), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	items := listOf(env.Get("data"), "tasks")
	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, decodeTask(item))
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/tasks", nil, in.payload())
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return decodeTask(objectOf(env.Get("data"), "task")), nil
}

// UpdateTask replaces a task, including its resources.
func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput) (domain.Task, error) {
	env, err := c.doJSON(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, in.payload())
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return decodeTask(objectOf(env.Get("data"), "task")), nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ListSubmissions returns the submissions for a task.
func (c *Client) ListSubmissions(ctx context.Context, taskID string) ([]domain.Submission, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID)+"/submissions", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	items := listOf(env.Get("data"), "submissions")
	subs := make([]domain.Submission, 0, len(items))
	for _, item := range items {
		subs = append(subs, decodeSubmission(item))
	}
	return subs, nil
}
