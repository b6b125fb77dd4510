// Package domain defines the normalized domain types for the learning platform.
// These types represent the core concepts independent of the REST API's JSON envelopes.
package domain

import (
	"strings"
	"time"
)

// Cohort represents a time-boxed intake batch of students.
type Cohort struct {
	ID                  string    // Backend cohort ID
	Name                string    // Display name (e.g., "Cohort 5")
	Number              int       // Sequential cohort number, sent with applications
	StartDate           time.Time // Zero if unknown
	EndDate             time.Time // Zero if unknown
	ApplicationDeadline time.Time // Zero if unknown
	IsActive            bool
	Tracks              []Track // Tracks offered by this cohort (may be empty)
}

// AcceptingApplications reports whether the deadline has not yet passed.
// A zero deadline is treated as open.
func (c Cohort) AcceptingApplications(now time.Time) bool {
	if c.ApplicationDeadline.IsZero() {
		return true
	}
	return now.Before(c.ApplicationDeadline)
}

// Track represents a named curriculum a cohort offers and an applicant selects.
type Track struct {
	ID          string // Backend track ID
	Name        string // Display name (e.g., "Frontend Development")
	Slug        string // Stable key (e.g., "frontend-development"), may be empty
	Description string
	IsActive    bool
}

// Key returns the stable lookup key for the track: its slug, or a slugified name.
func (t Track) Key() string {
	if t.Slug != "" {
		return t.Slug
	}
	return Slugify(t.Name)
}

// IsZero reports whether no track is set.
func (t Track) IsZero() bool {
	return t.ID == "" && t.Name == "" && t.Slug == ""
}

// Slugify lowercases s and joins its words with dashes.
func Slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}

// User represents a platform account (admin, mentor or student).
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      string // One of the Role* constants
	TrackID   string // Assigned track, empty if none
	CohortID  string // Assigned cohort, empty if none
}

// FullName joins the first and last names.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role constants for users.
const (
	RoleAdmin   = "admin"
	RoleMentor  = "mentor"
	RoleStudent = "student"
)

// Stream represents an admin-authored post visible to a cohort-track's participants.
type Stream struct {
	ID          string
	Title       string
	Content     string // Markdown body
	Type        string // One of the StreamType* constants
	CohortID    string
	TrackID     string // Empty means all tracks
	Author      string
	CreatedAt   time.Time
	Attachments []Attachment
}

// StreamType constants.
const (
	StreamTypeAnnouncement = "announcement"
	StreamTypeLesson       = "lesson"
	StreamTypeUpdate       = "update"
)

// Task represents an assignment, project, quiz or reading item.
type Task struct {
	ID          string
	Title       string
	Description string // Markdown body
	Type        string // One of the TaskType* constants
	CohortID    string
	TrackID     string // Empty means all tracks
	DueDate     time.Time
	MaxScore    int
	Resources   []Attachment
}

// TaskType constants.
const (
	TaskTypeAssignment = "assignment"
	TaskTypeProject    = "project"
	TaskTypeQuiz       = "quiz"
	TaskTypeReading    = "reading"
)

// Submission represents a student's submission for a task.
type Submission struct {
	ID          string
	TaskID      string
	StudentName string
	Link        string
	Score       int
	Graded      bool
	SubmittedAt time.Time
}

// AttachmentKind distinguishes uploaded files from links.
type AttachmentKind string

// AttachmentKind constants.
const (
	AttachmentFile AttachmentKind = "file"
	AttachmentLink AttachmentKind = "link"
)

// Attachment is either an uploaded file descriptor or a link descriptor.
// File descriptors use URL, Title, MimeType and Size.
// Link descriptors use URL, Title, Description and IsRequired.
type Attachment struct {
	Kind        AttachmentKind
	URL         string
	Title       string
	MimeType    string
	Size        int64
	Description string
	IsRequired  bool
}

// LocalFile is a file on the local filesystem selected for upload.
type LocalFile struct {
	Path     string
	Name     string // Base name sent as the multipart filename
	Size     int64
	MimeType string // Sniffed from content, empty until inspected
}
