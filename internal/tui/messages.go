// Package tui provides Bubble Tea models for the interactive TUI: the
// applicant wizard and the admin dashboard.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/store"
)

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// LoggedInMsg is emitted when the login screen obtained a session.
type LoggedInMsg struct {
	User domain.User
}

// SessionExpiredMsg is emitted when a request ended the session with a 401.
type SessionExpiredMsg struct{}

// ResourceSelectedMsg is emitted when a dashboard menu entry is chosen.
type ResourceSelectedMsg struct {
	Resource store.Resource
}

// CohortSelectedMsg is emitted when the cohort scope changes.
type CohortSelectedMsg struct {
	CohortID string
}

// Navigation messages between admin screens.
type (
	backMsg       struct{}
	openDetailMsg struct {
		resource store.Resource
		id       string
	}
	openFormMsg      struct {
		resource store.Resource
		id       string // Row to edit, empty for a new one
	}
	openCohortPicker struct{}
	closeDetailMsg   struct{ changed bool }
	closeFormMsg struct {
		resource store.Resource
		title    string
		created  bool
		updated  bool
	}
)

// Upload progress, read from the channel fed by the transfer.
type (
	progressMsg       struct{ percent int }
	uploadChannelDone struct{}
)

// expiredOr maps err to SessionExpiredMsg when the session ended, else to fallback(err).
func expiredOr(err error, fallback func(error) tea.Msg) tea.Msg {
	if api.IsSessionExpired(err) {
		return SessionExpiredMsg{}
	}
	return fallback(err)
}
