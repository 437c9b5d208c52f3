// Package session owns the client's authentication state: it resolves the
// stored token at startup, runs login/signup/logout, and notifies subscribers
// whenever the state changes.
package session

import (
	"errors"

	"github.com/coldread-dev/coldread/internal/cli/account"
)

// ErrNotAuthenticated is returned by operations that need a session when
// there is none.
var ErrNotAuthenticated = errors.New("not authenticated")

// Status is the tag of a session State.
type Status int

const (
	// StatusLoading means resolution is in progress; no UI decision may be
	// made yet.
	StatusLoading Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the session snapshot. User is set only when Status is
// StatusAuthenticated.
type State struct {
	Status Status
	User   *account.Profile
}

// Loading returns the initial state.
func Loading() State {
	return State{Status: StatusLoading}
}

// Anonymous returns the no-session state.
func Anonymous() State {
	return State{Status: StatusAnonymous}
}

// Authenticated returns the session state for user.
func Authenticated(user *account.Profile) State {
	return State{Status: StatusAuthenticated, User: user.Clone()}
}

// IsAuthenticated reports whether s carries a validated profile.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// IsLoading reports whether resolution is still pending.
func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// OnboardingCompleted reports whether the authenticated user finished
// onboarding. Always false without a session.
func (s State) OnboardingCompleted() bool {
	return s.IsAuthenticated() && s.User.OnboardingCompleted
}

func (s State) clone() State {
	return State{Status: s.Status, User: s.User.Clone()}
}
