// Package guard decides whether a navigation target may be shown for the
// current session state.
package guard

import (
	"fmt"
	"strings"

	"github.com/coldread-dev/coldread/internal/cli/session"
)

// Access is the access class a route requires.
type Access string

const (
	Public                       Access = "public"
	RequiresSession              Access = "session"
	RequiresSessionAndOnboarding Access = "onboarded"
)

// ParseAccess parses an access class name.
func ParseAccess(s string) (Access, error) {
	switch a := Access(strings.ToLower(strings.TrimSpace(s))); a {
	case Public, RequiresSession, RequiresSessionAndOnboarding:
		return a, nil
	}
	return "", fmt.Errorf("invalid access class '%s', must be one of: public, session, onboarded", s)
}

// Redirect targets.
const (
	LoginPath      = "/login"
	OnboardingPath = "/onboarding"
)

// Outcome is the kind of guard decision.
type Outcome int

const (
	// Allow renders the target.
	Allow Outcome = iota
	// Suspend renders a neutral placeholder: neither the protected content
	// nor a redirect, until the session stops loading.
	Suspend
	// Redirect navigates to Decision.Path instead.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Suspend:
		return "suspend"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of Decide.
type Decision struct {
	Outcome Outcome
	Path    string // set only for Redirect
}

func (d Decision) String() string {
	if d.Outcome == Redirect {
		return fmt.Sprintf("redirect %s", d.Path)
	}
	return d.Outcome.String()
}

func redirectTo(path string) Decision {
	return Decision{Outcome: Redirect, Path: path}
}

// Decide maps (session state, access class) to a decision. It has no side
// effects.
func Decide(state session.State, access Access) Decision {
	if access == Public {
		return Decision{Outcome: Allow}
	}

	switch {
	case state.IsLoading():
		return Decision{Outcome: Suspend}
	case !state.IsAuthenticated():
		return redirectTo(LoginPath)
	}

	if access == RequiresSessionAndOnboarding && !state.OnboardingCompleted() {
		return redirectTo(OnboardingPath)
	}
	return Decision{Outcome: Allow}
}
