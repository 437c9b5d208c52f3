package commands

import (
	"fmt"

	"github.com/coldread-dev/coldread/internal/cli/session"
)

func errNotSignedIn(rt *runtime) error {
	return fmt.Errorf("%w. Please run 'coldread login --context %s' first", session.ErrNotAuthenticated, rt.contextName)
}
