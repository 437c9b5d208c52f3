package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"status"},
		Short:   "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context())
		},
	}
}

func runWhoami(ctx context.Context, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	state := rt.manager.Resolve(ctx)
	if !state.IsAuthenticated() {
		rt.printf("Not signed in (%s context).\n", rt.contextName)
		rt.printf("Sign in with: coldread login --context %s\n", rt.contextName)
		return nil
	}

	rt.printf("Signed in (%s context)\n", rt.contextName)
	printProfile(rt, state.User)
	return nil
}

func printProfile(rt *runtime, user *account.Profile) {
	if user.FullName != "" {
		rt.printf("  User:       %s (%s)\n", user.FullName, user.Email)
	} else {
		rt.printf("  User:       %s\n", user.Email)
	}
	rt.printf("  Plan:       %s\n", user.SubscriptionTier)

	onboarding := "pending"
	if user.OnboardingCompleted {
		onboarding = "completed"
	}
	rt.printf("  Onboarding: %s\n", onboarding)

	if !user.EmailVerified {
		rt.printf("  Email:      not verified\n")
	}
}

// requireSession resolves the stored session and fails if there is none
func requireSession(ctx context.Context, rt *runtime) (session.State, error) {
	state := rt.manager.Resolve(ctx)
	if !state.IsAuthenticated() {
		return state, errNotSignedIn(rt)
	}
	return state, nil
}
