package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/session"
)

// NewOnboardingCmd creates the onboarding command group
func NewOnboardingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Manage account onboarding",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Mark onboarding as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompleteOnboarding(cmd.Context())
		},
	})

	return cmd
}

func runCompleteOnboarding(ctx context.Context, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	state, err := requireSession(ctx, rt)
	if err != nil {
		return err
	}
	if state.OnboardingCompleted() {
		rt.printf("Onboarding already completed.\n")
		return nil
	}

	if _, err := rt.manager.CompleteOnboarding(ctx); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errNotSignedIn(rt)
		}
		return userError("onboarding", err)
	}

	rt.printf("✓ Onboarding completed. The dashboard is now available.\n")
	return nil
}
