package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/session"
)

// NewUsageCmd creates the usage command
func NewUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show analysis usage for the current period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsage(cmd.Context())
		},
	}
}

func runUsage(ctx context.Context, opts ...Option) error {
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

	usage, err := rt.manager.Usage(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errNotSignedIn(rt)
		}
		return userError("usage", err)
	}

	rt.printf("Plan: %s\n", state.User.SubscriptionTier)
	if usage.Unlimited() {
		rt.printf("Analyses used: %d (unlimited)\n", usage.Used)
		return nil
	}

	rt.printf("Analyses used: %d of %d (%d remaining)\n", usage.Used, usage.Limit, usage.Remaining())
	if usage.Remaining() == 0 {
		rt.printf("\nYou've reached your plan limit. Upgrade with: coldread plan set pro\n")
	}
	return nil
}
