package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/session"
)

// NewPlanCmd creates the plan command group
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show or change your subscription plan",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <free|pro|agency|growth_agency>",
		Short: "Switch subscription plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetPlan(cmd.Context(), args[0])
		},
	})

	return cmd
}

func runSetPlan(ctx context.Context, tierName string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tier := account.Tier(strings.ToLower(strings.TrimSpace(tierName)))
	if !tier.Known() {
		return fmt.Errorf("unknown plan '%s', must be one of: free, pro, agency, growth_agency", tierName)
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	state, err := requireSession(ctx, rt)
	if err != nil {
		return err
	}
	if state.User.SubscriptionTier == tier {
		rt.printf("Already on the %s plan.\n", tier)
		return nil
	}

	user, err := rt.manager.ChangePlan(ctx, tier)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errNotSignedIn(rt)
		}
		return userError("plan change", err)
	}

	rt.printf("✓ Plan changed to %s\n", user.SubscriptionTier)
	return nil
}
