package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// NewVerifyEmailCmd creates the verify-email command
func NewVerifyEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm your email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyEmail(cmd.Context(), args[0])
		},
	}
}

func runVerifyEmail(ctx context.Context, token string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	// Resolve first so a signed-in profile gets refreshed afterwards
	rt.manager.Resolve(ctx)

	msg, err := rt.manager.VerifyEmail(ctx, token)
	if err != nil {
		return userError("email verification", err)
	}

	if msg == "" {
		msg = "Email verified"
	}
	rt.printf("✓ %s\n", msg)
	return nil
}
