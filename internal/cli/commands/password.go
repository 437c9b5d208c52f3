package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// checkEmailMessage is shown after every forgot-password request, whatever
// the backend said.
const checkEmailMessage = "If an account exists for %s, we've sent a password reset link. Check your email.\n"

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForgotPassword(cmd.Context(), email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set COLDREAD_EMAIL)")

	return cmd
}

func runForgotPassword(ctx context.Context, email string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if email == "" {
		email = os.Getenv("COLDREAD_EMAIL")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or COLDREAD_EMAIL env var)")
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	rt.manager.ForgotPassword(ctx, email)
	rt.printf(checkEmailMessage, email)
	return nil
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password using the token from a reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(cmd.Context(), args[0], password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (will prompt if not provided)")

	return cmd
}

func runResetPassword(ctx context.Context, token, password string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if password == "" {
		var err error
		if password, err = promptPassword("New password: "); err != nil {
			return err
		}
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	if err := rt.manager.ResetPassword(ctx, token, password); err != nil {
		return userError("password reset", err)
	}

	rt.printf("✓ Password updated. Sign in with: coldread login\n")
	return nil
}
