package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewSignupCmd creates the signup command
func NewSignupCmd() *cobra.Command {
	var email, password, fullName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a coldread account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd.Context(), email, password, fullName)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set COLDREAD_EMAIL)")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set COLDREAD_PASSWORD, will prompt if not provided)")

	return cmd
}

func runSignup(ctx context.Context, email, password, fullName string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if email == "" {
		email = os.Getenv("COLDREAD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("COLDREAD_PASSWORD")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or COLDREAD_EMAIL env var)")
	}

	var err error
	if fullName == "" {
		if fullName, err = promptLine("Full name: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = promptPassword("Choose a password: "); err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != password {
			return fmt.Errorf("passwords do not match")
		}
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	user, err := rt.manager.Signup(ctx, email, password, fullName)
	if err != nil {
		return userError("signup", err)
	}

	rt.printf("✓ Account created!\n")
	printProfile(rt, user)
	rt.printf("\nWe sent a verification link to %s.\n", user.Email)
	rt.printf("Next, finish onboarding with: coldread onboarding complete\n")
	return nil
}
