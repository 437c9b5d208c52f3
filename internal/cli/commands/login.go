package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coldread-dev/coldread/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to coldread",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set COLDREAD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set COLDREAD_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("COLDREAD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("COLDREAD_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or COLDREAD_EMAIL env var)")
	}

	if password == "" {
		var err error
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	rt.printf("Signing in to %s as %s...\n", rt.contextName, email)

	user, err := rt.manager.Login(ctx, email, password)
	if err != nil {
		return userError("login", err)
	}

	if err := userconfig.SetLastEmail(email); err != nil {
		rt.log.Debug().Err(err).Msg("Failed to remember email")
	}

	rt.printf("✓ Login successful!\n")
	printProfile(rt, user)
	if !user.OnboardingCompleted {
		rt.printf("\nFinish onboarding with: coldread onboarding complete\n")
	}
	return nil
}

// promptPassword reads a password without echo. Non-interactive stdin is an
// error so scripts fail fast instead of hanging.
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or COLDREAD_PASSWORD env var)")
	}

	fmt.Print(label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// promptLine reads one line of visible input
func promptLine(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is required in non-interactive mode", strings.TrimSuffix(strings.ToLower(label), ": "))
	}

	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
