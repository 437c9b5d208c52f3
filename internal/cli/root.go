package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "coldread",
	Short: "coldread - cold email analysis from your terminal",
	Long: `coldread CLI - sign in, manage your account and serve the browser
extension's token bridge.

Sessions are kept per execution context: "web" stores the session in a local
file, "extension" in the OS keychain shared with the browser extension.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	commands.BindGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("coldread version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewSignupCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewUsageCmd())
	rootCmd.AddCommand(commands.NewForgotPasswordCmd())
	rootCmd.AddCommand(commands.NewResetPasswordCmd())
	rootCmd.AddCommand(commands.NewVerifyEmailCmd())
	rootCmd.AddCommand(commands.NewOnboardingCmd())
	rootCmd.AddCommand(commands.NewPlanCmd())
	rootCmd.AddCommand(commands.NewOpenCmd())
	rootCmd.AddCommand(commands.NewRoutesCmd())
	rootCmd.AddCommand(commands.NewTokenCmd())
	rootCmd.AddCommand(commands.NewBridgeCmd())
	rootCmd.AddCommand(commands.NewContextCmd())
}

// Execute runs the root command
func Execute() error {
	commands.SetVersion(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
