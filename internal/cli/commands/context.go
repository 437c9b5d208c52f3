package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/contextselect"
	"github.com/coldread-dev/coldread/internal/cli/userconfig"
)

// NewContextCmd creates the context command
func NewContextCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "context [web|extension]",
		Short: "Select the execution context used by commands",
		Long: `Select the execution context used by commands.

Each context keeps its own session: the web context stores it in a local
file, the extension context in the OS keychain.

If no argument is provided, an interactive prompt will be shown.

Examples:
  $ coldread context              # Interactive selection
  $ coldread context extension    # Select by name
  $ coldread context --show       # Print the active context`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if show {
				return runShowContext()
			}
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return runSelectContext(name)
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the active context and exit")

	return cmd
}

func runShowContext() error {
	name, err := contextselect.Resolve(globals.context)
	if err != nil {
		return err
	}
	fmt.Printf("%s - %s\n", name, name.Describe())
	return nil
}

func runSelectContext(value string) error {
	var (
		name contextselect.Name
		err  error
	)

	if value != "" {
		name, err = contextselect.Parse(value)
	} else {
		name, err = contextselect.Prompt()
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedContext(string(name)); err != nil {
		return fmt.Errorf("failed to save selected context: %w", err)
	}

	fmt.Printf("Selected context: %s (%s)\n", name, name.Describe())
	return nil
}
