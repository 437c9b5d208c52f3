package commands

import (
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogout(opts ...Option) error {
	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	rt.manager.Logout()
	rt.printf("✓ Signed out of %s\n", rt.contextName)
	return nil
}
