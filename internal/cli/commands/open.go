package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/guard"
)

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Check where navigating to an app path would land",
		Long: `Check where navigating to an app path would land for the current session.

Examples:
  $ coldread open /dashboard   # allow, or redirect /login or /onboarding
  $ coldread open /pricing     # public pages are always allowed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd.Context(), args[0])
		},
	}
}

func runOpen(ctx context.Context, path string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	table := rt.cfg.RouteTable()
	state := rt.manager.Resolve(ctx)
	decision := table.Check(state, path)

	rt.log.Debug().
		Str("path", path).
		Str("access", string(table.Access(path))).
		Str("session", state.Status.String()).
		Str("decision", decision.String()).
		Msg("Route checked")

	switch decision.Outcome {
	case guard.Redirect:
		rt.printf("%s -> %s\n", path, decision.Path)
	default:
		rt.printf("%s: %s\n", path, decision)
	}
	return nil
}

// NewRoutesCmd creates the routes command
func NewRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List app routes and their access class",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes()
		},
	}
}

func runRoutes(opts ...Option) error {
	// Listing routes never needs a credential store
	rt := &runtime{out: os.Stdout}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.cfg == nil {
		var err error
		if rt.cfg, err = loadConfig(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tACCESS")
	for _, r := range rt.cfg.RouteTable().Routes() {
		fmt.Fprintf(w, "%s\t%s\n", r.Path, r.Access)
	}
	fmt.Fprintf(w, "*\t%s\n", guard.RequiresSessionAndOnboarding)
	return w.Flush()
}
