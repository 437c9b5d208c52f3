package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/bridge"
	"github.com/coldread-dev/coldread/internal/cli/contextselect"
)

// NewTokenCmd creates the token command group. It speaks the same message
// protocol the extension bridge serves.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Read or change the stored session token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the stored token as a bridge response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd.Context(), bridge.Message{Type: bridge.GetToken})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd.Context(), bridge.Message{Type: bridge.SetToken, Token: args[0]})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token and profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd.Context(), bridge.Message{Type: bridge.ClearToken})
		},
	})

	return cmd
}

func runToken(ctx context.Context, msg bridge.Message, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}

	resp := <-bridge.New(rt.store, rt.log).Send(ctx, msg)

	out, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	rt.printf("%s\n", out)

	if resp.Error != "" {
		return fmt.Errorf("%s failed: %s", msg.Type, resp.Error)
	}
	return nil
}

// NewBridgeCmd creates the bridge command group
func NewBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Extension token bridge",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve token messages over native messaging on stdin/stdout",
		Long: `Serve GET_TOKEN, SET_TOKEN and CLEAR_TOKEN messages using the browser
native messaging framing (4-byte little-endian length, then JSON).

The bridge always uses the extension credential store. Logs go to stderr
because stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridgeServe(cmd.Context(), os.Stdin, os.Stdout)
		},
	})

	return cmd
}

func runBridgeServe(ctx context.Context, in io.Reader, out io.Writer, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Browsers start the host from an arbitrary directory and the bridge
	// never talks to the API, so the project config is not loaded here.
	rt := &runtime{log: newLogger(globals.verbose)}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.store == nil {
		store, err := contextselect.OpenStore(contextselect.Extension, rt.log)
		if err != nil {
			return fmt.Errorf("failed to open extension credential store: %w", err)
		}
		rt.store = store
	}

	rt.log.Info().Msg("Extension bridge listening on stdin")
	return bridge.New(rt.store, rt.log).Serve(ctx, in, out)
}
