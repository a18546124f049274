// OSCLeash - leash-driven movement for VRChat avatars.
//
// This is the main entry point. OSCLeash advertises itself over
// OSCQuery/mDNS, waits for a VRChat client, reads leash physbone telemetry
// over OSC and sends movement input back, pulling the avatar along the leash.
//
// Commands:
//
//	oscleash [serve]   run the service (default)
//	oscleash token     mint an API bearer token
//	oscleash version   print build information
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// configEnv names the environment variable holding the config path.
const configEnv = "OSCLEASH_CONFIG"

func main() {
	// Cancel on Ctrl+C or SIGTERM for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. out receives command output.
func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), resolveConfigPath(configPath))
	}

	root := &cobra.Command{
		Use:           "oscleash",
		Short:         "Leash-driven movement for VRChat avatars",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config file (default $"+configEnv+", else built-in defaults)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the OSCLeash service",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newTokenCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "oscleash %s (commit %s, built %s)\n", version, commit, date)
			},
		},
	)

	return root
}

// resolveConfigPath returns the --config flag, falling back to
// OSCLEASH_CONFIG. An empty result runs on defaults and environment.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(configEnv)
}
