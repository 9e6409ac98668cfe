package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	scriptPath   string
	settingsPath string
	verbose      bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oxbuild",
		Short: "oxbuild - Python application packaging engine",
		Long: `oxbuild evaluates a Starlark configuration script that declares build
targets, then materializes the targets you ask for into artifacts:
single-file executables with an embedded interpreter configuration,
file manifests, and packed resource bundles.

Features:
  - Build targets declared in Starlark (oxbuild.star)
  - Typed workspace settings via CUE (oxbuild.cue)
  - Memoized target builds with per-platform output layout
  - Policy gating of builds with Rego
  - SQLite-backed build history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&scriptPath, "config", "c", "oxbuild.star", "configuration script path")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "oxbuild.cue", "workspace settings file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newTargetsCommand())
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newPolicyCommand())
	rootCmd.AddCommand(newDevCommand())

	return rootCmd
}
