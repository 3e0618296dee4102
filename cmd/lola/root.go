// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for lola.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/SecKatie/lola/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging
	verbose bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "lola",
		Short: "A package manager for AI assistant skills",
		Long: TitleStyle.Render("lola") + SubtitleStyle.Render(" - a package manager for AI assistant skills") + `

lola fetches skill modules from git repositories, archives, or local
folders into a registry, and installs their skills, commands, and agents
into the formats each AI coding assistant expects.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Add a module: lola mod add https://github.com/user/my-skills.git
  2. Install it:   lola install my-skills -a claude-code
  3. List modules: lola mod ls

` + SubtitleStyle.Render("Supported assistants:") + `
  claude-code, cursor, gemini-cli, opencode`,
	}
)

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(modCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(marketCmd)
}

func initLogging() {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
