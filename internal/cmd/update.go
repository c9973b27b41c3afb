package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/ui"
	"github.com/cameronsjo/rigger/internal/update"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"upgrade", "selfupdate"},
	Short:   "Update rigger to the latest version",
	Long: `Update rigger to the latest version from GitHub releases.

This command will:
1. Check for a newer version on GitHub
2. Download the appropriate binary for your platform
3. Replace the current binary with the new version

Examples:
  rigger update           # Update to latest version
  rigger update --check   # Check for updates without installing`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

var (
	checkOnly bool
)

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	out := cmd.OutOrStdout()

	ui.Blue.Fprintf(out, "Current version: %s (%s)\n", version, update.GetPlatformInfo())
	ui.Blue.Fprintln(out, "Checking for updates...")

	if checkOnly {
		release, available, err := update.CheckForUpdate(ctx, version)
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !available {
			ui.Success("You're running the latest version!")
			return nil
		}
		ui.Success("New version available: %s (released %s)", release.Version, release.PublishedAt)
		ui.Blue.Fprintln(out, "To update, run: rigger update")
		printChangelog(out, release.Changelog)
		return nil
	}

	release, err := update.Update(ctx, version)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if release == nil {
		ui.Success("You're already running the latest version!")
		return nil
	}

	ui.Success("Successfully updated to version %s!", release.Version)
	printChangelog(out, release.Changelog)
	return nil
}

func printChangelog(out io.Writer, changelog string) {
	lines, more := update.ChangelogExcerpt(changelog, 10)
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	ui.Yellow.Fprintln(out, "What's new:")
	for _, line := range lines {
		fmt.Fprintf(out, "  %s\n", line)
	}
	if more > 0 {
		fmt.Fprintf(out, "  ... (%d more lines)\n", more)
	}
}
