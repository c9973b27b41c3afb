package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/lock"
	"github.com/cameronsjo/rigger/internal/snapshot"
	"github.com/cameronsjo/rigger/internal/ui"
)

// snapshotsCmd lists output snapshots.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <outDir>",
	Short: "List snapshots of an output directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSnapshots(cmd.OutOrStdout(), args[0])
	},
}

// rollbackCmd restores an output snapshot.
var rollbackCmd = &cobra.Command{
	Use:   "rollback <outDir> [snapshot]",
	Short: "Restore an output directory from a snapshot",
	Long: `Replace the content of outDir with a snapshot taken by
'rigger transpile --snapshot'. The current content is kept as a
pre-rollback backup first.

Without a snapshot name an interactive menu of the latest snapshots is shown.

Examples:
  rigger rollback dist/
  rigger rollback dist/ snapshot-20240501-101500.000000000`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 2 {
			target = args[1]
		}
		return rollback(cmd.InOrStdin(), cmd.OutOrStdout(), args[0], target)
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(rollbackCmd)
}

func listSnapshots(out io.Writer, outDir string) error {
	snapshots, err := snapshot.List(outDir)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		ui.Warning("No snapshots in %s", outDir)
		return nil
	}

	for _, snap := range snapshots {
		fmt.Fprintf(out, "%s  %s  %d file(s)\n", snap.Created.Format("2006-01-02 15:04:05"), snap.Name, snap.FileCount)
	}
	return nil
}

func rollback(in io.Reader, out io.Writer, outDir, target string) error {
	snapshots, err := snapshot.List(outDir)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots available in %s", outDir)
	}

	if target == "" || target == "interactive" {
		target = promptForSnapshot(in, out, snapshots)
		if target == "" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	found := false
	for _, snap := range snapshots {
		if snap.Name == target {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("snapshot not found: %s", target)
	}

	ui.Yellow.Fprintf(out, "Rolling back to: %s\n", target)
	err = lock.WithLock(outDir, "transpile", func() error {
		return snapshot.Restore(outDir, target)
	})
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	ui.Success("Rollback complete")

	files, _ := snapshot.Files(outDir)
	if len(files) > 0 {
		fmt.Fprintln(out, "Restored files:")
		for _, f := range files {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}
	return nil
}

func promptForSnapshot(in io.Reader, out io.Writer, snapshots []snapshot.Info) string {
	fmt.Fprintln(out, "Available snapshots:")

	maxShow := min(5, len(snapshots))
	for i := 0; i < maxShow; i++ {
		snap := snapshots[i]
		fmt.Fprintf(out, "  %d) %s (%s)\n", i+1, snap.Name, snap.Created.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, "Select snapshot (1-%d, or name): ", maxShow)

	input, _ := bufio.NewReader(in).ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= maxShow {
		return snapshots[n-1].Name
	}
	return input
}
