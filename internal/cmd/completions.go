package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/snapshot"
)

// completeSnapshotNames completes the snapshot argument of rollback from
// the output directory given as first argument.
func completeSnapshotNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 1 {
		if len(args) == 0 {
			return nil, cobra.ShellCompDirectiveFilterDirs
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	snapshots, err := snapshot.List(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	if strings.HasPrefix("interactive", toComplete) {
		names = append(names, "interactive")
	}
	for _, snap := range snapshots {
		if strings.HasPrefix(snap.Name, toComplete) {
			names = append(names, snap.Name)
		}
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeReleaseFiles completes --release with *.release files.
func completeReleaseFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"release"}, cobra.ShellCompDirectiveFilterFileExt
}

// registerCompletions registers all dynamic completions for commands.
func registerCompletions() {
	rollbackCmd.ValidArgsFunction = completeSnapshotNames

	// Silently ignore - completions are optional
	_ = transpileCmd.RegisterFlagCompletionFunc("release", completeReleaseFiles)
}

func init() {
	cobra.OnInitialize(registerCompletions)
}
