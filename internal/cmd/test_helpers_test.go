package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so state does not leak
// between executions of the global command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCmd executes the root command with the given args and returns the output.
// An empty config file is passed so the developer's own config never applies.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	emptyConfig := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(emptyConfig, nil, 0644))

	buf := new(bytes.Buffer)
	// Important: Set args BEFORE setting output buffers
	rootCmd.SetArgs(append([]string{"--config", emptyConfig}, args...))
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeTree writes files relative to a fresh directory.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
