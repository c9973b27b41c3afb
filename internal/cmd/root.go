// Package cmd provides the CLI commands for rigger.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/config"
	"github.com/cameronsjo/rigger/internal/ui"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
	quiet   bool
	noColor bool

	// cfg is loaded before every command runs.
	cfg = defaultConfig()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rigger",
	Short: "Compose deployment manifests from profiles",
	Long: `rigger - rig deployment manifests from profiles

Profiles describe a set of services compactly: which template each
component uses, which mixins and wrappers apply, how many instances run.
rigger expands them into Docker Compose recipes with a companion .env
file, or into a Kustomize bundle.

TRANSPILE
  transpile <templates> <profile> <output>   Expand profiles into manifests
    --release, -r <file>   Pin ${TAG} image versions from a release file
    --base-env, -b <file>  Merge a (possibly SOPS-encrypted) base env file
    --inflect, -i          Substitute placeholder values inline
    --dry-run, -n          Print what would be written
    --diff, -d             Show a diff against existing output
    --snapshot             Snapshot the output directory first
    --watch, -w            Re-run when inputs change
  transform <file> <outDir>                  Lower a plain manifest to Kustomize
  validate <templates> <profile>             Check profiles without rendering

OUTPUT
  verify-images <dir>        Check that every referenced image exists
  snapshots <outDir>         List output snapshots
  rollback <outDir> [name]   Restore an output snapshot

MAINTENANCE
  update                     Update rigger to the latest release
  version                    Print the version`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// versionCmd prints the version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rigger version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rigger version %s\n", version)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .rigger.yaml, then ~/.config/rigger/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate("rigger version {{.Version}}\n")
}

func defaultConfig() *config.Config {
	c := config.Defaults()
	return &c
}

// initConfig loads the config file and applies the output flags.
func initConfig(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}

	loaded, err := config.Load(config.Sources{File: cfgFile})
	if err != nil {
		return err
	}
	cfg = loaded

	switch {
	case verbose:
		ui.SetLevel(ui.LevelVerbose)
	case quiet:
		ui.SetLevel(ui.LevelQuiet)
	default:
		ui.SetLevel(ui.LevelNormal)
	}
	ui.ConfigureColor(noColor || cfg.NoColor)

	if cfg.Path != "" {
		ui.Debug("Using config %s", cfg.Path)
	}
	return nil
}
