package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/envfile"
	"github.com/cameronsjo/rigger/internal/lock"
	"github.com/cameronsjo/rigger/internal/manifest"
	"github.com/cameronsjo/rigger/internal/output"
	"github.com/cameronsjo/rigger/internal/profile"
	"github.com/cameronsjo/rigger/internal/release"
	"github.com/cameronsjo/rigger/internal/render"
	"github.com/cameronsjo/rigger/internal/secrets"
	"github.com/cameronsjo/rigger/internal/snapshot"
	"github.com/cameronsjo/rigger/internal/ui"
	"github.com/cameronsjo/rigger/internal/watch"
)

// transpileOptions collects everything one transpile run needs.
type transpileOptions struct {
	templateDir string
	profilePath string
	outputPath  string
	releaseFile string
	baseEnvFile string
	inflect     bool
	dryRun      bool
	diff        bool
	snapshot    bool
}

var (
	transpileRelease  string
	transpileBaseEnv  string
	transpileInflect  bool
	transpileDryRun   bool
	transpileDiff     bool
	transpileSnapshot bool
	transpileWatch    bool
)

// transpileCmd expands profiles into manifests.
var transpileCmd = &cobra.Command{
	Use:   "transpile <templateDir> <profile> <output>",
	Short: "Expand profiles into deployment manifests",
	Long: `Expand a profile, or every profile in a directory, into manifests.

The output processor is chosen by transpiler.yml next to the profiles:
Docker Compose recipes with a companion .env file by default, or a
Kustomize bundle with outputProcessor.name: kube-kustomize.

Use - as output to print a single profile to stdout.

Examples:
  rigger transpile templates/ profiles/shop.yml dist/shop.yml
  rigger transpile templates/ profiles/ dist/ -r releases/2024.05.release
  rigger transpile templates/ profiles/ dist/ -b secrets/base.env --diff
  rigger transpile templates/ profiles/ dist/ --watch`,
	Args: cobra.ExactArgs(3),
	RunE: runTranspile,
}

func init() {
	transpileCmd.Flags().StringVarP(&transpileRelease, "release", "r", "", "Release file pinning ${TAG} image versions")
	transpileCmd.Flags().StringVarP(&transpileBaseEnv, "base-env", "b", "", "Base env file merged into generated env files (SOPS-encrypted files are decrypted)")
	transpileCmd.Flags().BoolVarP(&transpileInflect, "inflect", "i", false, "Substitute placeholder values inline instead of writing an env file")
	transpileCmd.Flags().BoolVarP(&transpileDryRun, "dry-run", "n", false, "Print what would be written")
	transpileCmd.Flags().BoolVarP(&transpileDiff, "diff", "d", false, "Show a diff against existing output")
	transpileCmd.Flags().BoolVar(&transpileSnapshot, "snapshot", false, "Snapshot the output directory before writing")
	transpileCmd.Flags().BoolVarP(&transpileWatch, "watch", "w", false, "Re-run when templates, profiles or the release file change")
	transpileCmd.MarkFlagsMutuallyExclusive("dry-run", "diff")

	rootCmd.AddCommand(transpileCmd)
}

func runTranspile(cmd *cobra.Command, args []string) error {
	opts := transpileOptions{
		templateDir: args[0],
		profilePath: args[1],
		outputPath:  args[2],
		releaseFile: flagOrDefault(cmd, "release", transpileRelease, cfg.Release),
		baseEnvFile: flagOrDefault(cmd, "base-env", transpileBaseEnv, cfg.BaseEnv),
		inflect:     transpileInflect,
		dryRun:      transpileDryRun,
		diff:        transpileDiff,
		snapshot:    transpileSnapshot || cfg.Snapshot,
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if !transpileWatch {
		return transpile(ctx, opts, cmd.OutOrStdout())
	}
	return watchTranspile(ctx, opts, cmd.OutOrStdout(), cfg.WatchDebounce)
}

// transpile runs one full transpile. Writes to disk happen under the
// output directory lock.
func transpile(ctx context.Context, opts transpileOptions, out io.Writer) error {
	start := time.Now()

	engine, err := render.New(opts.templateDir)
	if err != nil {
		return err
	}
	paths, err := output.NewPaths(opts.profilePath, opts.outputPath)
	if err != nil {
		return err
	}
	settings, err := profile.LoadSettings(opts.profilePath)
	if err != nil {
		return err
	}
	replacer, err := release.Load(opts.releaseFile, logger)
	if err != nil {
		return err
	}

	var baseEnv []envfile.Entry
	if opts.baseEnvFile != "" {
		baseEnv, err = secrets.LoadEnv(ctx, opts.baseEnvFile, &secrets.SOPS{Command: cfg.SOPSCommand})
		if err != nil {
			return fmt.Errorf("base env: %w", err)
		}
	}

	mode := output.ModeWrite
	switch {
	case opts.dryRun:
		mode = output.ModeDryRun
	case opts.diff:
		mode = output.ModeDiff
	}
	writer := output.NewWriter(paths, mode, out, logger)

	strategy, err := output.New(settings, output.Options{
		Engine:  engine,
		Writer:  writer,
		BaseEnv: baseEnv,
		Inflect: opts.inflect,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	transpiler := manifest.NewTranspiler(manifest.Config{
		Engine:      engine,
		Paths:       paths,
		Writer:      writer,
		Strategy:    strategy,
		Settings:    settings,
		Release:     replacer,
		ReleaseFile: opts.releaseFile,
		Logger:      logger,
	})

	run := func() error {
		if err := transpiler.Run(ctx); err != nil {
			return err
		}
		ui.Debug("Transpiled with %s output in %s", strategy.Name(), time.Since(start).Round(time.Millisecond))
		return nil
	}

	if mode != output.ModeWrite || opts.outputPath == output.Stdout {
		return run()
	}

	outDir := paths.OutputDir()
	return lock.WithLock(outDir, "transpile", func() error {
		if opts.snapshot {
			name, err := snapshot.Create(outDir)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			if name != "" {
				ui.Snapshot("Snapshot %s", name)
			}
		}
		return run()
	})
}

// watchTranspile transpiles once, then again after every settled change
// to the inputs, until ctx is canceled. Failed runs are reported and the
// watch goes on.
func watchTranspile(ctx context.Context, opts transpileOptions, out io.Writer, debounce time.Duration) error {
	ignore := []string{}
	if opts.outputPath != output.Stdout {
		if paths, err := output.NewPaths(opts.profilePath, opts.outputPath); err == nil {
			ignore = append(ignore, paths.OutputDir())
		}
	}

	w, err := watch.New(watch.Config{
		Paths:    []string{opts.templateDir, opts.profilePath, opts.releaseFile, opts.baseEnvFile},
		Ignore:   ignore,
		Debounce: debounce,
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	runOnce := func() {
		if err := transpile(ctx, opts, out); err != nil {
			if !errors.Is(err, context.Canceled) {
				ui.Error("%v", err)
			}
			return
		}
		ui.Success("Transpiled %s", opts.profilePath)
	}

	runOnce()
	ui.Info("Watching for changes (Ctrl+C to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			ui.Info("Change detected, transpiling")
			runOnce()
		}
	}
}
