package cmd

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/lock"
	"github.com/cameronsjo/rigger/internal/output"
)

var transformProject string

// transformCmd lowers an already rendered manifest stream to Kustomize.
var transformCmd = &cobra.Command{
	Use:   "transform <file> <outDir>",
	Short: "Lower a rendered Kubernetes manifest into a Kustomize bundle",
	Long: `Rewrite ${VAR} placeholders of a rendered multi-document Kubernetes
manifest into ConfigMap and Secret references, and write the result with
a kustomization.yaml (and secretenvs.yaml when secrets are referenced)
into outDir.

Examples:
  rigger transform build/app.yml deploy/
  rigger transform build/app.yml deploy/ -p shop`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return transform(ctx, args[0], args[1], transformProject, cmd.OutOrStdout())
	},
}

func init() {
	transformCmd.Flags().StringVarP(&transformProject, "project", "p", "", "Project name used for ConfigMap and Secret references")

	rootCmd.AddCommand(transformCmd)
}

func transform(ctx context.Context, file, outDir, project string, out io.Writer) error {
	writer := output.NewWriter(output.DirPaths(outDir), output.ModeWrite, out, logger)
	strategy := output.NewKustomize(nil, output.Options{
		Writer:      writer,
		ProjectName: project,
		Logger:      logger,
	})

	return lock.WithLock(outDir, "transform", func() error {
		if err := strategy.Startup(ctx); err != nil {
			return err
		}
		if err := strategy.TransformFile(ctx, file, filepath.Base(file)); err != nil {
			return err
		}
		return strategy.Finalize(ctx)
	})
}
