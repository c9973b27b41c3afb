package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/docker"
	"github.com/cameronsjo/rigger/internal/ui"
)

// verifyImagesCmd checks generated recipes against their registries.
var verifyImagesCmd = &cobra.Command{
	Use:   "verify-images <dir>",
	Short: "Verify that every image in generated recipes exists",
	Long: `Collect the image of every service in the *.yml files below dir and
ask the registry for each manifest through the Docker daemon. Nothing is
pulled. All missing images are reported together.

Examples:
  rigger verify-images dist/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		images, err := docker.CollectImages(args[0])
		if err != nil {
			return err
		}
		if len(images) == 0 {
			ui.Warning("No images found in %s", args[0])
			return nil
		}
		ui.Info("Verifying %d image(s)", len(images))

		return withDockerClientContext(ctx, func(client *docker.Client) error {
			return verifyImages(ctx, client, images)
		})
	},
}

func init() {
	rootCmd.AddCommand(verifyImagesCmd)
}

func verifyImages(ctx context.Context, client *docker.Client, images []docker.Image) error {
	if err := docker.NewImageChecker(client, logger).Verify(ctx, images); err != nil {
		return fmt.Errorf("image verification failed: %w", err)
	}
	ui.Success("All %d image(s) exist", len(images))
	return nil
}
