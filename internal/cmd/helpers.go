package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/docker"
	"github.com/cameronsjo/rigger/internal/ui"
)

// logger is the ui.Logger every command hands to the library packages.
var logger ui.Logger = ui.Console{}

// withDockerClientContext executes a function with a Docker client, handling connection and cleanup.
func withDockerClientContext(ctx context.Context, fn func(*docker.Client) error) error {
	client, err := docker.NewClient()
	if err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}
	return fn(client)
}

// commandContext returns the command's context, canceled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// flagOrDefault returns the flag value when it was set on the command
// line, the configured fallback otherwise.
func flagOrDefault(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) || value != "" {
		return value
	}
	return fallback
}
