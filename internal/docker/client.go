package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
)

// Client wraps the Docker SDK client.
type Client struct {
	api RegistryAPI
}

// NewClient creates a new Docker client connection from the environment
// (DOCKER_HOST and friends).
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Client{api: cli}, nil
}

// NewClientWithAPI creates a new Docker client with a custom API implementation.
// This is primarily used for testing with mock implementations.
func NewClientWithAPI(api RegistryAPI) *Client {
	return &Client{api: api}
}

// Ping tests the connection to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker: %w", err)
	}
	return nil
}

// Digest returns the manifest digest of image as reported by its registry.
// The daemon's own registry credentials apply.
func (c *Client) Digest(ctx context.Context, image string) (string, error) {
	inspect, err := c.api.DistributionInspect(ctx, image, "")
	if err != nil {
		return "", err
	}
	return inspect.Descriptor.Digest.String(), nil
}

// Close closes the Docker client connection.
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}
