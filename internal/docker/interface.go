package docker

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
)

// RegistryAPI defines the Docker client operations rigger uses.
// This interface enables mocking for unit tests without requiring a running Docker daemon.
type RegistryAPI interface {
	// Ping tests the connection to the Docker daemon.
	Ping(ctx context.Context) (types.Ping, error)

	// DistributionInspect asks the registry for an image manifest without
	// pulling it.
	DistributionInspect(ctx context.Context, imageRef, encodedRegistryAuth string) (registry.DistributionInspect, error)

	// Close closes the client connection.
	Close() error
}

// Verify that the Docker SDK client implements our interface.
var _ RegistryAPI = (*client.Client)(nil)
