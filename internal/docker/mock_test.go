package docker

import (
	"context"
	"errors"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
)

var (
	errMockPing    = errors.New("mock: ping failed")
	errMockInspect = errors.New("mock: manifest unknown")
)

// MockRegistryAPI is a mock implementation of RegistryAPI for testing.
type MockRegistryAPI struct {
	PingFunc                func(ctx context.Context) (types.Ping, error)
	DistributionInspectFunc func(ctx context.Context, imageRef, auth string) (registry.DistributionInspect, error)
	CloseFunc               func() error

	// Call tracking
	PingCalls    int
	InspectCalls []string
	InspectAuth  []string
	CloseCalls   int
}

// NewMockRegistryAPI creates a mock where every image exists.
func NewMockRegistryAPI() *MockRegistryAPI {
	return &MockRegistryAPI{
		PingFunc: func(ctx context.Context) (types.Ping, error) {
			return types.Ping{APIVersion: "1.45"}, nil
		},
		DistributionInspectFunc: func(ctx context.Context, imageRef, auth string) (registry.DistributionInspect, error) {
			var inspect registry.DistributionInspect
			inspect.Descriptor.Digest = "sha256:0123456789abcdef"
			return inspect, nil
		},
		CloseFunc: func() error { return nil },
	}
}

func (m *MockRegistryAPI) Ping(ctx context.Context) (types.Ping, error) {
	m.PingCalls++
	return m.PingFunc(ctx)
}

func (m *MockRegistryAPI) DistributionInspect(ctx context.Context, imageRef, auth string) (registry.DistributionInspect, error) {
	m.InspectCalls = append(m.InspectCalls, imageRef)
	m.InspectAuth = append(m.InspectAuth, auth)
	return m.DistributionInspectFunc(ctx, imageRef, auth)
}

func (m *MockRegistryAPI) Close() error {
	m.CloseCalls++
	return m.CloseFunc()
}
