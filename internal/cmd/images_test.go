package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/rigger/internal/docker"
)

// fakeRegistry knows a fixed set of images.
type fakeRegistry struct {
	known map[string]bool
}

func (f *fakeRegistry) Ping(ctx context.Context) (types.Ping, error) {
	return types.Ping{}, nil
}

func (f *fakeRegistry) DistributionInspect(ctx context.Context, imageRef, auth string) (registry.DistributionInspect, error) {
	var inspect registry.DistributionInspect
	if !f.known[imageRef] {
		return inspect, errors.New("manifest unknown")
	}
	inspect.Descriptor.Digest = "sha256:feedface"
	return inspect, nil
}

func (f *fakeRegistry) Close() error { return nil }

func TestVerifyImages(t *testing.T) {
	client := docker.NewClientWithAPI(&fakeRegistry{known: map[string]bool{"nginx:1.25": true}})

	t.Run("all images exist", func(t *testing.T) {
		err := verifyImages(context.Background(), client, []docker.Image{{Name: "nginx:1.25", Files: []string{"app.yml"}}})
		assert.NoError(t, err)
	})

	t.Run("missing image", func(t *testing.T) {
		err := verifyImages(context.Background(), client, []docker.Image{
			{Name: "nginx:1.25", Files: []string{"app.yml"}},
			{Name: "ghost:1", Files: []string{"app.yml"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "image verification failed")
		assert.Contains(t, err.Error(), "ghost:1")
	})
}

func TestVerifyImagesCmd_NoImages(t *testing.T) {
	dir := writeTree(t, map[string]string{"notes.txt": "nothing here\n"})

	_, err := executeCmd(t, "verify-images", dir)
	assert.NoError(t, err)
}
