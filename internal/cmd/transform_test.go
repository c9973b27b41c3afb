package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/rigger/internal/output"
	"github.com/cameronsjo/rigger/internal/tree"
)

const renderedDeployment = `apiVersion: v1
kind: Pod
metadata:
  name: web
spec:
  containers:
    - name: web
      image: nginx:${TAG}
      env:
        - name: DB_PASS
          valueFrom: "[SECRET]${DB_PASS}"
`

func TestTransformCmd(t *testing.T) {
	src := filepath.Join(writeTree(t, map[string]string{"app.yml": renderedDeployment}), "app.yml")
	outDir := filepath.Join(t.TempDir(), "deploy")

	_, err := executeCmd(t, "transform", src, outDir, "-p", "shop")
	require.NoError(t, err)

	manifest, err := tree.ParseMap(readFile(t, filepath.Join(outDir, "app.yml")))
	require.NoError(t, err)
	spec, ok := manifest.GetMap("spec")
	require.True(t, ok)
	list, _ := spec.GetList("containers")
	require.Len(t, list, 1)
	container := list[0].(*tree.Map)
	image, _ := container.Get("image")
	assert.Equal(t, "nginx:$(TAG)", image)

	kustomization, err := tree.ParseMap(readFile(t, filepath.Join(outDir, output.KustomizationFile)))
	require.NoError(t, err)
	kind, _ := kustomization.Get("kind")
	assert.Equal(t, "Kustomization", kind)
	resources, _ := kustomization.GetList("resources")
	assert.Equal(t, []any{"app.yml"}, resources)

	assert.Contains(t, readFile(t, filepath.Join(outDir, output.SecretEnvsFile)), "DB_PASS")
}

func TestTransform_DefaultProject(t *testing.T) {
	src := filepath.Join(writeTree(t, map[string]string{"app.yml": "kind: Service\nmetadata:\n  name: web\n"}), "app.yml")
	outDir := t.TempDir()

	require.NoError(t, transform(context.Background(), src, outDir, "", &bytes.Buffer{}))

	kustomization := readFile(t, filepath.Join(outDir, output.KustomizationFile))
	assert.Contains(t, kustomization, "name: "+output.DefaultProjectName)
	assert.NoFileExists(t, filepath.Join(outDir, output.SecretEnvsFile))
}

func TestTransform_MissingSource(t *testing.T) {
	err := transform(context.Background(), filepath.Join(t.TempDir(), "nope.yml"), t.TempDir(), "", &bytes.Buffer{})
	assert.Error(t, err)
}
