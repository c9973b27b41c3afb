package docker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/cameronsjo/rigger/internal/tree"
	"github.com/cameronsjo/rigger/internal/ui"
)

// Image is an image reference and the files that mention it.
type Image struct {
	Name  string
	Files []string
}

// CollectImages reads every *.yml below dir and returns the image of each
// service, in file then service order. Hidden directories are skipped.
func CollectImages(dir string) ([]Image, error) {
	var images []Image
	index := make(map[string]int)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".yml" {
			return nil
		}

		names, err := fileImages(path)
		if err != nil {
			return err
		}
		for _, name := range names {
			if i, ok := index[name]; ok {
				if !contains(images[i].Files, path) {
					images[i].Files = append(images[i].Files, path)
				}
				continue
			}
			index[name] = len(images)
			images = append(images, Image{Name: name, Files: []string{path}})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect images: %w", err)
	}
	return images, nil
}

func fileImages(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := tree.ParseMulti(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var names []string
	for _, doc := range docs {
		m, ok := doc.(*tree.Map)
		if !ok {
			continue
		}
		services, ok := m.GetMap("services")
		if !ok {
			continue
		}
		for _, v := range services.All() {
			svc, ok := v.(*tree.Map)
			if !ok {
				continue
			}
			if image, ok := svc.GetString("image"); ok && image != "" {
				names = append(names, image)
			}
		}
	}
	return names, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ImageChecker verifies images against their registries.
type ImageChecker struct {
	client *Client
	logger ui.Logger
}

// NewImageChecker creates an ImageChecker.
func NewImageChecker(client *Client, logger ui.Logger) *ImageChecker {
	if logger == nil {
		logger = ui.Discard
	}
	return &ImageChecker{client: client, logger: logger}
}

// Verify checks every image and returns all failures at once. An image
// still carrying a ${...} placeholder fails without a registry lookup.
func (c *ImageChecker) Verify(ctx context.Context, images []Image) error {
	var result *multierror.Error
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}

		if strings.Contains(img.Name, "${") {
			result = multierror.Append(result, fmt.Errorf("%s: unresolved placeholder (in %s)", img.Name, strings.Join(img.Files, ", ")))
			continue
		}

		digest, err := c.client.Digest(ctx, img.Name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w (in %s)", img.Name, err, strings.Join(img.Files, ", ")))
			continue
		}
		c.logger.Info("%s %s", img.Name, digest)
	}
	return result.ErrorOrNil()
}
