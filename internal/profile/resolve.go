package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/cameronsjo/rigger/internal/tree"
)

// InheritanceKey marks a profile as a delta over a parent profile.
const InheritanceKey = "_inheritance"

// Resolve loads the profile at path and flattens its _inheritance chain.
// The parent is the merge base and the child the overlay, so child values
// win. Each dotted path listed under unsets is removed from the merged
// result afterwards. The returned tree never contains _inheritance.
func Resolve(path string) (*tree.Map, error) {
	return resolve(path, nil)
}

func resolve(path string, chain []string) (*tree.Map, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", path, err)
	}

	// Prevent circular inheritance
	if slices.Contains(chain, abs) {
		return nil, &ConfigError{
			Path:  path,
			Chain: append(slices.Clone(chain), abs),
			Err:   ErrInheritanceCycle,
		}
	}
	chain = append(slices.Clone(chain), abs)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Chain: chain, Msg: "profile not found"}
		}
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	doc, err := tree.ParseMap(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	inheritance, _ := doc.GetMap(InheritanceKey)
	extends, _ := inheritance.GetString("extends")
	if extends == "" {
		doc.Delete(InheritanceKey)
		return doc, nil
	}

	parentPath := extends
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(filepath.Dir(path), extends)
	}
	if _, err := os.Stat(parentPath); err != nil {
		return nil, &ConfigError{
			Path:  path,
			Chain: chain,
			Msg:   fmt.Sprintf("parent file %q referenced in %q does not exist", parentPath, path),
		}
	}

	parent, err := resolve(parentPath, chain)
	if err != nil {
		return nil, fmt.Errorf("resolve parent of %s: %w", path, err)
	}

	result := tree.MergeMaps(parent, doc)
	for _, dotted := range unsets(inheritance) {
		result = tree.Unset(result, dotted)
	}
	result.Delete(InheritanceKey)

	return result, nil
}

func unsets(inheritance *tree.Map) []string {
	raw, ok := inheritance.GetList("unsets")
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			continue
		}
		paths = append(paths, fmt.Sprintf("%v", item))
	}
	return paths
}
