package manifest

import (
	"errors"
	"fmt"

	"github.com/cameronsjo/rigger/internal/profile"
	"github.com/cameronsjo/rigger/internal/render"
	"github.com/cameronsjo/rigger/internal/tree"
)

// Validation errors for profiles.
var (
	// ErrMissingTemplate indicates a referenced template does not exist.
	ErrMissingTemplate = errors.New("missing template")

	// ErrInvalidSection indicates a mixins, wrapper or additions block that
	// is not a mapping.
	ErrInvalidSection = errors.New("invalid section")

	// ErrUnknownMergeTarget indicates a mergeIntoComponentPod naming a
	// component the profile does not declare.
	ErrUnknownMergeTarget = errors.New("unknown merge target")
)

// Issue is one problem found in a profile.
type Issue struct {
	Component string
	Err       error
}

func (i Issue) Error() string {
	if i.Component == "" {
		return i.Err.Error()
	}
	return fmt.Sprintf("%s: %v", i.Component, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}

// Validate checks a resolved profile against the templates engine can
// render, without rendering anything. It reports every problem it finds.
func Validate(engine *render.Engine, prof *tree.Map) []Issue {
	var issues []Issue

	for _, key := range []string{"header", "footer"} {
		section, ok := prof.GetMap(key)
		if !ok {
			continue
		}
		if id, ok := section.Get("template"); ok && id != nil {
			if err := checkTemplate(engine, fmt.Sprintf("%v", id)); err != nil {
				issues = append(issues, Issue{Component: key, Err: err})
			}
		}
	}

	specs := profile.Components(prof)
	for _, spec := range specs {
		if err := checkTemplate(engine, spec.Template()); err != nil {
			issues = append(issues, Issue{Component: spec.Key, Err: err})
		}
		for _, section := range []string{"mixins", "wrapper"} {
			issues = append(issues, checkSection(engine, spec, section)...)
		}
		if v, ok := spec.Data.Get("additions"); ok && v != nil {
			if _, ok := v.(*tree.Map); !ok {
				issues = append(issues, Issue{Component: spec.Key, Err: fmt.Errorf("%w: additions must be a mapping", ErrInvalidSection)})
			}
		}
		if _, ok := spec.Expose(); ok {
			if err := checkTemplate(engine, ExposeTemplate); err != nil {
				issues = append(issues, Issue{Component: spec.Key, Err: err})
			}
		}
		if target, ok := spec.MergeIntoComponentPod(); ok && !hasService(specs, target) {
			issues = append(issues, Issue{Component: spec.Key, Err: fmt.Errorf("%w: %s", ErrUnknownMergeTarget, target)})
		}
	}

	return issues
}

func checkSection(engine *render.Engine, spec profile.ComponentSpec, section string) []Issue {
	v, ok := spec.Data.Get(section)
	if !ok || v == nil {
		return nil
	}
	m, ok := v.(*tree.Map)
	if !ok {
		return []Issue{{Component: spec.Key, Err: fmt.Errorf("%w: %s must be a mapping", ErrInvalidSection, section)}}
	}

	var issues []Issue
	for name := range m.All() {
		if err := checkTemplate(engine, name); err != nil {
			issues = append(issues, Issue{Component: spec.Key, Err: fmt.Errorf("%s: %w", section, err)})
		}
	}
	return issues
}

func checkTemplate(engine *render.Engine, id string) error {
	if engine.Exists(id) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingTemplate, id)
}

func hasService(specs []profile.ComponentSpec, name string) bool {
	for _, s := range specs {
		for i := 1; i <= s.Instances(); i++ {
			if s.Name()+profile.InstanceSuffix(i) == name {
				return true
			}
		}
	}
	return false
}
