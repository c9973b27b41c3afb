package manifest

import (
	"fmt"

	"github.com/cameronsjo/rigger/internal/render"
	"github.com/cameronsjo/rigger/internal/tree"
)

// Stage names the composition step a template was rendered in.
type Stage string

const (
	StageBase     Stage = "base"
	StageMixin    Stage = "mixin"
	StageAddition Stage = "addition"
	StageWrapper  Stage = "wrapper"
	StageExpose   Stage = "expose"
	StageHeader   Stage = "header"
	StageFooter   Stage = "footer"
	StageScript   Stage = "script"
)

// ExposeTemplate renders the sidecar of components with an expose block.
const ExposeTemplate = "_expose"

// ComposeError reports a failed template together with the stage it
// failed in.
type ComposeError struct {
	Template string
	Stage    Stage
	Err      error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("compose %s (%s): %v", e.Template, e.Stage, e.Err)
}

func (e *ComposeError) Unwrap() error {
	return e.Err
}

// Composer builds service definitions out of templates.
type Composer struct {
	Engine *render.Engine
}

// NewComposer creates a Composer rendering through engine.
func NewComposer(engine *render.Engine) *Composer {
	return &Composer{Engine: engine}
}

// ComposeComponent renders templateID with data and layers the
// component's mixins, additions and wrappers on top, in that order.
//
// Each mixin is rendered with data merged with the mixin's own data and
// merged onto the result. additions are merged verbatim. Each wrapper is
// rendered with the result so far merged with the wrapper's data and
// replaces it.
func (c *Composer) ComposeComponent(templateID string, data *tree.Map) (*tree.Map, error) {
	return c.compose(templateID, data, StageBase)
}

func (c *Composer) compose(templateID string, data *tree.Map, stage Stage) (*tree.Map, error) {
	if data == nil {
		data = tree.NewMap()
	}

	base, err := c.renderMap(templateID, data)
	if err != nil {
		return nil, &ComposeError{Template: templateID, Stage: stage, Err: err}
	}

	if mixins, ok := data.Get("mixins"); ok && mixins != nil {
		list, ok := mixins.(*tree.Map)
		if !ok {
			return nil, &ComposeError{Template: templateID, Stage: StageMixin, Err: fmt.Errorf("mixins must be a mapping, got %T", mixins)}
		}
		for name, value := range list.All() {
			mixinData, err := sectionData(value)
			if err != nil {
				return nil, &ComposeError{Template: name, Stage: StageMixin, Err: err}
			}
			mixin, err := c.renderMap(name, tree.MergeMaps(data, mixinData))
			if err != nil {
				return nil, &ComposeError{Template: name, Stage: StageMixin, Err: err}
			}
			base = tree.MergeMaps(base, mixin)
		}
	}

	if additions, ok := data.Get("additions"); ok && additions != nil {
		m, ok := additions.(*tree.Map)
		if !ok {
			return nil, &ComposeError{Template: templateID, Stage: StageAddition, Err: fmt.Errorf("additions must be a mapping, got %T", additions)}
		}
		base = tree.MergeMaps(base, m)
	}

	if wrappers, ok := data.Get("wrapper"); ok && wrappers != nil {
		list, ok := wrappers.(*tree.Map)
		if !ok {
			return nil, &ComposeError{Template: templateID, Stage: StageWrapper, Err: fmt.Errorf("wrapper must be a mapping, got %T", wrappers)}
		}
		for name, value := range list.All() {
			wrapperData, err := sectionData(value)
			if err != nil {
				return nil, &ComposeError{Template: name, Stage: StageWrapper, Err: err}
			}
			base, err = c.renderMap(name, tree.MergeMaps(base, wrapperData))
			if err != nil {
				return nil, &ComposeError{Template: name, Stage: StageWrapper, Err: err}
			}
		}
	}

	return base, nil
}

// composeExpose renders the expose sidecar for one service instance.
func (c *Composer) composeExpose(data *tree.Map) (*tree.Map, error) {
	m, err := c.renderMap(ExposeTemplate, data)
	if err != nil {
		return nil, &ComposeError{Template: ExposeTemplate, Stage: StageExpose, Err: err}
	}
	return m, nil
}

// renderMap renders a template and parses the output. A multi-document
// output is folded into one map, later documents winning.
func (c *Composer) renderMap(id string, data *tree.Map) (*tree.Map, error) {
	if c.Engine == nil {
		return nil, fmt.Errorf("no template engine configured")
	}
	text, err := c.Engine.Render(id, data)
	if err != nil {
		return nil, err
	}

	docs, err := tree.ParseMulti(text)
	if err != nil {
		return nil, err
	}

	result := tree.NewMap()
	for i, doc := range docs {
		m, ok := doc.(*tree.Map)
		if !ok {
			return nil, fmt.Errorf("document %d of %s is %T, not a mapping", i+1, id, doc)
		}
		result = tree.MergeMaps(result, m)
	}
	return result, nil
}

// sectionData returns the data of a mixin or wrapper entry. A missing
// value means no data.
func sectionData(v any) (*tree.Map, error) {
	switch t := v.(type) {
	case nil:
		return tree.NewMap(), nil
	case *tree.Map:
		return t, nil
	default:
		return nil, fmt.Errorf("data must be a mapping, got %T", v)
	}
}
