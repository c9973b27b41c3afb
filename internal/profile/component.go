package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cameronsjo/rigger/internal/tree"
)

// ComponentSpec is a view over one entry of a profile's components map.
type ComponentSpec struct {
	// Key is the entry's key in the components map.
	Key string

	// Data is the entry itself. It is also the render context of the
	// component's templates.
	Data *tree.Map
}

// Components returns the profile's components in declaration order.
// Entries that are not maps get empty data.
func Components(profile *tree.Map) []ComponentSpec {
	components, _ := profile.GetMap("components")
	specs := make([]ComponentSpec, 0, components.Len())
	for key, value := range components.All() {
		data, ok := value.(*tree.Map)
		if !ok {
			data = tree.NewMap()
		}
		specs = append(specs, ComponentSpec{Key: key, Data: data})
	}
	return specs
}

// Lookup returns the component declared under key.
func Lookup(profile *tree.Map, key string) (ComponentSpec, bool) {
	components, _ := profile.GetMap("components")
	data, ok := components.GetMap(key)
	if !ok {
		return ComponentSpec{}, false
	}
	return ComponentSpec{Key: key, Data: data}, true
}

// Name is the service base name: `name` when set, the component key otherwise.
func (c ComponentSpec) Name() string {
	if name := scalarString(c.Data, "name"); name != "" {
		return name
	}
	return c.Key
}

// Template is the template id to render: `template` when set, the component
// key otherwise.
func (c ComponentSpec) Template() string {
	if tmpl := scalarString(c.Data, "template"); tmpl != "" {
		return tmpl
	}
	return c.Key
}

// Instances returns how many services the component expands to. Absent or
// non-numeric values, and values below one, yield 1.
func (c ComponentSpec) Instances() int {
	v, ok := c.Data.Get("instances")
	if !ok {
		return 1
	}
	n := 1
	switch t := v.(type) {
	case int:
		n = t
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			n = int(t)
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			n = int(parsed)
		}
	case tree.Literal:
		if parsed, err := strconv.ParseInt(string(t), 0, 64); err == nil {
			n = int(parsed)
		}
	}
	return max(1, n)
}

// InstanceSuffix is "" for the first instance and the decimal index otherwise.
func InstanceSuffix(i int) string {
	if i <= 1 {
		return ""
	}
	return strconv.Itoa(i)
}

// ForInstance returns the forInstance<i> override map.
func (c ComponentSpec) ForInstance(i int) (*tree.Map, bool) {
	return c.Data.GetMap("forInstance" + strconv.Itoa(i))
}

// Expose returns the expose data that triggers a sibling -expose service.
func (c ComponentSpec) Expose() (*tree.Map, bool) {
	return c.Data.GetMap("expose")
}

// Replicas returns the Kubernetes replica count, if declared.
func (c ComponentSpec) Replicas() (any, bool) {
	return c.Data.Get("replicas")
}

// MergeIntoComponentPod names the service whose pod should host this
// component's container.
func (c ComponentSpec) MergeIntoComponentPod() (string, bool) {
	target := scalarString(c.Data, "mergeIntoComponentPod")
	return target, target != ""
}

func scalarString(m *tree.Map, key string) string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case *tree.Map, []any:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
