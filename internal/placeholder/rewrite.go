package placeholder

import (
	"fmt"
	"strings"

	"github.com/cameronsjo/rigger/internal/tree"
	"github.com/cameronsjo/rigger/internal/ui"
)

// ImageNameReplace is a plain substring replacement applied to `image`
// and `name` values before placeholders are lowered.
type ImageNameReplace struct {
	Search  string
	Replace string
}

// ParseImageNameReplaces reads a list of {search, replace} maps. Entries
// without a search string are ignored.
func ParseImageNameReplaces(v any) []ImageNameReplace {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var replaces []ImageNameReplace
	for _, item := range list {
		entry, ok := item.(*tree.Map)
		if !ok {
			continue
		}
		search, _ := entry.Get("search")
		replace, _ := entry.Get("replace")
		if search == nil {
			continue
		}
		r := ImageNameReplace{Search: fmt.Sprintf("%v", search)}
		if replace != nil {
			r.Replace = fmt.Sprintf("%v", replace)
		}
		replaces = append(replaces, r)
	}
	return replaces
}

// Rewriter lowers ${...} placeholders in Kubernetes documents into
// $(NAME) references, or into configMapKeyRef/secretKeyRef objects when a
// leaf is an entire env var value. Every variable it meets is registered.
type Rewriter struct {
	Project           string
	Registry          *Registry
	ImageNameReplaces []ImageNameReplace
	Logger            ui.Logger

	component string
}

// NewRewriter creates a Rewriter that registers into reg.
func NewRewriter(project string, reg *Registry, logger ui.Logger) *Rewriter {
	if logger == nil {
		logger = ui.Discard
	}
	return &Rewriter{Project: project, Registry: reg, Logger: logger}
}

// Rewrite returns a copy of doc with every string leaf lowered.
func (r *Rewriter) Rewrite(doc any) any {
	return tree.Transform(doc, r.rewriteLeaf)
}

// Component returns the last metadata.name seen, for diagnostics.
func (r *Rewriter) Component() string {
	return r.component
}

func (r *Rewriter) rewriteLeaf(path []string, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	dotted := strings.Join(path, ".")
	if dotted == "metadata.name" {
		r.component = s
	}

	if len(path) > 0 {
		if key := path[len(path)-1]; key == "image" || key == "name" {
			for _, rep := range r.ImageNameReplaces {
				s = strings.ReplaceAll(s, rep.Search, rep.Replace)
			}
		}
	}

	tokens := Find(s)
	if len(tokens) == 0 {
		return s
	}

	s, secret := StripSecret(s)
	// Only a value that is exactly one placeholder becomes a reference
	// object; anything else keeps its text around $(NAME).
	envValue := IsEnvValuePath(dotted) && len(tokens) == 1 && s == tokens[0].Raw

	var result any = s
	for _, tok := range tokens {
		tok.Secret = secret
		tok.Path = dotted
		r.Registry.Register(tok)
		r.Logger.Debug("%s: %s at %s", r.component, tok.Name, dotted)

		if envValue {
			result = r.reference(tok)
			continue
		}
		if str, ok := result.(string); ok {
			result = strings.ReplaceAll(str, tok.Raw, "$("+tok.Name+")")
		}
	}
	return result
}

func (r *Rewriter) reference(tok Token) *tree.Map {
	kind := "configMapKeyRef"
	if tok.Secret {
		kind = "secretKeyRef"
	}
	return tree.MapOf(kind, tree.MapOf("name", r.Project, "key", tok.Name))
}
