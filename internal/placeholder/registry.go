package placeholder

import (
	"sort"
)

// Registry accumulates the variables discovered during a run. Config
// variables keep a value; secrets are names only.
type Registry struct {
	config  map[string]string
	secrets map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		config:  make(map[string]string),
		secrets: make(map[string]struct{}),
	}
}

// Register records a token. A config variable is added with an empty value
// when first seen; a non-empty default overwrites the value, an empty one
// never erases it. Secret tokens only record their name.
func (r *Registry) Register(tok Token) {
	if tok.Secret {
		r.secrets[tok.Name] = struct{}{}
		return
	}
	if _, ok := r.config[tok.Name]; !ok {
		r.config[tok.Name] = ""
	}
	if tok.Default != "" {
		r.config[tok.Name] = tok.Default
	}
}

// Set stores a config value unconditionally.
func (r *Registry) Set(name, value string) {
	r.config[name] = value
}

// Value returns the config value registered for name.
func (r *Registry) Value(name string) (string, bool) {
	v, ok := r.config[name]
	return v, ok
}

// IsSecret reports whether name was registered as a secret.
func (r *Registry) IsSecret(name string) bool {
	_, ok := r.secrets[name]
	return ok
}

// ConfigNames returns the config variable names, sorted.
func (r *Registry) ConfigNames() []string {
	names := make([]string, 0, len(r.config))
	for name := range r.config {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Literals returns NAME=VALUE entries sorted by name. Empty values yield
// a bare NAME=.
func (r *Registry) Literals() []string {
	names := r.ConfigNames()
	literals := make([]string, 0, len(names))
	for _, name := range names {
		literals = append(literals, name+"="+r.config[name])
	}
	return literals
}

// Secrets returns the secret names, sorted.
func (r *Registry) Secrets() []string {
	names := make([]string, 0, len(r.secrets))
	for name := range r.secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
