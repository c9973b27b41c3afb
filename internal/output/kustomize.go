package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cameronsjo/rigger/internal/placeholder"
	"github.com/cameronsjo/rigger/internal/profile"
	"github.com/cameronsjo/rigger/internal/tree"
)

// Kustomize output files and defaults.
const (
	KubeTemplate       = "kube"
	KustomizationFile  = "kustomization.yaml"
	SecretEnvsFile     = "secretenvs.yaml"
	DefaultProjectName = "projectName"
)

// serviceMetaFields belong to the pod rather than a single container and
// are carried over when services share a pod.
var serviceMetaFields = []string{"_servicePorts", "_secretEnvs", "_exposes", "volumes"}

// Kustomize renders each recipe through the kube template and lowers its
// placeholders into ConfigMap and Secret references. Everything it learns
// during a run is written out by Finalize.
type Kustomize struct {
	opts     Options
	options  *tree.Map
	project  string
	registry *placeholder.Registry
	rewriter *placeholder.Rewriter

	resources      []string
	patches        []any
	configurations []string
}

// NewKustomize creates the strategy from outputProcessor.options.
func NewKustomize(options *tree.Map, opts Options) *Kustomize {
	opts = opts.withDefaults()
	if options == nil {
		options = tree.NewMap()
	}

	project := opts.ProjectName
	if project == "" {
		if v, ok := options.Get("projectName"); ok && v != nil {
			project = scalar(v)
		}
	}
	if project == "" {
		project = DefaultProjectName
	}

	reg := placeholder.NewRegistry()
	rw := placeholder.NewRewriter(project, reg, opts.Logger)
	if v, ok := options.Get("imageNameReplaces"); ok {
		rw.ImageNameReplaces = placeholder.ParseImageNameReplaces(v)
	}

	return &Kustomize{
		opts:     opts,
		options:  options,
		project:  project,
		registry: reg,
		rewriter: rw,
	}
}

func (k *Kustomize) Name() string { return KustomizeName }

func (k *Kustomize) AddExposeHosts() bool { return false }

// Project is the ConfigMap and Secret name references point at.
func (k *Kustomize) Project() string { return k.project }

// Registry exposes the variables collected so far.
func (k *Kustomize) Registry() *placeholder.Registry { return k.registry }

func (k *Kustomize) Startup(ctx context.Context) error {
	if k.opts.Writer == nil {
		return fmt.Errorf("kustomize output: no writer configured")
	}
	k.opts.Logger.Debug("kustomize project %q", k.project)
	return nil
}

func (k *Kustomize) ProcessFile(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if k.opts.Engine == nil {
		return fmt.Errorf("kustomize output: no template engine configured")
	}

	structure, err := alterStructure(f.Recipe, f.Profile)
	if err != nil {
		return err
	}

	text, err := k.opts.Engine.Render(KubeTemplate, tree.MergeMaps(k.options, structure))
	if err != nil {
		return fmt.Errorf("render %s for %s: %w", KubeTemplate, f.Source, err)
	}

	return k.emit(f.Dest, text, profileRegexes(f.Profile, k.opts))
}

// TransformFile lowers an already rendered manifest stream without
// composing anything, writing it under dest.
func (k *Kustomize) TransformFile(ctx context.Context, src, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	return k.emit(dest, string(data), nil)
}

func (k *Kustomize) emit(dest, text string, regexes []FinalRegex) error {
	docs, err := tree.ParseMulti(text)
	if err != nil {
		return fmt.Errorf("parse rendered manifests for %s: %w", dest, err)
	}
	for i, doc := range docs {
		docs[i] = k.rewriter.Rewrite(doc)
	}

	out, err := tree.DumpMulti(docs)
	if err != nil {
		return fmt.Errorf("dump %s: %w", dest, err)
	}
	if err := k.opts.Writer.Write(dest, ApplyFinalRegexes(out, regexes)); err != nil {
		return err
	}

	// Base env values win over template defaults.
	for _, e := range k.opts.BaseEnv {
		if e.Key != "_" {
			k.registry.Set(e.Key, e.Value)
		}
	}

	k.resources = append(k.resources, filepath.Base(dest))
	return nil
}

func (k *Kustomize) Finalize(ctx context.Context) error {
	if err := k.writePatches(ctx); err != nil {
		return err
	}
	if err := k.writeConfigurations(ctx); err != nil {
		return err
	}

	text, err := tree.Dump(k.kustomization())
	if err != nil {
		return fmt.Errorf("dump %s: %w", KustomizationFile, err)
	}
	if err := k.opts.Writer.Write(KustomizationFile, text); err != nil {
		return err
	}

	secrets := k.registry.Secrets()
	if len(secrets) == 0 {
		return nil
	}
	names := make([]any, 0, len(secrets))
	for _, s := range secrets {
		names = append(names, s)
	}
	text, err = tree.Dump(names)
	if err != nil {
		return fmt.Errorf("dump %s: %w", SecretEnvsFile, err)
	}
	return k.opts.Writer.Write(SecretEnvsFile, text)
}

func (k *Kustomize) writePatches(ctx context.Context) error {
	list, ok := k.options.GetList("patchesJson6902")
	if !ok {
		return nil
	}

	for i, item := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, ok := item.(*tree.Map)
		if !ok {
			k.opts.Logger.Warning("Patch #%d is not a mapping, skipping", i+1)
			continue
		}
		tmplValue, ok := entry.Get("template")
		if !ok || tmplValue == nil {
			k.opts.Logger.Warning("Patch #%d has no \"template\" set, skipping", i+1)
			continue
		}
		tmpl := scalar(tmplValue)

		params, _ := entry.GetMap("templateParams")
		patch := tree.CopyMap(entry)
		patch.Delete("template")
		patch.Delete("templateParams")

		pathValue, _ := patch.Get("path")
		path := scalar(pathValue)
		if path == "" {
			return &profile.ConfigError{
				Path: profile.SettingsFile,
				Msg:  fmt.Sprintf("patch %q has no \"path\" set", tmpl),
			}
		}
		if k.opts.Engine == nil {
			return fmt.Errorf("patch %s: no template engine configured", tmpl)
		}

		rendered, err := k.opts.Engine.Render(tmpl, params)
		if err != nil {
			return fmt.Errorf("render patch: %w", err)
		}
		pretty, err := prettyJSON(rendered)
		if err != nil {
			return fmt.Errorf("patch %s: %w", tmpl, err)
		}
		if err := k.opts.Writer.Write(path, pretty); err != nil {
			return err
		}
		k.patches = append(k.patches, patch)
	}
	return nil
}

func (k *Kustomize) writeConfigurations(ctx context.Context) error {
	list, ok := k.options.GetList("configurations")
	if !ok {
		return nil
	}
	for _, item := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := scalar(item)
		if name == "" {
			continue
		}
		if k.opts.Engine == nil {
			return fmt.Errorf("configuration %s: no template engine configured", name)
		}
		rendered, err := k.opts.Engine.Render(name, nil)
		if err != nil {
			return fmt.Errorf("render configuration: %w", err)
		}
		if err := k.opts.Writer.Write(name, rendered); err != nil {
			return err
		}
		k.configurations = append(k.configurations, name)
	}
	return nil
}

func (k *Kustomize) kustomization() *tree.Map {
	resources := make([]any, 0, len(k.resources))
	for _, r := range k.resources {
		resources = append(resources, r)
	}

	doc := tree.MapOf(
		"apiVersion", "kustomize.config.k8s.io/v1beta1",
		"kind", "Kustomization",
		"resources", resources,
	)
	if len(k.patches) > 0 {
		doc.Set("patchesJson6902", k.patches)
	}
	if len(k.configurations) > 0 {
		configurations := make([]any, 0, len(k.configurations))
		for _, c := range k.configurations {
			configurations = append(configurations, c)
		}
		doc.Set("configurations", configurations)
	}

	literals := make([]any, 0)
	for _, l := range k.registry.Literals() {
		literals = append(literals, l)
	}
	doc.Set("configMapGenerator", []any{
		tree.MapOf("name", k.project, "literals", literals),
	})

	vars := make([]any, 0)
	for _, name := range k.registry.ConfigNames() {
		vars = append(vars, tree.MapOf(
			"name", name,
			"objref", tree.MapOf("apiVersion", "v1", "kind", "ConfigMap", "name", k.project),
			"fieldref", tree.MapOf("fieldpath", "data."+name),
		))
	}
	doc.Set("vars", vars)

	return doc
}

// alterStructure prepares a recipe for the kube template: every service
// carries its own container and volume list, picks up replicas from the
// profile, and services with mergeIntoComponentPod are folded into their
// target's pod.
func alterStructure(recipe, prof *tree.Map) (*tree.Map, error) {
	structure := tree.CopyMap(recipe)
	services, ok := structure.GetMap("services")
	if !ok {
		return structure, nil
	}

	prepared := tree.NewMap()
	for name, value := range services.All() {
		svc, ok := value.(*tree.Map)
		if !ok {
			svc = tree.NewMap()
		}

		container := tree.CopyMap(svc)
		container.Set("name", name)

		volumes := make([]any, 0)
		if vols, ok := svc.GetList("_volumes"); ok {
			for _, vol := range vols {
				volumes = append(volumes, tree.MapOf("serviceName", name, "name", vol))
			}
		}

		svc.Set("containers", []any{container})
		svc.Set("volumes", volumes)
		if spec, ok := profile.Lookup(prof, name); ok {
			if replicas, ok := spec.Replicas(); ok && replicas != nil {
				svc.Set("replicas", replicas)
			}
		}
		prepared.Set(name, svc)
	}

	merged := tree.NewMap()
	for name, value := range prepared.All() {
		if merged.Has(name) {
			continue
		}
		svc := value.(*tree.Map)

		spec, _ := profile.Lookup(prof, name)
		target, ok := spec.MergeIntoComponentPod()
		if !ok {
			merged.Set(name, svc)
			continue
		}

		targetSvc, ok := merged.GetMap(target)
		if !ok {
			src, exists := prepared.GetMap(target)
			if !exists {
				return nil, &profile.ConfigError{
					Msg: fmt.Sprintf("service %q wants to be merged into %q, which does not exist", name, target),
				}
			}
			targetSvc = tree.CopyMap(src)
		}

		for _, field := range serviceMetaFields {
			mergeMetaField(targetSvc, svc, field)
		}
		containers, _ := targetSvc.GetList("containers")
		if own, ok := svc.GetList("containers"); ok && len(own) > 0 {
			containers = append(append([]any(nil), containers...), own[0])
		}
		targetSvc.Set("containers", containers)
		merged.Set(target, targetSvc)
	}

	structure.Set("services", merged)
	return structure, nil
}

func mergeMetaField(target, src *tree.Map, field string) {
	sv, ok := src.Get(field)
	if !ok || sv == nil {
		return
	}
	tv, ok := target.Get(field)
	if !ok || tv == nil {
		target.Set(field, tree.Copy(sv))
		return
	}

	switch t := tv.(type) {
	case []any:
		if s, ok := sv.([]any); ok {
			target.Set(field, append(append([]any(nil), t...), tree.Copy(s).([]any)...))
			return
		}
	case *tree.Map:
		if s, ok := sv.(*tree.Map); ok {
			target.Set(field, tree.MergeMaps(t, s))
			return
		}
	}
	target.Set(field, tree.Copy(sv))
}

func prettyJSON(text string) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return out.String(), nil
}
