package manifest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cameronsjo/rigger/internal/output"
	"github.com/cameronsjo/rigger/internal/profile"
	"github.com/cameronsjo/rigger/internal/release"
	"github.com/cameronsjo/rigger/internal/render"
	"github.com/cameronsjo/rigger/internal/tree"
	"github.com/cameronsjo/rigger/internal/ui"
)

// Default header and footer template ids.
const (
	HeaderTemplate = "header"
	FooterTemplate = "footer"
)

// ReleaseIDFile records which release file a directory run used.
const ReleaseIDFile = "release-id.release"

// Config wires a Transpiler.
type Config struct {
	Engine   *render.Engine
	Paths    output.Paths
	Writer   *output.Writer
	Strategy output.Strategy
	Settings *profile.Settings
	Release  *release.Replacer
	// ReleaseFile is the path Release was loaded from, empty when none.
	ReleaseFile string
	Logger      ui.Logger
}

// Transpiler turns profiles into recipes and hands them to the output
// strategy.
type Transpiler struct {
	cfg      Config
	composer *Composer
}

// NewTranspiler creates a Transpiler. Settings, Release and Logger get
// empty defaults when unset.
func NewTranspiler(cfg Config) *Transpiler {
	if cfg.Settings == nil {
		cfg.Settings = profile.NewSettings(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = ui.Discard
	}
	if cfg.Release == nil {
		cfg.Release = release.New(nil, cfg.Logger)
	}
	return &Transpiler{cfg: cfg, composer: NewComposer(cfg.Engine)}
}

// Run transpiles every profile under the configured path in order, then
// lets the strategy finalize. The first error stops the run.
func (t *Transpiler) Run(ctx context.Context) error {
	if err := t.cfg.Strategy.Startup(ctx); err != nil {
		return fmt.Errorf("start %s output: %w", t.cfg.Strategy.Name(), err)
	}

	resources, err := t.cfg.Paths.Resources()
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		t.cfg.Logger.Warning("No profiles found in %s", t.cfg.Paths.ProfilePath)
	}

	for _, res := range resources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.TranspileFile(ctx, res.Source, res.Dest); err != nil {
			return fmt.Errorf("transpile %s: %w", res.Source, err)
		}
	}

	if err := t.cfg.Strategy.Finalize(ctx); err != nil {
		return fmt.Errorf("finalize %s output: %w", t.cfg.Strategy.Name(), err)
	}

	if t.cfg.Paths.ProfileIsDir() && t.cfg.ReleaseFile != "" {
		if err := t.cfg.Writer.Write(ReleaseIDFile, filepath.Base(t.cfg.ReleaseFile)); err != nil {
			return err
		}
	}
	return nil
}

// TranspileFile turns one profile into a recipe written under dest.
// A profile that already has version and services is copied through.
func (t *Transpiler) TranspileFile(ctx context.Context, profilePath, dest string) error {
	prof, err := profile.Resolve(profilePath)
	if err != nil {
		return err
	}

	if isRecipe(prof) {
		t.cfg.Logger.Info("%s is already a recipe, copying it", profilePath)
		return t.cfg.Writer.Copy(profilePath, dest)
	}

	recipe, err := t.Compose(prof)
	if err != nil {
		return err
	}
	if replaced, ok := t.cfg.Release.ReplaceTree(recipe).(*tree.Map); ok {
		recipe = replaced
	}

	if err := t.cfg.Strategy.ProcessFile(ctx, output.File{
		Source:  profilePath,
		Dest:    dest,
		Recipe:  recipe,
		Profile: prof,
	}); err != nil {
		return err
	}

	return t.writeAddedFiles(prof, recipe, dest)
}

// Compose builds the recipe of a resolved profile: the header, one
// service per component instance (plus expose sidecars when the strategy
// wants them) and the footer merged on top.
func (t *Transpiler) Compose(prof *tree.Map) (*tree.Map, error) {
	recipe, err := t.composeFrame(prof, "header", HeaderTemplate, StageHeader, nil)
	if err != nil {
		return nil, err
	}

	services, ok := recipe.GetMap("services")
	if !ok {
		services = tree.NewMap()
	}
	if err := t.composeServices(prof, services); err != nil {
		return nil, err
	}
	recipe.Set("services", services)

	footer, err := t.composeFrame(prof, "footer", FooterTemplate, StageFooter,
		tree.MapOf("profile", prof, "recipe", recipe))
	if err != nil {
		return nil, err
	}
	return tree.MergeMaps(recipe, footer), nil
}

func (t *Transpiler) composeServices(prof *tree.Map, services *tree.Map) error {
	addExpose := t.cfg.Strategy != nil && t.cfg.Strategy.AddExposeHosts()

	for _, spec := range profile.Components(prof) {
		for i := 1; i <= spec.Instances(); i++ {
			suffix := profile.InstanceSuffix(i)
			name := spec.Name() + suffix

			data := spec.Data
			if override, ok := spec.ForInstance(i); ok {
				data = tree.MergeMaps(data, override)
			} else {
				data = tree.CopyMap(data)
			}
			data.Set("instanceSuffix", suffix)

			svc, err := t.composer.ComposeComponent(spec.Template(), data)
			if err != nil {
				return fmt.Errorf("component %s: %w", spec.Key, err)
			}
			services.Set(name, svc)

			if !addExpose {
				continue
			}
			if expose, ok := spec.Expose(); ok {
				sidecar, err := t.composer.composeExpose(expose)
				if err != nil {
					return fmt.Errorf("component %s: %w", spec.Key, err)
				}
				services.Set(name+"-expose", sidecar)
			}
		}
	}
	return nil
}

// composeFrame renders the header or footer. The profile section may name
// a different template under `template`. Without an explicit template a
// missing default template contributes nothing.
func (t *Transpiler) composeFrame(prof *tree.Map, key, defaultID string, stage Stage, extra *tree.Map) (*tree.Map, error) {
	data, ok := prof.GetMap(key)
	if ok {
		data = tree.CopyMap(data)
	} else {
		data = tree.NewMap()
	}

	id := defaultID
	explicit := false
	if v, ok := data.Get("template"); ok && v != nil {
		id = fmt.Sprintf("%v", v)
		explicit = true
		data.Delete("template")
	}
	if extra != nil {
		data = tree.MergeMaps(data, extra)
	}

	if !explicit && (t.cfg.Engine == nil || !t.cfg.Engine.Exists(id)) {
		t.cfg.Logger.Debug("no %s template, skipping", key)
		return tree.NewMap(), nil
	}
	return t.composer.compose(id, data, stage)
}

func (t *Transpiler) writeAddedFiles(prof, recipe *tree.Map, dest string) error {
	files, err := t.cfg.Settings.AddedFiles()
	if err != nil {
		return err
	}
	scripts, _ := prof.Get("scripts")
	profileScripts, err := profile.ParseAddedFiles("scripts", scripts)
	if err != nil {
		return err
	}
	files = append(files, profileScripts...)
	if len(files) == 0 {
		return nil
	}

	envFilePath := ""
	if namer, ok := t.cfg.Strategy.(output.EnvFileNamer); ok {
		envFilePath = namer.EnvFilePath()
	}
	images := imageList(recipe)
	base := tree.MapOf(
		"recipe", recipe,
		"recipePath", dest,
		"envFilePath", envFilePath,
		"imageList", images,
		"imageListUnique", unique(images),
	)

	for _, f := range files {
		text, err := t.cfg.Engine.Render(f.Template, tree.MergeMaps(base, f.Vars))
		if err != nil {
			return &ComposeError{Template: f.Template, Stage: StageScript, Err: err}
		}
		if f.IsYAML {
			docs, err := tree.ParseMulti(text)
			if err != nil {
				return &ComposeError{Template: f.Template, Stage: StageScript, Err: err}
			}
			if text, err = tree.DumpMulti(docs); err != nil {
				return &ComposeError{Template: f.Template, Stage: StageScript, Err: err}
			}
		}
		if err := t.cfg.Writer.Write(f.DestinationFile, text); err != nil {
			return err
		}
	}
	return nil
}

func isRecipe(prof *tree.Map) bool {
	version, _ := prof.Get("version")
	services, _ := prof.Get("services")
	return version != nil && services != nil
}

// imageList returns the image of every service, in service order.
func imageList(recipe *tree.Map) []any {
	services, _ := recipe.GetMap("services")
	images := make([]any, 0, services.Len())
	for _, v := range services.All() {
		svc, ok := v.(*tree.Map)
		if !ok {
			continue
		}
		if image, ok := svc.Get("image"); ok && image != nil {
			images = append(images, fmt.Sprintf("%v", image))
		}
	}
	return images
}

func unique(values []any) []any {
	seen := make(map[any]bool, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
