// Package output turns composed recipes into deployable artifacts.
//
// A Strategy is picked once per run from transpiler.yml's
// outputProcessor.name. Compose writes docker-compose files with a
// companion .env; Kustomize renders Kubernetes manifests, lowers
// placeholders into ConfigMap and Secret references and writes a
// kustomization.yaml when the run finishes.
package output

import (
	"context"
	"fmt"
	"time"

	"github.com/cameronsjo/rigger/internal/envfile"
	"github.com/cameronsjo/rigger/internal/profile"
	"github.com/cameronsjo/rigger/internal/render"
	"github.com/cameronsjo/rigger/internal/tree"
	"github.com/cameronsjo/rigger/internal/ui"
)

// Output processor names accepted in transpiler.yml.
const (
	ComposeName   = "compose"
	KustomizeName = "kube-kustomize"
)

// File is one composed recipe on its way out.
type File struct {
	// Source is the profile the recipe came from.
	Source string
	// Dest is the output name, resolved by the Writer.
	Dest    string
	Recipe  *tree.Map
	Profile *tree.Map
}

// Strategy lowers recipes into artifacts.
type Strategy interface {
	Name() string
	Startup(ctx context.Context) error
	ProcessFile(ctx context.Context, f File) error
	Finalize(ctx context.Context) error
	// AddExposeHosts reports whether `expose` sidecar services should be
	// composed for this output.
	AddExposeHosts() bool
}

// EnvFileNamer is implemented by strategies that write an env file next
// to each manifest.
type EnvFileNamer interface {
	EnvFilePath() string
}

// Options carries the collaborators shared by all strategies.
type Options struct {
	Engine *render.Engine
	Writer *Writer
	// BaseEnv holds the entries of the --base-env file, nil when none was
	// given.
	BaseEnv []envfile.Entry
	Inflect bool
	// ProjectName overrides outputProcessor.options.projectName.
	ProjectName string
	Logger      ui.Logger
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = ui.Discard
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// New selects the strategy named in settings.
func New(settings *profile.Settings, opts Options) (Strategy, error) {
	if settings == nil {
		settings = profile.NewSettings(nil)
	}
	opts = opts.withDefaults()

	switch name := settings.OutputProcessor(); name {
	case "", ComposeName:
		return NewCompose(opts), nil
	case KustomizeName:
		return NewKustomize(settings.OutputOptions(), opts), nil
	default:
		return nil, &profile.ConfigError{
			Path: profile.SettingsFile,
			Msg:  fmt.Sprintf("unknown output processor %q (want %q or %q)", name, ComposeName, KustomizeName),
		}
	}
}

func scalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case tree.Literal:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
