package output

import (
	"context"
	"fmt"
	"strings"

	"github.com/cameronsjo/rigger/internal/envfile"
	"github.com/cameronsjo/rigger/internal/placeholder"
	"github.com/cameronsjo/rigger/internal/tree"
)

// DistEnvFile is the shared env file of a directory run.
const DistEnvFile = "dist.env"

// Compose writes docker-compose recipes. Placeholders stay in the recipe;
// their names are collected into a companion env file, or resolved inline
// when inflecting.
type Compose struct {
	opts    Options
	envFile string
}

// NewCompose creates the compose strategy.
func NewCompose(opts Options) *Compose {
	return &Compose{opts: opts.withDefaults()}
}

func (c *Compose) Name() string { return ComposeName }

func (c *Compose) AddExposeHosts() bool { return true }

func (c *Compose) Startup(ctx context.Context) error {
	if c.opts.Writer == nil {
		return fmt.Errorf("compose output: no writer configured")
	}
	if c.opts.Inflect && c.opts.BaseEnv == nil {
		c.opts.Logger.Warning("Inflect requested without a base env file, placeholders fall back to their defaults")
	}
	return nil
}

// EnvFilePath is the env file name of the last processed recipe, empty
// when none was written.
func (c *Compose) EnvFilePath() string {
	return c.envFile
}

func (c *Compose) ProcessFile(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text, err := tree.Dump(f.Recipe)
	if err != nil {
		return fmt.Errorf("dump %s: %w", f.Dest, err)
	}
	text = tree.UnquoteModes(text)
	text = ApplyFinalRegexes(text, profileRegexes(f.Profile, c.opts))

	c.envFile = ""
	switch {
	case c.opts.Inflect:
		text = placeholder.NewInflector(envfile.Values(c.opts.BaseEnv), c.opts.Logger).Replace(text)
	case f.Dest != Stdout:
		if err := c.writeEnvFile(f.Dest, text); err != nil {
			return err
		}
	}

	return c.opts.Writer.Write(f.Dest, text)
}

func (c *Compose) Finalize(ctx context.Context) error {
	return nil
}

func (c *Compose) writeEnvFile(dest, text string) error {
	name := envFileName(dest, c.opts.Writer.Paths.ProfileIsDir())
	w := c.opts.Writer

	content, exists, err := w.Read(name)
	if err != nil {
		return err
	}
	original := content
	now := c.opts.Now()

	discovered := envfile.Blank(placeholder.ScanText(text))
	entries := append(append([]envfile.Entry(nil), c.opts.BaseEnv...), discovered...)
	if strings.TrimSpace(content) == "" && len(c.opts.BaseEnv) > 0 {
		// A fresh file starts with the base entries; discovered names go
		// below the dated marker.
		content, _ = envfile.MergeNoOverwrite(content, c.opts.BaseEnv, now)
		entries = discovered
	}
	content, added := envfile.MergeNoOverwrite(content, entries, now)

	c.envFile = name
	if exists && content == original {
		return nil
	}
	if len(added) > 0 {
		c.opts.Logger.Debug("%s: added %s", name, strings.Join(added, ", "))
	}
	return w.Write(name, content)
}

func envFileName(dest string, profileDir bool) string {
	if profileDir {
		return DistEnvFile
	}
	if base, ok := strings.CutSuffix(dest, ".yml"); ok {
		return base + ".env"
	}
	return dest + ".env"
}

func profileRegexes(profile *tree.Map, opts Options) []FinalRegex {
	v, ok := profile.Get("finalRegexes")
	if !ok {
		return nil
	}
	return ParseFinalRegexes(v, opts.Logger)
}
