package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/rigger/internal/manifest"
	"github.com/cameronsjo/rigger/internal/output"
	"github.com/cameronsjo/rigger/internal/preflight"
	"github.com/cameronsjo/rigger/internal/profile"
	"github.com/cameronsjo/rigger/internal/render"
	"github.com/cameronsjo/rigger/internal/ui"
)

// validateCmd checks profiles without rendering them.
var validateCmd = &cobra.Command{
	Use:   "validate <templateDir> <profile>",
	Short: "Check profiles against the template directory",
	Long: `Validate profiles without writing anything.

This command resolves every profile, including inheritance, and checks:
  1. transpiler.yml and the output processor it selects
  2. that every component, mixin, wrapper, header and footer template exists
  3. that mixins, wrappers and additions are mappings
  4. that mergeIntoComponentPod names an existing service

Missing optional tools (sops, docker) are reported as warnings.

Use this before transpiling to catch configuration issues early.

Examples:
  rigger validate templates/ profiles/
  rigger validate templates/ profiles/shop.yml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateProfiles(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateProfiles(out io.Writer, templateDir, profilePath string) error {
	engine, err := render.New(templateDir)
	if err != nil {
		return err
	}

	errors := 0

	settings, err := profile.LoadSettings(profilePath)
	if err != nil {
		return err
	}
	if _, err := output.New(settings, output.Options{Engine: engine, Logger: logger}); err != nil {
		ui.Red.Fprintf(out, "  x %v\n", err)
		errors++
	}
	if _, err := settings.AddedFiles(); err != nil {
		ui.Red.Fprintf(out, "  x %v\n", err)
		errors++
	}

	profiles, err := profile.Discover(profilePath)
	if err != nil {
		return err
	}
	ui.Header("Validating %d profile(s) against %s", len(profiles), templateDir)
	for _, path := range profiles {
		prof, err := profile.Resolve(path)
		if err != nil {
			ui.Red.Fprintf(out, "  x %v\n", err)
			errors++
			continue
		}

		issues := manifest.Validate(engine, prof)
		if len(issues) == 0 {
			ui.Green.Fprintf(out, "  * %s\n", path)
			continue
		}
		ui.Red.Fprintf(out, "  x %s\n", path)
		for _, issue := range issues {
			fmt.Fprintf(out, "      %v\n", issue)
		}
		errors += len(issues)
	}

	for _, warning := range preflight.Warnings() {
		ui.Warning("%s", warning)
	}

	if errors > 0 {
		return fmt.Errorf("validation failed with %d error(s)", errors)
	}
	ui.Success("All %d profile(s) are valid", len(profiles))
	return nil
}
