// Package preflight checks for the external tools rigger shells out to.
package preflight

import (
	"fmt"
	"os/exec"
)

// Tool is an external binary and the feature that needs it.
type Tool struct {
	Name        string
	Feature     string
	InstallHint string
}

// Tools lists every binary some rigger feature invokes. None is needed for
// plain transpiling.
var Tools = []Tool{
	{
		Name:        "sops",
		Feature:     "decrypting SOPS-encrypted base env files",
		InstallHint: "Install sops: https://github.com/getsops/sops/releases",
	},
	{
		Name:        "docker",
		Feature:     "verify-images",
		InstallHint: "Install Docker: https://docs.docker.com/get-docker/",
	},
}

// LookPath finds a binary. Tests replace it.
var LookPath = exec.LookPath

// MissingError reports a binary that is not on PATH.
type MissingError struct {
	Tool Tool
}

func (e *MissingError) Error() string {
	if e.Tool.InstallHint == "" {
		return fmt.Sprintf("%s not found in PATH", e.Tool.Name)
	}
	return fmt.Sprintf("%s not found in PATH (%s)", e.Tool.Name, e.Tool.InstallHint)
}

// Require returns a *MissingError when name cannot be found. A name that is
// not one of Tools, such as a custom sops path, is checked without a hint.
func Require(name string) error {
	if IsAvailable(name) {
		return nil
	}
	tool := Tool{Name: name}
	for _, t := range Tools {
		if t.Name == name {
			tool = t
			break
		}
	}
	return &MissingError{Tool: tool}
}

// IsAvailable reports whether name is found in PATH.
func IsAvailable(name string) bool {
	_, err := LookPath(name)
	return err == nil
}

// Missing returns the Tools that are not installed.
func Missing() []Tool {
	var missing []Tool
	for _, t := range Tools {
		if !IsAvailable(t.Name) {
			missing = append(missing, t)
		}
	}
	return missing
}

// Warnings describes every missing tool and what stops working without it.
func Warnings() []string {
	var warnings []string
	for _, t := range Missing() {
		warnings = append(warnings, fmt.Sprintf("%s not found, %s is unavailable: %s", t.Name, t.Feature, t.InstallHint))
	}
	return warnings
}
