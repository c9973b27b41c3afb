// Package secrets decrypts SOPS-encrypted env files.
package secrets

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cameronsjo/rigger/internal/envfile"
	"github.com/cameronsjo/rigger/internal/preflight"
)

// DefaultCommand is the sops binary looked up on PATH.
const DefaultCommand = "sops"

var encryptedPattern = regexp.MustCompile(`(?m)^(sops_mac=|sops_version=|sops:\s*$|\s*"sops"\s*:)`)

// Decryptor turns an encrypted file into dotenv plaintext.
type Decryptor interface {
	Decrypt(ctx context.Context, file string) ([]byte, error)
}

// SOPS shells out to the sops CLI.
type SOPS struct {
	Command string
}

// NewSOPS creates a SOPS decryptor using the sops binary on PATH.
func NewSOPS() *SOPS {
	return &SOPS{Command: DefaultCommand}
}

// Decrypt decrypts file and returns it in dotenv format.
func (s *SOPS) Decrypt(ctx context.Context, file string) ([]byte, error) {
	command := s.Command
	if command == "" {
		command = DefaultCommand
	}
	if err := preflight.Require(command); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, command, "--input-type", inputType(file), "--output-type", "dotenv", "-d", file)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("sops decrypt failed for %s: %w: %s", file, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// IsEncrypted reports whether content carries SOPS metadata.
func IsEncrypted(content []byte) bool {
	return encryptedPattern.Match(content)
}

// LoadEnv reads the env file at path. SOPS-encrypted files are decrypted
// with d first; a nil d falls back to the sops CLI.
func LoadEnv(ctx context.Context, path string, d Decryptor) ([]envfile.Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}

	if IsEncrypted(content) {
		if d == nil {
			d = NewSOPS()
		}
		content, err = d.Decrypt(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	entries, err := envfile.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func inputType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "dotenv"
	}
}
