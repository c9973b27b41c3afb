// Package update provides self-update functionality for rigger.
package update

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
)

const (
	// Repository owner and name for GitHub releases.
	repoOwner = "cameronsjo"
	repoName  = "rigger"
)

// Release contains information about an available update.
type Release struct {
	Version     string
	ReleaseURL  string
	PublishedAt string
	Changelog   string
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating update source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("creating updater: %w", err)
	}
	return updater, nil
}

func toRelease(latest *selfupdate.Release) *Release {
	return &Release{
		Version:     latest.Version(),
		ReleaseURL:  latest.URL,
		PublishedAt: latest.PublishedAt.Format("2006-01-02"),
		Changelog:   latest.ReleaseNotes,
	}
}

// CheckForUpdate checks if a newer version is available.
func CheckForUpdate(ctx context.Context, currentVersion string) (*Release, bool, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, false, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, false, fmt.Errorf("detecting latest version: %w", err)
	}
	if !found || latest.LessOrEqual(currentVersion) {
		return nil, false, nil
	}

	return toRelease(latest), true, nil
}

// Update downloads and installs the latest version. It returns nil when
// the running binary is already current.
func Update(ctx context.Context, currentVersion string) (*Release, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, fmt.Errorf("detecting latest version: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}
	if latest.LessOrEqual(currentVersion) {
		return nil, nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("getting executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return nil, fmt.Errorf("updating binary: %w", err)
	}

	return toRelease(latest), nil
}

// GetPlatformInfo returns the current platform information.
func GetPlatformInfo() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}

// ChangelogExcerpt returns the first maxLines lines of a changelog and how
// many lines were left out.
func ChangelogExcerpt(changelog string, maxLines int) ([]string, int) {
	if strings.TrimSpace(changelog) == "" {
		return nil, 0
	}
	lines := strings.Split(strings.TrimRight(changelog, "\n"), "\n")
	if len(lines) <= maxLines {
		return lines, 0
	}
	return lines[:maxLines], len(lines) - maxLines
}
