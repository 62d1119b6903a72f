// Package paths centralizes the locations kitsync reads and writes.
//
// Per-project state (manifest, backups) lives under <projectRoot>/.kitsync.
// Machine-wide state (logs, downloaded release archives) lives under the
// XDG state and cache directories.
package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// StateDirName is the per-project directory holding manifest and backups.
const StateDirName = ".kitsync"

// Paths resolves kitsync locations for one project root.
type Paths struct {
	projectRoot string
}

// New creates a Paths instance for the given project root. An empty root
// means the current directory.
func New(projectRoot string) (*Paths, error) {
	if projectRoot == "" {
		projectRoot = "."
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %q: %w", projectRoot, err)
	}
	return &Paths{projectRoot: abs}, nil
}

// ProjectRoot returns the absolute project root directory.
func (p *Paths) ProjectRoot() string {
	return p.projectRoot
}

// StateDir returns the per-project state directory (<root>/.kitsync).
func (p *Paths) StateDir() string {
	return filepath.Join(p.projectRoot, StateDirName)
}

// ManifestPath returns the manifest file location.
func (p *Paths) ManifestPath() string {
	return filepath.Join(p.StateDir(), "manifest.json")
}

// BackupsDir returns the directory holding timestamped backups.
func (p *Paths) BackupsDir() string {
	return filepath.Join(p.StateDir(), "backups")
}

// ReleaseCacheDir returns the XDG cache directory for downloaded kit
// archives, shared across projects.
func ReleaseCacheDir() string {
	return filepath.Join(xdg.CacheHome, "kitsync", "releases")
}

// ValidateRelPath checks that a manifest or upstream path stays inside the
// project: it must be relative, slash-separated, and must not escape via
// "..". Returns the cleaned path.
func ValidateRelPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("absolute path not allowed: %s", path)
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(path)))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path escapes project root: %s", path)
	}
	return clean, nil
}

// TopSegment returns the first path segment of a project-relative path,
// or the path itself for a top-level file.
func TopSegment(relPath string) string {
	if i := strings.IndexByte(relPath, '/'); i >= 0 {
		return relPath[:i]
	}
	return relPath
}
