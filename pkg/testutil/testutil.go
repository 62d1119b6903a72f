// Package testutil builds in-memory project fixtures for engine tests:
// a working copy, a manifest, and fake upstream releases, without touching
// the real filesystem.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/fingerprint"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// Project is a complete in-memory test project.
type Project struct {
	Root string
	FS   types.FS

	t *testing.T
	m *manifest.Manifest
}

// NewProject creates an empty project at /project on a memory filesystem.
func NewProject(t *testing.T) *Project {
	t.Helper()
	return &Project{
		Root: "/project",
		FS:   filesystem.NewMemory(),
		t:    t,
		m:    &manifest.Manifest{SchemaVersion: manifest.SchemaVersion},
	}
}

func (p *Project) abs(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile writes a working-copy file, creating parent directories.
func (p *Project) WriteFile(rel, content string) {
	p.t.Helper()
	require.NoError(p.t, p.FS.MkdirAll(filepath.Dir(p.abs(rel)), 0755))
	require.NoError(p.t, p.FS.WriteFile(p.abs(rel), []byte(content), 0644))
}

// ReadFile returns a working-copy file's content.
func (p *Project) ReadFile(rel string) string {
	p.t.Helper()
	data, err := p.FS.ReadFile(p.abs(rel))
	require.NoError(p.t, err)
	return string(data)
}

// FileExists reports whether a working-copy file is present.
func (p *Project) FileExists(rel string) bool {
	_, err := p.FS.Stat(p.abs(rel))
	return err == nil
}

// TrackPristine writes a file and tracks it as official and unmodified,
// with its original hash matching the content.
func (p *Project) TrackPristine(rel, content string) {
	p.t.Helper()
	p.WriteFile(rel, content)
	p.m.Upsert(manifest.TrackedFile{
		Path:         rel,
		OriginalHash: fingerprint.Hash([]byte(content)),
		Official:     true,
	})
}

// TrackCustomized writes a file and tracks it as official with the given
// baseline content, so the on-disk content counts as a local edit.
func (p *Project) TrackCustomized(rel, baseline, content string) {
	p.t.Helper()
	p.WriteFile(rel, content)
	p.m.Upsert(manifest.TrackedFile{
		Path:         rel,
		OriginalHash: fingerprint.Hash([]byte(baseline)),
		Official:     true,
	})
}

// Track records an arbitrary manifest entry.
func (p *Project) Track(tf manifest.TrackedFile) {
	p.m.Upsert(tf)
}

// SaveManifest persists the accumulated manifest at the given version and
// returns it.
func (p *Project) SaveManifest(version string) *manifest.Manifest {
	p.t.Helper()
	p.m.DistributionVersion = version
	require.NoError(p.t, manifest.Save(p.FS, p.Root, p.m))
	return p.m
}

// LoadManifest reads the manifest back from the project.
func (p *Project) LoadManifest() *manifest.Manifest {
	p.t.Helper()
	m, err := manifest.Load(p.FS, p.Root)
	require.NoError(p.t, err)
	return m
}

// Kit builds an upstream file set from path/content pairs, in order.
func Kit(files ...[2]string) *kit.FileSet {
	fs := kit.NewFileSet()
	for _, f := range files {
		fs.Add(f[0], []byte(f[1]))
	}
	return fs
}
