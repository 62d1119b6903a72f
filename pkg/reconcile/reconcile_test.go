package reconcile_test

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/fingerprint"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/project"

func writeFile(t *testing.T, fs types.FS, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

func trackedManifest(files ...manifest.TrackedFile) *manifest.Manifest {
	m := &manifest.Manifest{SchemaVersion: manifest.SchemaVersion, DistributionVersion: "1.0.0"}
	for _, tf := range files {
		m.Upsert(tf)
	}
	return m
}

func TestReconcileAll_OrderIsManifestThenUpstream(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/b.yml", "b")
	writeFile(t, fs, "templates/a.yml", "a")

	m := trackedManifest(
		manifest.TrackedFile{Path: "templates/b.yml", OriginalHash: fingerprint.Hash([]byte("b")), Official: true},
		manifest.TrackedFile{Path: "templates/a.yml", OriginalHash: fingerprint.Hash([]byte("a")), Official: true},
	)

	upstream := kit.NewFileSet()
	upstream.Add("templates/b.yml", []byte("b"))
	upstream.Add("templates/a.yml", []byte("a"))
	upstream.Add("templates/new2.yml", []byte("n2"))
	upstream.Add("templates/new1.yml", []byte("n1"))

	plan, err := reconcile.ReconcileAll(fs, root, m, upstream, "1.1.0")
	require.NoError(t, err)

	var order []string
	for _, s := range plan.States {
		order = append(order, s.Path)
	}
	assert.Equal(t, []string{
		"templates/b.yml", "templates/a.yml", // manifest order
		"templates/new2.yml", "templates/new1.yml", // upstream order
	}, order)
}

func TestReconcileAll_NewUpstreamFileIsAdd(t *testing.T) {
	fs := filesystem.NewMemory()
	m := trackedManifest()

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("jobs: {}"))

	plan, err := reconcile.ReconcileAll(fs, root, m, upstream, "1.1.0")
	require.NoError(t, err)

	require.Len(t, plan.States, 1)
	assert.Equal(t, reconcile.ActionAdd, plan.States[0].Action)
	assert.Empty(t, plan.States[0].OriginalHash)
}

func TestReconcileAll_IdempotentPlanIsAllSkip(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "jobs: {}")

	m := trackedManifest(manifest.TrackedFile{
		Path:         "templates/ci.yml",
		OriginalHash: fingerprint.Hash([]byte("jobs: {}")),
		Official:     true,
	})

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("jobs: {}"))

	plan, err := reconcile.ReconcileAll(fs, root, m, upstream, "1.0.0")
	require.NoError(t, err)

	assert.True(t, plan.IsNoop())
	for _, s := range plan.States {
		assert.Equal(t, reconcile.ActionSkip, s.Action)
	}
}

func TestReconcileAll_StoredFlagForcesMergeCandidate(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "jobs: {}")

	// Safe-default manifest: flag set, no original hash recorded.
	m := trackedManifest(manifest.TrackedFile{
		Path:       "templates/ci.yml",
		Customized: true,
		Official:   true,
	})

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("jobs: {updated}"))

	plan, err := reconcile.ReconcileAll(fs, root, m, upstream, "1.1.0")
	require.NoError(t, err)

	require.Len(t, plan.States, 1)
	assert.Equal(t, reconcile.ActionMerge, plan.States[0].Action)
	assert.True(t, plan.States[0].Customized)
	assert.Equal(t, []string{"templates/ci.yml"}, plan.Conflicts())
}

func TestReconcileAll_CustomFilesNeverTouched(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "jobs: {}")
	writeFile(t, fs, "templates/mine.yml", "user authored")
	writeFile(t, fs, "templates/untracked-note.txt", "scratch")

	m := trackedManifest(
		manifest.TrackedFile{Path: "templates/ci.yml", OriginalHash: fingerprint.Hash([]byte("jobs: {}")), Official: true},
		// Tracked user file in a managed dir. Clean hash would classify as
		// remove (absent upstream); the official guard must override that.
		manifest.TrackedFile{Path: "templates/mine.yml", OriginalHash: fingerprint.Hash([]byte("user authored"))},
	)

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("jobs: {}"))

	plan, err := reconcile.ReconcileAll(fs, root, m, upstream, "1.0.0")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"templates/mine.yml", "templates/untracked-note.txt"}, plan.CustomFiles)

	for _, s := range plan.States {
		if s.Path == "templates/mine.yml" {
			assert.Equal(t, reconcile.ActionPreserve, s.Action)
		}
	}
}

func TestReconcileAll_Counts(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/pristine.yml", "old")
	writeFile(t, fs, "templates/edited.yml", "edited")

	m := trackedManifest(
		manifest.TrackedFile{Path: "templates/pristine.yml", OriginalHash: fingerprint.Hash([]byte("old")), Official: true},
		manifest.TrackedFile{Path: "templates/edited.yml", OriginalHash: fingerprint.Hash([]byte("orig")), Official: true},
	)

	upstream := kit.NewFileSet()
	upstream.Add("templates/pristine.yml", []byte("new"))
	upstream.Add("templates/edited.yml", []byte("new"))
	upstream.Add("templates/added.yml", []byte("brand new"))

	plan, err := reconcile.ReconcileAll(fs, root, m, upstream, "2.0.0")
	require.NoError(t, err)

	counts := plan.Counts()
	assert.Equal(t, 1, counts[reconcile.ActionUpdate])
	assert.Equal(t, 1, counts[reconcile.ActionMerge])
	assert.Equal(t, 1, counts[reconcile.ActionAdd])
	assert.False(t, plan.IsNoop())
}

func TestReconcileAll_VersionsCarriedIntoPlan(t *testing.T) {
	fs := filesystem.NewMemory()
	m := trackedManifest()

	plan, err := reconcile.ReconcileAll(fs, root, m, kit.NewFileSet(), "2.0.0")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", plan.SourceVersion)
	assert.Equal(t, "2.0.0", plan.TargetVersion)
}
