package update_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/kitsync/pkg/commands/update"
	"github.com/arthur-debert/kitsync/pkg/core"
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

type fakeRegistry struct {
	latest string
	files  *kit.FileSet
}

func (f *fakeRegistry) ResolveLatest(ctx context.Context) (string, error) { return f.latest, nil }
func (f *fakeRegistry) Resolve(ctx context.Context, v string) (string, error) {
	return v, nil
}
func (f *fakeRegistry) Fetch(ctx context.Context, v string) (*kit.FileSet, error) {
	return f.files, nil
}

func seedProject(t *testing.T, fsys types.FS, localContent string) *manifest.Manifest {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(root+"/templates", 0755))
	require.NoError(t, fsys.WriteFile(root+"/templates/ci.yml", []byte(localContent), 0644))

	m := &manifest.Manifest{SchemaVersion: manifest.SchemaVersion, DistributionVersion: "1.0.0"}
	m.Upsert(manifest.TrackedFile{
		Path:         "templates/ci.yml",
		OriginalHash: fingerprint.Hash([]byte("v1")),
		Official:     true,
	})
	require.NoError(t, manifest.Save(fsys, root, m))
	return m
}

func TestUpdate_AppliesAndCommits(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("v2"))
	upstream.Add("templates/release.yml", []byte("new file"))

	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot: root,
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Apply)

	assert.Equal(t, 1, result.Apply.Updated)
	assert.Equal(t, 1, result.Apply.Added)
	assert.False(t, result.UpToDate)
	assert.False(t, result.Declined)

	content, err := fsys.ReadFile(root + "/templates/ci.yml")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))

	saved, err := manifest.Load(fsys, root)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", saved.DistributionVersion)
}

func TestUpdate_DryRunMutatesNothing(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("v2"))

	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot: root,
		DryRun:      true,
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.NoError(t, err)

	assert.Nil(t, result.Apply)
	assert.NotNil(t, result.Plan)

	content, err := fsys.ReadFile(root + "/templates/ci.yml")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content), "dry run must not touch files")

	saved, err := manifest.Load(fsys, root)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", saved.DistributionVersion, "dry run must not commit")
}

func TestUpdate_DeclinedConfirmation(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("v2"))

	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot: root,
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
		Confirm: func(plan *reconcile.Plan) (bool, error) {
			return false, nil
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Declined)
	assert.Nil(t, result.Apply)

	content, err := fsys.ReadFile(root + "/templates/ci.yml")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))
}

func TestUpdate_UpToDate(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("v1"))

	confirmCalled := false
	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot: root,
		Registry:    &fakeRegistry{latest: "1.0.0", files: upstream},
		FileSystem:  fsys,
		Confirm: func(plan *reconcile.Plan) (bool, error) {
			confirmCalled = true
			return true, nil
		},
	})
	require.NoError(t, err)

	assert.True(t, result.UpToDate)
	assert.Nil(t, result.Apply)
	assert.False(t, confirmCalled, "no confirmation needed when nothing changes")
}

func TestUpdate_PinnedVersion(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("v1.5"))

	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot: root,
		Version:     "1.5.0",
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.NoError(t, err)

	assert.Equal(t, "1.5.0", result.Plan.TargetVersion)
}

// runUpdate syncs to one release, creating one backup per call.
func runUpdate(t *testing.T, fsys types.FS, version, content string, confirmPrune func(int, int) (bool, error)) *update.UpdateResult {
	t.Helper()
	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte(content))

	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot:  root,
		PruneKeep:    1,
		Registry:     &fakeRegistry{latest: version, files: upstream},
		FileSystem:   fsys,
		ConfirmPrune: confirmPrune,
	})
	require.NoError(t, err)
	return result
}

func TestUpdate_PruneRequiresConsent(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	// Two applies put the backup count over PruneKeep=1; without a consent
	// callback nothing may be deleted.
	runUpdate(t, fsys, "2.0.0", "v2", nil)
	result := runUpdate(t, fsys, "3.0.0", "v3", nil)
	assert.Empty(t, result.Pruned)

	backups, err := core.ListBackups(fsys, root)
	require.NoError(t, err)
	assert.Len(t, backups, 2, "retention must not delete backups silently")
}

func TestUpdate_PruneDeclinedKeepsBackups(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	runUpdate(t, fsys, "2.0.0", "v2", nil)
	result := runUpdate(t, fsys, "3.0.0", "v3", func(excess, keep int) (bool, error) {
		return false, nil
	})
	assert.Empty(t, result.Pruned)

	backups, err := core.ListBackups(fsys, root)
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestUpdate_PruneWithConsent(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "v1")

	runUpdate(t, fsys, "2.0.0", "v2", nil)

	var askedExcess, askedKeep int
	result := runUpdate(t, fsys, "3.0.0", "v3", func(excess, keep int) (bool, error) {
		askedExcess, askedKeep = excess, keep
		return true, nil
	})

	assert.Equal(t, 1, askedExcess)
	assert.Equal(t, 1, askedKeep)
	assert.Len(t, result.Pruned, 1)

	backups, err := core.ListBackups(fsys, root)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "3.0.0", backups[0].TargetVersion, "the newest backup survives")
}

func TestUpdate_ConflictGetsMarkersAndDefaultLabel(t *testing.T) {
	fsys := filesystem.NewMemory()
	seedProject(t, fsys, "edited locally")

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("v2"))

	result, err := update.Update(context.Background(), update.UpdateOptions{
		ProjectRoot: root,
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Apply)
	require.Equal(t, []string{"templates/ci.yml"}, result.Apply.Conflicts)

	content, err := fsys.ReadFile(root + "/templates/ci.yml")
	require.NoError(t, err)
	assert.Contains(t, string(content), ">>>>>>> 2.0.0", "conflict label defaults to the target version")
	assert.Contains(t, string(content), "edited locally")
	assert.Contains(t, string(content), "v2")
}
