package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/kitsync/pkg/apply"
	"github.com/arthur-debert/kitsync/pkg/core"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/testutil"
)

// A customized file whose upstream also changed gets conflict markers;
// after the user resolves them and rescans, the next update is a no-op.
func TestScenario_ConflictResolutionCycle(t *testing.T) {
	p := testutil.NewProject(t)
	p.TrackCustomized("templates/ci.yml", "v1", "v1 with local edits\n")
	p.SaveManifest("1.0.0")

	upstream := testutil.Kit([2]string{"templates/ci.yml", "v2\n"})

	plan, m, err := core.Reconcile(core.ReconcileOptions{
		ProjectRoot:   p.Root,
		Upstream:      upstream,
		TargetVersion: "2.0.0",
		FileSystem:    p.FS,
	})
	require.NoError(t, err)
	require.Equal(t, reconcile.ActionMerge, plan.States[0].Action)

	result, err := core.Apply(core.ApplyOptions{
		ProjectRoot: p.Root,
		Plan:        plan,
		Upstream:    upstream,
		Manifest:    m,
		FileSystem:  p.FS,
	})
	require.NoError(t, err)
	assert.Equal(t, apply.PhaseCommitted, result.Phase)
	assert.Equal(t, []string{"templates/ci.yml"}, result.Conflicts)
	assert.True(t, kit.HasConflictMarkers([]byte(p.ReadFile("templates/ci.yml"))))

	// The user keeps the upstream side and rebaselines.
	p.WriteFile("templates/ci.yml", "v2\n")
	_, err = core.Rescan(p.FS, p.Root)
	require.NoError(t, err)

	plan, _, err = core.Reconcile(core.ReconcileOptions{
		ProjectRoot:   p.Root,
		Upstream:      upstream,
		TargetVersion: "2.0.0",
		FileSystem:    p.FS,
	})
	require.NoError(t, err)
	assert.True(t, plan.IsNoop(), "resolved and rescanned file must not churn")
}

// Upstream drops a file the user customized: the working copy keeps it
// untouched.
func TestScenario_UpstreamRemovalPreservesLocalEdits(t *testing.T) {
	p := testutil.NewProject(t)
	p.TrackCustomized("templates/old.yml", "v1", "v1 plus local work\n")
	p.TrackPristine("templates/keep.yml", "v1")
	p.SaveManifest("1.0.0")

	upstream := testutil.Kit([2]string{"templates/keep.yml", "v1"})

	plan, m, err := core.Reconcile(core.ReconcileOptions{
		ProjectRoot:   p.Root,
		Upstream:      upstream,
		TargetVersion: "2.0.0",
		FileSystem:    p.FS,
	})
	require.NoError(t, err)

	result, err := core.Apply(core.ApplyOptions{
		ProjectRoot: p.Root,
		Plan:        plan,
		Upstream:    upstream,
		Manifest:    m,
		FileSystem:  p.FS,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Preserved)
	assert.Equal(t, "v1 plus local work\n", p.ReadFile("templates/old.yml"))

	// Preserve is a no-op on disk and in the manifest; the file stays
	// tracked and will be reported again next run.
	saved := p.LoadManifest()
	_, tracked := saved.Tracked("templates/old.yml")
	assert.True(t, tracked)
	assert.Equal(t, "2.0.0", saved.DistributionVersion)
}

// A file flagged customized whose content actually matches upstream is a
// false positive: it updates cleanly instead of merging.
func TestScenario_FalsePositiveFlagUpdatesCleanly(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteFile("templates/ci.yml", "v2\n")
	p.Track(manifest.TrackedFile{
		Path:       "templates/ci.yml",
		Customized: true,
		Official:   true,
	})
	p.SaveManifest("1.0.0")

	upstream := testutil.Kit([2]string{"templates/ci.yml", "v2\n"})

	plan, m, err := core.Reconcile(core.ReconcileOptions{
		ProjectRoot:   p.Root,
		Upstream:      upstream,
		TargetVersion: "2.0.0",
		FileSystem:    p.FS,
	})
	require.NoError(t, err)

	result, err := core.Apply(core.ApplyOptions{
		ProjectRoot: p.Root,
		Plan:        plan,
		Upstream:    upstream,
		Manifest:    m,
		FileSystem:  p.FS,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	assert.Contains(t, result.FalsePositives, "templates/ci.yml")
	assert.False(t, kit.HasConflictMarkers([]byte(p.ReadFile("templates/ci.yml"))))

	saved := p.LoadManifest()
	tf, ok := saved.Tracked("templates/ci.yml")
	require.True(t, ok)
	assert.False(t, tf.Customized, "false positive flag is cleared on commit")
}

// Repeated updates accumulate backups; the retention policy keeps only the
// newest ones.
func TestScenario_BackupRetentionAcrossUpdates(t *testing.T) {
	p := testutil.NewProject(t)
	p.TrackPristine("templates/ci.yml", "v1")
	p.SaveManifest("1.0.0")

	for i, content := range []string{"v2", "v3", "v4"} {
		upstream := testutil.Kit([2]string{"templates/ci.yml", content})
		version := []string{"2.0.0", "3.0.0", "4.0.0"}[i]

		plan, m, err := core.Reconcile(core.ReconcileOptions{
			ProjectRoot:   p.Root,
			Upstream:      upstream,
			TargetVersion: version,
			FileSystem:    p.FS,
		})
		require.NoError(t, err)

		_, err = core.Apply(core.ApplyOptions{
			ProjectRoot: p.Root,
			Plan:        plan,
			Upstream:    upstream,
			Manifest:    m,
			FileSystem:  p.FS,
		})
		require.NoError(t, err)
	}

	backups, err := core.ListBackups(p.FS, p.Root)
	require.NoError(t, err)
	require.Len(t, backups, 3)

	deleted, err := core.PruneBackups(p.FS, p.Root, 1)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	remaining, err := core.ListBackups(p.FS, p.Root)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "3.0.0", remaining[0].SourceVersion)
	assert.Equal(t, "4.0.0", remaining[0].TargetVersion)
}
