package diffcmd_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/kitsync/pkg/commands/diffcmd"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/fingerprint"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/manifest"
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

func seed(t *testing.T, fsys types.FS) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(root+"/templates", 0755))
	require.NoError(t, fsys.WriteFile(root+"/templates/ci.yml", []byte("alpha\nbeta\n"), 0644))
	require.NoError(t, fsys.WriteFile(root+"/templates/same.yml", []byte("unchanged\n"), 0644))

	m := &manifest.Manifest{SchemaVersion: manifest.SchemaVersion, DistributionVersion: "1.0.0"}
	m.Upsert(manifest.TrackedFile{Path: "templates/ci.yml", OriginalHash: fingerprint.Hash([]byte("alpha\nbeta\n")), Official: true})
	m.Upsert(manifest.TrackedFile{Path: "templates/same.yml", OriginalHash: fingerprint.Hash([]byte("unchanged\n")), Official: true})
	require.NoError(t, manifest.Save(fsys, root, m))
}

func TestDiff_OnlyChangedFilesReported(t *testing.T) {
	fsys := filesystem.NewMemory()
	seed(t, fsys)

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("alpha\nBETA\n"))
	upstream.Add("templates/same.yml", []byte("unchanged\n"))

	result, err := diffcmd.Diff(context.Background(), diffcmd.DiffOptions{
		ProjectRoot: root,
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	fd := result.Files[0]
	assert.Equal(t, "templates/ci.yml", fd.Path)
	assert.Contains(t, fd.Diff, "- beta")
	assert.Contains(t, fd.Diff, "+ BETA")
	assert.Equal(t, 1, fd.Stats.Inserted)
	assert.Equal(t, 1, fd.Stats.Deleted)
}

func TestDiff_UpstreamOnlyFile(t *testing.T) {
	fsys := filesystem.NewMemory()
	seed(t, fsys)

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("alpha\nbeta\n"))
	upstream.Add("templates/same.yml", []byte("unchanged\n"))
	upstream.Add("templates/new.yml", []byte("incoming\n"))

	result, err := diffcmd.Diff(context.Background(), diffcmd.DiffOptions{
		ProjectRoot: root,
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "templates/new.yml", result.Files[0].Path)
	assert.True(t, result.Files[0].LocalMissing)
}

func TestDiff_ExplicitPathValidation(t *testing.T) {
	fsys := filesystem.NewMemory()
	seed(t, fsys)

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("alpha\n"))

	_, err := diffcmd.Diff(context.Background(), diffcmd.DiffOptions{
		ProjectRoot: root,
		Paths:       []string{"../escape.txt"},
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.Error(t, err)
}

func TestDiff_UnknownPath(t *testing.T) {
	fsys := filesystem.NewMemory()
	seed(t, fsys)

	upstream := kit.NewFileSet()
	upstream.Add("templates/ci.yml", []byte("alpha\n"))

	_, err := diffcmd.Diff(context.Background(), diffcmd.DiffOptions{
		ProjectRoot: root,
		Paths:       []string{"templates/nope.yml"},
		Registry:    &fakeRegistry{latest: "2.0.0", files: upstream},
		FileSystem:  fsys,
	})
	require.Error(t, err)
}
