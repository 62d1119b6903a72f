package backup_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/kitsync/pkg/backup"
	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
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

func readFile(t *testing.T, fs types.FS, path string) string {
	t.Helper()
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCreate_CopiesWholeDirectories(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "jobs: {}")
	writeFile(t, fs, "templates/nested/deep.yml", "deep")
	writeFile(t, fs, "templates/untracked.txt", "user scratch file")
	writeFile(t, fs, "Makefile", "all:")

	b, err := backup.Create(fs, root, []string{"templates", "Makefile"}, "1.0.0", "1.1.0")
	require.NoError(t, err)

	assert.Equal(t, "jobs: {}", readFile(t, fs, filepath.Join(b.Path, "templates/ci.yml")))
	assert.Equal(t, "deep", readFile(t, fs, filepath.Join(b.Path, "templates/nested/deep.yml")))
	assert.Equal(t, "user scratch file", readFile(t, fs, filepath.Join(b.Path, "templates/untracked.txt")),
		"whole-directory copy captures untracked files")
	assert.Equal(t, "all:", readFile(t, fs, filepath.Join(b.Path, "Makefile")))
	assert.Equal(t, "1.0.0", b.SourceVersion)
	assert.Equal(t, "1.1.0", b.TargetVersion)
}

func TestCreate_MissingRootIsNotAnError(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "jobs: {}")

	_, err := backup.Create(fs, root, []string{"templates", "does-not-exist"}, "1.0.0", "1.1.0")
	assert.NoError(t, err)
}

func TestRestore_ReplacesWorkingCopy(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "original")
	writeFile(t, fs, "templates/other.yml", "also original")

	b, err := backup.Create(fs, root, []string{"templates"}, "1.0.0", "1.1.0")
	require.NoError(t, err)

	// Simulate a partial apply: one file mutated, one added, one deleted.
	writeFile(t, fs, "templates/ci.yml", "clobbered")
	writeFile(t, fs, "templates/half-written.yml", "partial")
	require.NoError(t, fs.Remove(filepath.Join(root, "templates/other.yml")))

	require.NoError(t, backup.Restore(fs, root, b))

	assert.Equal(t, "original", readFile(t, fs, filepath.Join(root, "templates/ci.yml")))
	assert.Equal(t, "also original", readFile(t, fs, filepath.Join(root, "templates/other.yml")))
	_, err = fs.Stat(filepath.Join(root, "templates/half-written.yml"))
	assert.Error(t, err, "restore replaces wholesale, leftover partial files are gone")
}

func TestRestore_ClearsCoveredRootWithNoSnapshotContent(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "original")

	// "newroot" is covered but does not exist yet at backup time.
	created, err := backup.Create(fs, root, []string{"newroot", "templates"}, "1.0.0", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"newroot", "templates"}, created.Roots)

	// Simulate a partial apply that adds content under the new root.
	writeFile(t, fs, "templates/ci.yml", "clobbered")
	writeFile(t, fs, "newroot/y.yml", "half applied")

	// Restore through List so the covered roots round-trip via meta.json.
	b, err := backup.Find(fs, root, "")
	require.NoError(t, err)
	assert.Equal(t, created.Roots, b.Roots)

	require.NoError(t, backup.Restore(fs, root, b))

	assert.Equal(t, "original", readFile(t, fs, filepath.Join(root, "templates/ci.yml")))
	_, err = fs.Stat(filepath.Join(root, "newroot"))
	assert.Error(t, err, "a covered root with no backed-up content is removed, not kept")
}

func TestList_NewestFirst(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "v1")

	b1, err := backup.Create(fs, root, []string{"templates"}, "1.0.0", "1.1.0")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	b2, err := backup.Create(fs, root, []string{"templates"}, "1.1.0", "1.2.0")
	require.NoError(t, err)

	backups, err := backup.List(fs, root)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, b2.Stamp(), backups[0].Stamp())
	assert.Equal(t, b1.Stamp(), backups[1].Stamp())
	assert.Equal(t, "1.1.0", backups[0].SourceVersion, "metadata is loaded from meta.json")
}

func TestList_NoBackupsDirIsEmpty(t *testing.T) {
	fs := filesystem.NewMemory()

	backups, err := backup.List(fs, root)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestFind(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "v1")

	b1, err := backup.Create(fs, root, []string{"templates"}, "1.0.0", "1.1.0")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	b2, err := backup.Create(fs, root, []string{"templates"}, "1.1.0", "1.2.0")
	require.NoError(t, err)

	newest, err := backup.Find(fs, root, "")
	require.NoError(t, err)
	assert.Equal(t, b2.Stamp(), newest.Stamp())

	specific, err := backup.Find(fs, root, b1.Stamp())
	require.NoError(t, err)
	assert.Equal(t, b1.Stamp(), specific.Stamp())

	_, err = backup.Find(fs, root, "19990101-000000.000000000")
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupNotFound))
}

func TestPrune_KeepsNewestN(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "content")

	var stamps []string
	for i := 0; i < 5; i++ {
		b, err := backup.Create(fs, root, []string{"templates"}, "1.0.0", "1.1.0")
		require.NoError(t, err)
		stamps = append(stamps, b.Stamp())
		time.Sleep(2 * time.Millisecond)
	}

	deleted, err := backup.Prune(fs, root, 2)
	require.NoError(t, err)
	assert.Len(t, deleted, 3)

	remaining, err := backup.List(fs, root)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, stamps[4], remaining[0].Stamp(), "the newest backups survive")
	assert.Equal(t, stamps[3], remaining[1].Stamp())
}

func TestPrune_UnderLimitDeletesNothing(t *testing.T) {
	fs := filesystem.NewMemory()
	writeFile(t, fs, "templates/ci.yml", "content")

	_, err := backup.Create(fs, root, []string{"templates"}, "1.0.0", "1.1.0")
	require.NoError(t, err)

	deleted, err := backup.Prune(fs, root, 5)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
