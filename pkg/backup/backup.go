// Package backup snapshots the managed directories of a working copy
// before any mutation, and restores them wholesale on rollback.
//
// A backup copies whole directories rather than individual tracked files,
// so user files that are not tracked yet are captured too. Every copied
// file is verified against its source by checksum; a backup that cannot be
// completed is deleted rather than left behind looking valid.
package backup

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/paths"
	"github.com/arthur-debert/kitsync/pkg/types"
	"github.com/zeebo/xxh3"
)

// StampLayout names backup directories so lexical order is chronological
// order.
const StampLayout = "20060102-150405.000000000"

// DefaultKeep is the retention policy default: how many backups Prune
// keeps when the caller does not say otherwise.
const DefaultKeep = 5

const metaFileName = "meta.json"

// Backup describes one point-in-time snapshot.
type Backup struct {
	Timestamp     time.Time `json:"timestamp"`
	SourceVersion string    `json:"sourceVersion"`
	TargetVersion string    `json:"targetVersion"`
	// Roots are the top-level entries this snapshot covers. Restore clears
	// every covered root, including ones that had no content at backup
	// time, so files added under a new root are rolled back too.
	Roots []string `json:"roots,omitempty"`
	// Path is the backup's directory, reported to the user when a restore
	// fails and manual recovery is needed.
	Path string `json:"-"`
}

// Stamp returns the backup's directory name.
func (b *Backup) Stamp() string {
	return b.Timestamp.Format(StampLayout)
}

// Create snapshots the given managed roots (directories or top-level files,
// relative to projectRoot) into a fresh timestamped directory. Any failure
// removes the partial backup and returns an error; the caller must not
// mutate anything if Create fails.
func Create(fsys types.FS, projectRoot string, roots []string, sourceVersion, targetVersion string) (*Backup, error) {
	logger := logging.GetLogger("backup")

	p, err := paths.New(projectRoot)
	if err != nil {
		return nil, err
	}

	b := &Backup{
		Timestamp:     time.Now(),
		SourceVersion: sourceVersion,
		TargetVersion: targetVersion,
		Roots:         roots,
	}
	b.Path = filepath.Join(p.BackupsDir(), b.Stamp())

	if err := fsys.MkdirAll(b.Path, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackupCreate, "failed to create backup dir %s", b.Path)
	}

	for _, root := range roots {
		src := filepath.Join(p.ProjectRoot(), root)
		dst := filepath.Join(b.Path, root)
		if err := copyTree(fsys, src, dst); err != nil {
			_ = fsys.RemoveAll(b.Path)
			return nil, errors.Wrapf(err, errors.ErrBackupCreate, "failed to back up %s", root)
		}
	}

	meta, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		_ = fsys.RemoveAll(b.Path)
		return nil, errors.Wrap(err, errors.ErrBackupCreate, "failed to serialize backup metadata")
	}
	if err := fsys.WriteFile(filepath.Join(b.Path, metaFileName), meta, 0644); err != nil {
		_ = fsys.RemoveAll(b.Path)
		return nil, errors.Wrap(err, errors.ErrBackupCreate, "failed to write backup metadata")
	}

	logger.Info().
		Str("path", b.Path).
		Str("source", sourceVersion).
		Str("target", targetVersion).
		Strs("roots", roots).
		Msg("Created backup")
	return b, nil
}

// Restore replaces the working copy's covered roots with the backup's
// contents. It is a wholesale replace, not a merge: every covered root is
// cleared first, so a root that had no content at backup time ends up
// removed, not merely overwritten. That makes it safe to call after a
// partially applied update.
func Restore(fsys types.FS, projectRoot string, b *Backup) error {
	logger := logging.GetLogger("backup")

	p, err := paths.New(projectRoot)
	if err != nil {
		return err
	}

	roots := b.Roots
	if len(roots) == 0 {
		// Backups without recorded roots fall back to whatever the
		// snapshot contains.
		entries, err := fsys.ReadDir(b.Path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrBackupRestore, "failed to read backup %s", b.Path)
		}
		for _, entry := range entries {
			if entry.Name() == metaFileName {
				continue
			}
			roots = append(roots, entry.Name())
		}
	}

	for _, root := range roots {
		src := filepath.Join(b.Path, root)
		dst := filepath.Join(p.ProjectRoot(), root)

		if err := fsys.RemoveAll(dst); err != nil {
			return errors.Wrapf(err, errors.ErrBackupRestore, "failed to clear %s", dst)
		}
		if err := copyTree(fsys, src, dst); err != nil {
			return errors.Wrapf(err, errors.ErrBackupRestore, "failed to restore %s", root)
		}
	}

	logger.Info().Str("path", b.Path).Msg("Restored backup")
	return nil
}

// List returns all backups for the project, newest first. Directories whose
// name does not parse as a stamp are ignored.
func List(fsys types.FS, projectRoot string) ([]*Backup, error) {
	p, err := paths.New(projectRoot)
	if err != nil {
		return nil, err
	}

	entries, err := fsys.ReadDir(p.BackupsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", p.BackupsDir())
	}

	var backups []*Backup
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ts, err := time.ParseInLocation(StampLayout, entry.Name(), time.Local)
		if err != nil {
			continue
		}

		b := &Backup{
			Timestamp: ts,
			Path:      filepath.Join(p.BackupsDir(), entry.Name()),
		}
		if meta, err := fsys.ReadFile(filepath.Join(b.Path, metaFileName)); err == nil {
			_ = json.Unmarshal(meta, b)
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Find returns the backup with the given stamp, or the newest one when
// stamp is empty.
func Find(fsys types.FS, projectRoot, stamp string) (*Backup, error) {
	backups, err := List(fsys, projectRoot)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, errors.New(errors.ErrBackupNotFound, "no backups found")
	}
	if stamp == "" {
		return backups[0], nil
	}
	for _, b := range backups {
		if b.Stamp() == stamp {
			return b, nil
		}
	}
	return nil, errors.Newf(errors.ErrBackupNotFound, "no backup with stamp %s", stamp)
}

// Prune deletes all but the newest keep backups and returns the ones it
// deleted. Deletion is destructive, so callers are responsible for user
// confirmation before invoking it.
func Prune(fsys types.FS, projectRoot string, keep int) ([]*Backup, error) {
	logger := logging.GetLogger("backup")

	if keep < 0 {
		keep = DefaultKeep
	}
	backups, err := List(fsys, projectRoot)
	if err != nil {
		return nil, err
	}
	if len(backups) <= keep {
		return nil, nil
	}

	var deleted []*Backup
	for _, b := range backups[keep:] {
		if err := fsys.RemoveAll(b.Path); err != nil {
			return deleted, errors.Wrapf(err, errors.ErrFileAccess, "failed to delete backup %s", b.Path)
		}
		deleted = append(deleted, b)
	}

	logger.Info().Int("deleted", len(deleted)).Int("kept", keep).Msg("Pruned backups")
	return deleted, nil
}

// copyTree copies src (a file or directory tree) to dst, verifying each
// copied file's bytes by xxh3 checksum against the source. A missing src is
// not an error: a managed root may not exist yet.
func copyTree(fsys types.FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return copyFile(fsys, src, dst, info.Mode())
	}

	return filesystem.WalkFiles(fsys, src, func(rel string, fi fs.FileInfo) error {
		return copyFile(fsys,
			filepath.Join(src, filepath.FromSlash(rel)),
			filepath.Join(dst, filepath.FromSlash(rel)),
			fi.Mode())
	})
}

func copyFile(fsys types.FS, src, dst string, mode fs.FileMode) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}
	sum := xxh3.Hash128(data)

	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := fsys.WriteFile(dst, data, mode.Perm()); err != nil {
		return err
	}

	written, err := fsys.ReadFile(dst)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBackupVerify, "failed to read back %s", dst)
	}
	if xxh3.Hash128(written) != sum {
		return errors.Newf(errors.ErrBackupVerify, "checksum mismatch copying %s", src)
	}
	return nil
}

// String implements fmt.Stringer for logging and display.
func (b *Backup) String() string {
	return fmt.Sprintf("%s (%s -> %s)", b.Stamp(), b.SourceVersion, b.TargetVersion)
}
