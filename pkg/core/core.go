// Package core exposes the engine's public surface: reconcile, apply,
// rollback, and backup listing. Command packages are built entirely on
// these operations and never reach into the engine packages directly.
package core

import (
	"github.com/arthur-debert/kitsync/pkg/apply"
	"github.com/arthur-debert/kitsync/pkg/backup"
	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// ReconcileOptions holds inputs for a reconciliation run.
type ReconcileOptions struct {
	ProjectRoot   string
	Upstream      *kit.FileSet
	TargetVersion string
	FileSystem    types.FS // Allow injecting a filesystem for testing
}

// Reconcile loads the manifest and classifies every file against upstream.
// It performs no mutation; callers render the plan or pass it to Apply.
func Reconcile(opts ReconcileOptions) (*reconcile.Plan, *manifest.Manifest, error) {
	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}

	m, err := manifest.Load(fs, opts.ProjectRoot)
	if err != nil {
		return nil, nil, err
	}

	plan, err := reconcile.ReconcileAll(fs, opts.ProjectRoot, m, opts.Upstream, opts.TargetVersion)
	if err != nil {
		return nil, nil, err
	}
	return plan, m, nil
}

// ApplyOptions holds inputs for applying a plan.
type ApplyOptions struct {
	ProjectRoot   string
	Plan          *reconcile.Plan
	Upstream      *kit.FileSet
	Manifest      *manifest.Manifest
	DisableBackup bool
	ConflictLabel string
	FileSystem    types.FS
}

// Apply executes the plan under the backup-then-mutate-then-commit
// protocol.
func Apply(opts ApplyOptions) (*apply.Result, error) {
	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}
	return apply.Run(fs, opts.ProjectRoot, opts.Plan, opts.Upstream, opts.Manifest, apply.Options{
		DisableBackup: opts.DisableBackup,
		ConflictLabel: opts.ConflictLabel,
	})
}

// ListBackups returns the project's backups, newest first.
func ListBackups(fs types.FS, projectRoot string) ([]*backup.Backup, error) {
	if fs == nil {
		fs = filesystem.NewOS()
	}
	return backup.List(fs, projectRoot)
}

// RollbackTo restores the working copy from the backup with the given
// stamp (the newest one when stamp is empty) and returns the backup used.
// The manifest is not rewritten: it already describes the state the backup
// contains, because apply only commits it after all mutations succeed.
func RollbackTo(fs types.FS, projectRoot, stamp string) (*backup.Backup, error) {
	if fs == nil {
		fs = filesystem.NewOS()
	}
	b, err := backup.Find(fs, projectRoot, stamp)
	if err != nil {
		return nil, err
	}
	if err := backup.Restore(fs, projectRoot, b); err != nil {
		return nil, err
	}
	return b, nil
}

// PruneBackups applies the retention policy, deleting all but the newest
// keep backups. Confirmation is the caller's responsibility.
func PruneBackups(fs types.FS, projectRoot string, keep int) ([]*backup.Backup, error) {
	if fs == nil {
		fs = filesystem.NewOS()
	}
	return backup.Prune(fs, projectRoot, keep)
}

// InitManifest creates and saves the first manifest for a project. It
// refuses to overwrite an existing one.
func InitManifest(fs types.FS, projectRoot, version string, assumeCustomized bool, officialPaths []string) (*manifest.Manifest, error) {
	if fs == nil {
		fs = filesystem.NewOS()
	}
	logger := logging.GetLogger("core")

	if _, err := manifest.Load(fs, projectRoot); err == nil {
		return nil, errors.New(errors.ErrManifestExists, "manifest already exists, delete it or use rescan")
	} else if !errors.IsErrorCode(err, errors.ErrManifestNotFound) {
		return nil, err
	}

	m, err := manifest.Create(fs, projectRoot, version, assumeCustomized, officialPaths)
	if err != nil {
		return nil, err
	}
	if err := manifest.Save(fs, projectRoot, m); err != nil {
		return nil, err
	}

	logger.Info().Str("version", version).Int("tracked", len(m.TrackedFiles)).Msg("Initialized project")
	return m, nil
}

// Rescan resets the sync baseline: every tracked file's original hash
// becomes its current on-disk fingerprint and customized flags are
// cleared. Destructive to conflict detection, so callers confirm first.
func Rescan(fs types.FS, projectRoot string) (*manifest.Manifest, error) {
	if fs == nil {
		fs = filesystem.NewOS()
	}

	m, err := manifest.Load(fs, projectRoot)
	if err != nil {
		return nil, err
	}
	if err := manifest.UpdateHashes(fs, projectRoot, m); err != nil {
		return nil, err
	}
	if err := manifest.Save(fs, projectRoot, m); err != nil {
		return nil, err
	}
	return m, nil
}
