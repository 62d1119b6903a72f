// Package apply executes a reconciliation plan against the working copy
// under a backup-then-mutate-then-commit protocol.
//
// The protocol guarantees all-or-nothing application: a backup is taken
// before the first mutation, any failure mid-apply restores it wholesale,
// and the manifest — the single commit point — is rewritten only after
// every action succeeded. A crash at any earlier point leaves the on-disk
// manifest describing the pre-update state, which is exactly the state the
// backup restores.
package apply

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/kitsync/pkg/backup"
	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/fingerprint"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/paths"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// Phase is where an apply run ended up.
type Phase int

const (
	// PhaseIdle means Run has not been invoked.
	PhaseIdle Phase = iota
	// PhaseAborted means the backup failed; no file was touched.
	PhaseAborted
	// PhaseCommitted means every action applied and the manifest was
	// rewritten.
	PhaseCommitted
	// PhaseRolledBack means an action failed and the backup was restored.
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAborted:
		return "aborted"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Options configures an apply run.
type Options struct {
	// DisableBackup skips the pre-mutation snapshot. Without a backup a
	// failed apply cannot be rolled back; callers must opt in explicitly.
	DisableBackup bool
	// ConflictLabel names the incoming side in conflict markers. Defaults
	// to the plan's target version.
	ConflictLabel string
}

// Result summarizes a completed (or failed) apply run.
type Result struct {
	Phase Phase

	Added     int
	Updated   int
	Removed   int
	Preserved int
	Skipped   int

	// Conflicts lists files that received conflict markers and need manual
	// resolution.
	Conflicts []string
	// FalsePositives lists files that were flagged customized but whose
	// content matched upstream, so they were updated instead of marked.
	FalsePositives []string

	Backup *backup.Backup
}

// Run applies the plan to the working copy and commits the manifest.
// On any apply-time failure it restores the backup and returns the original
// error wrapped as ErrApplyRolledBack; if the restore itself fails, the
// returned ErrRestoreFailed carries both errors and the backup path for
// manual recovery.
func Run(fsys types.FS, projectRoot string, plan *reconcile.Plan, upstream *kit.FileSet, m *manifest.Manifest, opts Options) (*Result, error) {
	logger := logging.GetLogger("apply")

	p, err := paths.New(projectRoot)
	if err != nil {
		return nil, err
	}

	result := &Result{Phase: PhaseIdle}

	// Step 1: backup. Nothing has been touched yet, so failure aborts.
	if !opts.DisableBackup {
		// The snapshot must cover everything the plan is about to touch,
		// not just what the manifest already tracks: an add under a
		// brand-new top-level directory has to be inside the backup's
		// scope so rollback can delete it again.
		covered := planPaths(plan)
		for _, tf := range m.TrackedFiles {
			covered = append(covered, tf.Path)
		}
		roots := manifest.ManagedRootsFor(covered)
		b, err := backup.Create(fsys, projectRoot, roots, plan.SourceVersion, plan.TargetVersion)
		if err != nil {
			result.Phase = PhaseAborted
			return result, errors.Wrap(err, errors.ErrApplyAborted, "backup failed, nothing was modified")
		}
		result.Backup = b
	}

	label := opts.ConflictLabel
	if label == "" {
		label = plan.TargetVersion
	}

	// Step 2: mutate, in plan order.
	// Step 3: commit the manifest. The manifest write is past the backup
	// point too, so its failure also rolls back.
	err = applyStates(fsys, p, plan, upstream, m, label, result)
	if err == nil {
		err = commit(fsys, p, plan, m, result)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Apply failed, rolling back")
		return rollback(fsys, projectRoot, result, err)
	}

	result.Phase = PhaseCommitted
	logger.Info().
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("removed", result.Removed).
		Int("conflicts", len(result.Conflicts)).
		Str("version", plan.TargetVersion).
		Msg("Apply committed")
	return result, nil
}

func applyStates(fsys types.FS, p *paths.Paths, plan *reconcile.Plan, upstream *kit.FileSet, m *manifest.Manifest, label string, result *Result) error {
	for _, state := range plan.States {
		abs := filepath.Join(p.ProjectRoot(), filepath.FromSlash(state.Path))

		switch state.Action {
		case reconcile.ActionAdd, reconcile.ActionUpdate:
			content, ok := upstream.Get(state.Path)
			if !ok {
				return errors.Newf(errors.ErrInternal, "plan references %s but upstream has no content for it", state.Path)
			}
			if err := writeFile(fsys, abs, content); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", state.Path)
			}
			if state.Action == reconcile.ActionAdd {
				result.Added++
			} else {
				result.Updated++
			}

		case reconcile.ActionRemove:
			if err := fsys.Remove(abs); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove %s", state.Path)
			}
			result.Removed++

		case reconcile.ActionMerge:
			resolved, err := applyMerge(fsys, abs, state, upstream, label)
			if err != nil {
				return err
			}
			if resolved {
				result.Updated++
				result.FalsePositives = append(result.FalsePositives, state.Path)
			} else {
				result.Conflicts = append(result.Conflicts, state.Path)
			}

		case reconcile.ActionPreserve:
			result.Preserved++

		case reconcile.ActionSkip:
			result.Skipped++
		}
	}
	return nil
}

// applyMerge re-verifies a merge candidate by content before writing
// markers. A file that was merely flagged customized (the safe-default
// rule) but whose normalized content equals upstream is a false positive:
// it gets the plain update. Returns true when the merge resolved to an
// update.
func applyMerge(fsys types.FS, abs string, state reconcile.FileState, upstream *kit.FileSet, label string) (bool, error) {
	upstreamContent, ok := upstream.Get(state.Path)
	if !ok {
		return false, errors.Newf(errors.ErrInternal, "plan references %s but upstream has no content for it", state.Path)
	}

	current, err := fsys.ReadFile(abs)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", state.Path)
		}
		// Deleted between reconcile and apply. Treat as add.
		current = nil
	}

	if current != nil && kit.HasConflictMarkers(current) {
		// Still carrying markers from a previous run. Re-marking would nest
		// conflicts inside conflicts; leave the file alone and report it
		// again.
		return false, nil
	}

	if current != nil && fingerprint.Equal(fingerprint.Hash(current), fingerprint.Hash(upstreamContent)) {
		if err := writeFile(fsys, abs, upstreamContent); err != nil {
			return false, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", state.Path)
		}
		return true, nil
	}

	marked := kit.ConflictMarkers(current, upstreamContent, label)
	if err := writeFile(fsys, abs, marked); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "failed to write conflict markers to %s", state.Path)
	}
	return false, nil
}

func commit(fsys types.FS, p *paths.Paths, plan *reconcile.Plan, m *manifest.Manifest, result *Result) error {
	falsePositive := make(map[string]bool, len(result.FalsePositives))
	for _, path := range result.FalsePositives {
		falsePositive[path] = true
	}

	for _, state := range plan.States {
		switch {
		case state.Action == reconcile.ActionAdd || state.Action == reconcile.ActionUpdate,
			state.Action == reconcile.ActionMerge && falsePositive[state.Path]:
			m.Upsert(manifest.TrackedFile{
				Path:         state.Path,
				OriginalHash: state.UpstreamHash,
				Customized:   false,
				Official:     true,
			})
		case state.Action == reconcile.ActionRemove:
			m.Drop(state.Path)
		}
	}
	m.DistributionVersion = plan.TargetVersion

	return manifest.Save(fsys, p.ProjectRoot(), m)
}

func rollback(fsys types.FS, projectRoot string, result *Result, applyErr error) (*Result, error) {
	result.Phase = PhaseRolledBack
	if result.Backup == nil {
		return result, errors.Wrap(applyErr, errors.ErrApplyRolledBack, "apply failed with backups disabled, working copy may be inconsistent")
	}
	if restoreErr := backup.Restore(fsys, projectRoot, result.Backup); restoreErr != nil {
		return result, errors.Wrap(applyErr, errors.ErrRestoreFailed, "apply failed and restoring the backup also failed").
			WithDetail("restoreError", restoreErr.Error()).
			WithDetail("backupPath", result.Backup.Path)
	}
	return result, errors.Wrap(applyErr, errors.ErrApplyRolledBack, "apply failed, working copy restored from backup")
}

func writeFile(fsys types.FS, abs string, content []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}
	return fsys.WriteFile(abs, content, 0644)
}

func planPaths(plan *reconcile.Plan) []string {
	var paths []string
	for _, s := range plan.States {
		paths = append(paths, s.Path)
	}
	return paths
}
