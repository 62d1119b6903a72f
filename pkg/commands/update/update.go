// Package update performs the full sync cycle: resolve, fetch, reconcile,
// confirm, apply.
package update

import (
	"context"

	"github.com/arthur-debert/kitsync/pkg/apply"
	"github.com/arthur-debert/kitsync/pkg/backup"
	"github.com/arthur-debert/kitsync/pkg/core"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/registry"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// UpdateOptions defines the options for the update command.
type UpdateOptions struct {
	ProjectRoot string
	// Version pins the target release; empty resolves the latest.
	Version string

	// DryRun stops after reconciliation; nothing is written.
	DryRun bool
	// DisableBackup skips the pre-apply snapshot. Apply refuses to proceed
	// without a backup unless this is set.
	DisableBackup bool
	// ConflictLabel annotates conflict markers; defaults to the target
	// version.
	ConflictLabel string
	// PruneKeep, when positive, bounds retention after a committed apply:
	// backups beyond this count become prune candidates.
	PruneKeep int

	// Confirm is consulted with the plan before any mutation. Nil means
	// proceed. Returning false aborts cleanly.
	Confirm func(plan *reconcile.Plan) (bool, error)
	// ConfirmPrune is consulted before deleting backups beyond PruneKeep.
	// Backup deletion requires explicit consent: nil or false means the
	// backups stay.
	ConfirmPrune func(excess, keep int) (bool, error)

	Registry   registry.Provider
	FileSystem types.FS
}

// UpdateResult reports the plan and, when applied, the apply outcome.
type UpdateResult struct {
	Plan     *reconcile.Plan  `json:"plan"`
	Apply    *apply.Result    `json:"apply,omitempty"`
	Pruned   []*backup.Backup `json:"pruned,omitempty"`
	UpToDate bool             `json:"upToDate"`
	// Declined is set when the confirmation callback rejected the plan.
	Declined bool `json:"declined,omitempty"`
}

// Update syncs the working copy to the target release. The apply step runs
// under the backup-then-mutate-then-commit protocol, so a failure part-way
// through restores the pre-update state.
func Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	logger := logging.GetLogger("commands.update")
	done := logging.LogOperationStart(logger, "update")
	defer done()

	version := opts.Version
	var err error
	if version == "" {
		version, err = opts.Registry.ResolveLatest(ctx)
	} else {
		version, err = opts.Registry.Resolve(ctx, version)
	}
	if err != nil {
		return nil, err
	}

	upstream, err := opts.Registry.Fetch(ctx, version)
	if err != nil {
		return nil, err
	}

	plan, m, err := core.Reconcile(core.ReconcileOptions{
		ProjectRoot:   opts.ProjectRoot,
		Upstream:      upstream,
		TargetVersion: version,
		FileSystem:    opts.FileSystem,
	})
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Plan: plan}

	if plan.IsNoop() {
		result.UpToDate = true
		logger.Info().Str("version", version).Msg("Already up to date")
		return result, nil
	}
	if opts.DryRun {
		logger.Info().Msg("Dry run, stopping before apply")
		return result, nil
	}

	if opts.Confirm != nil {
		ok, err := opts.Confirm(plan)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Declined = true
			logger.Info().Msg("Update declined")
			return result, nil
		}
	}

	label := opts.ConflictLabel
	if label == "" {
		label = version
	}
	applyResult, err := core.Apply(core.ApplyOptions{
		ProjectRoot:   opts.ProjectRoot,
		Plan:          plan,
		Upstream:      upstream,
		Manifest:      m,
		DisableBackup: opts.DisableBackup,
		ConflictLabel: label,
		FileSystem:    opts.FileSystem,
	})
	result.Apply = applyResult
	if err != nil {
		return result, err
	}

	// Retention is destructive, so it never runs without consent. The sync
	// itself succeeded at this point; retention trouble is reported but
	// never fails the command.
	if opts.PruneKeep > 0 && opts.ConfirmPrune != nil {
		backups, err := core.ListBackups(opts.FileSystem, opts.ProjectRoot)
		if err != nil {
			logger.Warn().Err(err).Msg("Backup listing failed, skipping retention")
		} else if excess := len(backups) - opts.PruneKeep; excess > 0 {
			ok, err := opts.ConfirmPrune(excess, opts.PruneKeep)
			if err != nil {
				logger.Warn().Err(err).Msg("Retention confirmation failed, keeping backups")
			} else if ok {
				pruned, err := core.PruneBackups(opts.FileSystem, opts.ProjectRoot, opts.PruneKeep)
				if err != nil {
					logger.Warn().Err(err).Msg("Backup pruning failed")
				} else {
					result.Pruned = pruned
				}
			}
		}
	}

	logger.Info().
		Str("from", plan.SourceVersion).
		Str("to", plan.TargetVersion).
		Int("conflicts", len(applyResult.Conflicts)).
		Msg("Update applied")
	return result, nil
}
