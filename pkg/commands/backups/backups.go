// Package backups lists, restores, and prunes pre-apply snapshots.
package backups

import (
	"github.com/arthur-debert/kitsync/pkg/backup"
	"github.com/arthur-debert/kitsync/pkg/core"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// ListOptions defines the options for the backups command.
type ListOptions struct {
	ProjectRoot string
	FileSystem  types.FS
}

// ListResult holds the project's backups, newest first.
type ListResult struct {
	Backups []*backup.Backup `json:"backups"`
}

// List returns all backups for the project.
func List(opts ListOptions) (*ListResult, error) {
	backups, err := core.ListBackups(opts.FileSystem, opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	return &ListResult{Backups: backups}, nil
}

// RestoreOptions defines the options for the restore command.
type RestoreOptions struct {
	ProjectRoot string
	// Stamp selects a backup; empty restores the newest.
	Stamp      string
	FileSystem types.FS
}

// RestoreResult reports which backup was restored.
type RestoreResult struct {
	Backup *backup.Backup `json:"backup"`
}

// Restore replaces the managed directories with the contents of a backup.
// Destructive to uncommitted local changes, so callers confirm first.
func Restore(opts RestoreOptions) (*RestoreResult, error) {
	logger := logging.GetLogger("commands.restore")

	b, err := core.RollbackTo(opts.FileSystem, opts.ProjectRoot, opts.Stamp)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("stamp", b.Stamp()).Msg("Backup restored")
	return &RestoreResult{Backup: b}, nil
}

// PruneOptions defines the options for the prune command.
type PruneOptions struct {
	ProjectRoot string
	// Keep is how many of the newest backups survive.
	Keep       int
	FileSystem types.FS
}

// PruneResult reports what the retention pass deleted.
type PruneResult struct {
	Deleted []*backup.Backup `json:"deleted"`
	Kept    int              `json:"kept"`
}

// Prune deletes all but the newest Keep backups.
func Prune(opts PruneOptions) (*PruneResult, error) {
	logger := logging.GetLogger("commands.prune")

	keep := opts.Keep
	if keep <= 0 {
		keep = backup.DefaultKeep
	}

	deleted, err := core.PruneBackups(opts.FileSystem, opts.ProjectRoot, keep)
	if err != nil {
		return nil, err
	}

	remaining, err := core.ListBackups(opts.FileSystem, opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	logger.Info().Int("deleted", len(deleted)).Int("kept", len(remaining)).Msg("Backups pruned")
	return &PruneResult{Deleted: deleted, Kept: len(remaining)}, nil
}
