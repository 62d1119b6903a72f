// Package rescan resets the sync baseline to whatever is on disk.
package rescan

import (
	"github.com/arthur-debert/kitsync/pkg/core"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// RescanOptions defines the options for the rescan command.
type RescanOptions struct {
	ProjectRoot string
	FileSystem  types.FS
}

// RescanResult reports the rebuilt baseline.
type RescanResult struct {
	Tracked int    `json:"tracked"`
	Version string `json:"version"`
}

// Rescan rebases every tracked file's original hash to its current on-disk
// fingerprint and clears customized flags. This discards the engine's
// memory of local edits, so callers must confirm with the user first.
func Rescan(opts RescanOptions) (*RescanResult, error) {
	logger := logging.GetLogger("commands.rescan")

	m, err := core.Rescan(opts.FileSystem, opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	logger.Info().Int("tracked", len(m.TrackedFiles)).Msg("Baseline reset")
	return &RescanResult{
		Tracked: len(m.TrackedFiles),
		Version: m.DistributionVersion,
	}, nil
}
