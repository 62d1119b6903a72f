// Package status reports how the working copy relates to the latest (or a
// pinned) kit release without mutating anything.
package status

import (
	"context"

	"github.com/arthur-debert/kitsync/pkg/core"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/registry"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// StatusOptions defines the options for the status command.
type StatusOptions struct {
	ProjectRoot string
	// Version compares against a specific release; empty uses the latest.
	Version string

	Registry   registry.Provider
	FileSystem types.FS
}

// StatusResult is the classification outcome for every managed file.
type StatusResult struct {
	CurrentVersion string          `json:"currentVersion"`
	TargetVersion  string          `json:"targetVersion"`
	UpToDate       bool            `json:"upToDate"`
	Conflicts      []string        `json:"conflicts,omitempty"`
	CustomFiles    []string        `json:"customFiles,omitempty"`
	Plan           *reconcile.Plan `json:"plan"`
}

// Status resolves the target release, fetches it, and reconciles. The
// working copy and manifest are left untouched.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	logger := logging.GetLogger("commands.status")

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

	result := &StatusResult{
		CurrentVersion: m.DistributionVersion,
		TargetVersion:  version,
		UpToDate:       plan.IsNoop(),
		Conflicts:      plan.Conflicts(),
		CustomFiles:    plan.CustomFiles,
		Plan:           plan,
	}

	logger.Debug().
		Str("current", result.CurrentVersion).
		Str("target", result.TargetVersion).
		Bool("upToDate", result.UpToDate).
		Int("conflicts", len(result.Conflicts)).
		Msg("Status computed")
	return result, nil
}
