// Package initialize creates the first manifest for a project that already
// has a kit checked out.
package initialize

import (
	"context"

	"github.com/arthur-debert/kitsync/pkg/core"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/registry"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// InitOptions defines the options for the init command.
type InitOptions struct {
	// ProjectRoot is the project being put under management.
	ProjectRoot string
	// Version pins the distribution version; empty resolves the latest.
	Version string
	// AssumeClean records files as unmodified instead of the safe default
	// of marking everything customized. Only sensible right after a fresh
	// kit checkout.
	AssumeClean bool

	Registry   registry.Provider
	FileSystem types.FS
}

// InitResult reports what the first manifest covers.
type InitResult struct {
	Version      string   `json:"version"`
	Tracked      int      `json:"tracked"`
	ManagedRoots []string `json:"managedRoots"`
}

// Init resolves the kit release, scans the project, and writes the first
// manifest. It refuses to overwrite an existing manifest.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	logger := logging.GetLogger("commands.init")
	logger.Debug().Str("root", opts.ProjectRoot).Str("version", opts.Version).Msg("Executing init")

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

	m, err := core.InitManifest(opts.FileSystem, opts.ProjectRoot, version, !opts.AssumeClean, upstream.Paths())
	if err != nil {
		return nil, err
	}

	return &InitResult{
		Version:      version,
		Tracked:      len(m.TrackedFiles),
		ManagedRoots: m.ManagedRoots(),
	}, nil
}
