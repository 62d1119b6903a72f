// Package diffcmd renders line diffs between local files and their
// upstream counterparts.
package diffcmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arthur-debert/kitsync/pkg/diff"
	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/paths"
	"github.com/arthur-debert/kitsync/pkg/registry"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// DiffOptions defines the options for the diff command.
type DiffOptions struct {
	ProjectRoot string
	// Paths restricts the diff to specific tracked files; empty diffs every
	// official file that changed.
	Paths []string
	// Version diffs against a specific release; empty uses the latest.
	Version string

	Registry   registry.Provider
	FileSystem types.FS
}

// FileDiff is the rendered diff of one file.
type FileDiff struct {
	Path  string     `json:"path"`
	Diff  string     `json:"diff"`
	Stats diff.Stats `json:"stats"`
	// LocalMissing means the file exists upstream but not on disk.
	LocalMissing bool `json:"localMissing,omitempty"`
	// UpstreamMissing means the file exists locally but not in the release.
	UpstreamMissing bool `json:"upstreamMissing,omitempty"`
}

// DiffResult collects per-file diffs against the target release.
type DiffResult struct {
	TargetVersion string     `json:"targetVersion"`
	Files         []FileDiff `json:"files"`
}

// Diff compares tracked official files with the target release and renders
// line diffs for those that differ.
func Diff(ctx context.Context, opts DiffOptions) (*DiffResult, error) {
	logger := logging.GetLogger("commands.diff")

	fsys := opts.FileSystem
	if fsys == nil {
		fsys = filesystem.NewOS()
	}

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

	m, err := manifest.Load(fsys, opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	p, err := paths.New(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	targets := opts.Paths
	if len(targets) == 0 {
		for _, tf := range m.TrackedFiles {
			if tf.Official || upstream.Has(tf.Path) {
				targets = append(targets, tf.Path)
			}
		}
		for _, path := range upstream.Paths() {
			if _, tracked := m.Tracked(path); !tracked {
				targets = append(targets, path)
			}
		}
	} else {
		for i, path := range targets {
			clean, err := paths.ValidateRelPath(path)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid path %s", path)
			}
			targets[i] = clean
		}
	}

	result := &DiffResult{TargetVersion: version}
	for _, path := range targets {
		local, err := fsys.ReadFile(filepath.Join(p.ProjectRoot(), filepath.FromSlash(path)))
		localMissing := false
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
			}
			localMissing = true
		}

		remote, upstreamHas := upstream.Get(path)
		if localMissing && !upstreamHas {
			return nil, errors.Newf(errors.ErrFileNotFound, "%s exists neither locally nor in %s", path, version)
		}

		if !diff.Changed(local, remote) {
			continue
		}
		out, stats := diff.Lines(local, remote)
		result.Files = append(result.Files, FileDiff{
			Path:            path,
			Diff:            out,
			Stats:           stats,
			LocalMissing:    localMissing,
			UpstreamMissing: !upstreamHas,
		})
	}

	logger.Debug().Str("version", version).Int("changed", len(result.Files)).Msg("Diff computed")
	return result, nil
}
