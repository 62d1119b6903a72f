// Package reconcile derives, per tracked file, what happened locally and
// upstream since the last sync, and what the apply step should do about it.
//
// Classification is pure: it compares three fingerprints (recorded at last
// sync, current on disk, incoming upstream) and maps them to one of six
// actions. ReconcileAll runs the classifier over a whole manifest plus an
// upstream file set and produces an ordered Plan for the apply coordinator.
package reconcile

import (
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/fingerprint"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/manifest"
	"github.com/arthur-debert/kitsync/pkg/paths"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// Plan is the ordered outcome of one reconciliation run: tracked files in
// manifest order, then upstream-only files in upstream order.
type Plan struct {
	States []FileState

	// CustomFiles are files under the managed directory tree that are not
	// part of the official distribution. No action in States may ever touch
	// them.
	CustomFiles []string

	SourceVersion string
	TargetVersion string
}

// Counts returns how many files landed on each action.
func (p *Plan) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, s := range p.States {
		counts[s.Action]++
	}
	return counts
}

// Conflicts returns the paths classified as merge, in plan order.
func (p *Plan) Conflicts() []string {
	var conflicts []string
	for _, s := range p.States {
		if s.Action == ActionMerge {
			conflicts = append(conflicts, s.Path)
		}
	}
	return conflicts
}

// IsNoop reports whether every state is a skip, meaning apply would mutate
// nothing.
func (p *Plan) IsNoop() bool {
	for _, s := range p.States {
		if s.Action != ActionSkip {
			return false
		}
	}
	return true
}

// ReconcileAll classifies every file the manifest tracks against upstream,
// then every upstream file the manifest does not know about. Read errors
// abort the whole run: a partial plan is never returned.
//
// Tracked files that are not official are the user's own; they are reported
// in Plan.CustomFiles and forced to preserve so no action can touch them.
func ReconcileAll(fsys types.FS, projectRoot string, m *manifest.Manifest, upstream *kit.FileSet, targetVersion string) (*Plan, error) {
	logger := logging.GetLogger("reconcile")

	p, err := paths.New(projectRoot)
	if err != nil {
		return nil, err
	}

	upstreamHashes := make(map[string]string, upstream.Len())
	for _, path := range upstream.Paths() {
		content, _ := upstream.Get(path)
		upstreamHashes[path] = fingerprint.Hash(content)
	}

	plan := &Plan{
		SourceVersion: m.DistributionVersion,
		TargetVersion: targetVersion,
	}

	// Pass 1: tracked files, in manifest order.
	for _, tf := range m.TrackedFiles {
		currentHash, err := fingerprint.HashFile(fsys, filepath.Join(p.ProjectRoot(), filepath.FromSlash(tf.Path)))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", tf.Path)
		}

		official := tf.Official || upstream.Has(tf.Path)
		state := classify(tf.Path, tf.OriginalHash, upstreamHashes[tf.Path], currentHash, official, tf.Customized)

		if !official {
			// User-authored file living in a managed directory: tracked for
			// visibility, but never acted on.
			state.Action = ActionPreserve
			plan.CustomFiles = append(plan.CustomFiles, tf.Path)
		}
		plan.States = append(plan.States, state)
	}

	// Pass 2: upstream files the manifest has never seen, in upstream order.
	for _, path := range upstream.Paths() {
		if _, tracked := m.Tracked(path); tracked {
			continue
		}
		currentHash, err := fingerprint.HashFile(fsys, filepath.Join(p.ProjectRoot(), filepath.FromSlash(path)))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
		}
		plan.States = append(plan.States, Classify(path, "", upstreamHashes[path], currentHash, true))
	}

	// Pass 3: untracked files on disk under the managed roots. They are the
	// user's; record them so callers can report what sync will leave alone.
	official := m.OfficialPaths()
	for path := range upstreamHashes {
		official[path] = true
	}
	if err := collectCustomFiles(fsys, p.ProjectRoot(), m, upstream, official, plan); err != nil {
		return nil, err
	}

	counts := plan.Counts()
	logger.Debug().
		Str("source", plan.SourceVersion).
		Str("target", plan.TargetVersion).
		Int("files", len(plan.States)).
		Int("conflicts", counts[ActionMerge]).
		Int("custom", len(plan.CustomFiles)).
		Msg("Reconciliation complete")
	return plan, nil
}

func collectCustomFiles(fsys types.FS, root string, m *manifest.Manifest, upstream *kit.FileSet, official map[string]bool, plan *Plan) error {
	roots := m.ManagedRoots()
	if len(roots) == 0 {
		roots = manifest.ManagedRootsFor(upstream.Paths())
	}

	seen := make(map[string]bool, len(plan.CustomFiles))
	for _, path := range plan.CustomFiles {
		seen[path] = true
	}

	for _, mr := range roots {
		rootAbs := filepath.Join(root, mr)
		err := filesystem.WalkFiles(fsys, rootAbs, func(rel string, _ fs.FileInfo) error {
			relPath := rel
			if mr != rel {
				relPath = mr + "/" + rel
			}
			if official[relPath] || seen[relPath] {
				return nil
			}
			if _, tracked := m.Tracked(relPath); tracked {
				return nil
			}
			seen[relPath] = true
			plan.CustomFiles = append(plan.CustomFiles, relPath)
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to scan %s", rootAbs)
		}
	}
	return nil
}
