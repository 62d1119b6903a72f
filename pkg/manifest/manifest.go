// Package manifest persists the sync state of a project: which files are
// tracked, the fingerprint each one had at the last successful sync, and
// whether the user has customized it.
//
// The manifest is the single source of truth for "what did this file look
// like when we last synced it". It is read at the start of every
// reconciliation and rewritten only as the final step of a successful
// apply, so a crash mid-apply always leaves it describing the pre-update
// state — the same state a backup restore returns the working copy to.
package manifest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/fingerprint"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/paths"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// SchemaVersion is written into every manifest this build produces.
const SchemaVersion = "1"

// TrackedFile is one entry per file under management.
type TrackedFile struct {
	// Path is project-relative, slash-separated, unique within a manifest.
	Path string `json:"path"`
	// OriginalHash is the fingerprint recorded at the last point this file
	// was known to match an upstream release. Empty means never recorded.
	OriginalHash string `json:"originalHash,omitempty"`
	// Customized is an explicit flag, settable independently of hash
	// comparison. The safe-default rule sets it on first manifest creation.
	Customized bool `json:"customized"`
	// Official distinguishes distribution-managed files from user files
	// that happen to live in a managed directory.
	Official bool `json:"official"`
}

// Manifest is the persisted aggregate of all tracked files.
type Manifest struct {
	SchemaVersion       string        `json:"schemaVersion"`
	DistributionVersion string        `json:"distributionVersion"`
	TrackedFiles        []TrackedFile `json:"trackedFiles"`

	index map[string]int
}

func (m *Manifest) reindex() {
	m.index = make(map[string]int, len(m.TrackedFiles))
	for i, tf := range m.TrackedFiles {
		m.index[tf.Path] = i
	}
}

// Tracked returns the entry for path, if any.
func (m *Manifest) Tracked(path string) (TrackedFile, bool) {
	if m.index == nil {
		m.reindex()
	}
	i, ok := m.index[path]
	if !ok {
		return TrackedFile{}, false
	}
	return m.TrackedFiles[i], true
}

// Upsert inserts or replaces the entry for tf.Path.
func (m *Manifest) Upsert(tf TrackedFile) {
	if m.index == nil {
		m.reindex()
	}
	if i, ok := m.index[tf.Path]; ok {
		m.TrackedFiles[i] = tf
		return
	}
	m.index[tf.Path] = len(m.TrackedFiles)
	m.TrackedFiles = append(m.TrackedFiles, tf)
}

// Drop removes the entry for path if present.
func (m *Manifest) Drop(path string) {
	if m.index == nil {
		m.reindex()
	}
	i, ok := m.index[path]
	if !ok {
		return
	}
	m.TrackedFiles = append(m.TrackedFiles[:i], m.TrackedFiles[i+1:]...)
	m.reindex()
}

// OfficialPaths returns the set of paths marked Official.
func (m *Manifest) OfficialPaths() map[string]bool {
	official := make(map[string]bool)
	for _, tf := range m.TrackedFiles {
		if tf.Official {
			official[tf.Path] = true
		}
	}
	return official
}

// ManagedRoots returns the sorted unique top-level path segments of all
// tracked files. A segment may be a directory (templates/...) or a
// top-level tracked file (Makefile). Backups and custom-file scans operate
// on these roots rather than on individual tracked files, so anything the
// user added alongside tracked files is captured too.
func (m *Manifest) ManagedRoots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, tf := range m.TrackedFiles {
		top := paths.TopSegment(tf.Path)
		if !seen[top] {
			seen[top] = true
			roots = append(roots, top)
		}
	}
	sort.Strings(roots)
	return roots
}

// ManagedRootsFor derives managed roots from a list of paths, used when no
// manifest exists yet (first run).
func ManagedRootsFor(filePaths []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, p := range filePaths {
		top := paths.TopSegment(p)
		if !seen[top] {
			seen[top] = true
			roots = append(roots, top)
		}
	}
	sort.Strings(roots)
	return roots
}

// Load reads the manifest for projectRoot. A missing manifest returns an
// ErrManifestNotFound error; an unreadable or unparsable one returns
// ErrManifestCorrupt. The two are never conflated: corruption must force an
// explicit user decision instead of being treated as a fresh start.
func Load(fsys types.FS, projectRoot string) (*Manifest, error) {
	p, err := paths.New(projectRoot)
	if err != nil {
		return nil, err
	}

	data, err := fsys.ReadFile(p.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrManifestNotFound, "no manifest at %s", p.ManifestPath())
		}
		return nil, errors.Wrapf(err, errors.ErrManifestCorrupt, "manifest at %s is unreadable", p.ManifestPath())
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestCorrupt, "manifest at %s is not valid JSON", p.ManifestPath())
	}
	if m.SchemaVersion == "" {
		return nil, errors.Newf(errors.ErrManifestCorrupt, "manifest at %s has no schema version", p.ManifestPath())
	}
	m.reindex()
	return &m, nil
}

// Create builds a fresh manifest for a project that has a kit checked out
// but no sync state yet. It walks the managed roots implied by the official
// path list and records every file it finds.
//
// Safe-default rule: when assumeCustomized is true (the default posture),
// every discovered file is recorded with Customized=true and no original
// hash, regardless of content. We have no idea whether the user edited
// these files, so the first reconciliation will preserve or conflict-mark
// rather than silently overwrite. A later rescan resets the baseline once
// the user confirms intent.
func Create(fsys types.FS, projectRoot, version string, assumeCustomized bool, officialPaths []string) (*Manifest, error) {
	logger := logging.GetLogger("manifest")

	p, err := paths.New(projectRoot)
	if err != nil {
		return nil, err
	}

	official := make(map[string]bool, len(officialPaths))
	for _, op := range officialPaths {
		official[op] = true
	}

	m := &Manifest{
		SchemaVersion:       SchemaVersion,
		DistributionVersion: version,
	}
	m.reindex()

	for _, root := range ManagedRootsFor(officialPaths) {
		rootAbs := filepath.Join(p.ProjectRoot(), root)
		err := filesystem.WalkFiles(fsys, rootAbs, func(rel string, _ fs.FileInfo) error {
			relPath := rel
			if root != rel {
				relPath = root + "/" + rel
			}
			m.Upsert(TrackedFile{
				Path:       relPath,
				Customized: assumeCustomized,
				Official:   official[relPath],
			})
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to scan %s", rootAbs)
		}
	}

	logger.Info().
		Str("version", version).
		Int("tracked", len(m.TrackedFiles)).
		Bool("assumeCustomized", assumeCustomized).
		Msg("Created manifest")
	return m, nil
}

// Save writes the manifest atomically: serialize to a temp file in the
// state dir, then rename over the final path. TrackedFiles are sorted by
// path before writing so saved manifests diff cleanly.
func Save(fsys types.FS, projectRoot string, m *Manifest) error {
	p, err := paths.New(projectRoot)
	if err != nil {
		return err
	}

	sort.Slice(m.TrackedFiles, func(i, j int) bool {
		return m.TrackedFiles[i].Path < m.TrackedFiles[j].Path
	})
	m.reindex()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to serialize manifest")
	}
	data = append(data, '\n')

	if err := fsys.MkdirAll(p.StateDir(), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", p.StateDir())
	}

	tmp := p.ManifestPath() + ".tmp"
	if err := fsys.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to write %s", tmp)
	}
	if err := fsys.Rename(tmp, p.ManifestPath()); err != nil {
		_ = fsys.Remove(tmp)
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to replace %s", p.ManifestPath())
	}
	return nil
}

// UpdateHashes rescans every tracked file and resets its OriginalHash to
// the current on-disk fingerprint, clearing the Customized flag. Files that
// no longer exist on disk are dropped from tracking. This resets the sync
// baseline and is only invoked after a successful apply or an explicit
// user-confirmed rescan.
func UpdateHashes(fsys types.FS, projectRoot string, m *Manifest) error {
	logger := logging.GetLogger("manifest")

	p, err := paths.New(projectRoot)
	if err != nil {
		return err
	}

	var missing []string
	for i := range m.TrackedFiles {
		tf := &m.TrackedFiles[i]
		hash, err := fingerprint.HashFile(fsys, filepath.Join(p.ProjectRoot(), filepath.FromSlash(tf.Path)))
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to hash %s", tf.Path)
		}
		if hash == "" {
			missing = append(missing, tf.Path)
			continue
		}
		tf.OriginalHash = hash
		tf.Customized = false
	}

	for _, path := range missing {
		m.Drop(path)
	}

	logger.Debug().
		Int("rescanned", len(m.TrackedFiles)).
		Int("dropped", len(missing)).
		Msg("Rebased tracked file hashes")
	return nil
}

// String implements fmt.Stringer for logging.
func (m *Manifest) String() string {
	return fmt.Sprintf("manifest{version=%s files=%d}", m.DistributionVersion, len(m.TrackedFiles))
}
