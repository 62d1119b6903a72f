// Package registry fetches kit releases from an upstream provider.
//
// A registry serves an index.json listing released versions and, per
// version, a tar.gz archive with a sha256 checksum. Two schemes are
// supported: http(s):// for a hosted registry and dir:// for a local
// directory, which is also what tests and air-gapped setups use.
//
// The engine treats the registry as an opaque synchronous collaborator:
// all network traffic happens here, strictly before reconciliation begins.
package registry

import (
	"context"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/kit"
)

// ChannelStable ignores prerelease versions; ChannelEdge includes them.
const (
	ChannelStable = "stable"
	ChannelEdge   = "edge"
)

// ReleaseInfo is one entry of a registry's index.json.
type ReleaseInfo struct {
	// Version is a semver tag, with or without a leading "v".
	Version string `json:"version"`
	// Archive is the archive's name or URL relative to the index.
	Archive string `json:"archive"`
	// Checksum is the sha256 hex digest of the archive.
	Checksum string `json:"checksum"`
}

// Provider resolves versions and fetches release content.
type Provider interface {
	// ResolveLatest returns the newest version available on the channel.
	ResolveLatest(ctx context.Context) (string, error)
	// Resolve verifies that version exists and returns its canonical form.
	Resolve(ctx context.Context, version string) (string, error)
	// Fetch returns the full file set of a release, keyed by
	// project-relative path, in archive order.
	Fetch(ctx context.Context, version string) (*kit.FileSet, error)
}

// Options configures a provider.
type Options struct {
	// URL of the registry; http(s):// or dir:// scheme.
	URL string
	// Channel selects prerelease handling; defaults to stable.
	Channel string
	// CacheDir holds downloaded archives, reused across runs by checksum.
	CacheDir string
}

// New returns a provider for the registry URL.
func New(opts Options) (Provider, error) {
	if opts.URL == "" {
		return nil, errors.New(errors.ErrInvalidInput, "no registry URL configured, set registry.url or KITSYNC_REGISTRY_URL")
	}
	if opts.Channel == "" {
		opts.Channel = ChannelStable
	}
	if path, ok := strings.CutPrefix(opts.URL, "dir://"); ok {
		return newDirProvider(path, opts.Channel)
	}
	return newHTTPProvider(opts)
}

// pickLatest selects the highest semver from an index, honoring the
// channel. Entries that do not parse as semver are skipped.
func pickLatest(index []ReleaseInfo, channel string) (string, error) {
	var versions semver.Collection
	byParsed := make(map[string]string)
	for _, rel := range index {
		v, err := semver.NewVersion(rel.Version)
		if err != nil {
			continue
		}
		if channel != ChannelEdge && v.Prerelease() != "" {
			continue
		}
		versions = append(versions, v)
		byParsed[v.String()] = rel.Version
	}
	if len(versions) == 0 {
		return "", errors.New(errors.ErrRegistryResolve, "registry index lists no usable versions")
	}
	sort.Sort(versions)
	return byParsed[versions[len(versions)-1].String()], nil
}

// findRelease locates version in an index, tolerating a leading "v" on
// either side.
func findRelease(index []ReleaseInfo, version string) (ReleaseInfo, bool) {
	want := strings.TrimPrefix(version, "v")
	for _, rel := range index {
		if strings.TrimPrefix(rel.Version, "v") == want {
			return rel, true
		}
	}
	return ReleaseInfo{}, false
}
