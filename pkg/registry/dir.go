package registry

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/kit"
)

// dirProvider serves releases from a local directory.
//
// Two layouts are supported. With an index.json present, the directory
// works like a hosted registry: the index lists versions and archive file
// names relative to the directory. Without one, the directory tree itself
// is the release content and any requested version resolves to itself —
// handy for developing a kit against a checkout.
type dirProvider struct {
	root     string
	channel  string
	hasIndex bool
}

func newDirProvider(root, channel string) (*dirProvider, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput, "registry directory %s does not exist", root)
	}
	_, err = os.Stat(filepath.Join(root, "index.json"))
	return &dirProvider{root: root, channel: channel, hasIndex: err == nil}, nil
}

func (p *dirProvider) index() ([]ReleaseInfo, error) {
	data, err := os.ReadFile(filepath.Join(p.root, "index.json"))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRegistryFetch, "failed to read index in %s", p.root)
	}
	var index []ReleaseInfo
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRegistryFetch, "index in %s is not valid JSON", p.root)
	}
	return index, nil
}

func (p *dirProvider) ResolveLatest(_ context.Context) (string, error) {
	if !p.hasIndex {
		return "", errors.Newf(errors.ErrRegistryResolve,
			"registry directory %s has no index, a version must be given explicitly", p.root)
	}
	index, err := p.index()
	if err != nil {
		return "", err
	}
	return pickLatest(index, p.channel)
}

func (p *dirProvider) Resolve(_ context.Context, version string) (string, error) {
	if !p.hasIndex {
		return version, nil
	}
	index, err := p.index()
	if err != nil {
		return "", err
	}
	rel, ok := findRelease(index, version)
	if !ok {
		return "", errors.Newf(errors.ErrRegistryResolve, "version %s not found in %s", version, p.root)
	}
	return rel.Version, nil
}

func (p *dirProvider) Fetch(ctx context.Context, version string) (*kit.FileSet, error) {
	if !p.hasIndex {
		return p.fetchTree()
	}

	index, err := p.index()
	if err != nil {
		return nil, err
	}
	rel, ok := findRelease(index, version)
	if !ok {
		return nil, errors.Newf(errors.ErrRegistryResolve, "version %s not found in %s", version, p.root)
	}

	archivePath := filepath.Join(p.root, rel.Archive)
	if rel.Checksum != "" {
		if err := verifyChecksum(archivePath, rel.Checksum); err != nil {
			return nil, err
		}
	}
	return extractArchive(ctx, archivePath)
}

// fetchTree reads the directory tree itself as release content.
func (p *dirProvider) fetchTree() (*kit.FileSet, error) {
	fileSet := kit.NewFileSet()
	osFS := filesystem.NewOS()
	err := filesystem.WalkFiles(osFS, p.root, func(rel string, _ fs.FileInfo) error {
		content, err := osFS.ReadFile(filepath.Join(p.root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		fileSet.Add(rel, content)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRegistryFetch, "failed to read kit tree %s", p.root)
	}
	return fileSet, nil
}

var _ Provider = (*dirProvider)(nil)
