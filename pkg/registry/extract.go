package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/kit"
)

// extractArchive reads a release archive entirely into memory as a
// FileSet, preserving the order entries appear in the archive. Entries
// with paths escaping the archive root are rejected.
func extractArchive(ctx context.Context, archivePath string) (*kit.FileSet, error) {
	src, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRegistryFetch, "failed to open archive %s", archivePath)
	}
	defer func() { _ = src.Close() }()

	format, _, err := archives.Identify(ctx, filepath.Base(archivePath), src)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRegistryFetch, "failed to identify archive format of %s", archivePath)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, errors.ErrRegistryFetch, "failed to rewind archive")
	}

	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, errors.Newf(errors.ErrRegistryFetch, "archive format of %s does not support extraction", archivePath)
	}

	fileSet := kit.NewFileSet()
	err = extractor.Extract(ctx, src, func(_ context.Context, f archives.FileInfo) error {
		if f.IsDir() {
			return nil
		}
		name := filepath.ToSlash(filepath.Clean(f.NameInArchive))
		if name == ".." || strings.HasPrefix(name, "../") || filepath.IsAbs(name) {
			return errors.Newf(errors.ErrRegistryFetch, "invalid path in archive: %s", f.NameInArchive)
		}

		r, err := f.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return err
		}
		fileSet.Add(name, content)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRegistryFetch, "failed to extract %s", archivePath)
	}
	return fileSet, nil
}
