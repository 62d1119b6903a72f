package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/kitsync/pkg/types"
)

// WalkFiles walks the tree rooted at root and calls fn for every regular
// file, passing the path relative to root (slash-separated) and the entry's
// FileInfo. Directories are visited in sorted order so traversal is
// deterministic across FS implementations. A missing root is not an error:
// the walk simply visits nothing. Any other Stat failure is returned, never
// treated as an empty directory.
func WalkFiles(fsys types.FS, root string, fn func(relPath string, info fs.FileInfo) error) error {
	info, err := fsys.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fn(filepath.ToSlash(filepath.Base(root)), info)
	}
	return walkDir(fsys, root, "", fn)
}

func walkDir(fsys types.FS, root, rel string, fn func(relPath string, info fs.FileInfo) error) error {
	dir := root
	if rel != "" {
		dir = filepath.Join(root, filepath.FromSlash(rel))
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}
		if entry.IsDir() {
			if err := walkDir(fsys, root, childRel, fn); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := fn(childRel, info); err != nil {
			return err
		}
	}
	return nil
}
