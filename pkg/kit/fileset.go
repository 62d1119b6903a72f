package kit

// FileSet is an ordered mapping from project-relative path to file content,
// as delivered by an upstream release. Iteration order is insertion order,
// which for a fetched release is the order paths were encountered in the
// archive; reconciliation relies on that order for newly discovered files.
type FileSet struct {
	paths    []string
	contents map[string][]byte
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{contents: make(map[string][]byte)}
}

// Add records content for path. Adding an existing path replaces its
// content without changing its position.
func (s *FileSet) Add(path string, content []byte) {
	if _, ok := s.contents[path]; !ok {
		s.paths = append(s.paths, path)
	}
	s.contents[path] = content
}

// Get returns the content for path and whether it exists.
func (s *FileSet) Get(path string) ([]byte, bool) {
	content, ok := s.contents[path]
	return content, ok
}

// Has reports whether path is in the set.
func (s *FileSet) Has(path string) bool {
	_, ok := s.contents[path]
	return ok
}

// Paths returns all paths in insertion order. The returned slice is shared;
// callers must not mutate it.
func (s *FileSet) Paths() []string {
	return s.paths
}

// Len returns the number of files in the set.
func (s *FileSet) Len() int {
	return len(s.paths)
}
