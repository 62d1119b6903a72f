// Package diff renders line-based diffs between a local file and its
// upstream counterpart for the diff command.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats summarizes a diff.
type Stats struct {
	Inserted int
	Deleted  int
}

// Lines computes a line-based diff and renders it with +/- prefixes,
// unchanged lines prefixed by two spaces.
func Lines(local, upstream []byte) (string, Stats) {
	dmp := diffmatchpatch.New()

	src, dst, lineArray := dmp.DiffLinesToChars(string(local), string(upstream))
	diffs := dmp.DiffMain(src, dst, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	var stats Stats
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitLines(d.Text) {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				stats.Deleted++
			case diffmatchpatch.DiffInsert:
				stats.Inserted++
			}
		}
	}
	return b.String(), stats
}

// Changed reports whether two contents differ at all.
func Changed(local, upstream []byte) bool {
	return string(local) != string(upstream)
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
