package kit

import "bytes"

// Conflict marker lines follow the three-way convention editors already
// understand, so their built-in resolution UI picks the blocks up without
// any custom tooling.
const (
	markerCurrent   = "<<<<<<< current"
	markerSeparator = "======="
	markerIncoming  = ">>>>>>> "
)

// ConflictMarkers renders a three-way conflict block: the user's current
// content, a separator, and the incoming upstream content, labeled with the
// incoming version.
func ConflictMarkers(current, incoming []byte, label string) []byte {
	var buf bytes.Buffer
	buf.WriteString(markerCurrent)
	buf.WriteByte('\n')
	writeSection(&buf, current)
	buf.WriteString(markerSeparator)
	buf.WriteByte('\n')
	writeSection(&buf, incoming)
	buf.WriteString(markerIncoming)
	buf.WriteString(label)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// HasConflictMarkers reports whether content still contains an unresolved
// marker block.
func HasConflictMarkers(content []byte) bool {
	return bytes.Contains(content, []byte(markerCurrent)) &&
		bytes.Contains(content, []byte("\n"+markerSeparator+"\n")) &&
		bytes.Contains(content, []byte("\n"+markerIncoming))
}

// writeSection appends content, guaranteeing it ends with a newline so the
// following marker starts on its own line.
func writeSection(buf *bytes.Buffer, content []byte) {
	buf.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		buf.WriteByte('\n')
	}
}
