// Package fingerprint computes normalized content hashes.
//
// A fingerprint neutralizes formatting noise before hashing: line-ending
// style (CRLF vs LF), a leading byte-order mark, and trailing whitespace on
// each line. Two files that differ only in those respects hash identically,
// so checking out a kit on Windows does not make every file look customized.
//
// Digests are rendered as "sha256:<hex>" so a future algorithm change is
// self-describing in persisted manifests.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/arthur-debert/kitsync/pkg/types"
)

// Prefix identifies the digest algorithm in rendered hashes.
const Prefix = "sha256:"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize returns content with CRLF converted to LF, a leading UTF-8 BOM
// stripped, and trailing whitespace removed from every line. Leading
// whitespace is preserved: indentation is significant.
func Normalize(content []byte) []byte {
	content = bytes.TrimPrefix(content, utf8BOM)
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	lines := bytes.Split(content, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	return bytes.Join(lines, []byte("\n"))
}

// Hash returns the normalized fingerprint of content as "sha256:<hex>".
func Hash(content []byte) string {
	sum := sha256.Sum256(Normalize(content))
	return fmt.Sprintf("%s%x", Prefix, sum)
}

// HashFile reads path from fs and returns its fingerprint. A missing file
// returns an empty hash and no error; other read failures are returned.
func HashFile(fs types.FS, path string) (string, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return Hash(content), nil
}

// Equal reports whether two fingerprints are the same digest. An empty
// string means "no hash recorded"; absence is never equal to anything,
// including another absence.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b
}
