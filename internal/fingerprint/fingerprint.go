// Package fingerprint computes stable content digests over sets of input
// files. The build cache uses these digests to decide whether a previously
// produced artifact is still valid for the current file contents.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"
)

// blockSize is the read granularity for file hashing.
const blockSize = 64 * 1024

// FileDigest returns the hex-encoded SHA-256 of a single file's contents.
// The file is read byte-exact in fixed-size blocks; no line-ending or
// encoding normalization is applied.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Digest returns the combined hex-encoded SHA-256 for a set of input files:
// the hash of the concatenation of each file's own hex digest, taken in
// lexicographic path order. Callers pass resolved absolute paths; Digest
// sorts a private copy, so insertion order never affects the result.
//
// An input that cannot be opened is skipped and digesting continues over
// the remaining files. A record digested with a now-unreadable input simply
// stops matching, which downgrades to a cache miss rather than an error.
//
// The digest is a pure function of file contents and the sorted path list;
// filesystem metadata (mtime, permissions) never participates.
func Digest(paths []string) string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	combined := sha256.New()
	for _, p := range sorted {
		sum, err := FileDigest(p)
		if err != nil {
			continue
		}
		io.WriteString(combined, sum)
	}
	return hex.EncodeToString(combined.Sum(nil))
}
