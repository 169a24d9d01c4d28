package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FragmentHash digests an element's canonical content bytes. Line endings
// are normalized to LF and the trailing newline is stripped before
// hashing, so the same logical fragment hashes identically across
// platforms and parses.
func FragmentHash(content string) string {
	canonical := CanonicalContent(content)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CanonicalContent applies the hash canonicalization rules without
// digesting, for callers that compare fragments directly.
func CanonicalContent(content string) string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.TrimRight(normalized, "\n")
}

// ContentHash digests raw bytes with no canonicalization. Cache keys for
// parse trees and element trees use this form.
func ContentHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}
