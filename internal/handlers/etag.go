package handlers

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// pageETag is a strong validator for a rendered body.
func pageETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches implements the If-None-Match comparison, including "*" and
// lists of tags. Weak prefixes are ignored.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
