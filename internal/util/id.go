// Package util holds the small helpers shared across layers.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 128-bit random identifier in hex. Callers pass a short
// type prefix (chr, loc, itm, mom, nte, usr) that ends up in front of the
// hex separated by an underscore; an empty prefix yields the bare hex.
func NewID(prefix string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
