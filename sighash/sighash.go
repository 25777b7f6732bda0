// Package sighash derives short, stable, identifier-safe names from
// wrapper signatures. Names are a pure function of the signature text, so
// a wrapper keeps its name across generation runs as long as its C++
// signature is unchanged.
package sighash

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

// Lengths of the generated fragments.
const (
	PrimaryLen   = 5
	SecondaryLen = 8
	LibraryLen   = 4
)

// encoding keeps every output character valid inside a C identifier.
var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz012345").WithPadding(base32.NoPadding)

// Sum returns n identifier-safe characters hashed from data under the
// given domain tag. n is capped at the length of a full SHA-256 encoding.
func Sum(domain byte, data []byte, n int) string {
	digest := sha256.Sum256(frame(domain, data))
	text := encoding.EncodeToString(digest[:])
	if n > len(text) {
		n = len(text)
	}
	return text[:n]
}

// Primary is the short hash tried first when naming a wrapper.
func Primary(sig string) string { return Sum(TagPrimary, []byte(sig), PrimaryLen) }

// Secondary is the longer hash appended when primary hashes collide.
func Secondary(sig string) string { return Sum(TagSecondary, []byte(sig), SecondaryLen) }

// Library hashes a library name into the prefix shared by all of its
// wrappers.
func Library(name string) string {
	return Sum(TagLibrary, []byte(strings.TrimSpace(name)), LibraryLen)
}
