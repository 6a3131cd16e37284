package chunked

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// DefaultChecksumName is the extension name used by the checksum
// extensions when none is given.
const DefaultChecksumName = "chunk-sha256"

// ChecksumExtension annotates each chunk with the hex-encoded SHA-256 of
// that chunk's bytes. It is stateless, so Reset is a no-op and identical
// chunks always produce identical annotations.
type ChecksumExtension struct {
	name []byte
}

// NewChecksumExtension returns a per-chunk SHA-256 extension. An empty
// name defaults to DefaultChecksumName.
func NewChecksumExtension(name string) *ChecksumExtension {
	if name == "" {
		name = DefaultChecksumName
	}
	return &ChecksumExtension{name: []byte(name)}
}

// Compute implements Extension.
func (e *ChecksumExtension) Compute(chunk []byte) (Annotation, bool) {
	sum := sha256.Sum256(chunk)
	return Annotation{Name: e.name, Value: hexEncode(sum[:])}, true
}

// Reset implements Extension.
func (e *ChecksumExtension) Reset() {}

// RollingChecksumExtension annotates each chunk with the hex-encoded
// SHA-256 of all chunk bytes seen so far in the current attempt. Reset
// clears the running digest so a retry starts from the initial state.
type RollingChecksumExtension struct {
	name []byte
	h    hash.Hash
}

// NewRollingChecksumExtension returns a running-digest extension. An
// empty name defaults to DefaultChecksumName.
func NewRollingChecksumExtension(name string) *RollingChecksumExtension {
	if name == "" {
		name = DefaultChecksumName
	}
	return &RollingChecksumExtension{
		name: []byte(name),
		h:    sha256.New(),
	}
}

// Compute implements Extension. It folds chunk into the running digest
// and returns the digest over everything written so far.
func (e *RollingChecksumExtension) Compute(chunk []byte) (Annotation, bool) {
	e.h.Write(chunk)
	return Annotation{Name: e.name, Value: hexEncode(e.h.Sum(nil))}, true
}

// Reset implements Extension, clearing the running digest.
func (e *RollingChecksumExtension) Reset() {
	e.h.Reset()
}

func hexEncode(sum []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
