package sighash

import "encoding/binary"

// ---------------------------------------------------------------------------
// Deterministic binary serialization of wrapper signatures.
//
// Encoding conventions:
//   - First byte: HashVersion
//   - Second byte: the name-derivation domain tag
//   - Components: tag byte, then uint32 big-endian length + UTF-8 bytes
// ---------------------------------------------------------------------------

// Signature accumulates the components identifying one wrapper. Two
// wrappers with the same components in the same order are the same
// wrapper.
type Signature struct {
	buf []byte
}

// NewSignature starts an empty signature.
func NewSignature() *Signature {
	return &Signature{buf: make([]byte, 0, 128)}
}

// Add appends one tagged component and returns s for chaining.
func (s *Signature) Add(tag byte, value string) *Signature {
	s.buf = append(s.buf, tag)
	s.writeString(value)
	return s
}

// Bytes returns the serialized components.
func (s *Signature) Bytes() []byte { return s.buf }

// String renders the signature as text for diagnostics and for callers
// that key maps by signature.
func (s *Signature) String() string { return string(s.buf) }

func (s *Signature) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *Signature) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

// frame prefixes data with the version and domain bytes.
func frame(domain byte, data []byte) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, HashVersion, domain)
	return append(out, data...)
}
