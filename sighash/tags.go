package sighash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the signature serialization format.
//
// IMPORTANT: These tags are FROZEN. Published wrapper names are derived
// from them; changing a tag renames every wrapper in every database
// generated so far. Adding new tags is fine.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
const HashVersion byte = 1

const (
	TagReservedZero byte = 0x00

	// Name-derivation domains. The same signature hashed under two domains
	// yields unrelated text, so a secondary hash is not a prefix extension
	// of the primary.
	TagPrimary   byte = 0x01
	TagSecondary byte = 0x02
	TagLibrary   byte = 0x03

	// Signature components
	TagKind     byte = 0x10
	TagScope    byte = 0x11
	TagName     byte = 0x12
	TagReturn   byte = 0x13
	TagParam    byte = 0x14
	TagReceiver byte = 0x15
	TagFlag     byte = 0x16
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagPrimary, TagSecondary, TagLibrary,
	TagKind, TagScope, TagName, TagReturn, TagParam, TagReceiver, TagFlag,
}
