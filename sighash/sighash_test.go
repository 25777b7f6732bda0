package sighash

import (
	"testing"
)

func TestTagUniqueness(t *testing.T) {
	seen := make(map[byte]bool, len(allTags))
	for _, tag := range allTags {
		if seen[tag] {
			t.Errorf("duplicate tag: 0x%02X", tag)
		}
		seen[tag] = true
	}
}

func TestHashVersionNonZero(t *testing.T) {
	if HashVersion == 0 {
		t.Error("HashVersion must be non-zero")
	}
}

func TestSignature_Encoding(t *testing.T) {
	sig := NewSignature().Add(TagName, "ab").Add(TagParam, "")
	want := []byte{TagName, 0, 0, 0, 2, 'a', 'b', TagParam, 0, 0, 0, 0}
	if string(sig.Bytes()) != string(want) {
		t.Errorf("bytes: got %v, want %v", sig.Bytes(), want)
	}
}

func TestSignature_ComponentBoundaries(t *testing.T) {
	a := NewSignature().Add(TagParam, "int").Add(TagParam, "x").String()
	b := NewSignature().Add(TagParam, "in").Add(TagParam, "tx").String()
	if a == b {
		t.Error("length prefixes should keep component boundaries distinct")
	}
}

func TestSum_Deterministic(t *testing.T) {
	sig := NewSignature().Add(TagName, "global_sum").Add(TagParam, "int").String()
	if Primary(sig) != Primary(sig) {
		t.Error("primary hash is not deterministic")
	}
	if len(Primary(sig)) != PrimaryLen || len(Secondary(sig)) != SecondaryLen {
		t.Errorf("lengths: got %d and %d", len(Primary(sig)), len(Secondary(sig)))
	}
}

func TestSum_DomainsDiffer(t *testing.T) {
	data := []byte("operator +")
	if Sum(TagPrimary, data, 8) == Sum(TagSecondary, data, 8) {
		t.Error("domains should produce unrelated hashes")
	}
}

func TestSum_IdentifierSafe(t *testing.T) {
	for _, s := range []string{"", "a", "Vec3::operator +", "std::string const &"} {
		for _, c := range Sum(TagPrimary, []byte(s), 52) {
			if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '5') {
				t.Errorf("Sum(%q) contains %q", s, c)
			}
		}
	}
}

func TestSum_Cap(t *testing.T) {
	if got := len(Sum(TagPrimary, nil, 1000)); got != 52 {
		t.Errorf("full encoding length: got %d, want 52", got)
	}
}

func TestLibrary(t *testing.T) {
	if Library("libscene") != Library(" libscene ") {
		t.Error("library hash should ignore surrounding whitespace")
	}
	if len(Library("libscene")) != LibraryLen {
		t.Errorf("length: got %d", len(Library("libscene")))
	}
}
