// Package naming derives the identifiers the generator emits: sanitized
// C identifiers, synthesized accessor and cast-helper names, and the
// positional parameter placeholders used in wrapper bodies.
package naming

import (
	"strconv"
	"strings"
)

// operatorWords spells symbolic operators as identifier fragments.
// Longer symbols come first so "<<=" wins over "<<" and "<".
var operatorWords = []struct {
	symbol string
	word   string
}{
	{"<<=", "lshift_assign"},
	{">>=", "rshift_assign"},
	{"->*", "arrow_star"},
	{"()", "call"},
	{"[]", "index"},
	{"->", "arrow"},
	{"++", "increment"},
	{"--", "decrement"},
	{"<<", "lshift"},
	{">>", "rshift"},
	{"<=", "less_equal"},
	{">=", "greater_equal"},
	{"==", "equal"},
	{"!=", "not_equal"},
	{"&&", "logical_and"},
	{"||", "logical_or"},
	{"+=", "add_assign"},
	{"-=", "sub_assign"},
	{"*=", "mul_assign"},
	{"/=", "div_assign"},
	{"%=", "mod_assign"},
	{"&=", "and_assign"},
	{"|=", "or_assign"},
	{"^=", "xor_assign"},
	{"+", "add"},
	{"-", "sub"},
	{"*", "mul"},
	{"/", "div"},
	{"%", "mod"},
	{"&", "and"},
	{"|", "or"},
	{"^", "xor"},
	{"~", "invert"},
	{"!", "not"},
	{"<", "less"},
	{">", "greater"},
	{"=", "assign"},
}

// SanitizeIdentifier turns a C++ name into a valid C identifier.
// Operator names are spelled out ("operator +=" becomes
// "operator_add_assign"); every other character outside [A-Za-z0-9_]
// becomes an underscore. The result never starts with a digit.
func SanitizeIdentifier(name string) string {
	if rest, ok := strings.CutPrefix(name, "operator"); ok && rest != "" && !isIdentPart(rest[0]) {
		if word := operatorWord(strings.TrimSpace(rest)); word != "" {
			return "operator_" + word
		}
	}

	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isIdentPart(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	return s
}

func operatorWord(sym string) string {
	sym = strings.ReplaceAll(sym, " ", "")
	for _, op := range operatorWords {
		if sym == op.symbol {
			return op.word
		}
	}
	return ""
}

func isIdentPart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Placeholder is the synthesized name of the nth wrapper parameter.
func Placeholder(n int) string { return "param" + strconv.Itoa(n) }

// Getter names the synthesized accessor reading a data member.
func Getter(element string) string { return "get_" + SanitizeIdentifier(element) }

// Setter names the synthesized accessor writing a data member.
func Setter(element string) string { return "set_" + SanitizeIdentifier(element) }

// Upcast names the method converting a derived pointer to base.
func Upcast(base string) string { return "upcast_to_" + SanitizeIdentifier(base) }

// Downcast names the static function converting a base pointer to derived.
func Downcast(derived, base string) string {
	return "downcast_to_" + SanitizeIdentifier(derived) + "_from_" + SanitizeIdentifier(base)
}

// Reported returns the name a wrapper is published under when true names
// are requested: the owner-qualified local name, sanitized.
func Reported(scope, local string) string {
	if scope == "" {
		return SanitizeIdentifier(local)
	}
	return SanitizeIdentifier(scope) + "_" + SanitizeIdentifier(local)
}
