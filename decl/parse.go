package decl

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc resolves a (possibly scope-qualified, possibly templated)
// type name. It returns nil for unknown names.
type LookupFunc func(name string) Type

// ParseType parses a C++ type spelling such as "const std::string &",
// "int [3]" or "void (*)(int, float)".
func ParseType(spelling string, lookup LookupFunc) (Type, error) {
	toks, err := lexType(spelling)
	if err != nil {
		return nil, err
	}
	p := &typeParser{src: spelling, toks: toks, lookup: lookup}
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", spelling, err)
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("type %q: unexpected %q", spelling, p.peek().text)
	}
	return t, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokPunct
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func lexType(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j], i})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			toks = append(toks, token{tokNumber, s[i:j], i})
			i = j
		case strings.HasPrefix(s[i:], "::"), strings.HasPrefix(s[i:], "&&"):
			toks = append(toks, token{tokPunct, s[i : i+2], i})
			i += 2
		case strings.ContainsRune("*&[](),<>", rune(c)):
			toks = append(toks, token{tokPunct, s[i : i+1], i})
			i++
		default:
			return nil, fmt.Errorf("type %q: unexpected character %q", s, c)
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

var builtinWords = map[string]bool{
	"void": true, "bool": true, "char": true, "wchar_t": true,
	"char16_t": true, "char32_t": true, "short": true, "int": true,
	"long": true, "signed": true, "unsigned": true, "float": true,
	"double": true, "size_t": true,
}

type typeParser struct {
	src    string
	toks   []token
	i      int
	lookup LookupFunc
}

func (p *typeParser) atEnd() bool { return p.i >= len(p.toks) }

func (p *typeParser) peek() token {
	if p.atEnd() {
		return token{kind: tokPunct, text: "", pos: len(p.src)}
	}
	return p.toks[p.i]
}

func (p *typeParser) accept(text string) bool {
	if !p.atEnd() && p.toks[p.i].text == text {
		p.i++
		return true
	}
	return false
}

func (p *typeParser) expect(text string) error {
	if !p.accept(text) {
		return fmt.Errorf("expected %q, found %q", text, p.peek().text)
	}
	return nil
}

func (p *typeParser) qualifiers() (isConst bool) {
	for {
		switch {
		case p.accept("const"):
			isConst = true
		case p.accept("volatile"):
		default:
			return isConst
		}
	}
}

func (p *typeParser) parseType() (Type, error) {
	isConst := p.qualifiers()
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	if p.qualifiers() {
		isConst = true
	}
	if isConst {
		base = ConstOf(base)
	}
	return p.parseDeclarators(base)
}

func (p *typeParser) parseBase() (Type, error) {
	tok := p.peek()
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("expected type name, found %q", tok.text)
	}
	if builtinWords[tok.text] {
		return p.parseBuiltin()
	}
	return p.parseName()
}

func (p *typeParser) parseBuiltin() (Type, error) {
	words := map[string]int{}
	isConst := false
	for !p.atEnd() && builtinWords[p.peek().text] {
		words[p.peek().text]++
		p.i++
		// "const" may be interleaved: "unsigned const int".
		if p.qualifiers() {
			isConst = true
		}
	}
	unsigned := words["unsigned"] > 0
	var k BuiltinKind
	switch {
	case words["void"] > 0:
		k = Void
	case words["bool"] > 0:
		k = Bool
	case words["wchar_t"] > 0:
		k = WChar
	case words["char16_t"] > 0:
		k = Char16
	case words["char32_t"] > 0:
		k = Char32
	case words["size_t"] > 0:
		k = SizeT
	case words["float"] > 0:
		k = Float
	case words["double"] > 0:
		k = Double
		if words["long"] > 0 {
			k = LongDouble
		}
	case words["char"] > 0:
		k = Char
		if unsigned {
			k = UChar
		} else if words["signed"] > 0 {
			k = SChar
		}
	case words["short"] > 0:
		k = Short
		if unsigned {
			k = UShort
		}
	case words["long"] >= 2:
		k = LongLong
		if unsigned {
			k = ULongLong
		}
	case words["long"] == 1:
		k = Long
		if unsigned {
			k = ULong
		}
	default:
		k = Int
		if unsigned {
			k = UInt
		}
	}
	if isConst {
		return ConstOf(Builtin{Kind: k}), nil
	}
	return Builtin{Kind: k}, nil
}

func (p *typeParser) parseName() (Type, error) {
	start := p.peek().pos
	end := start
	for {
		tok := p.peek()
		if tok.kind != tokIdent {
			return nil, fmt.Errorf("expected identifier, found %q", tok.text)
		}
		p.i++
		end = tok.pos + len(tok.text)
		if p.peek().text == "<" {
			e, err := p.skipTemplateArgs()
			if err != nil {
				return nil, err
			}
			end = e
		}
		if !p.accept("::") {
			break
		}
	}
	name := normalizeName(p.src[start:end])
	if p.lookup == nil {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	t := p.lookup(name)
	if t == nil {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	return t, nil
}

// skipTemplateArgs consumes a balanced <...> group and returns the source
// offset just past the closing bracket.
func (p *typeParser) skipTemplateArgs() (int, error) {
	depth := 0
	for !p.atEnd() {
		tok := p.toks[p.i]
		p.i++
		switch tok.text {
		case "<":
			depth++
		case ">":
			depth--
			if depth == 0 {
				return tok.pos + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated template argument list")
}

// normalizeName collapses whitespace so "PointerTo< Node >" and
// "PointerTo<Node>" name the same type. A single space survives only
// between two identifier characters, as in "unsigned char".
func normalizeName(s string) string {
	var b strings.Builder
	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			prev := b.String()[b.Len()-1]
			if isIdentPart(prev) && isIdentPart(c) {
				b.WriteByte(' ')
			}
		}
		pendingSpace = false
		b.WriteByte(c)
	}
	return b.String()
}

func (p *typeParser) parseDeclarators(t Type) (Type, error) {
	var bounds []int
	for !p.atEnd() {
		switch {
		case p.accept("*"):
			t = PointerTo(t)
			if p.qualifiers() {
				t = ConstOf(t)
			}
		case p.accept("&&"):
			t = &Reference{To: t, RValue: true}
		case p.accept("&"):
			t = RefTo(t)
		case p.accept("["):
			bound := -1
			if p.peek().kind == tokNumber {
				n, err := strconv.Atoi(p.peek().text)
				if err != nil {
					return nil, err
				}
				bound = n
				p.i++
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			bounds = append(bounds, bound)
		case p.peek().text == "(":
			return p.parseFuncPointer(t)
		default:
			return nil, fmt.Errorf("unexpected %q", p.peek().text)
		}
	}
	for i := len(bounds) - 1; i >= 0; i-- {
		t = &Array{Of: t, Bound: bounds[i]}
	}
	return t, nil
}

// parseFuncPointer handles "R (*)(A, B)".
func (p *typeParser) parseFuncPointer(ret Type) (Type, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	if err := p.expect("*"); err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	fn := &FuncType{Return: ret}
	if !p.accept(")") {
		for {
			pt, err := p.parseParamType()
			if err != nil {
				return nil, err
			}
			if !IsVoid(pt) || len(fn.Params) > 0 {
				fn.Params = append(fn.Params, pt)
			}
			if p.accept(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}
	return PointerTo(fn), nil
}

// parseParamType parses one function-pointer parameter, stopping at the
// enclosing ',' or ')'.
func (p *typeParser) parseParamType() (Type, error) {
	isConst := p.qualifiers()
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	if p.qualifiers() {
		isConst = true
	}
	if isConst {
		base = ConstOf(base)
	}
	for {
		switch {
		case p.accept("*"):
			base = PointerTo(base)
			if p.qualifiers() {
				base = ConstOf(base)
			}
		case p.accept("&"):
			base = RefTo(base)
		case p.accept("&&"):
			base = &Reference{To: base, RValue: true}
		default:
			return base, nil
		}
	}
}
