// Package query parses textual tag queries into tagdex filters.
//
// Syntax:
//
//	expr    := or
//	or      := and (("|" | "||" | "or") and)*
//	and     := unary (("&" | "&&" | "and") unary)*
//	unary   := ("!" | "not") unary | primary
//	primary := TAG | "(" expr ")" | "*" | "~"
//
// A TAG is a bare word or a double-quoted string with Go escapes. "*"
// matches every tagged entry and "~" every tagless entry. Keywords are
// lower case; quote a tag to use a keyword as its name.
//
//	admin & !(intern | "on leave")
package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hupe1980/tagdex"
)

// SyntaxError reports where a query is malformed.
type SyntaxError struct {
	// Pos is the byte offset of the offending token.
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("at offset %d: %s", e.Pos, e.Msg)
}

// Parse parses s into a filter. Errors match tagdex.ErrInvalidQueryParameter
// and carry a *SyntaxError.
func Parse(s string) (tagdex.Filter[string], error) {
	p := &parser{lex: lexer{src: s}}
	p.next()
	if p.err != nil {
		return tagdex.Filter[string]{}, p.err
	}
	if p.tok.kind == tokEOF {
		return tagdex.Filter[string]{}, p.fail(p.tok.pos, "empty query")
	}
	f, err := p.parseOr()
	if err != nil {
		return tagdex.Filter[string]{}, err
	}
	if p.tok.kind != tokEOF {
		return tagdex.Filter[string]{}, p.fail(p.tok.pos, "unexpected %s", p.tok)
	}
	return f, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) tagdex.Filter[string] {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

type parser struct {
	lex lexer
	tok token
	err error
}

func (p *parser) next() {
	if p.err != nil {
		return
	}
	p.tok, p.err = p.lex.scan()
}

func (p *parser) fail(pos int, format string, args ...any) error {
	return syntaxError(pos, fmt.Sprintf(format, args...))
}

func syntaxError(pos int, msg string) error {
	return tagdex.NewQueryError("parse", &SyntaxError{Pos: pos, Msg: msg})
}

func (p *parser) parseOr() (tagdex.Filter[string], error) {
	return p.parseList(tokOr, tagdex.ModeOr, p.parseAnd)
}

func (p *parser) parseAnd() (tagdex.Filter[string], error) {
	return p.parseList(tokAnd, tagdex.ModeAnd, p.parseUnary)
}

// parseList parses operands joined by op. Plain tag operands are folded
// into the node's tag set, everything else becomes a subfilter.
func (p *parser) parseList(op tokenKind, mode tagdex.Mode, operand func() (tagdex.Filter[string], error)) (tagdex.Filter[string], error) {
	first, err := operand()
	if err != nil {
		return first, err
	}
	if p.tok.kind != op {
		return first, nil
	}
	node := tagdex.Filter[string]{Mode: mode}
	add := func(f tagdex.Filter[string]) {
		if tag, ok := plainTag(f); ok {
			node.Tags = append(node.Tags, tag)
			return
		}
		node.Subs = append(node.Subs, f)
	}
	add(first)
	for p.tok.kind == op {
		p.next()
		if p.err != nil {
			return node, p.err
		}
		f, err := operand()
		if err != nil {
			return node, err
		}
		add(f)
	}
	return node, nil
}

func (p *parser) parseUnary() (tagdex.Filter[string], error) {
	if p.err != nil {
		return tagdex.Filter[string]{}, p.err
	}
	if p.tok.kind == tokNot {
		p.next()
		f, err := p.parseUnary()
		if err != nil {
			return f, err
		}
		return f.Negate(), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (tagdex.Filter[string], error) {
	tok := p.tok
	switch tok.kind {
	case tokTag:
		p.next()
		return tagdex.Any(tok.text), p.err
	case tokTagged:
		p.next()
		return tagdex.Not(tagdex.Untagged[string]()), p.err
	case tokUntagged:
		p.next()
		return tagdex.Untagged[string](), p.err
	case tokLParen:
		p.next()
		if p.err != nil {
			return tagdex.Filter[string]{}, p.err
		}
		f, err := p.parseOr()
		if err != nil {
			return f, err
		}
		if p.tok.kind != tokRParen {
			return f, p.fail(p.tok.pos, "expected ) to close ( at offset %d, found %s", tok.pos, p.tok)
		}
		p.next()
		return f, p.err
	case tokEOF:
		return tagdex.Filter[string]{}, p.fail(tok.pos, "unexpected end of query")
	default:
		return tagdex.Filter[string]{}, p.fail(tok.pos, "unexpected %s", tok)
	}
}

func plainTag(f tagdex.Filter[string]) (string, bool) {
	if f.Negated || len(f.Tags) != 1 || len(f.Subs) != 0 || f.Keys != nil {
		return "", false
	}
	return f.Tags[0], true
}

// -----------------------------------------------------------------------------
// Lexer
// -----------------------------------------------------------------------------

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokTag
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokTagged
	tokUntagged
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokTag:
		return strconv.Quote(t.text)
	default:
		return "'" + t.text + "'"
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) scan() (token, error) {
	for l.pos < len(l.src) {
		r, w := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += w
	}
	start := l.pos
	if start >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	emit := func(kind tokenKind, n int) (token, error) {
		l.pos += n
		return token{kind: kind, text: l.src[start:l.pos], pos: start}, nil
	}
	switch c := l.src[start]; c {
	case '&', '|':
		kind := tokAnd
		if c == '|' {
			kind = tokOr
		}
		if start+1 < len(l.src) && l.src[start+1] == c {
			return emit(kind, 2)
		}
		return emit(kind, 1)
	case '!':
		return emit(tokNot, 1)
	case '(':
		return emit(tokLParen, 1)
	case ')':
		return emit(tokRParen, 1)
	case '*':
		return emit(tokTagged, 1)
	case '~':
		return emit(tokUntagged, 1)
	case '"':
		return l.scanQuoted(start)
	}

	for l.pos < len(l.src) {
		r, w := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsSpace(r) || strings.ContainsRune(`&|!()*~"`, r) {
			break
		}
		l.pos += w
	}
	word := l.src[start:l.pos]
	switch word {
	case "and":
		return token{kind: tokAnd, text: word, pos: start}, nil
	case "or":
		return token{kind: tokOr, text: word, pos: start}, nil
	case "not":
		return token{kind: tokNot, text: word, pos: start}, nil
	}
	return token{kind: tokTag, text: word, pos: start}, nil
}

func (l *lexer) scanQuoted(start int) (token, error) {
	i := start + 1
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '"':
			lit := l.src[start : i+1]
			text, err := strconv.Unquote(lit)
			if err != nil {
				return token{}, syntaxError(start, "malformed quoted tag "+lit)
			}
			l.pos = i + 1
			return token{kind: tokTag, text: text, pos: start}, nil
		}
		i++
	}
	return token{}, syntaxError(start, "unterminated quoted tag")
}
