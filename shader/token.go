package shader

import (
	"fmt"
	"strings"
)

// TokenKind classifies a token.
type TokenKind uint8

// Token kinds.
const (
	Space TokenKind = iota
	Comment
	Directive
	Ident
	Number
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Space:
		return "space"
	case Comment:
		return "comment"
	case Directive:
		return "directive"
	case Ident:
		return "ident"
	case Number:
		return "number"
	case Punct:
		return "punct"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}

// Token is a lexical token. Concatenating the Text of every token returned
// by Tokenize reproduces the source exactly.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

// significant reports whether t takes part in the grammar.
func (t Token) significant() bool { return t.Kind != Space && t.Kind != Comment }

var punct3 = []string{"<<=", ">>="}

var punct2 = []string{
	"==", "!=", "<=", ">=", "&&", "||", "^^", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
}

// Tokenize splits GLSL source into tokens. Preprocessor directives are kept
// whole, including line continuations, without their final newline.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	line := 1
	lineStart := true

	for i := 0; i < len(src); {
		c := src[i]
		start, startLine := i, line
		kind := Punct

		switch {
		case isSpace(c):
			for i < len(src) && isSpace(src[i]) {
				if src[i] == '\n' {
					line++
					lineStart = true
				}
				i++
			}
			toks = append(toks, Token{Kind: Space, Text: src[start:i], Line: startLine})
			continue

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			toks = append(toks, Token{Kind: Comment, Text: src[start:i], Line: startLine})
			continue

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("shader: line %d: unterminated comment", startLine)
			}
			i += 2 + end + 2
			line += strings.Count(src[start:i], "\n")
			toks = append(toks, Token{Kind: Comment, Text: src[start:i], Line: startLine})
			continue

		case c == '#' && lineStart:
			for i < len(src) && src[i] != '\n' {
				if src[i] == '\\' && i+1 < len(src) && src[i+1] == '\n' {
					i += 2
					line++
					continue
				}
				i++
			}
			kind = Directive

		case isIdentStart(c):
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			kind = Ident

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			i = scanNumber(src, i)
			kind = Number

		default:
			i += punctLen(src[i:])
		}

		lineStart = false
		toks = append(toks, Token{Kind: kind, Text: src[start:i], Line: startLine})
	}
	return toks, nil
}

func punctLen(s string) int {
	for _, p := range punct3 {
		if strings.HasPrefix(s, p) {
			return 3
		}
	}
	for _, p := range punct2 {
		if strings.HasPrefix(s, p) {
			return 2
		}
	}
	return 1
}

func scanNumber(src string, i int) int {
	if src[i] == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
		i += 2
		for i < len(src) && isHexDigit(src[i]) {
			i++
		}
	} else {
		for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
			i++
		}
		if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
			j := i + 1
			if j < len(src) && (src[j] == '+' || src[j] == '-') {
				j++
			}
			if j < len(src) && isDigit(src[j]) {
				i = j
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
		}
	}
	if i < len(src) && strings.IndexByte("uUfF", src[i]) >= 0 {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
func isDigit(c byte) bool      { return '0' <= c && c <= '9' }
func isHexDigit(c byte) bool   { return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F') }
func isIdentStart(c byte) bool { return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
