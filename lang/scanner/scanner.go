// Package scanner tokenizes glox source text into the token stream consumed
// by the compiler. It has no dependency on the compiler or VM: it is a pure
// function of bytes in, tokens out.
package scanner

import (
	"fmt"

	"github.com/mna/glox/lang/token"
)

// Scanner tokenizes a single source file. The zero value is not usable;
// call Init first.
type Scanner struct {
	src     string
	start   int // start of the lexeme being scanned
	current int // offset of the next unread byte
	line    int
}

// Init prepares s to scan src from the beginning.
func (s *Scanner) Init(src string) {
	s.src = src
	s.start = 0
	s.current = 0
	s.line = 1
}

// Next scans and returns the next token, advancing past it. It returns an
// EOF token forever once the source is exhausted, and an ILLEGAL token
// (with Text set to a human-readable message) on a lexical error.
func (s *Scanner) Next() token.Lexeme {
	s.skipWhitespaceAndComments()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMI)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '*':
		return s.make(token.STAR)
	case '/':
		return s.make(token.SLASH)
	case '!':
		return s.make(s.selectKind('=', token.NEQ, token.BANG))
	case '=':
		return s.make(s.selectKind('=', token.EQL, token.EQ))
	case '<':
		return s.make(s.selectKind('=', token.LE, token.LT))
	case '>':
		return s.make(s.selectKind('=', token.GE, token.GT))
	case '"':
		return s.string()
	}

	return s.errorf("unexpected character %q", c)
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.current] != want {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) selectKind(want byte, matched, unmatched token.Token) token.Token {
	if s.match(want) {
		return matched
	}
	return unmatched
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.current++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) identifier() token.Lexeme {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	lexeme := s.src[s.start:s.current]
	return s.make(token.Lookup(lexeme))
}

func (s *Scanner) number() token.Lexeme {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume the '.'
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.make(token.NUMBER)
}

// string scans a "..." literal. There are no escape sequences; the literal
// may span multiple source lines, in which case the line counter advances.
func (s *Scanner) string() token.Lexeme {
	startLine := s.line
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return token.Lexeme{Kind: token.ILLEGAL, Text: "unterminated string", Line: startLine}
	}
	s.current++ // consume closing quote

	// Lexeme text excludes the surrounding quotes.
	text := s.src[s.start+1 : s.current-1]
	return token.Lexeme{Kind: token.STRING, Text: text, Line: startLine}
}

func (s *Scanner) make(kind token.Token) token.Lexeme {
	var text string
	if kind != token.EOF {
		text = s.src[s.start:s.current]
	}
	return token.Lexeme{Kind: kind, Text: text, Line: s.line}
}

func (s *Scanner) errorf(format string, args ...any) token.Lexeme {
	return token.Lexeme{Kind: token.ILLEGAL, Text: fmt.Sprintf(format, args...), Line: s.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
