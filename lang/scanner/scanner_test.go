package scanner_test

import (
	"testing"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Lexeme {
	t.Helper()
	var s scanner.Scanner
	s.Init(src)
	var out []token.Lexeme
	for {
		lex := s.Next()
		out = append(out, lex)
		if lex.Kind == token.EOF {
			return out
		}
		require.Less(t, len(out), 1000, "scanner did not reach EOF")
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){};,.+-*/ ! != = == < <= > >=")
	var kinds []token.Token
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMI,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.BANG, token.NEQ, token.EQ, token.EQL, token.LT, token.LE, token.GT,
		token.GE, token.EOF,
	}, kinds)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "class fun varName while x1")
	require.Len(t, toks, 6)
	assert.Equal(t, token.CLASS, toks[0].Kind)
	assert.Equal(t, token.FUN, toks[1].Kind)
	assert.Equal(t, token.IDENT, toks[2].Kind)
	assert.Equal(t, "varName", toks[2].Text)
	assert.Equal(t, token.WHILE, toks[3].Kind)
	assert.Equal(t, token.IDENT, toks[4].Kind)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "123 45.67 0.5")
	require.Len(t, toks, 4)
	for i, want := range []string{"123", "45.67", "0.5"} {
		assert.Equal(t, token.NUMBER, toks[i].Kind)
		assert.Equal(t, want, toks[i].Text)
	}
}

func TestScanStringLiteral(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Text)
}

func TestScanMultilineString(t *testing.T) {
	toks := scanAll(t, "\"a\nb\"\nprint")
	require.Len(t, toks, 3)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "a\nb", toks[0].Text)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, token.PRINT, toks[1].Kind)
	assert.Equal(t, 3, toks[1].Line)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"oops`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
	assert.Contains(t, toks[0].Text, "unterminated")
}

func TestScanLineComment(t *testing.T) {
	toks := scanAll(t, "// a comment\nprint 1;")
	var kinds []token.Token
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Token{token.PRINT, token.NUMBER, token.SEMI, token.EOF}, kinds)
	assert.Equal(t, 2, toks[0].Line)
}

func TestScanIllegalCharacter(t *testing.T) {
	toks := scanAll(t, "@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}
