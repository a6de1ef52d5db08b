// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

// Package dsl tokenizes and parses the policy rule language into its
// compiled rule form and compiles action-argument patterns. Evaluation
// against runtime credentials and actions is done by internal/policy.
package dsl

import (
	"fmt"
	"strings"
)

// TokenKind identifies the lexical category of a Token.
type TokenKind int

// Token kinds produced by the lexer.
const (
	TokEnd TokenKind = iota
	TokName
	TokQuotedString
	TokLParen
	TokRParen
	TokAmp
	TokPipe
	TokBang
	TokEq
	TokSemi
	TokStar
	TokColon
)

var tokenKindNames = [...]string{
	"End", "Name", "QuotedString", "LParen", "RParen",
	"Amp", "Pipe", "Bang", "Eq", "Semi", "Star", "Colon",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Token is a single lexical unit. Pos is the byte offset of its first
// character in the source text, used for lexError/syntaxError messages.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// lexer tokenizes policy text left to right. It keeps a single-token peek
// buffer for Peek; the parser drives it with Next and, for pattern
// arguments, with the raw-text helper ScanPatternRaw which bypasses
// normal tokenization.
type lexer struct {
	src  string
	pos  int // next unread byte
	peek *Token
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func isBareNameByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '.' || b == '-':
		return true
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// skipSpace advances past spaces and tabs (and, tolerantly, CR/LF since the
// grammar is otherwise whitespace-insensitive outside of quoted strings).
func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

// Peek returns the next token without consuming it.
func (l *lexer) Peek() (Token, error) {
	if l.peek != nil {
		return *l.peek, nil
	}
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	l.peek = &tok
	return tok, nil
}

// Next consumes and returns the next token.
func (l *lexer) Next() (Token, error) {
	if l.peek != nil {
		tok := *l.peek
		l.peek = nil
		return tok, nil
	}
	return l.scan()
}

// scan reads one token starting at l.pos, advancing l.pos past it.
func (l *lexer) scan() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return Token{Kind: TokEnd, Pos: l.pos}, nil
	}

	start := l.pos
	b := l.src[l.pos]

	switch b {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Text: "(", Pos: start}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Text: ")", Pos: start}, nil
	case '&':
		l.pos++
		return Token{Kind: TokAmp, Text: "&", Pos: start}, nil
	case '|':
		l.pos++
		return Token{Kind: TokPipe, Text: "|", Pos: start}, nil
	case '!':
		l.pos++
		return Token{Kind: TokBang, Text: "!", Pos: start}, nil
	case '=':
		l.pos++
		return Token{Kind: TokEq, Text: "=", Pos: start}, nil
	case ';':
		l.pos++
		return Token{Kind: TokSemi, Text: ";", Pos: start}, nil
	case '*':
		l.pos++
		return Token{Kind: TokStar, Text: "*", Pos: start}, nil
	case ':':
		l.pos++
		return Token{Kind: TokColon, Text: ":", Pos: start}, nil
	case '\'', '"':
		return l.scanQuoted(b)
	}

	if isBareNameByte(b) {
		for l.pos < len(l.src) && isBareNameByte(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: TokName, Text: l.src[start:l.pos], Pos: start}, nil
	}

	return Token{}, &LexError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", rune(b))}
}

// scanQuoted consumes a quoted string starting at the opening quote byte
// quote, unescaping \\, \' and \" . Any other escape, or an unterminated
// or newline-spanning quote, is a lexical error.
func (l *lexer) scanQuoted(quote byte) (Token, error) {
	start := l.pos
	l.pos++ // consume opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &LexError{Pos: start, Msg: "unterminated quoted string"}
		}
		c := l.src[l.pos]
		if c == '\n' {
			return Token{}, &LexError{Pos: start, Msg: "quoted string spans a newline"}
		}
		if c == quote {
			l.pos++
			return Token{Kind: TokQuotedString, Text: sb.String(), Pos: start}, nil
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return Token{}, &LexError{Pos: start, Msg: "unterminated escape sequence"}
			}
			esc := l.src[l.pos]
			switch esc {
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				return Token{}, &LexError{Pos: l.pos - 1, Msg: fmt.Sprintf("illegal escape \\%c", esc)}
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
}

// atCloseParen reports whether the next non-space byte is ')', without
// consuming anything. The parser uses this to distinguish an empty
// pattern ("foo()") from one it must read with ScanPatternRaw, since
// tokenizing the pattern text normally would misparse a bare glob like
// "a*" into separate Name/Star tokens.
func (l *lexer) atCloseParen() bool {
	i := l.pos
	for i < len(l.src) && isSpace(l.src[i]) {
		i++
	}
	return i < len(l.src) && l.src[i] == ')'
}

// ScanPatternRaw reads a predicate's argument text verbatim, from the
// current position up to (but not including) the closing ')'. This is
// used instead of the normal token stream because a glob pattern may
// freely mix bare '*'/'?' wildcard characters with literal bytes
// ("a*", "read_*", "?.txt") in a way the flat token grammar cannot
// reassemble unambiguously — the lexer switches mode entirely for the
// duration of one argument, mirroring how the grammar in spec.md §4.1
// says "the parser disambiguates [Star] via context".
//
// A leading quote character instead triggers normal quoted-string
// scanning (with the same escape rules as scanQuoted) so that patterns
// needing literal parens, semicolons, or ambiguous wildholes can be
// spelled unambiguously.
func (l *lexer) ScanPatternRaw() (text string, quoted bool, err error) {
	l.peek = nil // any raw-mode read discards a stale peeked token
	l.skipSpace()
	if l.pos < len(l.src) && (l.src[l.pos] == '\'' || l.src[l.pos] == '"') {
		tok, scanErr := l.scanQuoted(l.src[l.pos])
		if scanErr != nil {
			return "", false, scanErr
		}
		return tok.Text, true, nil
	}

	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != ')' {
		if l.src[l.pos] == '\n' {
			return "", false, &LexError{Pos: start, Msg: "pattern spans a newline"}
		}
		l.pos++
	}
	raw := strings.TrimRight(l.src[start:l.pos], " \t\r")
	return raw, false, nil
}
