// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package dsl

import (
	"fmt"

	"github.com/samber/oops"
)

// Error codes matching the parser's error taxonomy. Construction always
// collapses to a single absent result for the caller; these codes exist so
// that a caller who wants diagnostics (the validate CLI, tests) can recover
// what went wrong without the engine committing to a reported reason.
const (
	CodeEmptyInput     = "EMPTY_INPUT"
	CodeBadVersion     = "BAD_VERSION"
	CodeLexError       = "LEX_ERROR"
	CodeSyntaxError    = "SYNTAX_ERROR"
	CodeUnknownAction  = "UNKNOWN_ACTION"
	CodeArityMismatch  = "ARITY_MISMATCH"
	CodeWildcardMixing = "WILDCARD_MIXING"
)

// LexError reports a lexical fault: unterminated quote, illegal escape, or
// an unexpected character. Pos is the byte offset where the fault begins.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Pos, e.Msg)
}

// asOops wraps err as an oops error tagged with code, recording pos as
// context so it survives AsOops() inspection even after Parse collapses
// the return value to a bare nil *Policy.
func asOops(code string, pos int, err error) error {
	return oops.
		Code(code).
		With("offset", pos).
		Wrapf(err, "policy parse failed")
}

// newSyntaxError builds a %w-wrappable syntax fault at pos, then immediately
// tags it with CodeSyntaxError via asOops.
func newSyntaxError(pos int, format string, args ...any) error {
	return asOops(CodeSyntaxError, pos, fmt.Errorf(format, args...))
}
