// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package dsl

import (
	"strings"

	"github.com/gobwas/glob"
)

// escapeGlobLiterals backslash-escapes the gobwas/glob metacharacters
// this DSL does not support (character classes and brace alternation),
// so that '[', ']', '{', '}' and a literal '\' in a pattern match
// themselves byte-for-byte instead of being parsed as glob syntax. '*'
// and '?' are left alone since those are this dialect's only wildcards,
// per §4.3: "all other characters match literally".
func escapeGlobLiterals(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '\\', '[', ']', '{', '}':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ArgMatcher is a compiled action-argument pattern per §4.3: '*' matches
// zero or more characters and may repeat, '?' matches exactly one
// character, every other byte matches literally and case-sensitively.
// Matching itself is delegated to gobwas/glob, whose compiled form runs
// in linear time with no pattern-dependent backtracking — the same
// guarantee §4.3 asks implementers to hand-roll with a two-pointer
// algorithm.
type ArgMatcher struct {
	// wildcardOnly is true for the bare "*" pattern, which additionally
	// matches an absent runtime argument (every other pattern requires
	// the argument to be present).
	wildcardOnly bool
	compiled     glob.Glob
}

// CompilePattern compiles a single action-argument pattern. It is called
// once per distinct pattern string at policy-construction time; the
// resulting matcher is reused for every evaluation.
func CompilePattern(pattern string) (*ArgMatcher, error) {
	if pattern == "*" {
		return &ArgMatcher{wildcardOnly: true}, nil
	}
	g, err := glob.Compile(escapeGlobLiterals(pattern))
	if err != nil {
		return nil, err
	}
	return &ArgMatcher{compiled: g}, nil
}

// Match implements the Action atom's matching rule against a runtime
// argument. arg is nil when the runtime call carried no argument.
func (m *ArgMatcher) Match(arg *string) bool {
	if m.wildcardOnly {
		return true
	}
	if arg == nil {
		return false
	}
	return m.compiled.Match(*arg)
}
