// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package dsl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// GrammarVersion is the only policy-text version Parse accepts in a
// leading "version;" prefix.
const GrammarVersion = 1

// Parse tokenizes and parses policy text against registry, returning the
// rule list or the first error encountered. Parsing is all-or-nothing:
// on any error the caller gets (nil, err) and no partial Document is
// ever observable, per §4.2's discard-on-error contract. registry may be
// nil, matching the no-action-predicates new(text) form; any predicate
// other than "*", "user(...)" or "group(...)" then fails as unknown.
func Parse(text string, registry *ActionRegistry) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, oops.
			Code(CodeEmptyInput).
			Errorf("policy text is empty or whitespace-only")
	}

	p := &parser{lex: newLexer(text), registry: registry}

	sawVersion, err := p.parseVersionPrefix()
	if err != nil {
		return nil, err
	}
	rules, err := p.parseRules(sawVersion)
	if err != nil {
		return nil, err
	}
	return &Document{Rules: rules}, nil
}

// parser drives a lexer through the grammar in §4.2. It keeps its own
// small pushback queue on top of the lexer's token stream so that
// parseVersionPrefix can look two tokens ahead and, if what it finds
// isn't actually a version prefix, hand the first token back to rule
// parsing unharmed.
type parser struct {
	lex      *lexer
	registry *ActionRegistry
	pending  []Token
}

func (p *parser) next() (Token, error) {
	if len(p.pending) > 0 {
		t := p.pending[0]
		p.pending = p.pending[1:]
		return t, nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return Token{}, wrapLexError(err)
	}
	return t, nil
}

func (p *parser) peek() (Token, error) {
	if len(p.pending) > 0 {
		return p.pending[0], nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return Token{}, wrapLexError(err)
	}
	p.pending = append(p.pending, t)
	return t, nil
}

func (p *parser) pushback(t Token) {
	p.pending = append([]Token{t}, p.pending...)
}

// wrapLexError tags a raw lexical fault with CodeLexError so it reaches
// callers the same way every other construction-time error does. Errors
// already tagged (syntax, arity, ...) pass through untouched.
func wrapLexError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := oops.AsOops(err); ok {
		return err
	}
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return asOops(CodeLexError, lexErr.Pos, err)
	}
	return asOops(CodeLexError, 0, err)
}

// parseVersionPrefix consumes an optional "version" prefix, with or
// without a trailing ';', and reports whether one was found. Absent
// version is accepted; present but wrong is CodeBadVersion. A numeric
// leading token followed by neither ';' nor end-of-input isn't a version
// at all — it's left untouched (pushed back) for rule parsing to fail
// on, since no predicate begins with a bare integer. A numeric token
// that IS the entire remaining input is also a version, bare: per §4.4 a
// version-only policy with zero rules is valid (no rule ever matches, so
// the default verdict always applies), matching da_policy_new("1") in
// the original implementation.
func (p *parser) parseVersionPrefix() (bool, error) {
	first, err := p.peek()
	if err != nil {
		return false, err
	}
	if first.Kind != TokName {
		return false, nil
	}
	n, convErr := strconv.ParseUint(first.Text, 10, 32)
	if convErr != nil {
		return false, nil
	}

	if _, err := p.next(); err != nil { // consume the numeric name
		return false, err
	}
	second, err := p.peek()
	if err != nil {
		return false, err
	}
	switch second.Kind {
	case TokSemi:
		if _, err := p.next(); err != nil { // consume ';'
			return false, err
		}
	case TokEnd:
		// bare version number, nothing else follows
	default:
		p.pushback(first)
		return false, nil
	}

	if n != GrammarVersion {
		return false, asOops(CodeBadVersion, first.Pos, fmt.Errorf("unsupported policy version %d", n))
	}
	return true, nil
}

// parseRules implements "rules := rule { ';' rule } [';']". Normally at
// least one rule is required, returning a syntax error on an empty,
// all-semicolon, or otherwise rule-less remainder — except when
// sawVersion is true and nothing follows the version prefix at all, in
// which case zero rules is the valid empty policy described above.
func (p *parser) parseRules(sawVersion bool) ([]Rule, error) {
	var rules []Rule
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokEnd {
			break
		}

		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)

		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TokSemi {
			break
		}
		if _, err := p.next(); err != nil { // consume ';'
			return nil, err
		}
	}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokEnd {
		return nil, newSyntaxError(tok.Pos, "unexpected trailing input starting with %s", tok.Kind)
	}
	if len(rules) == 0 && !sawVersion {
		return nil, newSyntaxError(tok.Pos, "policy text contains no rules")
	}
	return rules, nil
}

// parseRule implements "rule := disjunction [ '=' verdict ]".
func (p *parser) parseRule() (Rule, error) {
	cond, err := p.parseDisjunction()
	if err != nil {
		return Rule{}, err
	}

	verdict := Deny
	tok, err := p.peek()
	if err != nil {
		return Rule{}, err
	}
	if tok.Kind == TokEq {
		if _, err := p.next(); err != nil { // consume '='
			return Rule{}, err
		}
		vt, err := p.next()
		if err != nil {
			return Rule{}, err
		}
		switch {
		case vt.Kind == TokName && vt.Text == "allow":
			verdict = Allow
		case vt.Kind == TokName && vt.Text == "deny":
			verdict = Deny
		default:
			return Rule{}, newSyntaxError(vt.Pos, "expected 'allow' or 'deny' after '='")
		}
	}
	return Rule{Condition: cond, Verdict: verdict}, nil
}

// parseDisjunction implements "disjunction := conjunction { '|' conjunction }"
// and canonicalizes the result into the sorted multiset form that makes
// structural equality (§4.6) a plain slice comparison.
func (p *parser) parseDisjunction() (Disjunction, error) {
	first, err := p.parseConjunction()
	if err != nil {
		return nil, err
	}
	dis := Disjunction{first}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TokPipe {
			break
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		c, err := p.parseConjunction()
		if err != nil {
			return nil, err
		}
		dis = append(dis, c)
	}
	dis.canonicalize()
	return dis, nil
}

// parseConjunction implements "conjunction := atom { '&' atom }" and
// enforces the wildcard-mixing invariant: a bare '*' must stand alone.
func (p *parser) parseConjunction() (Conjunction, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	conj := Conjunction{first}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TokAmp {
			break
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		a, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		conj = append(conj, a)
	}
	if err := validateWildcardMixing(conj); err != nil {
		return nil, err
	}
	return conj, nil
}

func validateWildcardMixing(conj Conjunction) error {
	if len(conj) <= 1 {
		return nil
	}
	for _, a := range conj {
		if a.Kind == AtomWildcard {
			return oops.
				Code(CodeWildcardMixing).
				Errorf("'*' cannot be combined with other atoms in a conjunction")
		}
	}
	return nil
}

// parseAtom implements "atom := ['!'] predicate".
func (p *parser) parseAtom() (Atom, error) {
	tok, err := p.peek()
	if err != nil {
		return Atom{}, err
	}
	negated := false
	if tok.Kind == TokBang {
		if _, err := p.next(); err != nil {
			return Atom{}, err
		}
		negated = true
	}
	a, err := p.parsePredicate()
	if err != nil {
		return Atom{}, err
	}
	a.Negated = negated
	return a, nil
}

// parsePredicate implements the predicate production, dispatching on the
// leading token: '*' is the wildcard, "user"/"group" are the reserved
// builtins, and any other bare name is looked up as an action.
func (p *parser) parsePredicate() (Atom, error) {
	tok, err := p.peek()
	if err != nil {
		return Atom{}, err
	}

	switch tok.Kind {
	case TokStar:
		if _, err := p.next(); err != nil {
			return Atom{}, err
		}
		return Atom{Kind: AtomWildcard}, nil

	case TokName:
		if _, err := p.next(); err != nil {
			return Atom{}, err
		}
		if err := p.expectLParen(); err != nil {
			return Atom{}, err
		}
		switch tok.Text {
		case "user":
			return p.parseUserPredicate()
		case "group":
			return p.parseGroupPredicate()
		default:
			return p.parseActionPredicate(tok)
		}

	default:
		return Atom{}, newSyntaxError(tok.Pos, "expected '*', 'user(...)', 'group(...)' or an action, got %s", tok.Kind)
	}
}

func (p *parser) expectLParen() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != TokLParen {
		return newSyntaxError(tok.Pos, "expected '(' after predicate name")
	}
	return nil
}

func (p *parser) expectRParen(context string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != TokRParen {
		return newSyntaxError(tok.Pos, "expected ')' to close %s", context)
	}
	return nil
}

// parseNameOrInt implements "name_or_int", classifying the bare name per
// §4.1: one that parses as a non-negative u32 decimal integer is
// numeric, everything else is symbolic.
func (p *parser) parseNameOrInt() (numeric bool, num uint32, name string, err error) {
	tok, terr := p.next()
	if terr != nil {
		return false, 0, "", terr
	}
	if tok.Kind != TokName {
		return false, 0, "", newSyntaxError(tok.Pos, "expected a name or integer, got %s", tok.Kind)
	}
	if n, convErr := strconv.ParseUint(tok.Text, 10, 32); convErr == nil {
		return true, uint32(n), "", nil
	}
	return false, 0, tok.Text, nil
}

// parseUserPredicate implements "user_spec := name_or_int [ ':' name_or_int ]"
// for the already-opened "user(" call. A is the uid specifier, B (if
// present) the gid specifier; both halves are folded into one Atom so a
// leading '!' negates the combined predicate as a single unit.
func (p *parser) parseUserPredicate() (Atom, error) {
	numA, numVal, nameA, err := p.parseNameOrInt()
	if err != nil {
		return Atom{}, err
	}

	var gid *GidSpec
	tok, err := p.peek()
	if err != nil {
		return Atom{}, err
	}
	if tok.Kind == TokColon {
		if _, err := p.next(); err != nil {
			return Atom{}, err
		}
		numB, numValB, nameB, err := p.parseNameOrInt()
		if err != nil {
			return Atom{}, err
		}
		if numB {
			gid = &GidSpec{Numeric: true, GID: numValB}
		} else {
			gid = &GidSpec{Name: nameB}
		}
	}

	if err := p.expectRParen("user(...)"); err != nil {
		return Atom{}, err
	}

	if numA {
		return Atom{Kind: AtomUserID, UID: numVal, Gid: gid}, nil
	}
	return Atom{Kind: AtomUserName, UserName: nameA, Gid: gid}, nil
}

// parseGroupPredicate implements "group" "(" name_or_int ")".
func (p *parser) parseGroupPredicate() (Atom, error) {
	numA, numVal, nameA, err := p.parseNameOrInt()
	if err != nil {
		return Atom{}, err
	}
	if err := p.expectRParen("group(...)"); err != nil {
		return Atom{}, err
	}
	if numA {
		return Atom{Kind: AtomGroupID, GID: numVal}, nil
	}
	return Atom{Kind: AtomGroupName, GroupName: nameA}, nil
}

// parseActionPredicate implements "action_name '(' [ pattern ] ')'" for
// the already-consumed, already-looked-up-pending action name token. The
// pattern itself is read with ScanPatternRaw rather than the normal
// token stream, since a bare glob like "a*" must stay one piece of text.
func (p *parser) parseActionPredicate(nameTok Token) (Atom, error) {
	action, ok := p.registry.Lookup(nameTok.Text)
	if !ok {
		return Atom{}, asOops(CodeUnknownAction, nameTok.Pos, fmt.Errorf("unknown action %q", nameTok.Text))
	}

	var pattern *string
	if !p.lex.atCloseParen() {
		raw, _, err := p.lex.ScanPatternRaw()
		if err != nil {
			return Atom{}, wrapLexError(err)
		}
		if _, cerr := CompilePattern(raw); cerr != nil {
			return Atom{}, asOops(CodeLexError, nameTok.Pos, fmt.Errorf("invalid pattern %q for action %q: %w", raw, action.Name, cerr))
		}
		pattern = &raw
	}

	if err := p.expectRParen(fmt.Sprintf("%s(...)", action.Name)); err != nil {
		return Atom{}, err
	}

	if pattern == nil && action.TakesArgument {
		return Atom{}, asOops(CodeArityMismatch, nameTok.Pos, fmt.Errorf("action %q requires an argument pattern", action.Name))
	}
	if pattern != nil && !action.TakesArgument {
		return Atom{}, asOops(CodeArityMismatch, nameTok.Pos, fmt.Errorf("action %q takes no argument", action.Name))
	}

	return Atom{Kind: AtomAction, ActionID: action.ID, Pattern: pattern}, nil
}
