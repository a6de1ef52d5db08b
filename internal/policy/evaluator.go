// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package policy

import "github.com/busguard/busguard/internal/dsl"

// EvalOptions groups everything Check needs beyond the Policy itself.
// Credential and Argument may be nil ("absent" in spec terms); the
// resolvers may be nil if the policy text has no symbolic user()/
// group() predicates that need them.
type EvalOptions struct {
	Credential     *Credential
	ActionID       uint32
	Argument       *string
	DefaultVerdict Verdict
	ResolveUser    UserResolver
	ResolveGroup   GroupResolver
}

// Check implements the §4.4 evaluator contract. It is total: there is no
// error return, only a Verdict.
//
//  1. credential.uid == 0 returns Allow unconditionally, even when p is
//     nil — the superuser bypass is not overridable by policy.
//  2. A nil Policy returns opts.DefaultVerdict.
//  3. Rules are walked in order; the first whose condition matches wins.
//  4. No match falls back to opts.DefaultVerdict.
func Check(p *Policy, opts EvalOptions) Verdict {
	if opts.Credential.IsRoot() {
		return Allow
	}
	if p == nil {
		return opts.DefaultVerdict
	}
	for _, rule := range p.doc.Rules {
		if matchDisjunction(p, rule.Condition, opts) {
			return rule.Verdict
		}
	}
	return opts.DefaultVerdict
}

// matchDisjunction is true iff any conjunction is true.
func matchDisjunction(p *Policy, d dsl.Disjunction, opts EvalOptions) bool {
	for _, conj := range d {
		if matchConjunction(p, conj, opts) {
			return true
		}
	}
	return false
}

// matchConjunction is true iff every atom is true (short-circuiting).
func matchConjunction(p *Policy, c dsl.Conjunction, opts EvalOptions) bool {
	for _, atom := range c {
		if !matchAtom(p, atom, opts) {
			return false
		}
	}
	return true
}

// matchAtom evaluates one atom and applies its negation flag.
func matchAtom(p *Policy, a dsl.Atom, opts EvalOptions) bool {
	result := evalAtom(p, a, opts)
	if a.Negated {
		return !result
	}
	return result
}

func evalAtom(p *Policy, a dsl.Atom, opts EvalOptions) bool {
	switch a.Kind {
	case dsl.AtomWildcard:
		return true

	case dsl.AtomUserID:
		return matchesUID(opts.Credential, a.UID) && matchesOptionalGid(a.Gid, opts)

	case dsl.AtomUserName:
		uid, ok := resolveUser(opts.ResolveUser, a.UserName)
		return ok && matchesUID(opts.Credential, uid) && matchesOptionalGid(a.Gid, opts)

	case dsl.AtomGroupID:
		return opts.Credential.hasGID(a.GID)

	case dsl.AtomGroupName:
		gid, ok := resolveGroup(opts.ResolveGroup, a.GroupName)
		return ok && opts.Credential.hasGID(gid)

	case dsl.AtomAction:
		return evalAction(p, a, opts)
	}
	return false
}

func matchesUID(c *Credential, uid uint32) bool {
	return c != nil && c.UID == uid
}

// matchesOptionalGid implements the ":B" half of user(A:B): absent is
// vacuously true, present requires resolve_group(B) to equal the
// caller's *primary* gid specifically — unlike a standalone group(B)
// atom, this check does not consult supplementary gids (§4 Atom table:
// "resolve_group(gid) yields caller gid", singular).
func matchesOptionalGid(spec *dsl.GidSpec, opts EvalOptions) bool {
	if spec == nil {
		return true
	}
	if opts.Credential == nil {
		return false
	}
	if spec.Numeric {
		return opts.Credential.GID == spec.GID
	}
	gid, ok := resolveGroup(opts.ResolveGroup, spec.Name)
	return ok && opts.Credential.GID == gid
}

func evalAction(p *Policy, a dsl.Atom, opts EvalOptions) bool {
	if opts.ActionID == 0 || a.ActionID != opts.ActionID {
		return false
	}
	if a.Pattern == nil {
		return opts.Argument == nil
	}
	matcher := p.matchers[*a.Pattern]
	if matcher == nil {
		// Unreachable for a Policy built via New/NewFull, which
		// precompiles every pattern at construction time.
		return false
	}
	return matcher.Match(opts.Argument)
}
