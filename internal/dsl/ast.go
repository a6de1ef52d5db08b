// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package dsl

import (
	"fmt"
	"sort"
	"strings"
)

// AtomKind identifies which predicate variant an Atom holds.
type AtomKind int

// Atom kinds, one per tagged variant in the grammar's predicate rule.
const (
	AtomWildcard AtomKind = iota
	AtomUserID
	AtomUserName
	AtomGroupID
	AtomGroupName
	AtomAction
)

var atomKindNames = [...]string{
	"Wildcard", "UserId", "UserName", "GroupId", "GroupName", "Action",
}

func (k AtomKind) String() string {
	if k >= 0 && int(k) < len(atomKindNames) {
		return atomKindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// GidSpec is the optional ":B" half of a user(A:B) predicate. It is
// numeric or symbolic just like any other uid/gid specifier, and carries
// its own resolution rule (resolve_group) applied at evaluation time.
type GidSpec struct {
	Numeric bool
	GID     uint32
	Name    string
}

func (g *GidSpec) equal(o *GidSpec) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.Numeric != o.Numeric {
		return false
	}
	if g.Numeric {
		return g.GID == o.GID
	}
	return g.Name == o.Name
}

func (g *GidSpec) key() string {
	if g == nil {
		return ""
	}
	if g.Numeric {
		return fmt.Sprintf(":n%d", g.GID)
	}
	return fmt.Sprintf(":s%s", g.Name)
}

// Atom is the smallest predicate in the language: one tagged variant,
// optionally negated. Fields unrelated to Kind are zero.
//
// user(A:B) is represented as a single atom carrying both halves so that
// "!" can negate the combined predicate as one unit (De Morgan over the
// implicit "A matches AND B matches" would otherwise require splitting
// negation across two atoms, which the grammar's single-atom negation
// rule does not permit). The spec's Atom table only shows Gid on
// UserName's payload; this generalizes it onto UserId as well so
// user(1:group) and user(name:group) share one representation shape.
type Atom struct {
	Kind    AtomKind
	Negated bool

	UID uint32   // AtomUserID
	Gid *GidSpec // AtomUserID, AtomUserName: optional ":B" qualifier

	UserName string // AtomUserName

	GID       uint32 // AtomGroupID
	GroupName string // AtomGroupName

	ActionID uint32  // AtomAction
	Pattern  *string // AtomAction; nil means no-argument (absent pattern)
}

// Equal reports structural equality per §4.6: tag, payload, and negation
// flag must all match. Symbolic names compare as written, never via any
// resolved id.
func (a Atom) Equal(o Atom) bool {
	if a.Kind != o.Kind || a.Negated != o.Negated {
		return false
	}
	switch a.Kind {
	case AtomWildcard:
		return true
	case AtomUserID:
		return a.UID == o.UID && a.Gid.equal(o.Gid)
	case AtomUserName:
		return a.UserName == o.UserName && a.Gid.equal(o.Gid)
	case AtomGroupID:
		return a.GID == o.GID
	case AtomGroupName:
		return a.GroupName == o.GroupName
	case AtomAction:
		if a.ActionID != o.ActionID {
			return false
		}
		if (a.Pattern == nil) != (o.Pattern == nil) {
			return false
		}
		return a.Pattern == nil || *a.Pattern == *o.Pattern
	}
	return false
}

// key is a total order over atoms used to canonicalize conjunction and
// disjunction lists at construction time, so that structural equality
// reduces to ordinary slice comparison (see Design Notes: "sorting ... is
// simpler and faster" than counting matches on the fly).
func (a Atom) key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%t|", a.Kind, a.Negated)
	switch a.Kind {
	case AtomUserID:
		fmt.Fprintf(&sb, "%d%s", a.UID, a.Gid.key())
	case AtomUserName:
		fmt.Fprintf(&sb, "%s%s", a.UserName, a.Gid.key())
	case AtomGroupID:
		fmt.Fprintf(&sb, "%d", a.GID)
	case AtomGroupName:
		sb.WriteString(a.GroupName)
	case AtomAction:
		fmt.Fprintf(&sb, "%d|", a.ActionID)
		if a.Pattern != nil {
			sb.WriteString(*a.Pattern)
		} else {
			sb.WriteString("\x00")
		}
	}
	return sb.String()
}

// Conjunction is an ordered-on-the-page, unordered-for-matching AND of
// atoms. canonicalize sorts it in place into the total order used for
// equality; evaluation never depends on this order since AND is
// commutative. The textual order is not kept anywhere: once parsed, only
// the canonical (multiset) form is ever observed.
type Conjunction []Atom

func (c Conjunction) canonicalize() {
	sort.Slice(c, func(i, j int) bool { return c[i].key() < c[j].key() })
}

// Equal compares two already-canonicalized conjunctions.
func (c Conjunction) Equal(o Conjunction) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if !c[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (c Conjunction) key() string {
	keys := make([]string, len(c))
	for i, a := range c {
		keys[i] = a.key()
	}
	return strings.Join(keys, "&")
}

// Disjunction is an OR of conjunctions, canonicalized the same way.
type Disjunction []Conjunction

func (d Disjunction) canonicalize() {
	for _, c := range d {
		c.canonicalize()
	}
	sort.Slice(d, func(i, j int) bool { return d[i].key() < d[j].key() })
}

// Equal compares two already-canonicalized disjunctions.
func (d Disjunction) Equal(o Disjunction) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if !d[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Verdict is the terminal Allow/Deny outcome of a Rule or of evaluation.
type Verdict int

const (
	Deny Verdict = iota
	Allow
)

func (v Verdict) String() string {
	if v == Allow {
		return "allow"
	}
	return "deny"
}

// Rule pairs a condition with the verdict to return when it matches.
type Rule struct {
	Condition Disjunction
	Verdict   Verdict
}

// Equal compares two rules: verdicts must match and conditions must be
// structurally equal.
func (r Rule) Equal(o Rule) bool {
	return r.Verdict == o.Verdict && r.Condition.Equal(o.Condition)
}

// Document is the parser's output: an ordered rule list. It is not yet a
// policy handle — internal/policy.New wraps a Document with a refcount
// and an action registry to produce the opaque handle §4.5 describes.
type Document struct {
	Rules []Rule
}

// Equal compares two documents rule-by-rule, in order; rule order is
// significant (first match wins) so, unlike atoms within a rule, rules
// themselves are never reordered or treated as a multiset.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.Rules) != len(o.Rules) {
		return false
	}
	for i := range d.Rules {
		if !d.Rules[i].Equal(o.Rules[i]) {
			return false
		}
	}
	return true
}
