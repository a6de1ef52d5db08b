// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package policy

import (
	"sync/atomic"

	"github.com/busguard/busguard/internal/dsl"
)

// Verdict is the terminal Allow/Deny outcome of a Rule or of Check.
type Verdict = dsl.Verdict

// Allow and Deny re-export dsl's verdict constants so callers never need
// to import internal/dsl directly just to supply a default verdict.
const (
	Deny  = dsl.Deny
	Allow = dsl.Allow
)

// Policy is the reference-counted handle §4.5 describes. The zero value
// is not usable; obtain one from New or NewFull. Go's garbage collector
// already reclaims memory once nothing references a Policy, so the
// refcount here isn't load-bearing for cleanup the way the original C
// handle's was — it is kept anyway because Unref's "did this call drop
// the last reference" signal is still something callers sharing a
// Policy across long-lived owners (e.g. a daemon swapping policies on
// reload) need to act on, such as logging a policy's retirement.
type Policy struct {
	doc      *dsl.Document
	registry *dsl.ActionRegistry
	matchers map[string]*dsl.ArgMatcher

	refs atomic.Int32
}

// New parses text with no action registry: only "*", "user(...)" and
// "group(...)" predicates may appear; any action_name(...) predicate
// fails as unknown. It returns a Policy with refcount 1, or a nil
// Policy and an error on any parse failure.
func New(text string) (*Policy, error) {
	return NewFull(text, nil)
}

// NewFull parses text against registry and returns a Policy with
// refcount 1, or a nil Policy and an error. Every §7 taxonomy failure
// collapses to this one (nil, err) outcome; err.(oops) carries the
// taxonomy code for callers that want it (see internal/dsl.Code*).
func NewFull(text string, registry *dsl.ActionRegistry) (*Policy, error) {
	doc, err := dsl.Parse(text, registry)
	if err != nil {
		return nil, err
	}
	matchers, err := compileMatchers(doc)
	if err != nil {
		return nil, err
	}
	p := &Policy{doc: doc, registry: registry, matchers: matchers}
	p.refs.Store(1)
	return p, nil
}

// compileMatchers precompiles every distinct action-argument pattern
// exactly once at construction time, mirroring the teacher's
// compiler.go precompileGlobs cache instead of recompiling a pattern on
// every Check call.
func compileMatchers(doc *dsl.Document) (map[string]*dsl.ArgMatcher, error) {
	cache := make(map[string]*dsl.ArgMatcher)
	for _, rule := range doc.Rules {
		for _, conj := range rule.Condition {
			for _, atom := range conj {
				if atom.Kind != dsl.AtomAction || atom.Pattern == nil {
					continue
				}
				if _, ok := cache[*atom.Pattern]; ok {
					continue
				}
				m, err := dsl.CompilePattern(*atom.Pattern)
				if err != nil {
					return nil, err
				}
				cache[*atom.Pattern] = m
			}
		}
	}
	return cache, nil
}

// Ref increments p's refcount and returns p, so callers can write
// `shared := original.Ref()`. A nil Policy is returned unchanged.
func (p *Policy) Ref() *Policy {
	if p == nil {
		return nil
	}
	p.refs.Add(1)
	return p
}

// Unref decrements p's refcount and reports whether this call dropped
// it to zero. A nil Policy is a no-op returning false.
func (p *Policy) Unref() bool {
	if p == nil {
		return false
	}
	return p.refs.Add(-1) == 0
}

// Equal implements structural equality (§4.6): rule sequences must have
// equal length and pairwise-equal rules, each rule's Disjunction
// compared as a canonicalized multiset of Conjunctions. Two nil
// Policies are equal; a nil-vs-non-nil pair is not.
func Equal(a, b *Policy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.doc.Equal(b.doc)
}
