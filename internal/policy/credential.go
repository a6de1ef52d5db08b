// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

// Package policy wraps the parsed DSL document in a reference-counted
// handle and evaluates it against runtime credentials and actions.
package policy

// Credential is the OS identity of a request initiator: a uid, a
// primary gid, and an unordered set of supplementary gids. The uid
// value 0 denotes the superuser and bypasses every policy (§4.4 step 1).
type Credential struct {
	UID               uint32
	GID               uint32
	SupplementaryGIDs []uint32
}

// IsRoot reports whether c is the superuser. A nil Credential is never
// root, matching "if credential is absent, every credential-dependent
// atom evaluates false" (§4.4 edge cases) — the bypass only fires for a
// credential that is actually present with uid 0.
func (c *Credential) IsRoot() bool {
	return c != nil && c.UID == 0
}

// hasGID reports whether gid is c's primary gid or appears among its
// supplementary gids, treating the supplementary list as an unordered
// set per §4.4's "order is irrelevant" edge case.
func (c *Credential) hasGID(gid uint32) bool {
	if c == nil {
		return false
	}
	if c.GID == gid {
		return true
	}
	for _, g := range c.SupplementaryGIDs {
		if g == gid {
			return true
		}
	}
	return false
}

// UserResolver looks up a symbolic user name's numeric uid. ok is false
// for an unknown name; the engine never treats that as an error, only
// as a failed atom match (§9: resolution is deferred to evaluation
// time, not parse time).
type UserResolver func(name string) (uid uint32, ok bool)

// GroupResolver looks up a symbolic group name's numeric gid.
type GroupResolver func(name string) (gid uint32, ok bool)

func resolveUser(r UserResolver, name string) (uint32, bool) {
	if r == nil {
		return 0, false
	}
	return r(name)
}

func resolveGroup(r GroupResolver, name string) (uint32, bool) {
	if r == nil {
		return 0, false
	}
	return r(name)
}
