// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package dsl

import "github.com/samber/oops"

// Action describes one entry in the caller-supplied action registry: a
// name the DSL may reference in a predicate, the numeric id the runtime
// evaluator is called with, and whether the action accepts an argument
// string.
type Action struct {
	Name          string
	ID            uint32
	TakesArgument bool
}

// reservedActionNames can never be registered: the grammar treats
// "user" and "group" as builtin predicates regardless of registry
// contents, and "*" is the wildcard token rather than an action name.
var reservedActionNames = map[string]bool{"user": true, "group": true}

// IsReservedActionName reports whether name collides with a builtin
// predicate and can therefore never be a registered action, regardless
// of which registry source (literal []Action, YAML file, ...) supplied
// it. Callers that validate a registry before handing it to
// NewActionRegistry — so they can report every offending entry instead
// of stopping at the first — use this instead of duplicating the list.
func IsReservedActionName(name string) bool {
	return reservedActionNames[name]
}

// ActionRegistry resolves action names to their descriptor. It is
// immutable for the lifetime of any Policy built against it.
type ActionRegistry struct {
	byName map[string]Action
}

// NewActionRegistry builds a registry from an action list. An Action with
// an empty name is skipped wherever it appears; it does not end the list,
// so entries after it are still registered. Callers therefore need no
// sentinel entry and may pass a slice decoded straight from a config file.
func NewActionRegistry(actions []Action) (*ActionRegistry, error) {
	byName := make(map[string]Action, len(actions))
	for _, a := range actions {
		if a.Name == "" {
			continue
		}
		if reservedActionNames[a.Name] {
			return nil, oops.
				Code(CodeUnknownAction).
				With("name", a.Name).
				Errorf("action name %q is reserved and cannot be registered", a.Name)
		}
		if a.ID == 0 {
			return nil, oops.
				Code(CodeUnknownAction).
				With("name", a.Name).
				Errorf("action %q must have a nonzero id", a.Name)
		}
		byName[a.Name] = a
	}
	return &ActionRegistry{byName: byName}, nil
}

// Lookup returns the action descriptor for name and whether it exists.
// A nil registry always misses, matching new(text) (no registry at all)
// rather than new_full(text, registry).
func (r *ActionRegistry) Lookup(name string) (Action, bool) {
	if r == nil {
		return Action{}, false
	}
	a, ok := r.byName[name]
	return a, ok
}
