// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package registryconfig

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/busguard/busguard/internal/dsl"
)

// ValidateSemantics catches registry faults the JSON Schema in schema.go
// cannot express, because they span multiple array entries rather than
// constraining a single field:
//
//   - an entry reusing a builtin predicate name ("user", "group"),
//     which dsl.NewActionRegistry would otherwise reject one entry at a
//     time instead of reporting every offender up front;
//   - two entries sharing a name, which would silently let the second
//     decoded entry win;
//   - two entries sharing an id, which dsl.NewActionRegistry does not
//     even detect — action_name(...) predicates are matched by the id
//     the caller passes to the evaluator, so two names resolving to the
//     same id make that id's rules apply under whichever name the
//     policy happens to use, an ambiguity worth catching at load time
//     rather than at evaluation time.
func ValidateSemantics(doc *Document) error {
	if doc == nil {
		return nil
	}

	byName := make(map[string]int, len(doc.Actions))
	byID := make(map[uint32]string, len(doc.Actions))
	var problems []string

	for idx, entry := range doc.Actions {
		if dsl.IsReservedActionName(entry.Name) {
			problems = append(problems, fmt.Sprintf("action %q: name is reserved for a builtin predicate", entry.Name))
		}
		if first, seen := byName[entry.Name]; seen {
			problems = append(problems, fmt.Sprintf("action %q: duplicate entry (first seen at index %d)", entry.Name, first))
		} else {
			byName[entry.Name] = idx
		}

		if other, seen := byID[entry.ID]; seen && other != entry.Name {
			problems = append(problems, fmt.Sprintf("action %q: id %d already assigned to %q", entry.Name, entry.ID, other))
		} else {
			byID[entry.ID] = entry.Name
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return oops.
		Code(dsl.CodeUnknownAction).
		With("problems", problems).
		Errorf("registry failed semantic validation: %s", problems[0])
}
