// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package registryconfig

// Document is the decoded shape of a registry YAML file: a flat list of
// actions a deployment wants action_name(...) predicates to recognize.
type Document struct {
	// Actions lists every action the policy DSL may reference by name.
	Actions []ActionEntry `koanf:"actions" json:"actions" jsonschema:"required,minItems=1"`
}

// ActionEntry describes one action_name(...) predicate's identity and
// arity, mirroring internal/dsl.Action field for field (including its
// uint32 ID) but with koanf/JSON/JSON Schema tags.
type ActionEntry struct {
	// Name is the bare identifier used as action_name in policy text,
	// e.g. "send_signal" for send_signal(...).
	Name string `koanf:"name" json:"name" jsonschema:"required,minLength=1"`

	// ID is the stable numeric identifier compiled policies reference
	// internally. Two registry files assigning the same Name different
	// IDs are not interchangeable with policies compiled against either.
	ID uint32 `koanf:"id" json:"id" jsonschema:"required,minimum=1"`

	// TakesArgument marks whether action_name(...) may carry a pattern,
	// e.g. true for send_signal(SIGTERM) vs. false for connect().
	TakesArgument bool `koanf:"takes_argument" json:"takes_argument"`
}
