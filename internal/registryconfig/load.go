// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

package registryconfig

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/busguard/busguard/internal/dsl"
)

// Load reads, schema-validates, and decodes the registry YAML at path,
// optionally overlaying flag-provided values from flags (nil to skip).
// The returned Document is guaranteed to satisfy the schema GenerateSchema
// produces; it has not yet been converted into a dsl.ActionRegistry.
func Load(path string, flags *pflag.FlagSet) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("registryconfig").With("path", path).Wrap(err)
	}
	if err := ValidateSchema(raw); err != nil {
		return nil, oops.In("registryconfig").With("path", path).Hint("registry file failed schema validation").Wrap(err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, oops.In("registryconfig").With("path", path).Wrap(err)
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.In("registryconfig").With("path", path).Hint("failed to overlay flags").Wrap(err)
		}
	}

	var doc Document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, oops.In("registryconfig").With("path", path).Wrap(err)
	}
	if err := ValidateSemantics(&doc); err != nil {
		return nil, oops.In("registryconfig").With("path", path).Wrap(err)
	}
	return &doc, nil
}

// ToActions converts a decoded Document into the []dsl.Action slice
// dsl.NewActionRegistry consumes. The conversion is mechanical: per-entry
// constraints (non-reserved name, non-zero id) are enforced by
// NewActionRegistry itself, and cross-entry constraints (duplicate names
// or ids) by ValidateSemantics during Load, so neither is duplicated
// here.
func ToActions(doc *Document) []dsl.Action {
	actions := make([]dsl.Action, 0, len(doc.Actions))
	for _, entry := range doc.Actions {
		actions = append(actions, dsl.Action{
			Name:          entry.Name,
			ID:            entry.ID,
			TakesArgument: entry.TakesArgument,
		})
	}
	return actions
}

// LoadRegistry is the convenience path a CLI command wants: read path,
// validate, decode, and build a ready-to-use dsl.ActionRegistry in one
// call.
func LoadRegistry(path string, flags *pflag.FlagSet) (*dsl.ActionRegistry, error) {
	doc, err := Load(path, flags)
	if err != nil {
		return nil, err
	}
	registry, err := dsl.NewActionRegistry(ToActions(doc))
	if err != nil {
		return nil, oops.In("registryconfig").With("path", path).Wrap(err)
	}
	return registry, nil
}
