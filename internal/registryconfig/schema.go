// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BusGuard Contributors

// Package registryconfig loads the caller-supplied action registry (§6)
// from a YAML file, so that a deployment can declare its action table
// outside of Go source instead of constructing []dsl.Action literals by
// hand. Validation happens in two passes: this file checks document
// shape (required fields, types) against a generated JSON Schema;
// semantics.go checks the cross-entry rules a single-field schema can't
// express (reserved names, duplicate names or ids).
package registryconfig

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// schemaID is the JSON Schema $id advertised in generated documents and
// referenced when compiling them.
const schemaID = "https://busguard.dev/schemas/registry.schema.json"

type schemaState struct {
	once   sync.Once
	schema *jschema.Schema
	err    error
}

var globalSchemaState = &schemaState{}

// GenerateSchema reflects a JSON Schema from the Document struct that
// Load decodes into, so the schema and the loader can never drift apart.
// Only fields tagged jsonschema:"required" are required by the schema.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true, RequiredFromJSONSchemaTags: true}
	schema := r.Reflect(&Document{})
	schema.ID = jsonschema.ID(GetSchemaID())
	schema.Title = "BusGuard Action Registry"
	schema.Description = "Schema for the action registry YAML consumed by busguard"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In("registryconfig").Hint("failed to marshal schema").Wrap(err)
	}
	data = append(data, '\n')
	return data, nil
}

// ValidateSchema validates raw YAML bytes against the registry schema.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.In("registryconfig").New("registry data is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.In("registryconfig").Hint("invalid YAML").Wrap(err)
	}
	jsonData := convertToJSONTypes(yamlData)

	sch, err := getCompiledSchema()
	if err != nil {
		return oops.In("registryconfig").Hint("failed to compile schema").Wrap(err)
	}
	if err := sch.Validate(jsonData); err != nil {
		return oops.In("registryconfig").Hint("schema validation failed").Wrap(err)
	}
	return nil
}

func getCompiledSchema() (*jschema.Schema, error) {
	globalSchemaState.once.Do(func() {
		globalSchemaState.schema, globalSchemaState.err = compileSchema()
	})
	return globalSchemaState.schema, globalSchemaState.err
}

func compileSchema() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, oops.In("registryconfig").Hint("failed to parse schema JSON").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, oops.In("registryconfig").Hint("failed to add schema resource").Wrap(err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, oops.In("registryconfig").Hint("failed to compile schema").Wrap(err)
	}
	return sch, nil
}

// convertToJSONTypes normalizes yaml.Unmarshal's output into the plain
// map[string]any/[]any/scalar shapes jsonschema/v6 expects.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertToJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertToJSONTypes(v)
		}
		return result
	default:
		if b, err := json.Marshal(val); err == nil {
			var result any
			if err := json.Unmarshal(b, &result); err == nil {
				return result
			}
		}
		return val
	}
}

// ResetSchemaCache clears the cached compiled schema, forcing the next
// ValidateSchema call to recompile. Used for testing.
func ResetSchemaCache() {
	globalSchemaState = &schemaState{}
}

// GetSchemaID returns the schema $id for use in registry YAML files.
func GetSchemaID() string {
	return schemaID
}

// FormatSchemaError trims the boilerplate prefix off a schema-validation
// error so CLI output reads as one clean sentence.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "schema validation failed:") {
		msg = strings.TrimPrefix(msg, "schema validation failed: ")
	}
	return msg
}
