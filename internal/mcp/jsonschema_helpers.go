package mcp

import "github.com/google/jsonschema-go/jsonschema"

// Built-in tool schemas are hand-written rather than derived through
// the schema bridge: they describe Go call signatures, not
// component-model exports.

func objectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

func stringProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func stringArrayProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

func emptyObjectSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{})
}
