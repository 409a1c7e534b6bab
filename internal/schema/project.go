// Package schema bridges component-model types and values to JSON:
// it projects wasmtypes.Type onto JSON Schema (for MCP tool
// advertisement) and it encodes/decodes wasmtypes.Value to and from
// JSON (for argument/result marshaling across the MCP boundary).
package schema

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wassette/wassette/internal/wasmtypes"
)

// falseSchema represents the JSON Schema boolean `false` as an object
// schema: "not {}" matches nothing, the same way "additionalProperties:
// false" is meant to reject every extra key.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func ptr[T any](v T) *T { return &v }

// Project derives the JSON Schema for a component-model type, per the
// projection table in spec §4.2.
func Project(t *wasmtypes.Type) (*jsonschema.Schema, error) {
	if t == nil {
		return &jsonschema.Schema{}, nil
	}

	switch t.Kind {
	case wasmtypes.Bool:
		return &jsonschema.Schema{Type: "boolean"}, nil

	case wasmtypes.S8, wasmtypes.U8, wasmtypes.S16, wasmtypes.U16,
		wasmtypes.S32, wasmtypes.U32, wasmtypes.S64, wasmtypes.U64:
		min, max, _ := wasmtypes.IntRange(t.Kind)
		s := &jsonschema.Schema{Type: "integer", Minimum: ptr(float64(min))}
		if t.Kind == wasmtypes.U64 {
			// Upper bound exceeds float64 exact-integer precision;
			// project without an explicit maximum rather than lie.
			return s, nil
		}
		s.Maximum = ptr(float64(max))
		return s, nil

	case wasmtypes.F32, wasmtypes.F64:
		return &jsonschema.Schema{Type: "number"}, nil

	case wasmtypes.Char:
		return &jsonschema.Schema{Type: "string", MinLength: ptr(1), MaxLength: ptr(1)}, nil

	case wasmtypes.String:
		return &jsonschema.Schema{Type: "string"}, nil

	case wasmtypes.List:
		items, err := Project(t.Elem)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil

	case wasmtypes.Record:
		props := make(map[string]*jsonschema.Schema, len(t.Fields))
		required := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			fs, err := Project(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			props[f.Name] = fs
			required = append(required, f.Name)
		}
		return &jsonschema.Schema{
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: falseSchema(),
		}, nil

	case wasmtypes.Tuple:
		prefix := make([]*jsonschema.Schema, len(t.Items))
		for i, item := range t.Items {
			is, err := Project(item)
			if err != nil {
				return nil, fmt.Errorf("tuple item %d: %w", i, err)
			}
			prefix[i] = is
		}
		n := len(t.Items)
		return &jsonschema.Schema{
			Type:        "array",
			PrefixItems: prefix,
			MinItems:    ptr(n),
			MaxItems:    ptr(n),
		}, nil

	case wasmtypes.Variant:
		variants := make([]*jsonschema.Schema, 0, len(t.Cases))
		for _, c := range t.Cases {
			caseSchema, err := caseObjectSchema(c.Name, c.Type)
			if err != nil {
				return nil, fmt.Errorf("case %s: %w", c.Name, err)
			}
			variants = append(variants, caseSchema)
		}
		return &jsonschema.Schema{OneOf: variants}, nil

	case wasmtypes.Enum:
		values := make([]any, len(t.Names))
		for i, n := range t.Names {
			values[i] = n
		}
		return &jsonschema.Schema{Type: "string", Enum: values}, nil

	case wasmtypes.Option:
		some, err := Project(t.Elem)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{some, {Type: "null"}}}, nil

	case wasmtypes.Result:
		okSchema, err := caseObjectSchema("ok", t.Ok)
		if err != nil {
			return nil, err
		}
		errSchema, err := caseObjectSchema("err", t.Err)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{okSchema, errSchema}}, nil

	case wasmtypes.Flags:
		values := make([]any, len(t.Names))
		for i, n := range t.Names {
			values[i] = n
		}
		return &jsonschema.Schema{
			Type:        "array",
			Items:       &jsonschema.Schema{Type: "string", Enum: values},
			UniqueItems: true,
		}, nil

	default:
		return nil, fmt.Errorf("project: unsupported kind %s", t.Kind)
	}
}

// caseObjectSchema builds the {tag, val?} object schema used for both
// variant cases and result arms (§9's design note: tagged objects
// round-trip through JSON Schema tooling better than bare enum
// strings).
func caseObjectSchema(tag string, payload *wasmtypes.Type) (*jsonschema.Schema, error) {
	props := map[string]*jsonschema.Schema{
		"tag": {Type: "string", Enum: []any{tag}},
	}
	required := []string{"tag"}

	if payload != nil {
		valSchema, err := Project(payload)
		if err != nil {
			return nil, err
		}
		props["val"] = valSchema
		required = append(required, "val")
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: falseSchema(),
	}, nil
}
