package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/wassette/wassette/internal/wasmtypes"
)

// Encode renders a component-model value as JSON per the projection in
// Project. It round-trips with Decode: for any v returned by Decode,
// Decode(Encode(v)) is deep-equal to v (spec §8 invariant 3).
func Encode(t *wasmtypes.Type, v wasmtypes.Value) (json.RawMessage, error) {
	raw, err := encodeValue(t, v)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

func encodeValue(t *wasmtypes.Type, v wasmtypes.Value) (any, error) {
	if t == nil {
		return v, nil
	}

	switch t.Kind {
	case wasmtypes.Bool, wasmtypes.S8, wasmtypes.U8, wasmtypes.S16, wasmtypes.U16,
		wasmtypes.S32, wasmtypes.U32, wasmtypes.S64, wasmtypes.U64,
		wasmtypes.F32, wasmtypes.F64, wasmtypes.Char, wasmtypes.String:
		return v, nil

	case wasmtypes.List:
		items, ok := v.([]wasmtypes.Value)
		if !ok {
			return nil, fmt.Errorf("encode list: got %T", v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			enc, err := encodeValue(t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("encode list[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil

	case wasmtypes.Record:
		fields, ok := v.(map[string]wasmtypes.Value)
		if !ok {
			return nil, fmt.Errorf("encode record: got %T", v)
		}
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			fv, present := fields[f.Name]
			if !present {
				return nil, fmt.Errorf("encode record: missing field %q", f.Name)
			}
			enc, err := encodeValue(f.Type, fv)
			if err != nil {
				return nil, fmt.Errorf("encode record.%s: %w", f.Name, err)
			}
			out[f.Name] = enc
		}
		return out, nil

	case wasmtypes.Tuple:
		items, ok := v.([]wasmtypes.Value)
		if !ok || len(items) != len(t.Items) {
			return nil, fmt.Errorf("encode tuple: want %d items, got %T", len(t.Items), v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			enc, err := encodeValue(t.Items[i], item)
			if err != nil {
				return nil, fmt.Errorf("encode tuple[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil

	case wasmtypes.Variant:
		vv, ok := v.(wasmtypes.VariantValue)
		if !ok {
			return nil, fmt.Errorf("encode variant: got %T", v)
		}
		for _, c := range t.Cases {
			if c.Name != vv.Case {
				continue
			}
			obj := map[string]any{"tag": vv.Case}
			if c.Type != nil {
				enc, err := encodeValue(c.Type, vv.Val)
				if err != nil {
					return nil, fmt.Errorf("encode variant.%s: %w", vv.Case, err)
				}
				obj["val"] = enc
			}
			return obj, nil
		}
		return nil, fmt.Errorf("encode variant: unknown case %q", vv.Case)

	case wasmtypes.Enum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("encode enum: got %T", v)
		}
		for _, n := range t.Names {
			if n == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("encode enum: unknown member %q", s)

	case wasmtypes.Option:
		if v == nil {
			return nil, nil
		}
		return encodeValue(t.Elem, v)

	case wasmtypes.Result:
		rv, ok := v.(wasmtypes.ResultValue)
		if !ok {
			return nil, fmt.Errorf("encode result: got %T", v)
		}
		if rv.OK {
			obj := map[string]any{"tag": "ok"}
			if t.Ok != nil {
				enc, err := encodeValue(t.Ok, rv.Val)
				if err != nil {
					return nil, fmt.Errorf("encode result.ok: %w", err)
				}
				obj["val"] = enc
			}
			return obj, nil
		}
		obj := map[string]any{"tag": "err"}
		if t.Err != nil {
			enc, err := encodeValue(t.Err, rv.Val)
			if err != nil {
				return nil, fmt.Errorf("encode result.err: %w", err)
			}
			obj["val"] = enc
		}
		return obj, nil

	case wasmtypes.Flags:
		names, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("encode flags: got %T", v)
		}
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out, nil

	default:
		return nil, fmt.Errorf("encode: unsupported kind %s", t.Kind)
	}
}

// Decode parses JSON into a component-model value, rejecting unknown
// object fields and missing required fields (spec §4.2 edge cases).
func Decode(t *wasmtypes.Type, raw json.RawMessage) (wasmtypes.Value, error) {
	var generic any
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&generic); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	return decodeValue(t, generic)
}

func decodeValue(t *wasmtypes.Type, v any) (wasmtypes.Value, error) {
	if t == nil {
		return v, nil
	}

	switch t.Kind {
	case wasmtypes.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("decode bool: got %T", v)
		}
		return b, nil

	case wasmtypes.S8, wasmtypes.U8, wasmtypes.S16, wasmtypes.U16,
		wasmtypes.S32, wasmtypes.U32, wasmtypes.S64, wasmtypes.U64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("decode integer: got %T", v)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("decode integer: %w", err)
		}
		min, max, _ := wasmtypes.IntRange(t.Kind)
		if i < min || (t.Kind != wasmtypes.U64 && i > max) {
			return nil, fmt.Errorf("decode %s: %d out of range [%d,%d]", t.Kind, i, min, max)
		}
		return i, nil

	case wasmtypes.F32, wasmtypes.F64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("decode float: got %T", v)
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("decode float: %w", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("decode float: non-finite value")
		}
		return f, nil

	case wasmtypes.Char:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("decode char: got %T", v)
		}
		if n := len([]rune(s)); n != 1 {
			return nil, fmt.Errorf("decode char: want exactly one rune, got %d", n)
		}
		return s, nil

	case wasmtypes.String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("decode string: got %T", v)
		}
		return s, nil

	case wasmtypes.List:
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("decode list: got %T", v)
		}
		out := make([]wasmtypes.Value, len(arr))
		for i, item := range arr {
			dv, err := decodeValue(t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("decode list[%d]: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil

	case wasmtypes.Record:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode record: got %T", v)
		}
		known := make(map[string]bool, len(t.Fields))
		out := make(map[string]wasmtypes.Value, len(t.Fields))
		for _, f := range t.Fields {
			known[f.Name] = true
			fv, present := obj[f.Name]
			if !present {
				return nil, fmt.Errorf("decode record: missing required field %q", f.Name)
			}
			dv, err := decodeValue(f.Type, fv)
			if err != nil {
				return nil, fmt.Errorf("decode record.%s: %w", f.Name, err)
			}
			out[f.Name] = dv
		}
		for k := range obj {
			if !known[k] {
				return nil, fmt.Errorf("decode record: unknown field %q", k)
			}
		}
		return out, nil

	case wasmtypes.Tuple:
		arr, ok := v.([]any)
		if !ok || len(arr) != len(t.Items) {
			return nil, fmt.Errorf("decode tuple: want %d items, got %T", len(t.Items), v)
		}
		out := make([]wasmtypes.Value, len(arr))
		for i, item := range arr {
			dv, err := decodeValue(t.Items[i], item)
			if err != nil {
				return nil, fmt.Errorf("decode tuple[%d]: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil

	case wasmtypes.Variant:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode variant: got %T", v)
		}
		tag, _ := obj["tag"].(string)
		for _, c := range t.Cases {
			if c.Name != tag {
				continue
			}
			var val wasmtypes.Value
			if c.Type != nil {
				payload, present := obj["val"]
				if !present {
					return nil, fmt.Errorf("decode variant.%s: missing val", tag)
				}
				dv, err := decodeValue(c.Type, payload)
				if err != nil {
					return nil, fmt.Errorf("decode variant.%s: %w", tag, err)
				}
				val = dv
			}
			return wasmtypes.VariantValue{Case: tag, Val: val}, nil
		}
		return nil, fmt.Errorf("decode variant: unknown case %q", tag)

	case wasmtypes.Enum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("decode enum: got %T", v)
		}
		for _, n := range t.Names {
			if n == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("decode enum: unknown member %q", s)

	case wasmtypes.Option:
		if v == nil {
			return nil, nil
		}
		return decodeValue(t.Elem, v)

	case wasmtypes.Result:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode result: got %T", v)
		}
		tag, _ := obj["tag"].(string)
		switch tag {
		case "ok":
			var val wasmtypes.Value
			if t.Ok != nil {
				payload, present := obj["val"]
				if !present {
					return nil, fmt.Errorf("decode result.ok: missing val")
				}
				dv, err := decodeValue(t.Ok, payload)
				if err != nil {
					return nil, err
				}
				val = dv
			}
			return wasmtypes.ResultValue{OK: true, Val: val}, nil
		case "err":
			var val wasmtypes.Value
			if t.Err != nil {
				payload, present := obj["val"]
				if !present {
					return nil, fmt.Errorf("decode result.err: missing val")
				}
				dv, err := decodeValue(t.Err, payload)
				if err != nil {
					return nil, err
				}
				val = dv
			}
			return wasmtypes.ResultValue{OK: false, Val: val}, nil
		default:
			return nil, fmt.Errorf("decode result: unknown tag %q", tag)
		}

	case wasmtypes.Flags:
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("decode flags: got %T", v)
		}
		known := make(map[string]bool, len(t.Names))
		for _, n := range t.Names {
			known[n] = true
		}
		out := make([]string, len(arr))
		for i, item := range arr {
			s, ok := item.(string)
			if !ok || !known[s] {
				return nil, fmt.Errorf("decode flags[%d]: unknown member %v", i, item)
			}
			out[i] = s
		}
		return out, nil

	default:
		return nil, fmt.Errorf("decode: unsupported kind %s", t.Kind)
	}
}
