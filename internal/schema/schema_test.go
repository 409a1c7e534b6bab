package schema

import (
	"reflect"
	"testing"

	"github.com/wassette/wassette/internal/wasmtypes"
)

func TestProjectPrimitives(t *testing.T) {
	cases := []struct {
		kind wasmtypes.Kind
		want string
	}{
		{wasmtypes.Bool, "boolean"},
		{wasmtypes.S32, "integer"},
		{wasmtypes.F64, "number"},
		{wasmtypes.String, "string"},
	}
	for _, c := range cases {
		s, err := Project(&wasmtypes.Type{Kind: c.kind})
		if err != nil {
			t.Fatalf("Project(%s): %v", c.kind, err)
		}
		if s.Type != c.want {
			t.Errorf("Project(%s).Type = %q, want %q", c.kind, s.Type, c.want)
		}
	}
}

func TestProjectRecordRejectsExtras(t *testing.T) {
	rt := &wasmtypes.Type{Kind: wasmtypes.Record, Fields: []wasmtypes.Field{
		{Name: "name", Type: &wasmtypes.Type{Kind: wasmtypes.String}},
	}}
	s, err := Project(rt)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if s.AdditionalProperties == nil || s.AdditionalProperties.Not == nil {
		t.Fatalf("expected additionalProperties: false, got %+v", s.AdditionalProperties)
	}
	if len(s.Required) != 1 || s.Required[0] != "name" {
		t.Fatalf("required = %v, want [name]", s.Required)
	}
}

func recordType() *wasmtypes.Type {
	return &wasmtypes.Type{Kind: wasmtypes.Record, Fields: []wasmtypes.Field{
		{Name: "path", Type: &wasmtypes.Type{Kind: wasmtypes.String}},
		{Name: "count", Type: &wasmtypes.Type{Kind: wasmtypes.U32}},
	}}
}

func TestEncodeDecodeRoundTripRecord(t *testing.T) {
	rt := recordType()
	v := map[string]wasmtypes.Value{"path": "a/b", "count": int64(3)}

	raw, err := Encode(rt, v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(rt, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("round trip mismatch: got %#v, want %#v", got, v)
	}
}

func TestDecodeRecordRejectsUnknownField(t *testing.T) {
	rt := recordType()
	_, err := Decode(rt, []byte(`{"path":"x","count":1,"extra":true}`))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecodeRecordRejectsMissingField(t *testing.T) {
	rt := recordType()
	_, err := Decode(rt, []byte(`{"path":"x"}`))
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestEncodeDecodeVariant(t *testing.T) {
	vt := &wasmtypes.Type{Kind: wasmtypes.Variant, Cases: []wasmtypes.Case{
		{Name: "ready"},
		{Name: "pending", Type: &wasmtypes.Type{Kind: wasmtypes.U32}},
	}}

	raw, err := Encode(vt, wasmtypes.VariantValue{Case: "pending", Val: int64(5)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(vt, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	vv, ok := got.(wasmtypes.VariantValue)
	if !ok || vv.Case != "pending" {
		t.Fatalf("got %#v, want variant pending", got)
	}
}

func TestEncodeDecodeResult(t *testing.T) {
	rt := &wasmtypes.Type{
		Kind: wasmtypes.Result,
		Ok:   &wasmtypes.Type{Kind: wasmtypes.String},
		Err:  &wasmtypes.Type{Kind: wasmtypes.String},
	}
	raw, err := Encode(rt, wasmtypes.ResultValue{OK: false, Val: "boom"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(rt, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rv, ok := got.(wasmtypes.ResultValue)
	if !ok || rv.OK || rv.Val != "boom" {
		t.Fatalf("got %#v, want err result boom", got)
	}
}

func TestInputSchemaEmptyParams(t *testing.T) {
	fn := &wasmtypes.Function{Name: "ping"}
	s, err := InputSchema(fn)
	if err != nil {
		t.Fatalf("InputSchema: %v", err)
	}
	if s.Type != "object" || len(s.Properties) != 0 {
		t.Fatalf("unexpected schema: %+v", s)
	}
}

func TestOutputSchemaMultiValue(t *testing.T) {
	fn := &wasmtypes.Function{Results: []*wasmtypes.Type{
		{Kind: wasmtypes.String},
		{Kind: wasmtypes.Bool},
	}}
	s, err := OutputSchema(fn)
	if err != nil {
		t.Fatalf("OutputSchema: %v", err)
	}
	if s.Type != "array" || len(s.PrefixItems) != 2 {
		t.Fatalf("unexpected output schema: %+v", s)
	}
}
