package treequery

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONAccessorChild(t *testing.T) {
	acc := JSONAccessor{}
	doc := mustDecode(`{"a": 1, "b": null}`)

	if v, ok := acc.Child(doc, "a"); !ok || v != json.Number("1") {
		t.Errorf("Child(a) = %v, %v", v, ok)
	}
	if v, ok := acc.Child(doc, "b"); !ok || v != nil {
		t.Errorf("Child(b) = %v, %v, want null member present", v, ok)
	}
	if _, ok := acc.Child(doc, "c"); ok {
		t.Error("Child(c) reported a missing member as present")
	}
	if _, ok := acc.Child("scalar", "a"); ok {
		t.Error("Child on a scalar succeeded")
	}
}

func TestJSONAccessorElement(t *testing.T) {
	acc := JSONAccessor{}
	arr := mustDecode(`["a", "b", "c"]`)

	tests := []struct {
		idx  int
		want any
		ok   bool
	}{
		{idx: 0, want: "a", ok: true},
		{idx: 2, want: "c", ok: true},
		{idx: -1, want: "c", ok: true},
		{idx: -3, want: "a", ok: true},
		{idx: 3, ok: false},
		{idx: -4, ok: false},
	}
	for _, tt := range tests {
		got, ok := acc.Element(arr, tt.idx)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Element(%d) = %v, %v, want %v, %v", tt.idx, got, ok, tt.want, tt.ok)
		}
	}

	if _, ok := acc.Element(mustDecode(`{"0": "a"}`), 0); ok {
		t.Error("Element on an object succeeded")
	}
}

func TestJSONAccessorChildrenOrder(t *testing.T) {
	acc := JSONAccessor{}
	doc := mustDecode(`{"z": 1, "a": 2, "m": 3}`)

	var keys []string
	for step := range acc.Children(doc) {
		if step.IsIndex {
			t.Fatal("object member enumerated with an index step")
		}
		keys = append(keys, step.Key)
	}
	if strings.Join(keys, ",") != "a,m,z" {
		t.Errorf("object keys enumerated as %v, want sorted order", keys)
	}

	var idx []int
	for step := range acc.Children(mustDecode(`[10, 20]`)) {
		if !step.IsIndex {
			t.Fatal("array element enumerated with a key step")
		}
		idx = append(idx, step.Index)
	}
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 1 {
		t.Errorf("array indices enumerated as %v", idx)
	}
}

func TestJSONAccessorScalar(t *testing.T) {
	acc := JSONAccessor{}

	tests := []struct {
		name string
		in   any
		want Scalar
		ok   bool
	}{
		{name: "null", in: nil, want: NullScalar(), ok: true},
		{name: "bool", in: true, want: BoolScalar(true), ok: true},
		{name: "string", in: "x", want: StringScalar("x"), ok: true},
		{name: "number", in: json.Number("2.5"), want: NumberScalar(2.5), ok: true},
		{name: "float64", in: 2.5, want: NumberScalar(2.5), ok: true},
		{name: "int", in: 7, want: NumberScalar(7), ok: true},
		{name: "object", in: map[string]any{}, ok: false},
		{name: "array", in: []any{}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := acc.Scalar(tt.in)
			if ok != tt.ok {
				t.Fatalf("Scalar(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Scalar(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestJSONAccessorDeepEqual(t *testing.T) {
	acc := JSONAccessor{}

	tests := []struct {
		name string
		x, y string
		want bool
	}{
		{name: "equal_objects", x: `{"a": 1, "b": [2]}`, y: `{"b": [2], "a": 1}`, want: true},
		{name: "nested_mismatch", x: `{"a": [1, 2]}`, y: `{"a": [1, 3]}`, want: false},
		{name: "extra_member", x: `{"a": 1}`, y: `{"a": 1, "b": 2}`, want: false},
		{name: "array_order", x: `[1, 2]`, y: `[2, 1]`, want: false},
		{name: "scalar_vs_composite", x: `1`, y: `[1]`, want: false},
		{name: "null_vs_missing", x: `null`, y: `false`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := acc.DeepEqual(mustDecode(tt.x), mustDecode(tt.y)); got != tt.want {
				t.Errorf("DeepEqual(%s, %s) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestJSONAccessorDeepEqualNumericForms(t *testing.T) {
	acc := JSONAccessor{}
	// json.Number and float64 storage of the same value compare equal.
	if !acc.DeepEqual(json.Number("1.5"), 1.5) {
		t.Error("json.Number and float64 forms of 1.5 compared unequal")
	}
	if !acc.DeepEqual([]any{json.Number("2")}, []any{float64(2)}) {
		t.Error("mixed numeric storage inside arrays compared unequal")
	}
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSONBytes([]byte(`{"n": 9007199254740993}`))
	if err != nil {
		t.Fatalf("DecodeJSONBytes() error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("decoded value is %T, want map", v)
	}
	if _, ok := m["n"].(json.Number); !ok {
		t.Errorf("numeric member decoded as %T, want json.Number", m["n"])
	}

	if _, err := DecodeJSONBytes([]byte(`{`)); err == nil {
		t.Error("DecodeJSONBytes accepted malformed input")
	}
}

func TestJSONDescriptorShared(t *testing.T) {
	if JSONDescriptor() != JSONDescriptor() {
		t.Error("JSONDescriptor returned distinct descriptors")
	}
}
