package yamltree

import (
	"testing"

	"github.com/kverzel/treequery"
)

const inventoryYAML = `
items:
  - name: bolt
    qty: 40
    tags: [hardware]
  - name: washer
    qty: 12
  - name: gasket
    qty: 7
    tags: [hardware, seal]
threshold: 10
`

func TestAccessorScalarNormalization(t *testing.T) {
	acc := Accessor{}

	tests := []struct {
		name string
		node *Node
		want treequery.Scalar
		ok   bool
	}{
		{name: "null", node: FromValue(nil), want: treequery.NullScalar(), ok: true},
		{name: "bool", node: FromValue(true), want: treequery.BoolScalar(true), ok: true},
		{name: "string", node: FromValue("x"), want: treequery.StringScalar("x"), ok: true},
		{name: "int", node: FromValue(3), want: treequery.NumberScalar(3), ok: true},
		{name: "uint64", node: FromValue(uint64(3)), want: treequery.NumberScalar(3), ok: true},
		{name: "float", node: FromValue(2.5), want: treequery.NumberScalar(2.5), ok: true},
		{name: "mapping", node: FromValue(map[string]any{}), ok: false},
		{name: "nil_node", node: nil, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := acc.Scalar(tt.node)
			if ok != tt.ok {
				t.Fatalf("Scalar() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Scalar() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAccessorDeepEqualNumericStorage(t *testing.T) {
	acc := Accessor{}
	// The same document built from differently typed numbers compares equal.
	x := FromValue(map[string]any{"n": int(5), "xs": []any{1.0, uint64(2)}})
	y := FromValue(map[string]any{"n": float64(5), "xs": []any{uint64(1), 2.0}})
	if !acc.DeepEqual(x, y) {
		t.Error("numerically equal trees compared unequal")
	}

	z := FromValue(map[string]any{"n": 6, "xs": []any{1.0, 2.0}})
	if acc.DeepEqual(x, z) {
		t.Error("distinct trees compared equal")
	}
}

func TestQueryOverTree(t *testing.T) {
	root := mustParse(t, inventoryYAML)

	p, err := Compile("$.items[?@.qty < $.threshold].name")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	got := p.Select(root)
	if len(got) != 1 || got[0].Value() != "gasket" {
		t.Fatalf("Select() = %v", got)
	}
}

func TestQueryResultPointer(t *testing.T) {
	root := mustParse(t, inventoryYAML)

	p, err := Compile("$..tags[1]")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	got := p.Select(root)
	if len(got) != 1 {
		t.Fatalf("Select() returned %d nodes", len(got))
	}

	acc := Accessor{}
	if !acc.CanResolvePointer() {
		t.Fatal("tree accessor cannot resolve pointers")
	}
	path, err := acc.Pointer(got[0])
	if err != nil {
		t.Fatalf("Pointer() error: %v", err)
	}
	if path != "$['items'][2]['tags'][1]" {
		t.Errorf("Pointer() = %q", path)
	}

	if _, err := acc.Pointer(nil); err == nil {
		t.Error("Pointer(nil) succeeded")
	}
}

func TestQueryThenEdit(t *testing.T) {
	root := mustParse(t, inventoryYAML)

	p, err := Compile("$.items[?@.qty < 20]")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	for _, item := range p.Select(root) {
		if _, err := item.Set("reorder", true); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}

	check, err := Compile("$.items[?@.reorder].name")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	var names []string
	for _, n := range check.Select(root) {
		names = append(names, n.Value().(string))
	}
	if len(names) != 2 || names[0] != "washer" || names[1] != "gasket" {
		t.Errorf("reorder names = %v", names)
	}
}

func TestDescriptorShared(t *testing.T) {
	if Descriptor() != Descriptor() {
		t.Error("Descriptor returned distinct descriptors")
	}
}
