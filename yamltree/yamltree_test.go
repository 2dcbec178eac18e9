package yamltree

import (
	"strings"
	"testing"
)

const sampleYAML = `
store:
  book:
    - title: Sayings of the Century
      price: 8.95
    - title: Sword of Honour
      price: 12.99
  bicycle:
    color: red
    price: 399
`

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return n
}

func TestParsePreservesOrder(t *testing.T) {
	root := mustParse(t, "z: 1\na: 2\nm: 3\n")
	if root.Kind() != KindMapping {
		t.Fatalf("root kind = %v, want mapping", root.Kind())
	}
	var keys []string
	for c := range root.Children() {
		keys = append(keys, c.Key())
	}
	if strings.Join(keys, ",") != "z,a,m" {
		t.Errorf("keys = %v, want document order", keys)
	}
}

func TestParseError(t *testing.T) {
	if _, err := Parse([]byte("a: [1, 2")); err == nil {
		t.Error("Parse accepted malformed input")
	}
}

func TestNavigation(t *testing.T) {
	root := mustParse(t, sampleYAML)

	store, ok := root.Child("store")
	if !ok {
		t.Fatal("store not found")
	}
	book, ok := store.Child("book")
	if !ok || book.Kind() != KindSequence || book.Len() != 2 {
		t.Fatalf("book = %v (kind %v, len %d)", ok, book.Kind(), book.Len())
	}

	last, ok := book.Element(-1)
	if !ok {
		t.Fatal("Element(-1) failed")
	}
	title, ok := last.Child("title")
	if !ok || title.Value() != "Sword of Honour" {
		t.Errorf("last title = %v", title.Value())
	}

	if _, ok := book.Element(2); ok {
		t.Error("Element(2) succeeded on a two-element sequence")
	}
	if _, ok := book.Child("title"); ok {
		t.Error("Child succeeded on a sequence")
	}
}

func TestPath(t *testing.T) {
	root := mustParse(t, sampleYAML)

	if got := root.Path(); got != "$" {
		t.Errorf("root Path() = %q", got)
	}

	store, _ := root.Child("store")
	book, _ := store.Child("book")
	first, _ := book.Element(0)
	title, _ := first.Child("title")
	if got := title.Path(); got != "$['store']['book'][0]['title']" {
		t.Errorf("Path() = %q", got)
	}
}

func TestPathEscaping(t *testing.T) {
	root := FromValue(map[string]any{`it's\here`: 1})
	child, ok := root.Child(`it's\here`)
	if !ok {
		t.Fatal("child not found")
	}
	if got := child.Path(); got != `$['it\'s\\here']` {
		t.Errorf("Path() = %q", got)
	}
}

func TestSetReplaceAndAppend(t *testing.T) {
	root := mustParse(t, "a: 1\nb: 2\n")

	if _, err := root.Set("b", 20); err != nil {
		t.Fatalf("Set(b) error: %v", err)
	}
	if _, err := root.Set("c", []any{"x"}); err != nil {
		t.Fatalf("Set(c) error: %v", err)
	}

	var keys []string
	for c := range root.Children() {
		keys = append(keys, c.Key())
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("keys after edit = %v", keys)
	}

	b, _ := root.Child("b")
	if b.Value() != 20 {
		t.Errorf("b = %v, want 20", b.Value())
	}

	c, _ := root.Child("c")
	elem, err := c.Append("y")
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if elem.Index() != 1 || elem.Parent() != c {
		t.Errorf("appended element index %d parent %v", elem.Index(), elem.Parent())
	}

	scalar, _ := root.Child("a")
	if _, err := scalar.Set("x", 1); err == nil {
		t.Error("Set on a scalar succeeded")
	}
	if _, err := scalar.Append(1); err == nil {
		t.Error("Append on a scalar succeeded")
	}
}

func TestRemove(t *testing.T) {
	root := mustParse(t, "a: 1\nb: 2\n")
	if !root.Remove("a") {
		t.Fatal("Remove(a) failed")
	}
	if root.Remove("a") {
		t.Error("Remove(a) succeeded twice")
	}
	if _, ok := root.Child("a"); ok {
		t.Error("a still present after removal")
	}
}

func TestRemoveAtReindexes(t *testing.T) {
	root := FromValue([]any{"a", "b", "c"})
	if !root.RemoveAt(1) {
		t.Fatal("RemoveAt(1) failed")
	}
	if root.Len() != 2 {
		t.Fatalf("Len() = %d after removal", root.Len())
	}
	for i := 0; i < root.Len(); i++ {
		e, _ := root.Element(i)
		if e.Index() != i {
			t.Errorf("element %d has index %d", i, e.Index())
		}
	}
	last, _ := root.Element(1)
	if last.Value() != "c" || last.Path() != "$[1]" {
		t.Errorf("last = %v at %s", last.Value(), last.Path())
	}

	if root.RemoveAt(5) {
		t.Error("RemoveAt(5) succeeded out of range")
	}
}

func TestSetValue(t *testing.T) {
	root := mustParse(t, "a: 1\n")
	a, _ := root.Child("a")
	if err := a.SetValue("changed"); err != nil {
		t.Fatalf("SetValue() error: %v", err)
	}
	if a.Value() != "changed" {
		t.Errorf("Value() = %v", a.Value())
	}
	if err := root.SetValue(1); err == nil {
		t.Error("SetValue on a mapping succeeded")
	}
}

func TestRoundTrip(t *testing.T) {
	root := mustParse(t, sampleYAML)

	bicycle, _ := root.Child("store")
	bicycle, _ = bicycle.Child("bicycle")
	if _, err := bicycle.Set("color", "blue"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, err := root.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	reparsed := mustParse(t, string(data))
	if !(Accessor{}).DeepEqual(root, reparsed) {
		t.Errorf("round-trip changed the document:\n%s", data)
	}
	color, _ := reparsed.Child("store")
	color, _ = color.Child("bicycle")
	color, _ = color.Child("color")
	if color.Value() != "blue" {
		t.Errorf("edited value lost in round-trip: %v", color.Value())
	}
}

func TestKindString(t *testing.T) {
	if KindScalar.String() != "scalar" || KindMapping.String() != "mapping" || KindSequence.String() != "sequence" {
		t.Error("Kind.String() mismatch")
	}
}
