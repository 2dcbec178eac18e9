package yamltree

import (
	"fmt"
	"iter"
	"sync"

	"github.com/kverzel/treequery"
)

// Accessor adapts the editable tree to the engine's node representation
// contract. Equality and scalar extraction agree with the JSON view: numbers
// compare by canonical value regardless of how either tree stores them.
type Accessor struct{}

func (Accessor) Child(n *Node, key string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	return n.Child(key)
}

func (Accessor) Element(n *Node, idx int) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	return n.Element(idx)
}

func (Accessor) Children(n *Node) iter.Seq2[treequery.Step, *Node] {
	return func(yield func(treequery.Step, *Node) bool) {
		if n == nil {
			return
		}
		for _, c := range n.children {
			var step treequery.Step
			if n.kind == KindSequence {
				step = treequery.Step{Index: c.index, IsIndex: true}
			} else {
				step = treequery.Step{Key: c.key}
			}
			if !yield(step, c) {
				return
			}
		}
	}
}

func (Accessor) Scalar(n *Node) (treequery.Scalar, bool) {
	if n == nil || n.kind != KindScalar {
		return treequery.Scalar{}, false
	}
	switch v := n.value.(type) {
	case nil:
		return treequery.NullScalar(), true
	case bool:
		return treequery.BoolScalar(v), true
	case string:
		return treequery.StringScalar(v), true
	case int:
		return treequery.NumberScalar(float64(v)), true
	case int64:
		return treequery.NumberScalar(float64(v)), true
	case uint64:
		return treequery.NumberScalar(float64(v)), true
	case float64:
		return treequery.NumberScalar(v), true
	}
	return treequery.Scalar{}, false
}

// DeepEqual reports structural equality: mappings compare as unordered key
// sets, sequences positionally, scalar leaves by the engine's canonical
// scalar rules.
func (a Accessor) DeepEqual(x, y *Node) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.kind != y.kind || len(x.children) != len(y.children) {
		return false
	}
	switch x.kind {
	case KindMapping:
		for _, xc := range x.children {
			yc, ok := y.Child(xc.key)
			if !ok || !a.DeepEqual(xc, yc) {
				return false
			}
		}
		return true
	case KindSequence:
		for i := range x.children {
			if !a.DeepEqual(x.children[i], y.children[i]) {
				return false
			}
		}
		return true
	default:
		sx, okx := a.Scalar(x)
		sy, oky := a.Scalar(y)
		return okx && oky && treequery.CompareScalars(sx, sy) == 0
	}
}

func (Accessor) CanResolvePointer() bool { return true }

func (Accessor) Pointer(n *Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("yamltree: no location for a nil node")
	}
	return n.Path(), nil
}

var descriptor = sync.OnceValue(func() *treequery.Descriptor[*Node] {
	return treequery.New[*Node](Accessor{})
})

// Descriptor returns the process-wide descriptor for the editable tree.
func Descriptor() *treequery.Descriptor[*Node] { return descriptor() }

// Compile compiles a path against the shared editable-tree descriptor.
func Compile(expr string) (*treequery.Path[*Node], error) {
	return treequery.Compile(Descriptor(), expr)
}
