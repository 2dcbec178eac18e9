package yamltree

// Package yamltree provides a mutable, ordered document tree parsed from
// YAML, with parent links so every node can resolve its canonical location
// path. It is the editable counterpart to the engine's read-only JSON view.

import (
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Kind identifies a node's shape.
type Kind uint8

const (
	KindScalar Kind = iota
	KindMapping
	KindSequence
)

// Node is one node of an editable document tree. Mapping entries keep their
// document order; scalar payloads hold the decoded Go value.
type Node struct {
	kind     Kind
	parent   *Node
	key      string
	index    int
	children []*Node
	value    any
}

// Parse decodes a YAML document into an editable tree, preserving mapping
// order.
func Parse(data []byte) (*Node, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("yamltree: parsing document: %w", err)
	}
	return FromValue(v), nil
}

// FromValue builds a tree from plain Go values: yaml.MapSlice or
// map[string]any become mappings, slices become sequences, everything else a
// scalar leaf.
func FromValue(v any) *Node {
	switch val := v.(type) {
	case yaml.MapSlice:
		n := &Node{kind: KindMapping}
		for _, item := range val {
			child := FromValue(item.Value)
			child.parent = n
			child.key = fmt.Sprint(item.Key)
			n.children = append(n.children, child)
		}
		return n
	case map[string]any:
		n := &Node{kind: KindMapping}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := FromValue(val[k])
			child.parent = n
			child.key = k
			n.children = append(n.children, child)
		}
		return n
	case []any:
		n := &Node{kind: KindSequence}
		for i, e := range val {
			child := FromValue(e)
			child.parent = n
			child.index = i
			n.children = append(n.children, child)
		}
		return n
	default:
		return &Node{kind: KindScalar, value: v}
	}
}

// Kind returns the node's shape.
func (n *Node) Kind() Kind { return n.kind }

// Parent returns the enclosing node, or nil for the document root.
func (n *Node) Parent() *Node { return n.parent }

// Key returns the mapping key under which the node is stored.
func (n *Node) Key() string { return n.key }

// Index returns the node's position within its enclosing sequence.
func (n *Node) Index() int { return n.index }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Value returns the scalar payload; nil for composite nodes and null scalars.
func (n *Node) Value() any {
	if n.kind != KindScalar {
		return nil
	}
	return n.value
}

// Child returns the mapping entry stored under key.
func (n *Node) Child(key string) (*Node, bool) {
	if n.kind != KindMapping {
		return nil, false
	}
	for _, c := range n.children {
		if c.key == key {
			return c, true
		}
	}
	return nil, false
}

// Element returns the sequence element at idx; negative indices count from
// the end.
func (n *Node) Element(idx int) (*Node, bool) {
	if n.kind != KindSequence {
		return nil, false
	}
	if idx < 0 {
		idx += len(n.children)
	}
	if idx < 0 || idx >= len(n.children) {
		return nil, false
	}
	return n.children[idx], true
}

// Children walks the node's children in document order.
func (n *Node) Children() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.children {
			if !yield(c) {
				return
			}
		}
	}
}

// Set stores v under key in a mapping, replacing an existing entry in place
// or appending a new one, and returns the new child.
func (n *Node) Set(key string, v any) (*Node, error) {
	if n.kind != KindMapping {
		return nil, fmt.Errorf("yamltree: cannot set key %q on a %s node", key, n.kind)
	}
	child := FromValue(v)
	child.parent = n
	child.key = key
	for i, c := range n.children {
		if c.key == key {
			n.children[i] = child
			return child, nil
		}
	}
	n.children = append(n.children, child)
	return child, nil
}

// Append adds v to the end of a sequence and returns the new element.
func (n *Node) Append(v any) (*Node, error) {
	if n.kind != KindSequence {
		return nil, fmt.Errorf("yamltree: cannot append to a %s node", n.kind)
	}
	child := FromValue(v)
	child.parent = n
	child.index = len(n.children)
	n.children = append(n.children, child)
	return child, nil
}

// Remove deletes the mapping entry stored under key.
func (n *Node) Remove(key string) bool {
	if n.kind != KindMapping {
		return false
	}
	for i, c := range n.children {
		if c.key == key {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return true
		}
	}
	return false
}

// RemoveAt deletes the sequence element at idx and reindexes the remainder.
func (n *Node) RemoveAt(idx int) bool {
	if n.kind != KindSequence || idx < 0 || idx >= len(n.children) {
		return false
	}
	removed := n.children[idx]
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	removed.parent = nil
	for i := idx; i < len(n.children); i++ {
		n.children[i].index = i
	}
	return true
}

// SetValue replaces a scalar node's payload.
func (n *Node) SetValue(v any) error {
	if n.kind != KindScalar {
		return fmt.Errorf("yamltree: cannot set scalar value on a %s node", n.kind)
	}
	n.value = v
	return nil
}

// Path returns the node's canonical location path in normalized bracket
// form, e.g. $['store']['book'][0].
func (n *Node) Path() string {
	if n.parent == nil {
		return "$"
	}
	var parts []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		if cur.parent.kind == KindSequence {
			parts = append(parts, "["+strconv.Itoa(cur.index)+"]")
		} else {
			parts = append(parts, "['"+escapeName(cur.key)+"']")
		}
	}
	var b strings.Builder
	b.WriteByte('$')
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String()
}

func escapeName(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// ToValue reconstructs plain Go values from the tree, preserving mapping
// order via yaml.MapSlice.
func (n *Node) ToValue() any {
	switch n.kind {
	case KindMapping:
		out := make(yaml.MapSlice, 0, len(n.children))
		for _, c := range n.children {
			out = append(out, yaml.MapItem{Key: c.key, Value: c.ToValue()})
		}
		return out
	case KindSequence:
		out := make([]any, 0, len(n.children))
		for _, c := range n.children {
			out = append(out, c.ToValue())
		}
		return out
	default:
		return n.value
	}
}

// Bytes serialises the tree back to YAML.
func (n *Node) Bytes() ([]byte, error) {
	data, err := yaml.Marshal(n.ToValue())
	if err != nil {
		return nil, fmt.Errorf("yamltree: encoding document: %w", err)
	}
	return data, nil
}

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return "unknown"
}
