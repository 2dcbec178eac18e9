package treequery

// ScalarKind identifies the canonical primitive kind of a Scalar.
type ScalarKind uint8

const (
	ScalarNull ScalarKind = iota
	ScalarBool
	ScalarNumber
	ScalarString
)

// Scalar is the canonical primitive value shared by every node
// representation. Accessors convert their native primitives into this union
// so that comparison semantics do not depend on internal numeric storage.
type Scalar struct {
	Kind ScalarKind
	Num  float64
	Str  string
	Bool bool
}

// Value returns the scalar's plain Go form: nil, bool, float64, or string.
func (s Scalar) Value() any {
	switch s.Kind {
	case ScalarBool:
		return s.Bool
	case ScalarNumber:
		return s.Num
	case ScalarString:
		return s.Str
	}
	return nil
}

func NullScalar() Scalar            { return Scalar{Kind: ScalarNull} }
func BoolScalar(b bool) Scalar      { return Scalar{Kind: ScalarBool, Bool: b} }
func NumberScalar(f float64) Scalar { return Scalar{Kind: ScalarNumber, Num: f} }
func StringScalar(s string) Scalar  { return Scalar{Kind: ScalarString, Str: s} }

type valueKind uint8

const (
	valueNothing valueKind = iota
	valueScalar
	valueNode
	valueList
)

// Value is the result of evaluating a filter operand: nothing, a scalar, a
// single node, or an ordered node-list. Values are produced fresh by
// evaluation, are immutable, and carry the descriptor whose comparer applies
// to their node payloads.
type Value[N any] struct {
	kind   valueKind
	scalar Scalar
	node   N
	list   []N
	d      *Descriptor[N]
}

func (d *Descriptor[N]) nothingValue() Value[N] {
	return Value[N]{kind: valueNothing, d: d}
}

func (d *Descriptor[N]) scalarValue(s Scalar) Value[N] {
	return Value[N]{kind: valueScalar, scalar: s, d: d}
}

func (d *Descriptor[N]) nodeValue(n N) Value[N] {
	return Value[N]{kind: valueNode, node: n, d: d}
}

func (d *Descriptor[N]) listValue(nodes []N) Value[N] {
	return Value[N]{kind: valueList, list: nodes, d: d}
}

// NothingValue returns the absent value. Custom extension functions return
// it when their input is incompatible.
func (d *Descriptor[N]) NothingValue() Value[N] { return d.nothingValue() }

// ScalarValue wraps a scalar as a filter value.
func (d *Descriptor[N]) ScalarValue(s Scalar) Value[N] { return d.scalarValue(s) }

// NodeValue wraps a single node as a filter value.
func (d *Descriptor[N]) NodeValue(n N) Value[N] { return d.nodeValue(n) }

// ListValue wraps an ordered node-list as a filter value.
func (d *Descriptor[N]) ListValue(nodes []N) Value[N] { return d.listValue(nodes) }

// IsNothing reports whether the value is absent.
func (v Value[N]) IsNothing() bool { return v.kind == valueNothing }

// Scalar returns the scalar payload. For single-node values it extracts the
// node's scalar through the accessor.
func (v Value[N]) Scalar() (Scalar, bool) {
	switch v.kind {
	case valueScalar:
		return v.scalar, true
	case valueNode:
		return v.d.acc.Scalar(v.node)
	default:
		return Scalar{}, false
	}
}

// Nodes returns the node payload as a list: a single-node value yields a
// one-element list, a node-list its nodes, anything else nil.
func (v Value[N]) Nodes() []N {
	switch v.kind {
	case valueNode:
		return []N{v.node}
	case valueList:
		return v.list
	default:
		return nil
	}
}

// Truthy reports the value's meaning as a standalone condition: null, false,
// zero, and the empty string are falsy; a present node is truthy; a node-list
// is truthy iff non-empty; nothing is falsy.
func (v Value[N]) Truthy() bool {
	switch v.kind {
	case valueScalar:
		switch v.scalar.Kind {
		case ScalarNull:
			return false
		case ScalarBool:
			return v.scalar.Bool
		case ScalarNumber:
			return v.scalar.Num != 0
		case ScalarString:
			return v.scalar.Str != ""
		}
		return false
	case valueNode:
		return true
	case valueList:
		return len(v.list) > 0
	default:
		return false
	}
}
