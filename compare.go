package treequery

import (
	"math"
	"strings"
)

// numericTolerance is the absolute difference below which two numbers
// compare equal.
const numericTolerance = 1e-6

// comparand pairs one comparison operand's payload with the accessor needed
// to extract scalars from its nodes. It lives only for the duration of one
// comparison: a single node normalises to its extracted scalar, a composite
// node to a one-element list, and nothing to an empty list, so dispatch only
// ever sees scalars and lists.
type comparand[N any] struct {
	isList bool
	scalar Scalar
	list   []N
}

func newComparand[N any](acc Accessor[N], v Value[N]) comparand[N] {
	switch v.kind {
	case valueScalar:
		return comparand[N]{scalar: v.scalar}
	case valueNode:
		if s, ok := acc.Scalar(v.node); ok {
			return comparand[N]{scalar: s}
		}
		return comparand[N]{isList: true, list: []N{v.node}}
	case valueList:
		return comparand[N]{isList: true, list: v.list}
	default:
		return comparand[N]{isList: true}
	}
}

// compareValues implements the engine's three-way comparison: -1, 0, or +1.
// The lessThan flag marks comparisons feeding the `<` and `<=` operators,
// whose result is normalised for set operands (see compareListScalar). The
// flag is deliberately not applied for `>` and `>=`; tests pin the resulting
// asymmetry rather than correcting it.
func compareValues[N any](acc Accessor[N], left, right Value[N], lessThan bool) int {
	l := newComparand(acc, left)
	r := newComparand(acc, right)

	switch {
	case l.isList && r.isList:
		return compareLists(acc, l.list, r.list)
	case l.isList:
		return compareListScalar(acc, l.list, r.scalar, true, lessThan)
	case r.isList:
		return compareListScalar(acc, r.list, l.scalar, false, lessThan)
	default:
		return compareScalars(l.scalar, r.scalar)
	}
}

// compareLists walks both lists in lock-step. The longer list is greater;
// left exhaustion is checked first. Any pair that is not deep-equal makes the
// lists unequal with no further ordering meaning.
func compareLists[N any](acc Accessor[N], a, b []N) int {
	for i := 0; ; i++ {
		if i >= len(a) {
			if i >= len(b) {
				return 0
			}
			return -1
		}
		if i >= len(b) {
			return 1
		}
		if !acc.DeepEqual(a[i], b[i]) {
			return -1
		}
	}
}

// compareListScalar implements the existence comparison between a node-list
// and a scalar. Every item counts towards nodeCount; items that cannot yield
// a scalar are skipped for comparison. A comparison of 0 wins immediately,
// otherwise the last computed comparison stands. Unless the list held exactly
// one node the result is forced to -1, and for lessThan comparisons negated
// so ordering operators evaluate false for set operands on either side.
func compareListScalar[N any](acc Accessor[N], list []N, s Scalar, listOnLeft, lessThan bool) int {
	res := -1
	nodeCount := 0
	for _, n := range list {
		nodeCount++
		sc, ok := acc.Scalar(n)
		if !ok {
			continue
		}
		var c int
		if listOnLeft {
			c = compareScalars(sc, s)
		} else {
			c = compareScalars(s, sc)
		}
		if c == 0 {
			return 0
		}
		res = c
	}
	if nodeCount != 1 {
		res = -1
		if lessThan {
			res = -res
		}
	}
	return res
}

// compareScalars compares two canonical scalars. Nulls equal only each other;
// strings compare by ordinal code-point order, booleans false<true, numbers
// within numericTolerance. Any kind mismatch, including null against
// non-null, is unequal with the left operand conventionally "less".
func compareScalars(a, b Scalar) int {
	if a.Kind == ScalarNull && b.Kind == ScalarNull {
		return 0
	}
	if a.Kind != b.Kind {
		return -1
	}
	switch a.Kind {
	case ScalarString:
		return strings.Compare(a.Str, b.Str)
	case ScalarBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	case ScalarNumber:
		if math.Abs(a.Num-b.Num) < numericTolerance {
			return 0
		}
		if a.Num < b.Num {
			return -1
		}
		return 1
	}
	return -1
}

// Named comparison entry points consumed by compiled filter predicates.

func (d *Descriptor[N]) equals(l, r Value[N]) bool {
	return compareValues(d.acc, l, r, false) == 0
}

func (d *Descriptor[N]) notEquals(l, r Value[N]) bool {
	return compareValues(d.acc, l, r, false) != 0
}

func (d *Descriptor[N]) lessThan(l, r Value[N]) bool {
	return compareValues(d.acc, l, r, true) < 0
}

func (d *Descriptor[N]) lessOrEqual(l, r Value[N]) bool {
	return compareValues(d.acc, l, r, true) <= 0
}

func (d *Descriptor[N]) greaterThan(l, r Value[N]) bool {
	return compareValues(d.acc, l, r, false) > 0
}

func (d *Descriptor[N]) greaterOrEqual(l, r Value[N]) bool {
	return compareValues(d.acc, l, r, false) >= 0
}

// CompareScalars exposes the scalar comparison rules to node representations
// so deep equality over scalar leaves matches the engine's semantics.
func CompareScalars(a, b Scalar) int { return compareScalars(a, b) }
