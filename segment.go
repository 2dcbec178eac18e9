package treequery

import "iter"

// SelectorKind is a flag set describing a selector. Exactly one of the
// selector kinds is set per selector; KindDescendant and the singular bit
// combine with it.
type SelectorKind uint8

const (
	KindName SelectorKind = 1 << iota
	KindIndex
	KindSlice
	KindWildcard
	KindFilter
	// KindDescendant marks selectors belonging to a `..` segment.
	KindDescendant
	// kindSingular is derived from the other kind bits at construction and
	// never set directly.
	kindSingular
)

// sliceBounds holds a slice selector's parsed bounds. Absent start/end fall
// back to the full range for the sequence being selected.
type sliceBounds struct {
	start, end, step int
	hasStart, hasEnd bool
}

// Selector is a single matching rule within a segment. Immutable once created:
// the singular bit is fixed by the kind at construction.
type Selector struct {
	kind  SelectorKind
	text  string // raw source text: name, or filter expression body
	index int
	slice sliceBounds
}

func newSelector(kind SelectorKind, text string) *Selector {
	if kind&(KindName|KindIndex) != 0 && kind&KindDescendant == 0 {
		kind |= kindSingular
	}
	return &Selector{kind: kind, text: text}
}

func newIndexSelector(kind SelectorKind, idx int) *Selector {
	s := newSelector(kind|KindIndex, "")
	s.index = idx
	return s
}

func newSliceSelector(kind SelectorKind, b sliceBounds) *Selector {
	s := newSelector(kind|KindSlice, "")
	s.slice = b
	return s
}

// Kind returns the selector's flag set.
func (s *Selector) Kind() SelectorKind { return s.kind }

// Text returns the selector's raw source text: the member name for name
// selectors, the expression body for filter selectors.
func (s *Selector) Text() string { return s.text }

// Index returns the array index for index selectors.
func (s *Selector) Index() int { return s.index }

// Singular reports whether the selector can match at most one node.
func (s *Selector) Singular() bool { return s.kind&kindSingular != 0 }

// Segment is one step of a compiled path: one or more selectors linked to the
// next segment. Chains are built by prepending onto an existing chain and are
// immutable afterwards.
type Segment struct {
	selectors []*Selector
	next      *Segment
	singular  bool
	final     bool
}

// Final is the shared end-of-chain sentinel. It holds no selectors and is
// recognised by its terminal tag, not by pointer identity.
var Final = &Segment{final: true}

// Prepend returns a new segment wrapping sels that links to s.
func (s *Segment) Prepend(sels ...*Selector) *Segment {
	return &Segment{
		selectors: sels,
		next:      s,
		singular:  len(sels) == 1 && sels[0].Singular(),
	}
}

// IsFinal reports whether s is the end-of-chain sentinel.
func (s *Segment) IsFinal() bool { return s.final }

// Next returns the following segment, or the sentinel at the end of the chain.
func (s *Segment) Next() *Segment { return s.next }

// Selectors returns the segment's selectors. Callers must not modify the
// returned slice.
func (s *Segment) Selectors() []*Selector { return s.selectors }

// IsSingular reports whether the segment has exactly one selector and that
// selector can match at most one node.
func (s *Segment) IsSingular() bool { return s.singular }

// IsDescendant reports whether the segment applies its selectors to a node
// and all of its descendants.
func (s *Segment) IsDescendant() bool {
	return len(s.selectors) > 0 && s.selectors[0].kind&KindDescendant != 0
}

// IsNormalized reports whether every segment from s to the sentinel is
// singular, meaning the whole chain selects at most one node.
func (s *Segment) IsNormalized() bool {
	for seg := range s.All() {
		if !seg.singular {
			return false
		}
	}
	return true
}

// All walks the chain from s up to, but excluding, the sentinel. The sequence
// is finite and restartable.
func (s *Segment) All() iter.Seq[*Segment] {
	return func(yield func(*Segment) bool) {
		for seg := s; !seg.final; seg = seg.next {
			if !yield(seg) {
				return
			}
		}
	}
}
