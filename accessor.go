package treequery

import (
	"iter"
	"sync"
)

// Step identifies a child's position under its parent during enumeration.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Accessor is the capability contract a tree-node type must satisfy for the
// engine to query it. Implementations must be stateless or safe for
// concurrent use; the engine never mutates nodes through an accessor.
//
// Equality and scalar extraction must agree across representations of the
// same document: two accessors viewing `{"a": 1}` must extract equal scalars
// and report deep equality the same way regardless of how numbers are stored
// internally.
type Accessor[N any] interface {
	// Child returns the member of an object-like node by key.
	Child(n N, key string) (N, bool)

	// Element returns the element of a sequence-like node by index.
	// Negative indices count from the end.
	Element(n N, idx int) (N, bool)

	// Children enumerates a node's members or elements in document order as a
	// lazy, restartable sequence. Scalar nodes yield nothing.
	Children(n N) iter.Seq2[Step, N]

	// Scalar converts a node holding a primitive into the canonical scalar
	// union. It reports false for composite nodes.
	Scalar(n N) (Scalar, bool)

	// DeepEqual reports structural equality between two nodes, independent of
	// representation-specific identity.
	DeepEqual(a, b N) bool

	// CanResolvePointer reports whether Pointer is supported.
	CanResolvePointer() bool

	// Pointer returns a canonical location path for a node, or an error
	// wrapping ErrUnsupported when the representation cannot resolve one.
	Pointer(n N) (string, error)
}

// Descriptor bundles the accessor, comparer, compiled-filter cache, and
// function registry for one concrete node representation. Construct one per
// representation with New and reuse it for every query; all sub-components
// are lazily initialised on first use and immutable afterwards, so a
// descriptor is safe for concurrent use once construction completes.
type Descriptor[N any] struct {
	acc Accessor[N]

	funcsOnce sync.Once
	funcs     *FuncRegistry[N]

	// filters caches compiled filter predicates by expression source.
	filters sync.Map // string -> Predicate[N]
}

// New constructs a descriptor for the given accessor. Custom functions must
// be registered before the first path is compiled against the descriptor.
func New[N any](acc Accessor[N]) *Descriptor[N] {
	return &Descriptor[N]{acc: acc}
}

// Accessor returns the node representation bound to the descriptor.
func (d *Descriptor[N]) Accessor() Accessor[N] { return d.acc }

// Funcs returns the descriptor's function registry, creating it with the
// built-in functions on first use.
func (d *Descriptor[N]) Funcs() *FuncRegistry[N] {
	d.funcsOnce.Do(func() {
		d.funcs = newFuncRegistry(d)
	})
	return d.funcs
}

// Register adds a custom extension function factory to the descriptor's
// registry. It fails if a path has already been compiled against the
// descriptor, since registries are read-only once parsing begins.
func (d *Descriptor[N]) Register(name string, factory FuncFactory[N]) error {
	return d.Funcs().register(name, factory)
}

// predicate returns the compiled predicate for a filter expression source,
// compiling and caching it on first use. Concurrent first use settles on a
// single canonical predicate via LoadOrStore.
func (d *Descriptor[N]) predicate(src string) (Predicate[N], error) {
	if p, ok := d.filters.Load(src); ok {
		return p.(Predicate[N]), nil
	}
	d.Funcs().freeze()
	p, err := parseFilter(d, src)
	if err != nil {
		return nil, err
	}
	actual, _ := d.filters.LoadOrStore(src, p)
	return actual.(Predicate[N]), nil
}

// compiledPredicate returns a previously compiled predicate, or nil. The path
// compiler compiles every filter selector eagerly, so traversal only ever
// sees cache hits.
func (d *Descriptor[N]) compiledPredicate(src string) Predicate[N] {
	if p, ok := d.filters.Load(src); ok {
		return p.(Predicate[N])
	}
	return nil
}
