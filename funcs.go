package treequery

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// Func is an extension function instance: fixed arity, evaluated argument
// values in, one result value out. Functions must be pure with respect to the
// document; they never mutate nodes.
type Func[N any] struct {
	Name  string
	Arity int

	// MustNotCompare marks functions whose result is only meaningful as a
	// standalone truth value; using one as a comparison operand is a
	// parse-time error.
	MustNotCompare bool

	Call func(args []Value[N]) Value[N]
}

// FuncFactory produces a fresh function instance for one call site.
type FuncFactory[N any] func() *Func[N]

// FuncRegistry maps extension-function names to factories for one node
// representation. Registries are built once per descriptor, populated with
// the built-ins, and become read-only when the first filter is compiled;
// after that point concurrent reads need no synchronisation.
type FuncRegistry[N any] struct {
	m      map[string]FuncFactory[N]
	frozen atomic.Bool
}

func newFuncRegistry[N any](d *Descriptor[N]) *FuncRegistry[N] {
	r := &FuncRegistry[N]{m: make(map[string]FuncFactory[N])}
	r.m["length"] = func() *Func[N] { return lengthFunc(d) }
	r.m["count"] = func() *Func[N] { return countFunc(d) }
	r.m["match"] = func() *Func[N] { return regexFunc(d, "match", true) }
	r.m["search"] = func() *Func[N] { return regexFunc(d, "search", false) }
	r.m["value"] = func() *Func[N] { return valueFunc(d) }
	return r
}

func (r *FuncRegistry[N]) freeze() { r.frozen.Store(true) }

func (r *FuncRegistry[N]) register(name string, factory FuncFactory[N]) error {
	if r.frozen.Load() {
		return fmt.Errorf("%w: registry is read-only once parsing begins, cannot register %q", ErrFunction, name)
	}
	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: function %q is already registered", ErrFunction, name)
	}
	r.m[name] = factory
	return nil
}

// Resolve returns the factory registered under name.
func (r *FuncRegistry[N]) Resolve(name string) (FuncFactory[N], bool) {
	f, ok := r.m[name]
	return f, ok
}

// length returns the code-point count of a string scalar or the child count
// of a composite node; incompatible input yields nothing.
func lengthFunc[N any](d *Descriptor[N]) *Func[N] {
	return &Func[N]{
		Name:  "length",
		Arity: 1,
		Call: func(args []Value[N]) Value[N] {
			v := args[0]
			if v.kind == valueList {
				if len(v.list) != 1 {
					return d.nothingValue()
				}
				v = d.nodeValue(v.list[0])
			}
			if s, ok := v.Scalar(); ok {
				if s.Kind != ScalarString {
					return d.nothingValue()
				}
				return d.scalarValue(NumberScalar(float64(utf8.RuneCountInString(s.Str))))
			}
			if v.kind != valueNode {
				return d.nothingValue()
			}
			n := 0
			for range d.acc.Children(v.node) {
				n++
			}
			return d.scalarValue(NumberScalar(float64(n)))
		},
	}
}

// count returns the number of nodes in the argument list: one for a single
// node, zero when the query selected nothing.
func countFunc[N any](d *Descriptor[N]) *Func[N] {
	return &Func[N]{
		Name:  "count",
		Arity: 1,
		Call: func(args []Value[N]) Value[N] {
			switch args[0].kind {
			case valueList:
				return d.scalarValue(NumberScalar(float64(len(args[0].list))))
			case valueNode:
				return d.scalarValue(NumberScalar(1))
			case valueNothing:
				return d.scalarValue(NumberScalar(0))
			default:
				return d.nothingValue()
			}
		},
	}
}

// regexFunc implements match (whole-string) and search (substring). The
// pattern is translated from the path-query regex dialect before compiling;
// any non-string operand or invalid pattern yields false, never an error.
func regexFunc[N any](d *Descriptor[N], name string, anchored bool) *Func[N] {
	return &Func[N]{
		Name:           name,
		Arity:          2,
		MustNotCompare: true,
		Call: func(args []Value[N]) Value[N] {
			str, ok := stringArg(args[0])
			if !ok {
				return d.scalarValue(BoolScalar(false))
			}
			pat, ok := stringArg(args[1])
			if !ok {
				return d.scalarValue(BoolScalar(false))
			}
			pat = translateRegex(pat)
			if anchored {
				pat = "^(?:" + pat + ")$"
			}
			re, err := regexp.Compile(pat)
			if err != nil {
				return d.scalarValue(BoolScalar(false))
			}
			return d.scalarValue(BoolScalar(re.MatchString(str)))
		},
	}
}

// value unwraps a single node or singleton node-list to its scalar;
// multi-node and empty lists yield nothing.
func valueFunc[N any](d *Descriptor[N]) *Func[N] {
	return &Func[N]{
		Name:  "value",
		Arity: 1,
		Call: func(args []Value[N]) Value[N] {
			v := args[0]
			if v.kind == valueList {
				if len(v.list) != 1 {
					return d.nothingValue()
				}
				v = d.nodeValue(v.list[0])
			}
			if v.kind != valueNode {
				return d.nothingValue()
			}
			if s, ok := d.acc.Scalar(v.node); ok {
				return d.scalarValue(s)
			}
			return v
		},
	}
}

func stringArg[N any](v Value[N]) (string, bool) {
	s, ok := v.Scalar()
	if !ok || s.Kind != ScalarString {
		return "", false
	}
	return s.Str, true
}

// translateRegex converts the interchange regex dialect to the host dialect:
// an unescaped dot outside a character class matches any character except
// line terminators.
func translateRegex(pat string) string {
	var b strings.Builder
	inClass := false
	classStart := 0
	for i := 0; i < len(pat); i++ {
		c := pat[i]
		switch {
		case c == '\\' && i+1 < len(pat):
			b.WriteByte(c)
			b.WriteByte(pat[i+1])
			i++
		case c == '[' && !inClass:
			inClass = true
			classStart = i
			b.WriteByte(c)
		case c == ']' && inClass:
			// a ']' opening the class body ('[]' or '[^]') is a literal
			// member, not the terminator
			if i != classStart+1 && !(i == classStart+2 && pat[classStart+1] == '^') {
				inClass = false
			}
			b.WriteByte(c)
		case c == '.' && !inClass:
			b.WriteString(`[^\n\r]`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
