package treequery

import "fmt"

// Path is a compiled query bound to one descriptor. Paths are immutable and
// safe for concurrent use.
type Path[N any] struct {
	d    *Descriptor[N]
	head *Segment
	expr string
}

// Compile parses expr into a path for the descriptor's node representation.
// The whole path, including every embedded filter expression, is validated
// here; Select never fails.
func Compile[N any](d *Descriptor[N], expr string) (*Path[N], error) {
	if expr == "" || expr[0] != '$' {
		return nil, fmt.Errorf("%w: path must start with '$'", ErrSyntax)
	}
	segs, i, err := parsePathSegments(expr, 1)
	if err != nil {
		return nil, err
	}
	if i != len(expr) {
		return nil, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, expr[i:], i)
	}
	head := buildChain(segs)
	if err := compileChainFilters(d, head); err != nil {
		return nil, err
	}
	return &Path[N]{d: d, head: head, expr: expr}, nil
}

// String returns the source expression the path was compiled from.
func (p *Path[N]) String() string { return p.expr }

// Segments returns the head of the compiled segment chain.
func (p *Path[N]) Segments() *Segment { return p.head }

// IsSingular reports whether the path selects at most one node.
func (p *Path[N]) IsSingular() bool { return p.head.IsNormalized() }

// Select evaluates the path against a document root and returns the matched
// nodes in document order.
func (p *Path[N]) Select(root N) []N {
	if p.head.IsNormalized() {
		if n, ok := p.d.selectNormalized(p.head, root); ok {
			return []N{n}
		}
		return nil
	}
	return p.d.selectSegments(p.head, root, root)
}

// SelectValues evaluates the path and returns the matched nodes as plain Go
// values: nodes holding a primitive convert to their canonical form (nil,
// bool, float64, string), composite nodes are returned as-is. For the JSON
// view this flattens json.Number storage to float64.
func (p *Path[N]) SelectValues(root N) []any {
	nodes := p.Select(root)
	if nodes == nil {
		return nil
	}
	out := make([]any, len(nodes))
	for i, n := range nodes {
		if s, ok := p.d.acc.Scalar(n); ok {
			out[i] = s.Value()
		} else {
			out[i] = n
		}
	}
	return out
}

// selectNormalized short-circuits a normalized chain: every segment is
// singular, so the walk follows at most one node per step.
func (d *Descriptor[N]) selectNormalized(head *Segment, start N) (N, bool) {
	cur := start
	for seg := range head.All() {
		sel := seg.selectors[0]
		var (
			next N
			ok   bool
		)
		switch {
		case sel.kind&KindName != 0:
			next, ok = d.acc.Child(cur, sel.text)
		case sel.kind&KindIndex != 0:
			next, ok = d.acc.Element(cur, sel.index)
		}
		if !ok {
			var zero N
			return zero, false
		}
		cur = next
	}
	return cur, true
}

// selectSegments applies the chain segment by segment to a growing node set.
// Filter predicates evaluate against the query's root document.
func (d *Descriptor[N]) selectSegments(head *Segment, root N, start N) []N {
	nodes := []N{start}
	for seg := range head.All() {
		var next []N
		for _, n := range nodes {
			if seg.IsDescendant() {
				d.applyDescendant(seg, root, n, &next)
			} else {
				d.applySelectors(seg, root, n, &next)
			}
		}
		nodes = next
		if len(nodes) == 0 {
			break
		}
	}
	return nodes
}

func (d *Descriptor[N]) applyDescendant(seg *Segment, root N, n N, out *[]N) {
	d.applySelectors(seg, root, n, out)
	for _, child := range d.childNodes(n) {
		d.applyDescendant(seg, root, child, out)
	}
}

func (d *Descriptor[N]) applySelectors(seg *Segment, root N, parent N, out *[]N) {
	for _, sel := range seg.selectors {
		switch {
		case sel.kind&KindName != 0:
			if child, ok := d.acc.Child(parent, sel.text); ok {
				*out = append(*out, child)
			}

		case sel.kind&KindIndex != 0:
			if child, ok := d.acc.Element(parent, sel.index); ok {
				*out = append(*out, child)
			}

		case sel.kind&KindWildcard != 0:
			*out = append(*out, d.childNodes(parent)...)

		case sel.kind&KindSlice != 0:
			d.applySlice(sel.slice, parent, out)

		case sel.kind&KindFilter != 0:
			pred := d.compiledPredicate(sel.text)
			if pred == nil {
				continue
			}
			for _, child := range d.childNodes(parent) {
				if pred(root, child) {
					*out = append(*out, child)
				}
			}
		}
	}
}

// applySlice collects sequence elements and applies the normalized slice
// bounds. Only sequence children participate; object members are skipped.
func (d *Descriptor[N]) applySlice(b sliceBounds, parent N, out *[]N) {
	var elems []N
	for step, child := range d.acc.Children(parent) {
		if !step.IsIndex {
			return // not a sequence
		}
		elems = append(elems, child)
	}

	start, end := sliceRange(b, len(elems))
	if b.step > 0 {
		for i := start; i < end; i += b.step {
			*out = append(*out, elems[i])
		}
	} else {
		for i := start; i > end; i += b.step {
			*out = append(*out, elems[i])
		}
	}
}

// sliceRange normalizes slice bounds against a sequence length, with
// negative indices counting from the end.
func sliceRange(b sliceBounds, length int) (int, int) {
	normalize := func(v int) int {
		if v < 0 {
			return length + v
		}
		return v
	}

	if b.step > 0 {
		start, end := 0, length
		if b.hasStart {
			start = min(max(normalize(b.start), 0), length)
		}
		if b.hasEnd {
			end = min(max(normalize(b.end), 0), length)
		}
		return start, end
	}

	start, end := length-1, -1
	if b.hasStart {
		start = min(max(normalize(b.start), -1), length-1)
	}
	if b.hasEnd {
		end = min(max(normalize(b.end), -1), length-1)
	}
	return start, end
}

func (d *Descriptor[N]) childNodes(n N) []N {
	var out []N
	for _, child := range d.acc.Children(n) {
		out = append(out, child)
	}
	return out
}
