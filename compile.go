package treequery

import (
	"fmt"
	"strconv"
	"strings"
)

// segInfo is one parsed segment prior to chain assembly. Descendant segments
// carry the KindDescendant bit on every selector.
type segInfo struct {
	sels []*Selector
}

// parsePathSegments parses consecutive path segments of expr starting at i
// and stops at the first character that cannot begin a segment, returning the
// resume position. The top-level compiler requires full consumption; the
// filter parser resumes scanning from the returned position.
func parsePathSegments(expr string, i int) ([]segInfo, int, error) {
	var segs []segInfo
	for i < len(expr) {
		switch expr[i] {
		case '.':
			seg, next, err := parseDotSegment(expr, i)
			if err != nil {
				return nil, i, err
			}
			segs = append(segs, seg)
			i = next
		case '[':
			seg, next, err := parseBracketSegment(expr, i, false)
			if err != nil {
				return nil, i, err
			}
			segs = append(segs, seg)
			i = next
		default:
			return segs, i, nil
		}
	}
	return segs, i, nil
}

func parseDotSegment(expr string, i int) (segInfo, int, error) {
	descendant := false
	if i+1 < len(expr) && expr[i+1] == '.' { // descendant '..'
		descendant = true
		i += 2
	} else { // child '.'
		i++
	}

	if i >= len(expr) {
		return segInfo{}, i, fmt.Errorf("%w: path cannot end with '.' or '..'", ErrSyntax)
	}

	bits := SelectorKind(0)
	if descendant {
		bits = KindDescendant
	}

	switch {
	case expr[i] == '*':
		return segInfo{sels: []*Selector{newSelector(KindWildcard|bits, "*")}}, i + 1, nil

	case descendant && expr[i] == '[':
		return parseBracketSegment(expr, i, true)

	case isNameFirst(expr[i]):
		start := i
		for i < len(expr) && isNameByte(expr[i]) {
			i++
		}
		return segInfo{sels: []*Selector{newSelector(KindName|bits, expr[start:i])}}, i, nil
	}

	return segInfo{}, i, fmt.Errorf("%w: unexpected character %q after '.' at position %d", ErrSyntax, expr[i], i)
}

func parseBracketSegment(expr string, i int, descendant bool) (segInfo, int, error) {
	end := findMatchingBracket(expr, i)
	if end == -1 {
		return segInfo{}, i, fmt.Errorf("%w: unterminated bracket selector, missing ']' at position %d", ErrSyntax, i)
	}

	content := expr[i+1 : end]
	if strings.TrimSpace(content) == "" {
		return segInfo{}, i, fmt.Errorf("%w: empty bracket selector '[]' at position %d", ErrSyntax, i)
	}

	bits := SelectorKind(0)
	if descendant {
		bits = KindDescendant
	}

	var sels []*Selector
	for _, part := range splitSelectorList(content) {
		sel, err := parseBracketSelector(part, bits)
		if err != nil {
			return segInfo{}, i, err
		}
		sels = append(sels, sel)
	}
	if len(sels) == 0 {
		return segInfo{}, i, fmt.Errorf("%w: no selectors in bracket content %q", ErrSyntax, content)
	}
	return segInfo{sels: sels}, end + 1, nil
}

func parseBracketSelector(part string, bits SelectorKind) (*Selector, error) {
	p := strings.TrimSpace(part)
	if p == "" {
		return nil, fmt.Errorf("%w: empty part in union selector", ErrSyntax)
	}

	switch {
	case p == "*":
		return newSelector(KindWildcard|bits, "*"), nil

	case p[0] == '?':
		body := strings.TrimSpace(p[1:])
		if body == "" {
			return nil, fmt.Errorf("%w: empty filter expression", ErrSyntax)
		}
		return newSelector(KindFilter|bits, body), nil

	case p[0] == '\'' || p[0] == '"':
		name, err := unquoteName(p)
		if err != nil {
			return nil, err
		}
		return newSelector(KindName|bits, name), nil

	case sliceColonIndex(p) >= 0:
		b, err := parseSliceBounds(p)
		if err != nil {
			return nil, err
		}
		return newSliceSelector(bits, b), nil
	}

	idx, err := strconv.Atoi(p)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid bracket selector %q", ErrSyntax, p)
	}
	return newIndexSelector(bits, idx), nil
}

func unquoteName(p string) (string, error) {
	quote := p[0]
	if len(p) < 2 || p[len(p)-1] != quote {
		return "", fmt.Errorf("%w: unterminated quoted name %q", ErrSyntax, p)
	}
	body := p[1 : len(p)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); {
		if body[i] != '\\' {
			b.WriteByte(body[i])
			i++
			continue
		}
		r, n, err := decodeEscape(body[i:], quote)
		if err != nil {
			return "", fmt.Errorf("%w: %v in quoted name %q", ErrSyntax, err, p)
		}
		b.WriteRune(r)
		i += n
	}
	return b.String(), nil
}

// sliceColonIndex returns the position of the first top-level colon, or -1.
// Quoted names can contain colons, so a plain strings.Contains is not enough.
func sliceColonIndex(p string) int {
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case ':':
			return i
		case '\'', '"':
			return -1 // quoted names are handled before slices
		}
	}
	return -1
}

func parseSliceBounds(p string) (sliceBounds, error) {
	parts := strings.Split(p, ":")
	if len(parts) > 3 {
		return sliceBounds{}, fmt.Errorf("%w: too many colons in slice %q", ErrSyntax, p)
	}

	b := sliceBounds{step: 1}
	parseBound := func(s string, target *int, present *bool) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: slice bound %q in %q is not an integer", ErrSyntax, s, p)
		}
		*target = v
		if present != nil {
			*present = true
		}
		return nil
	}

	if err := parseBound(parts[0], &b.start, &b.hasStart); err != nil {
		return sliceBounds{}, err
	}
	if len(parts) > 1 {
		if err := parseBound(parts[1], &b.end, &b.hasEnd); err != nil {
			return sliceBounds{}, err
		}
	}
	if len(parts) == 3 {
		if err := parseBound(parts[2], &b.step, nil); err != nil {
			return sliceBounds{}, err
		}
		if b.step == 0 {
			return sliceBounds{}, fmt.Errorf("%w: slice step cannot be zero in %q", ErrSyntax, p)
		}
	}
	return b, nil
}

// splitSelectorList splits bracket content on top-level commas, respecting
// quoted strings and nested brackets and parentheses so filter expressions
// with function calls survive intact.
func splitSelectorList(content string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	var quote byte

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == '\\' && i+1 < len(content) {
				current.WriteByte(content[i+1])
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == '[' || c == '(':
			depth++
			current.WriteByte(c)
		case c == ']' || c == ')':
			depth--
			current.WriteByte(c)
		case c == ',' && depth == 0:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// findMatchingBracket finds the matching ']' for the '[' at start, skipping
// quoted strings.
func findMatchingBracket(expr string, start int) int {
	depth := 0
	var quote byte
	for i := start; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// buildChain assembles a segment chain by prepending onto the sentinel from
// the last parsed segment backwards.
func buildChain(segs []segInfo) *Segment {
	head := Final
	for i := len(segs) - 1; i >= 0; i-- {
		head = head.Prepend(segs[i].sels...)
	}
	return head
}

// compileChainFilters eagerly compiles every filter selector reachable from
// head so a malformed filter fails the whole path at compile time.
func compileChainFilters[N any](d *Descriptor[N], head *Segment) error {
	for seg := range head.All() {
		for _, sel := range seg.Selectors() {
			if sel.kind&KindFilter == 0 {
				continue
			}
			if _, err := d.predicate(sel.text); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNameFirst(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameByte(b byte) bool { return isNameFirst(b) || isDigit(b) }
