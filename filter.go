package treequery

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Predicate is a compiled filter expression. It is bound at parse time, holds
// no per-evaluation state, and is safe to invoke concurrently: evaluation
// gates a candidate node against the filter's root document.
type Predicate[N any] func(root, current N) bool

// operand is a compiled filter operand: literal, embedded query, or function
// call. funcName and mustNotCompare carry the parse-time facts needed to
// reject boolean-producing functions in comparison positions.
type operand[N any] struct {
	eval           func(root, current N) Value[N]
	funcName       string
	mustNotCompare bool
}

type filterParser[N any] struct {
	d   *Descriptor[N]
	src string
	pos int
}

// parseFilter compiles a filter expression source into a predicate. All
// failures are parse-time: malformed syntax, unknown functions, arity
// mismatches, and misused boolean functions abort compilation with the
// offending position; evaluation itself never fails.
func parseFilter[N any](d *Descriptor[N], src string) (Predicate[N], error) {
	p := &filterParser[N]{d: d, src: src}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: unexpected %q at position %d in filter %q", ErrSyntax, p.src[p.pos:], p.pos, src)
	}
	return pred, nil
}

func (p *filterParser[N]) parseOr() (Predicate[N], error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	parts := []Predicate[N]{first}
	for p.consumeOperator("||") {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return first, nil
	}
	return func(root, current N) bool {
		for _, part := range parts {
			if part(root, current) {
				return true
			}
		}
		return false
	}, nil
}

func (p *filterParser[N]) parseAnd() (Predicate[N], error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	parts := []Predicate[N]{first}
	for p.consumeOperator("&&") {
		next, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return first, nil
	}
	return func(root, current N) bool {
		for _, part := range parts {
			if !part(root, current) {
				return false
			}
		}
		return true
	}, nil
}

func (p *filterParser[N]) parseUnary() (Predicate[N], error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("%w: unexpected end of filter expression", ErrSyntax)
	}

	switch p.src[p.pos] {
	case '!':
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(root, current N) bool { return !inner(root, current) }, nil

	case '(':
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, fmt.Errorf("%w: missing ')' at position %d in filter %q", ErrSyntax, p.pos, p.src)
		}
		p.pos++
		return inner, nil
	}

	return p.parseComparisonOrOperand()
}

func (p *filterParser[N]) parseComparisonOrOperand() (Predicate[N], error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	op, ok := p.consumeCompareOp()
	if !ok {
		// Bare operand: evaluate as a standalone truth value.
		return func(root, current N) bool { return lhs.eval(root, current).Truthy() }, nil
	}

	if lhs.mustNotCompare {
		return nil, fmt.Errorf("%w: result of %q is a truth value and cannot be compared", ErrFunction, lhs.funcName)
	}
	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if rhs.mustNotCompare {
		return nil, fmt.Errorf("%w: result of %q is a truth value and cannot be compared", ErrFunction, rhs.funcName)
	}

	var cmp func(l, r Value[N]) bool
	switch op {
	case "==":
		cmp = p.d.equals
	case "!=":
		cmp = p.d.notEquals
	case "<":
		cmp = p.d.lessThan
	case "<=":
		cmp = p.d.lessOrEqual
	case ">":
		cmp = p.d.greaterThan
	case ">=":
		cmp = p.d.greaterOrEqual
	}
	return func(root, current N) bool {
		return cmp(lhs.eval(root, current), rhs.eval(root, current))
	}, nil
}

func (p *filterParser[N]) parseOperand() (operand[N], error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return operand[N]{}, fmt.Errorf("%w: missing operand at end of filter expression", ErrSyntax)
	}

	c := p.src[p.pos]
	switch {
	case c == '\'' || c == '"':
		s, err := p.parseStringLiteral()
		if err != nil {
			return operand[N]{}, err
		}
		return p.literal(StringScalar(s)), nil

	case c == '-' || isDigit(c):
		f, err := p.parseNumberLiteral()
		if err != nil {
			return operand[N]{}, err
		}
		return p.literal(NumberScalar(f)), nil

	case c == '@':
		p.pos++
		return p.parseQueryOperand(false)

	case c == '$':
		p.pos++
		return p.parseQueryOperand(true)

	case isNameFirst(c):
		return p.parseNamedOperand()
	}

	return operand[N]{}, fmt.Errorf("%w: unexpected character %q at position %d in filter %q", ErrSyntax, c, p.pos, p.src)
}

func (p *filterParser[N]) literal(s Scalar) operand[N] {
	d := p.d
	return operand[N]{eval: func(N, N) Value[N] { return d.scalarValue(s) }}
}

// parseNamedOperand handles the keyword literals and function calls.
func (p *filterParser[N]) parseNamedOperand() (operand[N], error) {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]

	switch name {
	case "true":
		return p.literal(BoolScalar(true)), nil
	case "false":
		return p.literal(BoolScalar(false)), nil
	case "null":
		return p.literal(NullScalar()), nil
	}

	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return operand[N]{}, fmt.Errorf("%w: unexpected identifier %q at position %d in filter %q", ErrSyntax, name, start, p.src)
	}
	return p.parseCall(name, start)
}

func (p *filterParser[N]) parseCall(name string, namePos int) (operand[N], error) {
	factory, ok := p.d.Funcs().Resolve(name)
	if !ok {
		return operand[N]{}, fmt.Errorf("%w: unknown function %q at position %d", ErrFunction, name, namePos)
	}
	fn := factory()

	p.pos++ // consume '('
	var args []operand[N]
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
	} else {
		for {
			arg, err := p.parseOperand()
			if err != nil {
				return operand[N]{}, err
			}
			if arg.mustNotCompare {
				return operand[N]{}, fmt.Errorf("%w: result of %q is a truth value and cannot be a function argument", ErrFunction, arg.funcName)
			}
			args = append(args, arg)
			p.skipSpace()
			if p.pos < len(p.src) && p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.pos < len(p.src) && p.src[p.pos] == ')' {
				p.pos++
				break
			}
			return operand[N]{}, fmt.Errorf("%w: expected ',' or ')' at position %d in filter %q", ErrSyntax, p.pos, p.src)
		}
	}

	if len(args) != fn.Arity {
		return operand[N]{}, fmt.Errorf("%w: %q takes %d argument(s), got %d", ErrFunction, name, fn.Arity, len(args))
	}

	evals := make([]func(root, current N) Value[N], len(args))
	for i, a := range args {
		evals[i] = a.eval
	}
	return operand[N]{
		funcName:       name,
		mustNotCompare: fn.MustNotCompare,
		eval: func(root, current N) Value[N] {
			vals := make([]Value[N], len(evals))
			for i, e := range evals {
				vals[i] = e(root, current)
			}
			return fn.Call(vals)
		},
	}, nil
}

// parseQueryOperand compiles an embedded path query. Chains that are
// normalized select at most one node and produce a single-node value or
// nothing; all other chains produce a node-list.
func (p *filterParser[N]) parseQueryOperand(absolute bool) (operand[N], error) {
	segs, next, err := parsePathSegments(p.src, p.pos)
	if err != nil {
		return operand[N]{}, err
	}
	p.pos = next

	head := buildChain(segs)
	if err := compileChainFilters(p.d, head); err != nil {
		return operand[N]{}, err
	}

	d := p.d
	normalized := head.IsNormalized()
	return operand[N]{
		eval: func(root, current N) Value[N] {
			start := current
			if absolute {
				start = root
			}
			if normalized {
				if n, ok := d.selectNormalized(head, start); ok {
					return d.nodeValue(n)
				}
				return d.nothingValue()
			}
			return d.listValue(d.selectSegments(head, root, start))
		},
	}, nil
}

func (p *filterParser[N]) parseStringLiteral() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			r, n, err := decodeEscape(p.src[p.pos:], quote)
			if err != nil {
				return "", fmt.Errorf("%w: %v at position %d in filter %q", ErrSyntax, err, p.pos, p.src)
			}
			b.WriteRune(r)
			p.pos += n
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("%w: unterminated string literal in filter %q", ErrSyntax, p.src)
}

func decodeEscape(s string, quote byte) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("truncated escape sequence")
	}
	switch s[1] {
	case quote:
		return rune(quote), 2, nil
	case '\\':
		return '\\', 2, nil
	case '/':
		return '/', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'f':
		return '\f', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'u':
		if len(s) < 6 {
			return 0, 0, fmt.Errorf("truncated \\u escape")
		}
		v, err := strconv.ParseUint(s[2:6], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid \\u escape %q", s[:6])
		}
		r := rune(v)
		// A high surrogate immediately followed by a \u low surrogate
		// encodes one supplementary-plane code point.
		if utf16.IsSurrogate(r) && len(s) >= 12 && s[6] == '\\' && s[7] == 'u' {
			if v2, err := strconv.ParseUint(s[8:12], 16, 32); err == nil {
				if paired := utf16.DecodeRune(r, rune(v2)); paired != '�' {
					return paired, 12, nil
				}
			}
		}
		return r, 6, nil
	}
	return 0, 0, fmt.Errorf("invalid escape sequence %q", s[:2])
}

func (p *filterParser[N]) parseNumberLiteral() (float64, error) {
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number literal %q at position %d", ErrSyntax, p.src[start:p.pos], start)
	}
	return f, nil
}

// consumeCompareOp consumes one of the comparison operators if present.
// Two-character operators are matched first so `<=` is never read as `<`.
func (p *filterParser[N]) consumeCompareOp() (string, bool) {
	for _, op := range [...]string{"==", "!=", "<=", ">=", "<", ">"} {
		if strings.HasPrefix(p.src[p.pos:], op) {
			p.pos += len(op)
			return op, true
		}
	}
	return "", false
}

func (p *filterParser[N]) consumeOperator(op string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], op) {
		p.pos += len(op)
		return true
	}
	return false
}

func (p *filterParser[N]) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}
