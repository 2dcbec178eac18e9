package treequery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sort"
	"sync"
)

// JSONAccessor is the read-only parsed view over encoding/json decoded
// values: map[string]any, []any, and the scalar types including json.Number.
// Object members enumerate in sorted key order so results are deterministic.
// Decoded values have no parent links, so canonical location paths cannot be
// resolved.
type JSONAccessor struct{}

func (JSONAccessor) Child(n any, key string) (any, bool) {
	m, ok := n.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func (JSONAccessor) Element(n any, idx int) (any, bool) {
	arr, ok := n.([]any)
	if !ok {
		return nil, false
	}
	if idx < 0 {
		idx += len(arr)
	}
	if idx < 0 || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}

func (JSONAccessor) Children(n any) iter.Seq2[Step, any] {
	return func(yield func(Step, any) bool) {
		switch v := n.(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if !yield(Step{Key: k}, v[k]) {
					return
				}
			}
		case []any:
			for i, e := range v {
				if !yield(Step{Index: i, IsIndex: true}, e) {
					return
				}
			}
		}
	}
}

func (JSONAccessor) Scalar(n any) (Scalar, bool) {
	switch v := n.(type) {
	case nil:
		return NullScalar(), true
	case bool:
		return BoolScalar(v), true
	case string:
		return StringScalar(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return StringScalar(v.String()), true
		}
		return NumberScalar(f), true
	case float64:
		return NumberScalar(v), true
	case int:
		return NumberScalar(float64(v)), true
	case int64:
		return NumberScalar(float64(v)), true
	case uint64:
		return NumberScalar(float64(v)), true
	}
	return Scalar{}, false
}

func (a JSONAccessor) DeepEqual(x, y any) bool {
	sx, okx := a.Scalar(x)
	sy, oky := a.Scalar(y)
	if okx || oky {
		return okx && oky && compareScalars(sx, sy) == 0
	}

	switch xv := x.(type) {
	case map[string]any:
		yv, ok := y.(map[string]any)
		if !ok || len(xv) != len(yv) {
			return false
		}
		for k, xe := range xv {
			ye, ok := yv[k]
			if !ok || !a.DeepEqual(xe, ye) {
				return false
			}
		}
		return true
	case []any:
		yv, ok := y.([]any)
		if !ok || len(xv) != len(yv) {
			return false
		}
		for i := range xv {
			if !a.DeepEqual(xv[i], yv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (JSONAccessor) CanResolvePointer() bool { return false }

func (JSONAccessor) Pointer(any) (string, error) {
	return "", fmt.Errorf("%w: decoded JSON values carry no location information", ErrUnsupported)
}

var jsonDescriptor = sync.OnceValue(func() *Descriptor[any] {
	return New[any](JSONAccessor{})
})

// JSONDescriptor returns the process-wide descriptor for the JSON view.
// Callers needing custom functions should construct their own descriptor
// with New instead of registering against the shared one.
func JSONDescriptor() *Descriptor[any] { return jsonDescriptor() }

// CompileJSON compiles a path against the shared JSON view descriptor.
func CompileJSON(expr string) (*Path[any], error) {
	return Compile(JSONDescriptor(), expr)
}

// DecodeJSON decodes a JSON document for querying, using json.Number for all
// numeric values.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("treequery: decoding document: %w", err)
	}
	return v, nil
}

// DecodeJSONBytes is DecodeJSON over an in-memory document.
func DecodeJSONBytes(data []byte) (any, error) {
	return DecodeJSON(bytes.NewReader(data))
}
