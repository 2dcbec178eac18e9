package treequery

import "errors"

var (
	// ErrSyntax indicates a path or filter expression syntax error during compilation.
	ErrSyntax = errors.New("treequery: syntax error")

	// ErrFunction indicates an unknown function, an arity mismatch, or a
	// function used in a position its result type does not allow.
	ErrFunction = errors.New("treequery: function error")

	// ErrUnsupported indicates a capability the node representation does not
	// provide, such as resolving a canonical location path.
	ErrUnsupported = errors.New("treequery: unsupported by node representation")
)
