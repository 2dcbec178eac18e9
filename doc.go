package treequery

// Package treequery evaluates RFC 9535 style path expressions against
// tree-structured documents. The engine is generic over the node
// representation: any tree type that implements Accessor can be queried with
// the same compiler, comparison engine, and function registry.
//
// Supported path syntax:
//   - Child `.` and descendant `..` segments
//   - Name, array index, wildcard `*`, slices `start:end:step`, unions `[a,b]`
//   - Filter selectors `[?<expr>]` (the legacy `[?(<expr>)]` form also parses)
//     where <expr> supports:
//     comparisons  →  ==  !=  <  <=  >  >=
//     logic        →  &&  ||  !  ( )
//     operands     →  'string'  number  true  false  null  @.path  $.path
//     functions    →  length  count  match  search  value
//
// Two node representations ship with the module: a read-only view over
// encoding/json decoded values (JSONAccessor) and a mutable document tree
// parsed from YAML (package yamltree). Embedders bind their own tree types by
// implementing Accessor and constructing a Descriptor with New.
