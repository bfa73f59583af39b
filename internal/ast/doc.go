// Package ast defines the scope expression tree consumed by the
// resolution engine.
//
// A scope is a named, reusable query expression that resolves to a set of
// entity identifiers ("actors at my location", "items in my inventory").
// The textual scope language is parsed elsewhere; this package only
// defines the pre-parsed tree shape, the filter expression shape, the
// scope registry, and a structural validation pass.
//
// SEALED INTERFACES:
//
// Node and Expr are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, which enables exhaustive
// type switches in the engine's dispatcher and predicate evaluator:
//
//	switch n := node.(type) {
//	case *ast.Source:
//	    // ...
//	case *ast.Step:
//	    // ...
//	default:
//	    // Impossible for a well-formed tree
//	}
//
// Trees are immutable once built. The engine never mutates a node, and a
// tree plus its registry may be shared by any number of concurrent
// resolutions.
package ast
