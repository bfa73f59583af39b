// Package engine implements the scope resolution engine.
//
// A scope expression (ast.Node tree) is interpreted against a live
// entity-component graph, read through a narrow Gateway, to produce the
// set of entity identifiers eligible as action targets: "actors at my
// location", "partners of my closeness relationship", "items in my
// inventory".
//
// ARCHITECTURE:
//
// Guarded recursion:
// Every descent - including the implicit parent of a Step/Filter/
// ArrayIteration and the target of a ScopeReference - passes through
// resolveNode, which enforces the depth bound and the active-path cycle
// check before dispatching. Guards live at that single boundary so every
// resolver is protected uniformly; ScopeReference, the one construct
// that can form circular chains, gets no special handling of its own.
//
// Context cloning:
// The resolution context (actor, environment, registry, depth, visited
// ledger) is cloned on each descent rather than mutated in place.
// Sibling Union branches therefore see independent ledgers and may
// legitimately resolve the same scope twice; only re-entry along one
// active path is a cycle. Nothing is shared, so concurrent top-level
// resolutions need no locking here.
//
// Error discipline:
// Structural defects, depth overruns, and cycles abort the whole
// resolution as *ResolutionError - a scope never partially resolves.
// Per-entity data anomalies (missing components, mistyped fields) are
// the normal cost of heterogeneous content: the entity is skipped, the
// resolution continues, and nothing escalates.
//
// Resolution is synchronous and single-threaded per call, with no
// internal parallelism and no suspension points. There is no internal
// timeout; a runaway reference chain terminates by failing the depth
// guard, and callers needing wall-clock bounds impose them externally.
package engine
