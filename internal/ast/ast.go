package ast

// Node is the sealed interface over the six scope-expression node kinds.
//
// The marker method pattern prevents external implementations and lets the
// engine dispatch with an exhaustive type switch: every kind known at
// compile time is guaranteed a resolver, and only a nil tree can reach the
// dispatcher's failure branch.
//
// Node kinds:
//   - Source: leaf; produces a base entity set
//   - Step: follows a named component field from each parent member
//   - Filter: keeps parent members satisfying a predicate
//   - Union: set union of independently resolved branches
//   - ArrayIteration: flattens one array level from its parent's result
//   - ScopeReference: resolves another registered scope in place
type Node interface {
	scopeNode() // Marker method - seals interface to this package
}

// SourceKind names the base set a Source node produces.
//
// Unlike the Node union, SourceKind is an open string enum: kinds arrive
// from content files and newer content may carry kinds this engine does
// not know. Unknown kinds resolve fail-closed to the empty set rather
// than aborting resolution.
type SourceKind string

const (
	// SourceActor produces the singleton set holding the acting entity.
	SourceActor SourceKind = "actor"

	// SourceLocation produces all entities at the acting entity's
	// current location.
	SourceLocation SourceKind = "location"

	// SourceEntities produces all entities carrying the component type
	// named by Source.Param.
	SourceEntities SourceKind = "entities"
)

// Source is the leaf node of every scope expression chain.
//
// Param is only meaningful for kinds that need one (SourceEntities uses it
// as the component type tag); other kinds ignore it.
type Source struct {
	Kind  SourceKind
	Param string
}

func (*Source) scopeNode() {}

// Step follows a named component field from each member of its parent's
// result. The field is a dotted path whose first segment names a component
// type and whose remaining segments descend into that component's data.
//
// A Step surfaces whatever value the field yields - including a raw array.
// Flattening an array into individual identifiers is ArrayIteration's job,
// keeping "read a field" and "flatten a collection field" composable.
type Step struct {
	Parent Node
	Field  string
}

func (*Step) scopeNode() {}

// Filter keeps only the members of its parent's result that satisfy
// Predicate. Members whose evaluation hits missing or malformed data are
// dropped, not errored: heterogeneous entity populations are expected.
type Filter struct {
	Parent    Node
	Predicate Expr
}

func (*Filter) scopeNode() {}

// Union resolves each branch independently and returns the set union.
// Branches are siblings: each sees the same context and depth. A failure
// in any branch aborts the whole union - a broken alternative is a
// content defect worth surfacing, not something to drop silently.
type Union struct {
	Branches []Node
}

func (*Union) scopeNode() {}

// ArrayIteration flattens one array level from its parent's result.
// Array elements that are entity identifiers join the output set;
// anything else is skipped. Scalar identifiers pass through unchanged so
// a single-valued field composes with the same expression shape.
type ArrayIteration struct {
	Parent Node
}

func (*ArrayIteration) scopeNode() {}

// ScopeReference resolves another registered scope by identifier, in the
// current context, changed only by depth/cycle bookkeeping. This is the
// one place a resolution chain can become circular, which is why cycle
// and depth guards live at the dispatch boundary rather than here.
type ScopeReference struct {
	ScopeID string
}

func (*ScopeReference) scopeNode() {}
