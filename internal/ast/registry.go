package ast

// Registry maps scope identifiers to their pre-built expression trees.
//
// A registry is constructed once at load time (by the compiler or by
// tests) and is read-only thereafter. It is passed explicitly through the
// resolution call chain - never held as package-level state - so test
// suites can substitute registries per test without cross-test leakage.
type Registry map[string]Node

// Lookup returns the scope registered under id.
func (r Registry) Lookup(id string) (Node, bool) {
	n, ok := r[id]
	return n, ok
}

// ScopeIDs returns all registered identifiers in unspecified order.
func (r Registry) ScopeIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}
