package engine

import (
	"sort"

	"github.com/calegray/scopedsl/internal/cval"
)

// IDSet is the final result of a top-level resolution: an unordered set
// of entity identifiers. Duplicates are impossible by construction and no
// consumer may rely on iteration order.
type IDSet map[string]struct{}

// Contains reports membership.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identifiers in lexical order, for stable logging
// and CLI output. The set itself carries no ordering guarantee.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// resultSet is the intermediate result threaded between resolvers.
//
// Most members are entity identifier strings, but a Step that reads an
// array-valued field surfaces the raw array for a following
// ArrayIteration to flatten, so members are general values. Dedup keys:
// identifier strings key directly, structured values key by canonical
// content hash.
//
// Insertion order is retained so traversal over members is deterministic
// for a deterministic gateway, which keeps traces reproducible. The
// order never leaks into the final IDSet.
type resultSet struct {
	keys  map[string]struct{}
	elems []cval.Value
}

func newResultSet() *resultSet {
	return &resultSet{keys: make(map[string]struct{})}
}

// addID inserts an entity identifier.
func (rs *resultSet) addID(id string) {
	rs.insert("s\x00"+id, cval.String(id))
}

// add inserts an arbitrary value, deduplicating by content.
// Unhashable values (anything containing null) are reported so the
// caller can skip them as a data anomaly.
func (rs *resultSet) add(v cval.Value) error {
	if s, ok := v.(cval.String); ok {
		rs.addID(string(s))
		return nil
	}
	h, err := cval.Hash(v)
	if err != nil {
		return err
	}
	rs.insert("h\x00"+h, v)
	return nil
}

func (rs *resultSet) insert(key string, v cval.Value) {
	if _, dup := rs.keys[key]; dup {
		return
	}
	rs.keys[key] = struct{}{}
	rs.elems = append(rs.elems, v)
}

// merge adds every member of other.
func (rs *resultSet) merge(other *resultSet) error {
	for _, v := range other.elems {
		if err := rs.add(v); err != nil {
			return err
		}
	}
	return nil
}

// members returns the elements in insertion order.
func (rs *resultSet) members() []cval.Value {
	return rs.elems
}

func (rs *resultSet) size() int {
	return len(rs.elems)
}

// ids extracts the identifier members, dropping anything that is not an
// entity identifier string. Only the top-level caller uses this; raw
// arrays that were never flattened do not survive into the final result.
func (rs *resultSet) ids() IDSet {
	out := make(IDSet, len(rs.elems))
	for _, v := range rs.elems {
		if s, ok := v.(cval.String); ok {
			out[string(s)] = struct{}{}
		}
	}
	return out
}
