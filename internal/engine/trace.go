package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/calegray/scopedsl/internal/ast"
)

// TraceIDGenerator generates identifiers correlating the log lines and
// trace events of one top-level resolution.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TraceIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 trace identifiers.
// The embedded timestamp makes identifiers sortable by resolution start
// time, which helps when reading interleaved logs.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (does not happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined trace identifiers for tests, so
// golden trace files compare byte-for-byte across runs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
// Generate panics once the ids are exhausted; a test asking for more
// resolutions than it declared is a test bug worth failing loudly.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined identifier.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("FixedGenerator exhausted after %d ids", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// TraceEvent records the resolution of one node: its kind, the depth it
// resolved at, a kind-specific detail, and the size of its result.
// Events appear in completion order (children before parents).
type TraceEvent struct {
	Kind   string `json:"kind"`
	Depth  int    `json:"depth"`
	Detail string `json:"detail,omitempty"`
	Size   int    `json:"size"`
}

// Trace is the per-node event log of one traced resolution. It is only
// populated by ResolveTraced; plain Resolve skips collection entirely.
type Trace struct {
	TraceID string       `json:"trace_id"`
	Events  []TraceEvent `json:"events"`
}

// record appends the event for a resolved node.
func (t *Trace) record(node ast.Node, depth, size int) {
	if t == nil {
		return
	}
	t.Events = append(t.Events, TraceEvent{
		Kind:   kindName(node),
		Depth:  depth,
		Detail: nodeDetail(node),
		Size:   size,
	})
}

// nodeDetail extracts the content-facing detail of a node for traces.
func nodeDetail(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Source:
		if n.Param != "" {
			return string(n.Kind) + ":" + n.Param
		}
		return string(n.Kind)
	case *ast.Step:
		return n.Field
	case *ast.ScopeReference:
		return n.ScopeID
	default:
		return ""
	}
}
