package engine

import "github.com/calegray/scopedsl/internal/cval"

// Gateway is the read-only view of the entity-component graph that
// resolution runs against.
//
// The engine never writes through a Gateway and performs no locking of
// its own: a single resolution is synchronous and read-only. Concurrent
// top-level resolutions are safe exactly when the Gateway is safe for
// concurrent reads.
//
// Implementations in this repository: world.World (in-memory) and
// store.Store (SQLite snapshot).
type Gateway interface {
	// Component returns the named component's data for an entity.
	// The second return is false when the entity lacks the component.
	Component(entityID, componentType string) (cval.Value, bool)

	// EntitiesAtLocation returns the identifiers of all entities at a
	// location. Order is unspecified but must be stable for identical
	// snapshots - resolution results are required to be deterministic.
	EntitiesAtLocation(locationID string) []string

	// EntitiesOfType returns the identifiers of all entities carrying
	// the given component type tag. Same ordering contract as
	// EntitiesAtLocation.
	EntitiesOfType(typeTag string) []string
}

// Component conventions used by the location source: an entity's
// whereabouts live in its "position" component under the "location" key.
const (
	PositionComponent = "position"
	LocationField     = "location"
)
