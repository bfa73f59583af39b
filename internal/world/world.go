// Package world provides the in-memory entity-component snapshot used by
// tests, the conformance harness, and the CLI's YAML fixture mode.
//
// A World is the reference implementation of engine.Gateway. It owns a
// component table per entity plus location and type indexes maintained on
// write. Once handed to the engine it is treated as a read-only snapshot;
// the engine never writes back and query methods return copies.
package world

import (
	"fmt"
	"sort"

	"github.com/calegray/scopedsl/internal/cval"
	"github.com/calegray/scopedsl/internal/engine"
)

// World is an in-memory entity-component container.
//
// Query methods return sorted copies: resolution results must be
// deterministic for identical snapshots, so iteration order here cannot
// depend on map ordering or insertion history.
//
// Not safe for writes concurrent with reads. Build the world first,
// resolve against it afterwards; concurrent resolutions against a
// fully-built world are safe.
type World struct {
	components map[string]map[string]cval.Value
	byLocation map[string]map[string]struct{}
	byType     map[string]map[string]struct{}
}

// New creates an empty world.
func New() *World {
	return &World{
		components: make(map[string]map[string]cval.Value),
		byLocation: make(map[string]map[string]struct{}),
		byType:     make(map[string]map[string]struct{}),
	}
}

// AddEntity registers an entity without components. Adding an existing
// entity is a no-op; entities also spring into being on SetComponent.
func (w *World) AddEntity(id string) {
	if w.components[id] == nil {
		w.components[id] = make(map[string]cval.Value)
	}
}

// SetComponent attaches component data to an entity, replacing any
// previous data of that type, and maintains the type and location
// indexes.
func (w *World) SetComponent(entityID, componentType string, data cval.Value) error {
	if entityID == "" {
		return fmt.Errorf("empty entity id")
	}
	if componentType == "" {
		return fmt.Errorf("entity %s: empty component type", entityID)
	}
	if data == nil {
		return fmt.Errorf("entity %s: nil component data for %s", entityID, componentType)
	}

	w.AddEntity(entityID)

	// Re-index position moves.
	if componentType == engine.PositionComponent {
		if old, ok := w.locationOf(entityID); ok {
			delete(w.byLocation[old], entityID)
		}
	}

	w.components[entityID][componentType] = data

	if w.byType[componentType] == nil {
		w.byType[componentType] = make(map[string]struct{})
	}
	w.byType[componentType][entityID] = struct{}{}

	if componentType == engine.PositionComponent {
		if loc, ok := w.locationOf(entityID); ok {
			if w.byLocation[loc] == nil {
				w.byLocation[loc] = make(map[string]struct{})
			}
			w.byLocation[loc][entityID] = struct{}{}
		}
	}
	return nil
}

// locationOf reads the entity's current location from its position
// component.
func (w *World) locationOf(entityID string) (string, bool) {
	comp, ok := w.components[entityID][engine.PositionComponent]
	if !ok {
		return "", false
	}
	obj, ok := comp.(cval.Object)
	if !ok {
		return "", false
	}
	loc, ok := obj[engine.LocationField].(cval.String)
	if !ok || loc == "" {
		return "", false
	}
	return string(loc), true
}

// Component implements engine.Gateway.
func (w *World) Component(entityID, componentType string) (cval.Value, bool) {
	v, ok := w.components[entityID][componentType]
	return v, ok
}

// EntitiesAtLocation implements engine.Gateway. Identifiers come back in
// lexical order.
func (w *World) EntitiesAtLocation(locationID string) []string {
	return sortedKeys(w.byLocation[locationID])
}

// EntitiesOfType implements engine.Gateway. Identifiers come back in
// lexical order.
func (w *World) EntitiesOfType(typeTag string) []string {
	return sortedKeys(w.byType[typeTag])
}

// ComponentTypes returns the component types attached to an entity in
// lexical order.
func (w *World) ComponentTypes(entityID string) []string {
	comps := w.components[entityID]
	if len(comps) == 0 {
		return nil
	}
	out := make([]string, 0, len(comps))
	for ctype := range comps {
		out = append(out, ctype)
	}
	sort.Strings(out)
	return out
}

// EntityIDs returns every known entity in lexical order.
func (w *World) EntityIDs() []string {
	ids := make([]string, 0, len(w.components))
	for id := range w.components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of entities.
func (w *World) Len() int {
	return len(w.components)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
