package engine

import (
	"io"
	"log/slog"
	"slices"

	"github.com/calegray/scopedsl/internal/cval"
)

// fakeGateway is a minimal in-package Gateway for engine tests.
// The world and store packages carry the production implementations.
type fakeGateway struct {
	components map[string]map[string]cval.Value
	locations  map[string][]string
	types      map[string][]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		components: make(map[string]map[string]cval.Value),
		locations:  make(map[string][]string),
		types:      make(map[string][]string),
	}
}

// set attaches a component to an entity and maintains the type and
// location indexes the way a real gateway would.
func (g *fakeGateway) set(entityID, componentType string, data cval.Value) *fakeGateway {
	if g.components[entityID] == nil {
		g.components[entityID] = make(map[string]cval.Value)
	}
	g.components[entityID][componentType] = data

	if !slices.Contains(g.types[componentType], entityID) {
		g.types[componentType] = append(g.types[componentType], entityID)
	}

	if componentType == PositionComponent {
		if obj, ok := data.(cval.Object); ok {
			if loc, ok := obj[LocationField].(cval.String); ok {
				if !slices.Contains(g.locations[string(loc)], entityID) {
					g.locations[string(loc)] = append(g.locations[string(loc)], entityID)
				}
			}
		}
	}
	return g
}

func (g *fakeGateway) Component(entityID, componentType string) (cval.Value, bool) {
	v, ok := g.components[entityID][componentType]
	return v, ok
}

func (g *fakeGateway) EntitiesAtLocation(locationID string) []string {
	return g.locations[locationID]
}

func (g *fakeGateway) EntitiesOfType(typeTag string) []string {
	return g.types[typeTag]
}

// quietLogger discards log output in tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds an engine with a quiet logger and fixed trace ids.
func newTestEngine(gw Gateway, opts ...Option) *Engine {
	base := []Option{
		WithLogger(quietLogger()),
		WithTraceIDGenerator(repeatingGenerator{}),
	}
	return New(gw, append(base, opts...)...)
}

// repeatingGenerator hands out the same id forever; tests that care
// about trace ids use a FixedGenerator instead.
type repeatingGenerator struct{}

func (repeatingGenerator) Generate() string { return "trace-test" }
