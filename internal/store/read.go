package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/calegray/scopedsl/internal/cval"
	"github.com/calegray/scopedsl/internal/engine"
)

// Compile-time check that Store satisfies the engine's world view.
var _ engine.Gateway = (*Store)(nil)

// Component implements engine.Gateway. A query failure is logged and
// reported as the component being absent.
func (s *Store) Component(entityID, componentType string) (cval.Value, bool) {
	var data string
	err := s.db.QueryRowContext(context.Background(), `
		SELECT data
		FROM components
		WHERE entity_id = ? AND component_type = ?
	`, entityID, componentType).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Error("component query failed",
			"entity_id", entityID,
			"component_type", componentType,
			"error", err)
		return nil, false
	}

	val, err := cval.Decode([]byte(data))
	if err != nil {
		s.log.Error("stored component data is corrupt",
			"entity_id", entityID,
			"component_type", componentType,
			"error", err)
		return nil, false
	}
	return val, true
}

// EntitiesAtLocation implements engine.Gateway. Identifiers come back
// in lexical order; a query failure is logged and yields no entities.
func (s *Store) EntitiesAtLocation(locationID string) []string {
	ids, err := s.queryIDs(context.Background(), `
		SELECT entity_id
		FROM components
		WHERE component_type = ?
		  AND json_extract(data, '$.location') = ?
		ORDER BY entity_id COLLATE BINARY ASC
	`, engine.PositionComponent, locationID)
	if err != nil {
		s.log.Error("location query failed", "location_id", locationID, "error", err)
		return nil
	}
	return ids
}

// EntitiesOfType implements engine.Gateway. Identifiers come back in
// lexical order; a query failure is logged and yields no entities.
func (s *Store) EntitiesOfType(typeTag string) []string {
	ids, err := s.queryIDs(context.Background(), `
		SELECT entity_id
		FROM components
		WHERE component_type = ?
		ORDER BY entity_id COLLATE BINARY ASC
	`, typeTag)
	if err != nil {
		s.log.Error("type query failed", "type_tag", typeTag, "error", err)
		return nil
	}
	return ids
}

// EntityIDs returns every entity in the snapshot in lexical order.
func (s *Store) EntityIDs(ctx context.Context) ([]string, error) {
	ids, err := s.queryIDs(ctx, `
		SELECT id FROM entities ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
