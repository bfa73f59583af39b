package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calegray/scopedsl/internal/cval"
	"github.com/calegray/scopedsl/internal/world"
)

// PutEntity registers an entity without components.
// Idempotent - putting an existing entity is a no-op.
func (s *Store) PutEntity(ctx context.Context, entityID string) error {
	if entityID == "" {
		return fmt.Errorf("empty entity id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id) VALUES (?)
		ON CONFLICT (id) DO NOTHING
	`, entityID)
	if err != nil {
		return fmt.Errorf("put entity %s: %w", entityID, err)
	}
	return nil
}

// PutComponent writes component data for an entity, replacing any
// previous data of that type. The entity is created if needed.
func (s *Store) PutComponent(ctx context.Context, entityID, componentType string, data cval.Value) error {
	if componentType == "" {
		return fmt.Errorf("entity %s: empty component type", entityID)
	}
	encoded, err := cval.Marshal(data)
	if err != nil {
		return fmt.Errorf("entity %s: encode component %s: %w", entityID, componentType, err)
	}

	if err := s.PutEntity(ctx, entityID); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO components (entity_id, component_type, data)
		VALUES (?, ?, ?)
		ON CONFLICT (entity_id, component_type) DO UPDATE SET data = excluded.data
	`, entityID, componentType, string(encoded))
	if err != nil {
		return fmt.Errorf("put component %s/%s: %w", entityID, componentType, err)
	}
	return nil
}

// ImportWorld copies an in-memory world into the snapshot inside a
// single transaction. Existing component data for imported entities is
// replaced; entities not present in the world are left alone.
func (s *Store) ImportWorld(ctx context.Context, w *world.World) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if err := importWorldTx(ctx, tx, w); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func importWorldTx(ctx context.Context, tx *sql.Tx, w *world.World) error {
	putEntity, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id) VALUES (?)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer putEntity.Close()

	putComponent, err := tx.PrepareContext(ctx, `
		INSERT INTO components (entity_id, component_type, data)
		VALUES (?, ?, ?)
		ON CONFLICT (entity_id, component_type) DO UPDATE SET data = excluded.data
	`)
	if err != nil {
		return fmt.Errorf("prepare component insert: %w", err)
	}
	defer putComponent.Close()

	for _, id := range w.EntityIDs() {
		if _, err := putEntity.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("import entity %s: %w", id, err)
		}
		for _, ctype := range w.ComponentTypes(id) {
			data, _ := w.Component(id, ctype)
			encoded, err := cval.Marshal(data)
			if err != nil {
				return fmt.Errorf("import %s/%s: %w", id, ctype, err)
			}
			if _, err := putComponent.ExecContext(ctx, id, ctype, string(encoded)); err != nil {
				return fmt.Errorf("import %s/%s: %w", id, ctype, err)
			}
		}
	}
	return nil
}
