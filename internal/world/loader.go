package world

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calegray/scopedsl/internal/cval"
)

// fixtureFile is the YAML shape of a world fixture:
//
//	entities:
//	  - id: alice
//	    components:
//	      position: {location: tavern}
//	      sitting: {furniture: bench-1}
type fixtureFile struct {
	Entities []fixtureEntity `yaml:"entities"`
}

type fixtureEntity struct {
	ID         string                 `yaml:"id"`
	Components map[string]interface{} `yaml:"components"`
}

// LoadFile reads and parses a world fixture YAML file.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Parse builds a World from world fixture YAML.
// Unknown fields (typos like "component:" vs "components:") are rejected,
// as are duplicate or empty entity identifiers.
func Parse(data []byte) (*World, error) {
	var file fixtureFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse world YAML: %w", err)
	}

	w := New()
	seen := make(map[string]bool)
	for i, ent := range file.Entities {
		if ent.ID == "" {
			return nil, fmt.Errorf("entities[%d]: id is required", i)
		}
		if seen[ent.ID] {
			return nil, fmt.Errorf("entities[%d]: duplicate entity id %q", i, ent.ID)
		}
		seen[ent.ID] = true
		w.AddEntity(ent.ID)

		for ctype, raw := range ent.Components {
			val, err := cval.FromGo(raw)
			if err != nil {
				return nil, fmt.Errorf("entity %s: component %s: %w", ent.ID, ctype, err)
			}
			if err := w.SetComponent(ent.ID, ctype, val); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}
