// Package hierarchyfile loads outcome hierarchies declared in YAML or JSON:
//
//	name: cardiovascular
//	outcomes:
//	  - Alive, no events
//	  - Death
//
// Outcomes are listed best first.
package hierarchyfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"godoor/domain/core"
	"godoor/domain/door"
)

// Definition is the on-disk form of a hierarchy
type Definition struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Outcomes    []string `yaml:"outcomes" json:"outcomes"`
}

// Hierarchy validates the outcome list
func (d Definition) Hierarchy() (*door.Hierarchy, error) {
	h, err := door.NewHierarchy(d.Outcomes)
	if err != nil {
		if d.Name != "" {
			return nil, fmt.Errorf("hierarchy %q: %w", d.Name, err)
		}
		return nil, err
	}
	return h, nil
}

// Parse decodes a definition. JSON documents are accepted as YAML flow
// syntax; unknown keys are rejected.
func Parse(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, fmt.Errorf("%w: empty hierarchy file", core.ErrEmptyHierarchy)
		}
		return Definition{}, fmt.Errorf("%w: %v", core.ErrInvalidHierarchy, err)
	}
	return def, nil
}

// Marshal encodes a hierarchy as YAML
func Marshal(name string, h *door.Hierarchy) ([]byte, error) {
	return yaml.Marshal(Definition{Name: name, Outcomes: h.Labels()})
}

// FileSource implements ports.HierarchySource over a definition file
type FileSource struct {
	path string
}

// NewFileSource reads the hierarchy at path on each load
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the file
func (s *FileSource) Load() (Definition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read hierarchy file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return def, nil
}

// LoadHierarchy reads, parses and validates the file
func (s *FileSource) LoadHierarchy(ctx context.Context) (*door.Hierarchy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, err := s.Load()
	if err != nil {
		return nil, err
	}
	h, err := def.Hierarchy()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return h, nil
}
