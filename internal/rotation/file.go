package rotation

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is one rotation YAML document.
type File struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Imports     []string `yaml:"imports"`
	Actions     List     `yaml:"actions"`
}

// ParseFile decodes a rotation document without resolving imports.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing rotation: %w", err)
	}
	return &f, nil
}

// LoadFile loads the rotation at path. Imports are resolved relative to the
// importing file, depth-first, and their actions precede the importer's.
//
// Postcondition: returns an error on a missing file, an import cycle, or a
// malformed action name.
func LoadFile(path string) (*File, error) {
	f, err := loadRecursive(filepath.Clean(path), map[string]bool{})
	if err != nil {
		return nil, err
	}
	if err := f.Actions.Validate(); err != nil {
		return nil, fmt.Errorf("rotation %s: %w", path, err)
	}
	return f, nil
}

func loadRecursive(path string, visiting map[string]bool) (*File, error) {
	if visiting[path] {
		return nil, fmt.Errorf("rotation import cycle detected at %s", path)
	}
	visiting[path] = true
	defer delete(visiting, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rotation %s: %w", path, err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var actions List
	for _, imp := range f.Imports {
		child, err := loadRecursive(filepath.Join(filepath.Dir(path), imp), visiting)
		if err != nil {
			return nil, err
		}
		actions = append(actions, child.Actions...)
	}
	f.Actions = append(actions, f.Actions...)
	return f, nil
}
