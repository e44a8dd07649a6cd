package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a model document from a YAML or JSON file.
func ParseFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read file %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// Parse parses a model document from YAML bytes. JSON is accepted as YAML.
func Parse(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(s); err != nil {
		return Settings{}, fmt.Errorf("validate model %q: %w", s.Definition.Name, err)
	}

	return s, nil
}

// LoadDir parses every model document in dir, and in defaultDir when set.
// Entries from dir replace entries from defaultDir with the same key.
// The key is the capitalized file basename. A missing directory yields no entries.
func LoadDir(dir, defaultDir string) (map[string]Settings, error) {
	out := make(map[string]Settings)

	for _, d := range []string{defaultDir, dir} {
		if d == "" {
			continue
		}
		if err := loadInto(out, d); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func loadInto(out map[string]Settings, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsDocument(entry.Name()) {
			continue
		}

		s, err := ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		out[Key(base)] = s
	}

	return nil
}

// IsDocument reports whether name has a model document extension.
func IsDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Validate checks the parts of a model document every later stage relies on.
func Validate(s Settings) error {
	var errs []string

	if s.Definition.Name == "" {
		errs = append(errs, "definition.name is required")
	}

	seen := make(map[string]bool)
	ids := 0
	for _, p := range s.Properties {
		if p.Name == "" {
			errs = append(errs, "property name must not be empty")
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("property %q declared twice", p.Name))
		}
		seen[p.Name] = true
		if p.IsID {
			ids++
		}
		if p.Length < 0 {
			errs = append(errs, fmt.Sprintf("property %q: length must not be negative", p.Name))
		}
	}
	if ids > 1 {
		errs = append(errs, "at most one property may set isId")
	}

	for _, r := range s.Relations {
		if r.Model == "" {
			errs = append(errs, fmt.Sprintf("relation %q: model is required", r.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
