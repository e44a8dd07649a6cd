package schema

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Settings is a parsed model document.
type Settings struct {
	Definition Definition  `yaml:"definition"`
	Properties Properties  `yaml:"properties"`
	Relations  Relations   `yaml:"relations,omitempty"`
	Routes     []RouteSpec `yaml:"routes,omitempty"`

	// Source is the file the settings were read from, empty when parsed from bytes.
	Source string `yaml:"-"`
}

// Definition identifies a model.
type Definition struct {
	Name        string `yaml:"name"`
	Plural      string `yaml:"plural,omitempty"`
	Description string `yaml:"description,omitempty"`
	Type        string `yaml:"type,omitempty"`
}

// PluralName returns the declared plural or name+"s".
func (d Definition) PluralName() string {
	if d.Plural != "" {
		return d.Plural
	}
	return d.Name + "s"
}

// Property is a single declared field.
type Property struct {
	Name     string `yaml:"-"`
	Type     string `yaml:"type"`
	Length   int    `yaml:"length,omitempty"`
	Required bool   `yaml:"required,omitempty"`
	IsID     bool   `yaml:"isId,omitempty"`
	Hidden   bool   `yaml:"hidden,omitempty"`
}

// Properties keeps fields in document order.
type Properties []Property

// UnmarshalYAML decodes a mapping of field name to property, preserving order.
// A scalar value is shorthand for {type: <value>}.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*p = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}

	out := make(Properties, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var prop Property
		if value.Kind == yaml.ScalarNode {
			prop.Type = value.Value
		} else if err := value.Decode(&prop); err != nil {
			return fmt.Errorf("property %q: %w", key.Value, err)
		}
		prop.Name = key.Value
		out = append(out, prop)
	}
	*p = out
	return nil
}

// Get returns the property with the given name.
func (p Properties) Get(name string) (Property, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// Relation is a declared association to another model.
type Relation struct {
	Name       string         `yaml:"-"`
	Type       string         `yaml:"type"`
	Model      string         `yaml:"model"`
	ForeignKey string         `yaml:"foreignKey,omitempty"`
	Options    map[string]any `yaml:"options,omitempty"`
}

// Relations keeps relations in document order.
type Relations []Relation

// UnmarshalYAML decodes a mapping of relation name to relation, preserving order.
func (r *Relations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*r = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: relations must be a mapping", node.Line)
	}

	out := make(Relations, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var rel Relation
		if err := value.Decode(&rel); err != nil {
			return fmt.Errorf("relation %q: %w", key.Value, err)
		}
		rel.Name = key.Value
		out = append(out, rel)
	}
	*r = out
	return nil
}

// RouteSpec is a route override as written in a model document.
type RouteSpec struct {
	Route      string `yaml:"route"`
	Method     string `yaml:"method"`
	Handler    string `yaml:"handler"`
	Permission string `yaml:"permission,omitempty"`
}

// PermissionAuthenticated marks a route that requires a verified bearer token.
const PermissionAuthenticated = "authenticated"

// Key returns the registry key for a model name: the name with its first letter upper-cased.
func Key(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// LowerFirst returns name with its first letter lower-cased.
func LowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}
