package schemadef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envconform/pkg/conform"
)

// fieldSpec is the long form of a field in a YAML schema file.
type fieldSpec struct {
	Type        string `yaml:"type"`
	Default     any    `yaml:"default"`
	Description string `yaml:"description"`
}

// LoadFile reads a YAML schema file.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a YAML schema document. The document is a mapping whose key
// order becomes the schema order. Each value is either a kind name or a
// mapping with type, default and description:
//
//	DEBUG: boolean
//	PORT:
//	  type: number
//	  default: 8080
func Parse(data []byte) (Definition, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Definition{}, fmt.Errorf("parse YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return Definition{}, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return Definition{}, fmt.Errorf("%w: line %d: expected a mapping of keys to fields", ErrInvalidDefinition, doc.Line)
	}

	def := Definition{Fields: make([]Field, 0, len(doc.Content)/2)}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		keyNode, valueNode := doc.Content[i], doc.Content[i+1]
		field := Field{Key: keyNode.Value}

		switch valueNode.Kind {
		case yaml.ScalarNode:
			field.Type = conform.Kind(valueNode.Value)
		case yaml.MappingNode:
			var spec fieldSpec
			if err := valueNode.Decode(&spec); err != nil {
				return Definition{}, fmt.Errorf("field %q: %w", field.Key, err)
			}
			field.Type = conform.Kind(spec.Type)
			field.Default = spec.Default
			field.Description = spec.Description
		default:
			return Definition{}, fmt.Errorf("%w: line %d: field %q must be a kind name or a mapping", ErrInvalidDefinition, valueNode.Line, field.Key)
		}
		def.Fields = append(def.Fields, field)
	}

	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}
