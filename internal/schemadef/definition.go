package schemadef

import (
	"fmt"
	"maps"

	"github.com/eugenenazirov/envconform/pkg/conform"
)

// Field declares one schema key.
type Field struct {
	Key         string       `json:"key" yaml:"key"`
	Type        conform.Kind `json:"type" yaml:"type"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Definition is an ordered list of fields.
type Definition struct {
	Fields []Field `json:"fields"`
}

// Len returns the number of fields.
func (d Definition) Len() int {
	return len(d.Fields)
}

// Validate checks keys and kinds. Defaults are checked by Build.
func (d Definition) Validate() error {
	seen := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if f.Key == "" {
			return fmt.Errorf("%w: field %d has an empty key", ErrInvalidDefinition, i)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, f.Key)
		}
		seen[f.Key] = struct{}{}
		if _, err := conform.ParseKind(string(f.Type)); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	return nil
}

// Build validates the definition and returns the schema it describes.
func (d Definition) Build() (*conform.Schema, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	schema := conform.NewSchema()
	for _, f := range d.Fields {
		conv, err := conform.ForKind(f.Type, f.Default)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		schema.Set(f.Key, conv)
	}
	return schema, nil
}

// Kind returns the kind declared for key.
func (d Definition) Kind(key string) (conform.Kind, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Type, true
		}
	}
	return "", false
}

// Clone returns a deep copy, including slice and map defaults.
func (d Definition) Clone() Definition {
	if d.Fields == nil {
		return Definition{}
	}
	out := Definition{Fields: make([]Field, len(d.Fields))}
	for i, f := range d.Fields {
		f.Default = cloneValue(f.Default)
		out.Fields[i] = f
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]string:
		return maps.Clone(t)
	}
	return v
}
