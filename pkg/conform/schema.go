package conform

import (
	"fmt"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field pairs a key with the converter applied to it. Converter is usually a
// Converter[T] but may be any func taking a single string and returning a
// single value; other values are rejected by Conform.
type Field struct {
	Key       string
	Converter any
}

// Schema maps keys to converters, preserving insertion order. Setting an
// existing key replaces its converter in place.
type Schema struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewSchema returns a schema holding fields in order.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: orderedmap.New[string, any]()}
	for _, f := range fields {
		s.Set(f.Key, f.Converter)
	}
	return s
}

// Set assigns converter to key and returns s for chaining.
func (s *Schema) Set(key string, converter any) *Schema {
	if s.fields == nil {
		s.fields = orderedmap.New[string, any]()
	}
	s.fields.Set(key, converter)
	return s
}

// Len returns the number of keys.
func (s *Schema) Len() int {
	if s == nil || s.fields == nil {
		return 0
	}
	return s.fields.Len()
}

// Keys returns the keys in insertion order.
func (s *Schema) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields returns the entries in insertion order.
func (s *Schema) Fields() []Field {
	if s.Len() == 0 {
		return nil
	}
	out := make([]Field, 0, s.fields.Len())
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{Key: pair.Key, Converter: pair.Value})
	}
	return out
}

// Conform converts, for every schema key in order, the environment's raw value
// for that key. Environment keys missing from the schema are ignored. The first
// schema entry that is not a conversion function aborts the call with a
// *SchemaError and no result.
func Conform(env Environment, schema *Schema) (*Result, error) {
	res := newResult(schema.Len())
	for _, f := range schema.Fields() {
		fn, err := resolve(f.Key, f.Converter)
		if err != nil {
			return nil, err
		}
		var raw string
		if env != nil {
			raw, _ = env.Lookup(f.Key)
		}
		res.values.Set(f.Key, fn(raw))
	}
	return res, nil
}

func resolve(key string, converter any) (func(string) any, error) {
	if converter == nil {
		return nil, &SchemaError{Key: key, Type: typeName(converter)}
	}
	rv := reflect.ValueOf(converter)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func:
		if rv.IsNil() {
			return nil, &SchemaError{Key: key, Type: fmt.Sprintf("%T", converter)}
		}
	}

	switch fn := converter.(type) {
	case interface{ usable() bool }:
		if !fn.usable() {
			return nil, &SchemaError{Key: key, Type: fmt.Sprintf("%T", converter)}
		}
		return fn.(Transformer).Transform, nil
	case Transformer:
		return fn.Transform, nil
	case func(string) any:
		return fn, nil
	}

	rt := rv.Type()
	if rt.Kind() != reflect.Func || rt.IsVariadic() ||
		rt.NumIn() != 1 || rt.NumOut() != 1 || rt.In(0).Kind() != reflect.String {
		return nil, &SchemaError{Key: key, Type: typeName(converter)}
	}
	in := rt.In(0)
	return func(raw string) any {
		return rv.Call([]reflect.Value{reflect.ValueOf(raw).Convert(in)})[0].Interface()
	}, nil
}
