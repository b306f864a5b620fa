package conform

import (
	"fmt"
	"maps"
	"slices"
)

// Transformer is the call signature shared by every converter: a raw value in,
// one typed value out. Conform accepts any Transformer as a schema entry.
type Transformer interface {
	Transform(raw string) any
}

// Converter turns a raw string into a T. Start from one of the package-level
// converters: the zero Converter converts everything to the zero T and is
// rejected by Conform.
type Converter[T any] struct {
	kind  Kind
	def   T
	zero  func() T
	clone func(T) T
	// parse reports false when the raw value should yield the default.
	parse func(raw string) (T, bool)
	check func(v any) (T, bool)
}

var (
	// Boolean is true only for "true", ignoring case and surrounding space.
	Boolean = Converter[bool]{
		kind:  KindBoolean,
		zero:  func() bool { return false },
		clone: identity[bool],
		parse: parseBoolean,
		check: checkBoolean,
	}

	// String trims surrounding whitespace. Whitespace-only input yields the default.
	String = Converter[string]{
		kind:  KindString,
		zero:  func() string { return "" },
		clone: identity[string],
		parse: parseString,
		check: checkString,
	}

	// Number parses a base-10 integer, truncating decimal input.
	// Unparseable input yields the default.
	Number = Converter[int]{
		kind:  KindNumber,
		zero:  func() int { return 0 },
		clone: identity[int],
		parse: parseNumber,
		check: checkNumber,
	}

	// Array splits on commas, trimming pieces and dropping empty ones.
	Array = Converter[[]string]{
		kind:  KindArray,
		def:   []string{},
		zero:  func() []string { return []string{} },
		clone: cloneStrings,
		parse: parseArray,
		check: checkArray,
	}

	// Object parses "key:value" pairs separated by commas. Entries with an
	// empty key are dropped and the last duplicate key wins.
	Object = Converter[map[string]string]{
		kind:  KindObject,
		def:   map[string]string{},
		zero:  func() map[string]string { return map[string]string{} },
		clone: cloneMap,
		parse: parseObject,
		check: checkObject,
	}
)

// Kind returns the kind of value the converter produces.
func (c Converter[T]) Kind() Kind {
	return c.kind
}

// Default returns a copy of the value produced for absent or empty input.
func (c Converter[T]) Default() T {
	if c.clone == nil {
		return c.def
	}
	return c.clone(c.def)
}

// Convert converts raw, returning the default when raw is empty.
func (c Converter[T]) Convert(raw string) T {
	if raw == "" || c.parse == nil {
		return c.Default()
	}
	v, ok := c.parse(raw)
	if !ok {
		return c.Default()
	}
	return v
}

// Transform implements Transformer.
func (c Converter[T]) Transform(raw string) any {
	return c.Convert(raw)
}

// usable reports whether c was derived from a package-level converter.
func (c Converter[T]) usable() bool {
	return c.parse != nil && c.clone != nil && c.zero != nil
}

// WithDefault returns a converter that yields def for absent or empty input.
// On the zero Converter it only records def.
func (c Converter[T]) WithDefault(def T) Converter[T] {
	if !c.usable() {
		c.def = def
		return c
	}
	c.def = c.clone(def)
	if isNil(c.def) {
		c.def = c.zero()
	}
	return c
}

// WithDefaultValue is WithDefault for an untyped default, such as one decoded
// from a configuration file. A nil default selects the zero default. A value
// of the wrong type yields an *InvalidDefaultError.
func (c Converter[T]) WithDefaultValue(def any) (Converter[T], error) {
	if def == nil {
		var zero T
		if c.zero != nil {
			zero = c.zero()
		}
		return c.WithDefault(zero), nil
	}
	if c.check == nil {
		return Converter[T]{}, &InvalidDefaultError{Kind: c.kind, Actual: describe(def)}
	}
	v, ok := c.check(def)
	if !ok {
		return Converter[T]{}, &InvalidDefaultError{Kind: c.kind, Actual: describe(def)}
	}
	return c.WithDefault(v), nil
}

// ForKind builds the converter for kind with an untyped default.
func ForKind(kind Kind, def any) (Transformer, error) {
	switch kind {
	case KindBoolean:
		return withBoxedDefault(Boolean, def)
	case KindString:
		return withBoxedDefault(String, def)
	case KindNumber:
		return withBoxedDefault(Number, def)
	case KindArray:
		return withBoxedDefault(Array, def)
	case KindObject:
		return withBoxedDefault(Object, def)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func withBoxedDefault[T any](c Converter[T], def any) (Transformer, error) {
	conv, err := c.WithDefaultValue(def)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func identity[T any](v T) T { return v }

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	return slices.Clone(v)
}

func cloneMap(v map[string]string) map[string]string {
	if v == nil {
		return nil
	}
	return maps.Clone(v)
}

func isNil(v any) bool {
	switch t := v.(type) {
	case []string:
		return t == nil
	case map[string]string:
		return t == nil
	}
	return false
}
