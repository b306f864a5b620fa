package conform

import (
	"fmt"
	"reflect"
)

// Kind names the type a converter produces.
type Kind string

const (
	KindBoolean Kind = "boolean"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindBoolean, KindString, KindNumber, KindArray, KindObject}
}

// ParseKind validates a kind name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// typeName describes a boxed value using the kind vocabulary where one fits,
// falling back to the Go type.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return string(KindBoolean)
	case reflect.String:
		return string(KindString)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return string(KindNumber)
	case reflect.Slice, reflect.Array:
		return string(KindArray)
	case reflect.Map, reflect.Struct:
		return string(KindObject)
	}
	return fmt.Sprintf("%T", v)
}
