package conform

import (
	"math"
	"reflect"
)

func checkBoolean(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func checkString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// checkNumber accepts every Go integer type and whole floats, which is how
// JSON decoders deliver numbers.
func checkNumber(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if !isWhole(f) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

func checkArray(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func checkObject(v any) (map[string]string, bool) {
	switch t := v.(type) {
	case map[string]string:
		return t, true
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f) &&
		f >= math.MinInt && f < math.MaxInt
}

// describe names the type of a rejected default, calling out the near misses
// that typeName alone would report as the expected kind.
func describe(v any) string {
	switch t := v.(type) {
	case float32:
		return describeFloat(float64(t))
	case float64:
		return describeFloat(t)
	case []any:
		for _, item := range t {
			if _, ok := item.(string); !ok {
				return "array of " + typeName(item)
			}
		}
	case map[string]any:
		for _, item := range t {
			if _, ok := item.(string); !ok {
				return "object of " + typeName(item)
			}
		}
	default:
		rv := reflect.ValueOf(v)
		rt := rv.Type()
		switch rt.Kind() {
		case reflect.Uint, reflect.Uint64, reflect.Uintptr:
			if rv.Uint() > math.MaxInt {
				return "number out of range"
			}
		case reflect.Slice, reflect.Array:
			return "array of " + rt.Elem().String()
		case reflect.Map:
			return rt.String()
		}
	}
	return typeName(v)
}

func describeFloat(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
		return "non-integer number"
	case !isWhole(f):
		return "number out of range"
	}
	return typeName(f)
}
