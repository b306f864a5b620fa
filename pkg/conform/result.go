package conform

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mitchellh/mapstructure"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Result holds conformed values in schema order.
type Result struct {
	values *orderedmap.OrderedMap[string, any]
}

func newResult(size int) *Result {
	return &Result{values: orderedmap.New[string, any](orderedmap.WithCapacity[string, any](size))}
}

// Get returns the value stored under key.
func (r *Result) Get(key string) (any, bool) {
	return r.values.Get(key)
}

// Len returns the number of values.
func (r *Result) Len() int {
	return r.values.Len()
}

// Keys returns the keys in schema order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Bool returns the boolean stored under key, or false.
func (r *Result) Bool(key string) bool {
	v, _ := valueAs[bool](r, key)
	return v
}

// String returns the string stored under key, or "".
func (r *Result) String(key string) string {
	v, _ := valueAs[string](r, key)
	return v
}

// Int returns the number stored under key, or 0.
func (r *Result) Int(key string) int {
	v, _ := valueAs[int](r, key)
	return v
}

// Strings returns a copy of the array stored under key, or nil.
func (r *Result) Strings(key string) []string {
	v, _ := valueAs[[]string](r, key)
	return slices.Clone(v)
}

// Map returns a copy of the object stored under key, or nil.
func (r *Result) Map(key string) map[string]string {
	v, _ := valueAs[map[string]string](r, key)
	return maps.Clone(v)
}

// ToMap copies the values into a plain map.
func (r *Result) ToMap() map[string]any {
	out := make(map[string]any, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// MarshalJSON encodes the values as a JSON object in schema order.
func (r *Result) MarshalJSON() ([]byte, error) {
	return r.values.MarshalJSON()
}

// Decode copies the values into the struct pointed to by out. Fields are
// matched on their `env` tag, falling back to a case-insensitive field name.
func (r *Result) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "env",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(r.ToMap()); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func valueAs[T any](r *Result, key string) (T, bool) {
	var zero T
	v, ok := r.values.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
