package conform

// Environment supplies raw values by key. A false second result means the key
// is absent, which converters treat like an empty value.
type Environment interface {
	Lookup(key string) (string, bool)
}

// Env is an in-memory Environment.
type Env map[string]string

// Lookup implements Environment.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// LookupFunc adapts a lookup function such as os.LookupEnv to Environment.
type LookupFunc func(key string) (string, bool)

// Lookup implements Environment.
func (f LookupFunc) Lookup(key string) (string, bool) {
	return f(key)
}
