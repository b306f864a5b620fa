// Package conform converts raw, string-valued configuration (typically
// environment variables) into typed values.
//
// Five converters are provided: Boolean, String, Number, Array and Object.
// Each returns its default when the raw value is absent or empty and exposes a
// WithDefault factory that binds a different default:
//
//	port := conform.Number.WithDefault(8080)
//	port.Convert("")     // 8080
//	port.Convert(" 90 ") // 90
//
// Conform applies an ordered Schema to an Environment and returns a Result
// holding one typed value per schema key:
//
//	schema := conform.NewSchema(
//		conform.Field{Key: "DEBUG", Converter: conform.Boolean},
//		conform.Field{Key: "HOSTS", Converter: conform.Array},
//	)
//	res, err := conform.Conform(conform.LookupFunc(os.LookupEnv), schema)
//
// Defaults that arrive untyped (decoded from YAML or JSON) go through
// WithDefaultValue or ForKind, which reject mismatched types with an
// *InvalidDefaultError when the converter is built.
package conform
