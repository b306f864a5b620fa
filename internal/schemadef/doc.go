// Package schemadef describes conform schemas as data. A Definition can be
// read from a YAML file or a JSON request body and built into a
// *conform.Schema; defaults arrive untyped and are checked against their
// field's kind when the schema is built.
package schemadef
