package conform

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDefault is matched by every *InvalidDefaultError.
	ErrInvalidDefault = errors.New("invalid default value")
	// ErrInvalidSchema is matched by every *SchemaError.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnknownKind is returned by ForKind for an unsupported kind name.
	ErrUnknownKind = errors.New("unknown converter kind")
)

// InvalidDefaultError reports a boxed default whose runtime type does not
// match the converter it was supplied to.
type InvalidDefaultError struct {
	Kind   Kind   // expected converter kind
	Actual string // type name observed
}

func (e *InvalidDefaultError) Error() string {
	return fmt.Sprintf("invalid default value provided to %q.WithDefault: should be %q but got %q", e.Kind, e.Kind, e.Actual)
}

// Is reports whether target is ErrInvalidDefault.
func (e *InvalidDefaultError) Is(target error) bool {
	return target == ErrInvalidDefault
}

// SchemaError reports a schema entry that is not a single-argument
// conversion function.
type SchemaError struct {
	Key  string
	Type string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema: conversion functions should be provided in the schema, instead saw type %q at the %q key", e.Type, e.Key)
}

// Is reports whether target is ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}
