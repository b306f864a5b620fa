package schemadef

import "errors"

// ErrInvalidDefinition is returned when a definition is structurally unusable:
// empty or duplicate keys, or a malformed document.
var ErrInvalidDefinition = errors.New("invalid schema definition")
