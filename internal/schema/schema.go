// Package schema compiles JSON-Schema fragments supplied by the engine into runtime validators.
//
// Compilation is a closed-form walk over the fragment: every supported keyword maps to a field of
// one of a fixed set of validator types, and anything else is rejected with a *CompileError.
// No code is generated or evaluated, so the only input that matters is the fragment itself.
// Fragments must still only come from the authenticated engine connection.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the variant of a compiled Validator.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindEnum    Kind = "enum"
	KindOneOf   Kind = "oneOf"
)

// Validator is a compiled JSON-Schema fragment.
// The set of implementations is closed, it only contains the validators defined in this package.
type Validator interface {
	// Kind returns the variant of the validator.
	Kind() Kind

	// Label returns a short human-readable description of the accepted values, eg- "array<string>".
	Label() string

	// Validate returns nil if value conforms to the schema, otherwise a *ValidationError.
	// value is expected to be a decoded JSON value (string, float64, bool, nil, []any, map[string]any).
	Validate(value any) error

	// JSONSchema converts the validator back into a JSON-Schema fragment.
	// The returned map is a fresh copy and may be modified by the caller.
	JSONSchema() map[string]any

	validateAt(path string, value any) error
}

// CompileError is returned when a fragment cannot be turned into a validator.
type CompileError struct {
	// Path locates the offending fragment, "$" being the root of the compiled schema.
	Path string
	// Schema is the offending fragment.
	Schema map[string]any
	Reason string
}

func (e *CompileError) Error() string {
	raw, err := json.Marshal(e.Schema)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", e.Schema))
	}
	return fmt.Sprintf("failed to compile schema at %s: %s (schema: %s)", e.Path, e.Reason, raw)
}

func newCompileError(path string, s map[string]any, format string, args ...any) *CompileError {
	return &CompileError{Path: path, Schema: s, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError is returned when a value does not conform to a compiled schema.
type ValidationError struct {
	// Path locates the offending value, empty for the root value.
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

func newValidationError(path string, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func joinPath(parent, key string) string {
	if parent == "" || parent == "$" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// typeName returns the JSON type name of a decoded value, used in validation messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func joinLabels(vs []Validator, sep string) string {
	labels := make([]string, len(vs))
	for i, v := range vs {
		labels[i] = v.Label()
	}
	return strings.Join(labels, sep)
}
