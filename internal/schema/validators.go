package schema

import (
	"encoding/json"
	"maps"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// base carries what every validator variant shares.
type base struct {
	// raw holds the non-structural keywords exactly as they appeared in the fragment.
	// Structural keywords (items, properties, schema-valued additionalProperties, oneOf, anyOf)
	// are rebuilt from the compiled children instead.
	raw      map[string]any
	nullable bool
}

func (b *base) emit() map[string]any {
	out := make(map[string]any, len(b.raw)+2)
	maps.Copy(out, b.raw)
	return out
}

func (b *base) label(l string) string {
	if b.nullable {
		return l + "|null"
	}
	return l
}

// acceptsNull reports whether v is an explicit null that the schema allows.
func (b *base) acceptsNull(v any) bool {
	return v == nil && b.nullable
}

// StringValidator accepts JSON strings.
type StringValidator struct {
	base
	minLength int
	maxLength int
	pattern   *regexp.Regexp
	format    string
}

func (s *StringValidator) Kind() Kind { return KindString }

func (s *StringValidator) Label() string {
	if s.format != "" {
		return s.label("string(" + s.format + ")")
	}
	return s.label("string")
}

func (s *StringValidator) Validate(v any) error { return s.validateAt("", v) }

func (s *StringValidator) JSONSchema() map[string]any { return s.emit() }

func (s *StringValidator) validateAt(path string, v any) error {
	if s.acceptsNull(v) {
		return nil
	}
	str, ok := v.(string)
	if !ok {
		return newValidationError(path, "expected string, got %s", typeName(v))
	}
	n := utf8.RuneCountInString(str)
	if s.minLength >= 0 && n < s.minLength {
		return newValidationError(path, "must be at least %d characters long", s.minLength)
	}
	if s.maxLength >= 0 && n > s.maxLength {
		return newValidationError(path, "must be at most %d characters long", s.maxLength)
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		return newValidationError(path, "does not match pattern %q", s.pattern.String())
	}
	if s.format != "" {
		if err := formatCheckers[s.format](str); err != nil {
			return newValidationError(path, "is not a valid %s: %v", s.format, err)
		}
	}
	return nil
}

// NumberValidator accepts JSON numbers, or only integral numbers for the "integer" type.
type NumberValidator struct {
	base
	integer bool

	minimum          *float64
	maximum          *float64
	exclusiveMinimum *float64
	exclusiveMaximum *float64
}

func (n *NumberValidator) Kind() Kind {
	if n.integer {
		return KindInteger
	}
	return KindNumber
}

func (n *NumberValidator) Label() string { return n.label(string(n.Kind())) }

func (n *NumberValidator) Validate(v any) error { return n.validateAt("", v) }

func (n *NumberValidator) JSONSchema() map[string]any { return n.emit() }

func (n *NumberValidator) validateAt(path string, v any) error {
	if n.acceptsNull(v) {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return newValidationError(path, "expected %s, got %s", n.Kind(), typeName(v))
	}
	if n.integer && f != math.Trunc(f) {
		return newValidationError(path, "expected integer, got %v", f)
	}
	if n.minimum != nil && f < *n.minimum {
		return newValidationError(path, "must be >= %v", *n.minimum)
	}
	if n.maximum != nil && f > *n.maximum {
		return newValidationError(path, "must be <= %v", *n.maximum)
	}
	if n.exclusiveMinimum != nil && f <= *n.exclusiveMinimum {
		return newValidationError(path, "must be > %v", *n.exclusiveMinimum)
	}
	if n.exclusiveMaximum != nil && f >= *n.exclusiveMaximum {
		return newValidationError(path, "must be < %v", *n.exclusiveMaximum)
	}
	return nil
}

// BooleanValidator accepts JSON booleans.
type BooleanValidator struct {
	base
}

func (b *BooleanValidator) Kind() Kind { return KindBoolean }

func (b *BooleanValidator) Label() string { return b.label("boolean") }

func (b *BooleanValidator) Validate(v any) error { return b.validateAt("", v) }

func (b *BooleanValidator) JSONSchema() map[string]any { return b.emit() }

func (b *BooleanValidator) validateAt(path string, v any) error {
	if b.acceptsNull(v) {
		return nil
	}
	if _, ok := v.(bool); !ok {
		return newValidationError(path, "expected boolean, got %s", typeName(v))
	}
	return nil
}

// ArrayValidator accepts JSON arrays whose items all conform to a single item schema.
type ArrayValidator struct {
	base
	items    Validator
	minItems int
	maxItems int
}

func (a *ArrayValidator) Kind() Kind { return KindArray }

func (a *ArrayValidator) Label() string { return a.label("array<" + a.items.Label() + ">") }

// Items returns the validator applied to every element.
func (a *ArrayValidator) Items() Validator { return a.items }

func (a *ArrayValidator) Validate(v any) error { return a.validateAt("", v) }

func (a *ArrayValidator) JSONSchema() map[string]any {
	out := a.emit()
	out["items"] = a.items.JSONSchema()
	return out
}

func (a *ArrayValidator) validateAt(path string, v any) error {
	if a.acceptsNull(v) {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return newValidationError(path, "expected array, got %s", typeName(v))
	}
	if a.minItems >= 0 && len(arr) < a.minItems {
		return newValidationError(path, "must contain at least %d items", a.minItems)
	}
	if a.maxItems >= 0 && len(arr) > a.maxItems {
		return newValidationError(path, "must contain at most %d items", a.maxItems)
	}
	for i, item := range arr {
		if err := a.items.validateAt(indexPath(path, i), item); err != nil {
			return err
		}
	}
	return nil
}

// ObjectValidator accepts JSON objects, optionally with declared properties.
type ObjectValidator struct {
	base
	hasProperties bool
	properties    map[string]Validator
	required      []string

	// allowExtra is false when additionalProperties is false.
	allowExtra bool
	// extra validates undeclared properties when additionalProperties is a schema.
	extra Validator
}

func (o *ObjectValidator) Kind() Kind { return KindObject }

func (o *ObjectValidator) Label() string {
	if len(o.properties) == 0 {
		return o.label("object")
	}
	return o.label("object{" + strings.Join(o.PropertyNames(), ",") + "}")
}

// PropertyNames returns the declared property names in sorted order.
func (o *ObjectValidator) PropertyNames() []string {
	return slices.Sorted(maps.Keys(o.properties))
}

func (o *ObjectValidator) Validate(v any) error { return o.validateAt("", v) }

func (o *ObjectValidator) JSONSchema() map[string]any {
	out := o.emit()
	if o.hasProperties {
		props := make(map[string]any, len(o.properties))
		for name, p := range o.properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if o.extra != nil {
		out["additionalProperties"] = o.extra.JSONSchema()
	}
	return out
}

func (o *ObjectValidator) validateAt(path string, v any) error {
	if o.acceptsNull(v) {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return newValidationError(path, "expected object, got %s", typeName(v))
	}
	for _, name := range o.required {
		if _, ok := obj[name]; !ok {
			return newValidationError(path, "missing required property %q", name)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		if p, declared := o.properties[key]; declared {
			if err := p.validateAt(joinPath(path, key), obj[key]); err != nil {
				return err
			}
			continue
		}
		if o.extra != nil {
			if err := o.extra.validateAt(joinPath(path, key), obj[key]); err != nil {
				return err
			}
			continue
		}
		if !o.allowExtra {
			return newValidationError(path, "unexpected property %q", key)
		}
	}
	return nil
}

// EnumValidator accepts exactly one of a fixed list of scalar values.
type EnumValidator struct {
	base
	values []any
}

func (e *EnumValidator) Kind() Kind { return KindEnum }

func (e *EnumValidator) Label() string {
	parts := make([]string, len(e.values))
	for i, v := range e.values {
		b, err := json.Marshal(v)
		if err != nil {
			parts[i] = "?"
			continue
		}
		parts[i] = string(b)
	}
	return e.label("enum(" + strings.Join(parts, "|") + ")")
}

// Values returns the allowed values.
func (e *EnumValidator) Values() []any { return slices.Clone(e.values) }

func (e *EnumValidator) Validate(v any) error { return e.validateAt("", v) }

func (e *EnumValidator) JSONSchema() map[string]any { return e.emit() }

func (e *EnumValidator) validateAt(path string, v any) error {
	if e.acceptsNull(v) {
		return nil
	}
	for _, allowed := range e.values {
		if equalScalar(v, allowed) {
			return nil
		}
	}
	return newValidationError(path, "must be one of %s", strings.TrimSuffix(strings.TrimPrefix(e.Label(), "enum("), ")"))
}

// UnionValidator accepts values that match at least one of its variants.
// It is compiled from both oneOf and anyOf, and always converts back to anyOf.
type UnionValidator struct {
	base
	keyword  string
	variants []Validator
}

func (u *UnionValidator) Kind() Kind { return KindOneOf }

func (u *UnionValidator) Label() string {
	return u.label("oneOf(" + joinLabels(u.variants, "|") + ")")
}

// Variants returns the compiled alternatives.
func (u *UnionValidator) Variants() []Validator { return slices.Clone(u.variants) }

func (u *UnionValidator) Validate(v any) error { return u.validateAt("", v) }

func (u *UnionValidator) JSONSchema() map[string]any {
	out := u.emit()
	variants := make([]any, len(u.variants))
	for i, variant := range u.variants {
		variants[i] = variant.JSONSchema()
	}
	out["anyOf"] = variants
	return out
}

func (u *UnionValidator) validateAt(path string, v any) error {
	if u.acceptsNull(v) {
		return nil
	}
	for _, variant := range u.variants {
		if variant.validateAt(path, v) == nil {
			return nil
		}
	}
	return newValidationError(path, "expected %s, got %s", joinLabels(u.variants, " or "), typeName(v))
}

func equalScalar(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if _, ok := toFloat(b); ok {
		return false
	}
	switch a.(type) {
	case nil, string, bool:
		return a == b
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
