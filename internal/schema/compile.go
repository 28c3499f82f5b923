package schema

import (
	"errors"
	"maps"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// annotationKeywords are accepted on every schema and carried through to JSONSchema untouched.
var annotationKeywords = []string{"$schema", "title", "description", "default", "examples", "nullable"}

// rejectedKeywords are composition and reference keywords the interpreter does not implement.
// They are reported before anything else so that a fragment without a type still names its real cause.
var rejectedKeywords = []string{"$ref", "$defs", "definitions", "allOf", "not", "const", "if", "then", "else"}

// formatCheckers lists the string formats that are enforced. Any other format is rejected at compile time.
var formatCheckers = map[string]func(string) error{
	"date-time": func(s string) error {
		_, err := time.Parse(time.RFC3339, s)
		return err
	},
	"date": func(s string) error {
		_, err := time.Parse(time.DateOnly, s)
		return err
	},
	"uuid": func(s string) error {
		_, err := uuid.Parse(s)
		return err
	},
	"email": func(s string) error {
		_, err := mail.ParseAddress(s)
		return err
	},
	"uri": func(s string) error {
		u, err := url.Parse(s)
		if err != nil {
			return err
		}
		if !u.IsAbs() {
			return errors.New("missing scheme")
		}
		return nil
	},
}

// Compile turns a JSON-Schema fragment into a Validator.
// It returns a *CompileError if the fragment uses a keyword or type that is not supported,
// or if any of its keyword values are malformed.
func Compile(fragment map[string]any) (Validator, error) {
	return compileAt("$", fragment)
}

// MustCompile is like Compile but panics on error.
// It is meant for schemas that are literals in the source code.
func MustCompile(fragment map[string]any) Validator {
	v, err := Compile(fragment)
	if err != nil {
		panic(err)
	}
	return v
}

func compileAt(path string, s map[string]any) (Validator, error) {
	if s == nil {
		return nil, newCompileError(path, s, "schema is missing")
	}
	for _, k := range rejectedKeywords {
		if _, ok := s[k]; ok {
			return nil, newCompileError(path, s, "unsupported keyword %q", k)
		}
	}
	if _, ok := s["enum"]; ok {
		return compileEnum(path, s)
	}
	if _, ok := s["oneOf"]; ok {
		return compileUnion(path, s, "oneOf")
	}
	if _, ok := s["anyOf"]; ok {
		return compileUnion(path, s, "anyOf")
	}

	rawType, ok := s["type"]
	if !ok {
		return nil, newCompileError(path, s, "schema does not declare a type")
	}
	t, ok := rawType.(string)
	if !ok {
		return nil, newCompileError(path, s, "type must be a single string, got %v", rawType)
	}
	switch Kind(t) {
	case KindString:
		return compileString(path, s)
	case KindNumber:
		return compileNumber(path, s, false)
	case KindInteger:
		return compileNumber(path, s, true)
	case KindBoolean:
		return compileBoolean(path, s)
	case KindArray:
		return compileArray(path, s)
	case KindObject:
		return compileObject(path, s)
	}
	return nil, newCompileError(path, s, "unsupported type %q", t)
}

// newBase checks that s only uses annotations plus the given keywords.
// Keywords listed in keep are copied into raw, the ones in structural are left to the caller.
func newBase(path string, s map[string]any, keep []string, structural ...string) (base, error) {
	b := base{raw: make(map[string]any, len(s))}
	for _, k := range slices.Sorted(maps.Keys(s)) {
		switch {
		case slices.Contains(annotationKeywords, k), slices.Contains(keep, k):
			b.raw[k] = s[k]
		case slices.Contains(structural, k):
		default:
			return base{}, newCompileError(path, s, "unsupported keyword %q", k)
		}
	}
	if n, ok := s["nullable"]; ok {
		nb, ok := n.(bool)
		if !ok {
			return base{}, newCompileError(path, s, "nullable must be a boolean, got %v", n)
		}
		b.nullable = nb
	}
	return b, nil
}

func compileString(path string, s map[string]any) (Validator, error) {
	b, err := newBase(path, s, []string{"type", "minLength", "maxLength", "pattern", "format"})
	if err != nil {
		return nil, err
	}
	v := &StringValidator{base: b}
	if v.minLength, err = countKeyword(path, s, "minLength"); err != nil {
		return nil, err
	}
	if v.maxLength, err = countKeyword(path, s, "maxLength"); err != nil {
		return nil, err
	}
	if p, ok := s["pattern"]; ok {
		ps, ok := p.(string)
		if !ok {
			return nil, newCompileError(path, s, "pattern must be a string, got %v", p)
		}
		if v.pattern, err = regexp.Compile(ps); err != nil {
			return nil, newCompileError(path, s, "invalid pattern %q: %v", ps, err)
		}
	}
	if f, ok := s["format"]; ok {
		fs, ok := f.(string)
		if !ok {
			return nil, newCompileError(path, s, "format must be a string, got %v", f)
		}
		if _, known := formatCheckers[fs]; !known {
			return nil, newCompileError(path, s, "unsupported format %q", fs)
		}
		v.format = fs
	}
	return v, nil
}

func compileNumber(path string, s map[string]any, integer bool) (Validator, error) {
	b, err := newBase(path, s, []string{"type", "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum"})
	if err != nil {
		return nil, err
	}
	v := &NumberValidator{base: b, integer: integer}
	bounds := []struct {
		key string
		dst **float64
	}{
		{"minimum", &v.minimum},
		{"maximum", &v.maximum},
		{"exclusiveMinimum", &v.exclusiveMinimum},
		{"exclusiveMaximum", &v.exclusiveMaximum},
	}
	for _, bound := range bounds {
		raw, ok := s[bound.key]
		if !ok {
			continue
		}
		f, ok := toFloat(raw)
		if !ok {
			return nil, newCompileError(path, s, "%s must be a number, got %v", bound.key, raw)
		}
		*bound.dst = &f
	}
	return v, nil
}

func compileBoolean(path string, s map[string]any) (Validator, error) {
	b, err := newBase(path, s, []string{"type"})
	if err != nil {
		return nil, err
	}
	return &BooleanValidator{base: b}, nil
}

func compileArray(path string, s map[string]any) (Validator, error) {
	b, err := newBase(path, s, []string{"type", "minItems", "maxItems"}, "items")
	if err != nil {
		return nil, err
	}
	v := &ArrayValidator{base: b}
	if v.minItems, err = countKeyword(path, s, "minItems"); err != nil {
		return nil, err
	}
	if v.maxItems, err = countKeyword(path, s, "maxItems"); err != nil {
		return nil, err
	}

	rawItems, ok := s["items"]
	if !ok {
		return nil, newCompileError(path, s, "array schema must declare items")
	}
	items, ok := rawItems.(map[string]any)
	if !ok {
		return nil, newCompileError(path, s, "items must be a single schema object")
	}
	if v.items, err = compileAt(path+".items", items); err != nil {
		return nil, err
	}
	return v, nil
}

func compileObject(path string, s map[string]any) (Validator, error) {
	b, err := newBase(path, s, []string{"type", "required", "additionalProperties"}, "properties")
	if err != nil {
		return nil, err
	}
	v := &ObjectValidator{base: b, properties: map[string]Validator{}, allowExtra: true}

	if rawProps, ok := s["properties"]; ok {
		props, ok := rawProps.(map[string]any)
		if !ok {
			return nil, newCompileError(path, s, "properties must be an object")
		}
		v.hasProperties = true
		for _, name := range slices.Sorted(maps.Keys(props)) {
			ps, ok := props[name].(map[string]any)
			if !ok {
				return nil, newCompileError(path, s, "property %q must be a schema object", name)
			}
			pv, err := compileAt(path+".properties."+name, ps)
			if err != nil {
				return nil, err
			}
			v.properties[name] = pv
		}
	}

	if rawReq, ok := s["required"]; ok {
		req, ok := asSlice(rawReq)
		if !ok {
			return nil, newCompileError(path, s, "required must be an array of strings")
		}
		for _, r := range req {
			name, ok := r.(string)
			if !ok {
				return nil, newCompileError(path, s, "required must be an array of strings, got %v", r)
			}
			if !slices.Contains(v.required, name) {
				v.required = append(v.required, name)
			}
		}
	}

	if rawExtra, ok := s["additionalProperties"]; ok {
		switch extra := rawExtra.(type) {
		case bool:
			v.allowExtra = extra
		case map[string]any:
			// rebuilt from the compiled validator in JSONSchema
			delete(v.raw, "additionalProperties")
			if v.extra, err = compileAt(path+".additionalProperties", extra); err != nil {
				return nil, err
			}
		default:
			return nil, newCompileError(path, s, "additionalProperties must be a boolean or a schema object")
		}
	}
	return v, nil
}

func compileEnum(path string, s map[string]any) (Validator, error) {
	b, err := newBase(path, s, []string{"type", "enum"})
	if err != nil {
		return nil, err
	}
	values, ok := asSlice(s["enum"])
	if !ok || len(values) == 0 {
		return nil, newCompileError(path, s, "enum must be a non-empty array")
	}

	var declared string
	if t, ok := s["type"]; ok {
		if declared, ok = t.(string); !ok {
			return nil, newCompileError(path, s, "type must be a single string, got %v", t)
		}
		switch Kind(declared) {
		case KindString, KindNumber, KindInteger, KindBoolean:
		default:
			return nil, newCompileError(path, s, "enum of type %q is not supported", declared)
		}
	}

	for _, value := range values {
		if !isScalar(value) {
			return nil, newCompileError(path, s, "enum values must be scalars, got %s", typeName(value))
		}
		if declared != "" && value != nil && !scalarMatches(Kind(declared), value) {
			return nil, newCompileError(path, s, "enum value %v is not of type %s", value, declared)
		}
	}
	return &EnumValidator{base: b, values: values}, nil
}

func compileUnion(path string, s map[string]any, keyword string) (Validator, error) {
	b, err := newBase(path, s, nil, keyword)
	if err != nil {
		return nil, err
	}
	rawVariants, ok := asSlice(s[keyword])
	if !ok || len(rawVariants) == 0 {
		return nil, newCompileError(path, s, "%s must be a non-empty array of schemas", keyword)
	}
	v := &UnionValidator{base: b, keyword: keyword}
	for i, raw := range rawVariants {
		vs, ok := raw.(map[string]any)
		if !ok {
			return nil, newCompileError(path, s, "%s[%d] must be a schema object", keyword, i)
		}
		variant, err := compileAt(indexPath(path+"."+keyword, i), vs)
		if err != nil {
			return nil, err
		}
		v.variants = append(v.variants, variant)
	}
	return v, nil
}

// countKeyword reads a non-negative integer keyword such as minLength, returning -1 when it is absent.
func countKeyword(path string, s map[string]any, key string) (int, error) {
	raw, ok := s[key]
	if !ok {
		return -1, nil
	}
	f, ok := toFloat(raw)
	if !ok || f < 0 || f != math.Trunc(f) {
		return 0, newCompileError(path, s, "%s must be a non-negative integer, got %v", key, raw)
	}
	return int(f), nil
}

// asSlice accepts the slice shapes produced by encoding/json as well as Go literals.
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool:
		return true
	}
	_, ok := toFloat(v)
	return ok
}

func scalarMatches(k Kind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindNumber:
		_, ok := toFloat(v)
		return ok
	case KindInteger:
		f, ok := toFloat(v)
		return ok && f == math.Trunc(f)
	}
	return false
}
