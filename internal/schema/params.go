package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
)

// Param is one compiled endpoint parameter.
type Param struct {
	Name        string
	Description string
	Optional    bool
	Validator   Validator
}

// ParamSet is the compiled argument contract of one endpoint.
type ParamSet struct {
	params map[string]Param
	names  []string
}

// CompileParams compiles every parameter of an endpoint.
// It fails on the first parameter whose schema is absent or cannot be compiled,
// so a ParamSet is never partially built.
func CompileParams(specs map[string]types.ParameterSpec) (*ParamSet, error) {
	ps := &ParamSet{
		params: make(map[string]Param, len(specs)),
		names:  slices.Sorted(maps.Keys(specs)),
	}
	for _, name := range ps.names {
		spec := specs[name]
		if spec.Schema == nil {
			return nil, newCompileError(name, nil, "parameter %q has no schema", name)
		}
		v, err := compileAt(name, spec.Schema)
		if err != nil {
			return nil, err
		}
		ps.params[name] = Param{
			Name:        name,
			Description: spec.Description,
			Optional:    spec.Optional,
			Validator:   v,
		}
	}
	return ps, nil
}

// Len returns the number of parameters.
func (ps *ParamSet) Len() int { return len(ps.names) }

// Names returns the parameter names in sorted order.
func (ps *ParamSet) Names() []string { return slices.Clone(ps.names) }

// Params returns the compiled parameters sorted by name.
func (ps *ParamSet) Params() []Param {
	out := make([]Param, 0, len(ps.names))
	for _, name := range ps.names {
		out = append(out, ps.params[name])
	}
	return out
}

// Validate checks a set of tool arguments against the compiled parameters.
// Every problem is reported, joined into a single error.
// An explicit null for an optional parameter is treated as an omission.
func (ps *ParamSet) Validate(args map[string]any) error {
	var errs []error
	for _, name := range ps.names {
		p := ps.params[name]
		value, present := args[name]
		if !present || (value == nil && p.Optional) {
			if !p.Optional {
				errs = append(errs, &ValidationError{Path: name, Reason: "is required"})
			}
			continue
		}
		if err := p.Validator.validateAt(name, value); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(args)) {
		if _, known := ps.params[name]; !known {
			errs = append(errs, &ValidationError{Path: name, Reason: "is not a known parameter"})
		}
	}
	return errors.Join(errs...)
}

// Strip returns a copy of args without explicit nulls for optional parameters,
// matching what Validate accepted as omitted.
func (ps *ParamSet) Strip(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for name, value := range args {
		if p, ok := ps.params[name]; ok && p.Optional && value == nil {
			continue
		}
		out[name] = value
	}
	return out
}

// InputSchema returns the object schema describing all parameters, as advertised to MCP clients.
// Unknown arguments are rejected, so the schema closes additionalProperties.
func (ps *ParamSet) InputSchema() map[string]any {
	props := make(map[string]any, len(ps.names))
	required := make([]any, 0, len(ps.names))
	for _, name := range ps.names {
		p := ps.params[name]
		s := p.Validator.JSONSchema()
		if _, has := s["description"]; !has && p.Description != "" {
			s["description"] = p.Description
		}
		props[name] = s
		if !p.Optional {
			required = append(required, name)
		}
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// Describe renders one line per parameter, eg- "name (string, required): the user's name".
func (ps *ParamSet) Describe() []string {
	lines := make([]string, 0, len(ps.names))
	for _, p := range ps.Params() {
		marker := "required"
		if p.Optional {
			marker = "optional"
		}
		line := fmt.Sprintf("%s (%s, %s)", p.Name, p.Validator.Label(), marker)
		if p.Description != "" {
			line += ": " + p.Description
		}
		lines = append(lines, line)
	}
	return lines
}
