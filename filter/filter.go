// Package filter compiles caller-supplied CEL expressions into object
// predicates for export-time filtering.
//
// Expressions evaluate against a single variable, "object", bound to
// the object's JSON document as a map. A filter must evaluate to a
// boolean:
//
//	f, err := filter.Compile(`object.x_mitre_version >= "2.0"`)
//	...
//	ok, err := f.Match(obj)
package filter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/arcanum-sec/workbench/stix"
)

// ErrNotBoolean indicates the expression evaluated to something other
// than a boolean.
var ErrNotBoolean = errors.New("filter expression is not boolean")

// Filter is a compiled object predicate.
type Filter struct {
	source  string
	program cel.Program
}

// Compile parses and type-checks a CEL expression into a Filter.
func Compile(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("object", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create filter environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build filter program %q: %w", expr, err)
	}
	return &Filter{source: expr, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.source
}

// Match evaluates the filter against one object.
func (f *Filter) Match(obj *stix.Object) (bool, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return false, fmt.Errorf("encode object %s: %w", obj.ID, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decode object %s: %w", obj.ID, err)
	}
	out, _, err := f.program.Eval(map[string]any{"object": doc})
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.source, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q yielded %T", ErrNotBoolean, f.source, out.Value())
	}
	return matched, nil
}
