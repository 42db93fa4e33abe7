// Package resolver builds the variable environment an operation is compiled
// against: the caller's variable map merged with the operation's declared
// variables. Environments are immutable; With returns an extended copy.
package resolver

import (
	"errors"
	"fmt"

	"github.com/docql/docql/internal/ast"
)

// ErrMissingRequiredVariable is wrapped by Resolve when a declared-required
// variable is absent from the caller's map.
var ErrMissingRequiredVariable = errors.New("missing required variable")

// Binding is one resolved variable.
type Binding struct {
	Value    ast.Scalar
	Required bool
}

// Env maps variable names to bindings.
type Env map[string]Binding

// Resolve merges the caller's variables with the operation's declarations.
// Declared-required variables must be present. Undeclared caller entries are
// retained (tolerant merge) so that documents can be compiled against a
// superset environment.
func Resolve(decls []ast.VariableDecl, vars map[string]ast.Scalar) (Env, error) {
	env := make(Env, len(vars))
	for name, value := range vars {
		env[name] = Binding{Value: value}
	}

	for _, decl := range decls {
		binding, ok := env[decl.Name]
		if !ok {
			if decl.Required {
				return nil, fmt.Errorf("%w: $%s", ErrMissingRequiredVariable, decl.Name)
			}
			continue
		}
		binding.Required = decl.Required
		env[decl.Name] = binding
	}

	return env, nil
}

// Lookup returns the scalar bound to name, if any.
func (e Env) Lookup(name string) (ast.Scalar, bool) {
	b, ok := e[name]
	if !ok {
		return nil, false
	}
	return b.Value, true
}

// With returns a copy of the environment extended with one binding. The
// receiver is not modified.
func (e Env) With(name string, value ast.Scalar) Env {
	next := make(Env, len(e)+1)
	for k, v := range e {
		next[k] = v
	}
	next[name] = Binding{Value: value}
	return next
}
