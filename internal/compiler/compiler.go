// Package compiler lowers a parsed Document to dialect-specific SQL
// strings. Lowering is pure: the AST is never mutated, each statement owns a
// fresh builder, and the same document can be compiled concurrently against
// distinct variable environments.
package compiler

import (
	"errors"
	"fmt"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/resolver"
	"github.com/docql/docql/internal/sqlbuilder"
)

// Options carries the per-compilation configuration applied to top-level
// statements only. Nil pointer fields mean "not set".
type Options struct {
	Limit      *int
	Offset     *int
	OrderBy    string
	Descending bool
	Returning  string
}

// Compiler lowers one document for one flavor.
type Compiler struct {
	doc    *ast.Document
	flavor sqlbuilder.Flavor
	opts   Options
}

// New creates a compiler for the document.
func New(doc *ast.Document, flavor sqlbuilder.Flavor, opts Options) *Compiler {
	return &Compiler{doc: doc, flavor: flavor, opts: opts}
}

// Compile lowers every operation against the given variables, returning one
// SQL string per top-level table in document order.
func (c *Compiler) Compile(vars map[string]ast.Scalar) ([]string, error) {
	var stmts []string

	for _, op := range c.doc.Operations {
		env, err := resolver.Resolve(op.Vars, vars)
		if err != nil {
			if errors.Is(err, resolver.ErrMissingRequiredVariable) {
				return nil, &ResolutionError{
					Code:    ErrCodeMissingRequiredVariable,
					Name:    op.Name,
					Message: fmt.Sprintf("operation %s: %v", op.Name, err),
				}
			}
			return nil, err
		}

		if op.Kind == ast.OpMutation && len(op.Tables) == 0 {
			return nil, shapeError(ErrCodeMutationRequiresTable, op.Name, "",
				"mutation %s declares no table", op.Name)
		}

		f := &frame{
			c:     c,
			op:    op,
			env:   env,
			vars:  vars,
			stack: []string{op.Name},
		}

		for _, table := range op.Tables {
			sql, err := f.lowerStatement(table)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, sql)
		}
	}

	return stmts, nil
}

// frame is one lowering context: the operation being compiled, its variable
// environment, and the query-call stack used for recursion detection.
// Query-call subframes copy the frame with a fresh environment.
type frame struct {
	c     *Compiler
	op    *ast.Operation
	env   resolver.Env
	vars  map[string]ast.Scalar
	stack []string
}

// lowerStatement classifies one top-level table and delegates:
// delete marker wins, queries become SELECT, mutations split on the
// presence of selectors (UPDATE) versus none (INSERT).
func (f *frame) lowerStatement(table *ast.Table) (string, error) {
	if table.Delete {
		return f.lowerDelete(table)
	}

	if f.op.Kind == ast.OpQuery {
		return f.lowerSelect(table, selectMode{topLevel: true, selectors: table.Params})
	}

	if len(table.Joins()) > 0 {
		return "", shapeError(ErrCodeJoinsNotAllowedInMutation, f.op.Name, table.Name,
			"table %s: joins are only allowed in deletes", table.Name)
	}

	if len(table.Params) > 0 {
		return f.lowerUpdate(table)
	}
	return f.lowerInsert(table)
}

// onStack reports whether an operation name is already being compiled in
// this frame's query-call chain.
func (f *frame) onStack(name string) bool {
	for _, n := range f.stack {
		if n == name {
			return true
		}
	}
	return false
}

// subframe returns a frame for compiling a query-call target.
func (f *frame) subframe(op *ast.Operation, env resolver.Env) *frame {
	stack := make([]string, len(f.stack), len(f.stack)+1)
	copy(stack, f.stack)
	return &frame{
		c:     f.c,
		op:    op,
		env:   env,
		vars:  f.vars,
		stack: append(stack, op.Name),
	}
}

// applySelectConfig applies the caller's config to a top-level SELECT.
func (c *Compiler) applySelectConfig(b *sqlbuilder.Builder) {
	if c.opts.OrderBy != "" {
		b.Order(c.opts.OrderBy, c.opts.Descending)
	}
	if c.opts.Limit != nil {
		b.Limit(*c.opts.Limit)
	}
	if c.opts.Offset != nil {
		b.Offset(*c.opts.Offset)
	}
}

// applyMutationConfig applies the caller's config to a top-level UPDATE or
// DELETE. Offset has no meaning on mutations and is ignored.
func (c *Compiler) applyMutationConfig(b *sqlbuilder.Builder) {
	if c.opts.OrderBy != "" {
		b.Order(c.opts.OrderBy, c.opts.Descending)
	}
	if c.opts.Limit != nil {
		b.Limit(*c.opts.Limit)
	}
	if c.opts.Returning != "" {
		b.Returning(c.opts.Returning)
	}
}
