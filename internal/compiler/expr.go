package compiler

import (
	"fmt"
	"strings"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/resolver"
	"github.com/docql/docql/internal/sqlbuilder"
)

// compileSelector emits one predicate term: `lhs op rhs`.
func (f *frame) compileSelector(b *sqlbuilder.Builder, sel ast.Selector) (string, error) {
	rhs, err := f.compileExpr(b, sel.RHS)
	if err != nil {
		return "", err
	}
	return sel.LHS + " " + sel.Op + " " + rhs, nil
}

// compileExpr emits a scalar expression by tagged-variant dispatch.
func (f *frame) compileExpr(b *sqlbuilder.Builder, e ast.Expr) (string, error) {
	switch expr := e.(type) {
	case *ast.Literal:
		return b.Str(expr.Value), nil

	case *ast.Variable:
		val, ok := f.env.Lookup(expr.Name)
		if !ok {
			// Unresolved variables compare as NULL in predicate position.
			return "NULL", nil
		}
		return b.Str(val), nil

	case *ast.RawText:
		return b.Raw(expr.Text), nil

	case *ast.ColumnRef:
		return expr.Path, nil

	case *ast.FuncCall:
		args := make([]string, len(expr.Args))
		for i, arg := range expr.Args {
			s, err := f.compileExpr(b, arg)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return strings.ToUpper(expr.Name) + "(" + strings.Join(args, ", ") + ")", nil

	case *ast.List:
		items := make([]string, len(expr.Items))
		for i, item := range expr.Items {
			s, err := f.compileExpr(b, item)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return "(" + strings.Join(items, ", ") + ")", nil

	case *ast.QueryCall:
		return f.compileQueryCall(expr)

	case *ast.BinaryExpr:
		left, err := f.compileExpr(b, expr.Left)
		if err != nil {
			return "", err
		}
		right, err := f.compileExpr(b, expr.Right)
		if err != nil {
			return "", err
		}
		return left + " " + expr.Op + " " + right, nil

	default:
		return "", fmt.Errorf("unsupported expression type %T", e)
	}
}

// compileQueryCall inlines another operation's SELECT as `(SELECT …)`, with
// call arguments bound positionally to the target's declared variables.
func (f *frame) compileQueryCall(call *ast.QueryCall) (string, error) {
	target, ok := f.c.doc.Lookup(call.Name)
	if !ok {
		return "", &ResolutionError{
			Code:    ErrCodeUnknownOperation,
			Name:    call.Name,
			Message: fmt.Sprintf("query call to unknown operation %q", call.Name),
		}
	}
	if target.Kind != ast.OpQuery || len(target.Tables) == 0 {
		return "", &ResolutionError{
			Code:    ErrCodeUnknownOperation,
			Name:    call.Name,
			Message: fmt.Sprintf("query call target %q is not a query with a table", call.Name),
		}
	}
	if f.onStack(call.Name) {
		return "", &ResolutionError{
			Code:    ErrCodeRecursiveQueryCall,
			Name:    call.Name,
			Message: fmt.Sprintf("query call cycle through operation %q", call.Name),
		}
	}

	env, err := f.queryCallEnv(target, call.Args)
	if err != nil {
		return "", err
	}

	sub := f.subframe(target, env)
	table := target.Tables[0]
	sql, err := sub.lowerSelect(table, selectMode{
		topLevel:  true,
		subselect: true,
		selectors: table.Params,
	})
	if err != nil {
		return "", err
	}
	return "(" + sql + ")", nil
}

// queryCallEnv builds the target operation's environment: the caller's raw
// variables, overridden positionally by the call arguments. Required
// declarations not covered by either fail resolution.
func (f *frame) queryCallEnv(target *ast.Operation, args []ast.Expr) (resolver.Env, error) {
	env := make(resolver.Env, len(f.vars)+len(args))
	for name, value := range f.vars {
		env[name] = resolver.Binding{Value: value}
	}

	for i, decl := range target.Vars {
		if i < len(args) {
			val, err := f.evalScalar(args[i])
			if err != nil {
				return nil, err
			}
			env[decl.Name] = resolver.Binding{Value: val, Required: decl.Required}
			continue
		}
		if _, ok := env[decl.Name]; !ok && decl.Required {
			return nil, &ResolutionError{
				Code:    ErrCodeMissingRequiredVariable,
				Name:    decl.Name,
				Message: fmt.Sprintf("operation %s: missing required variable: $%s", target.Name, decl.Name),
			}
		}
	}

	return env, nil
}

// evalScalar reduces a query-call argument to a scalar. Only literals and
// variables can cross a call boundary.
func (f *frame) evalScalar(e ast.Expr) (ast.Scalar, error) {
	switch expr := e.(type) {
	case *ast.Literal:
		return expr.Value, nil
	case *ast.Variable:
		val, ok := f.env.Lookup(expr.Name)
		if !ok {
			return ast.Null{}, nil
		}
		return val, nil
	default:
		return nil, &ValueError{Message: fmt.Sprintf("cannot pass %T as a query call argument", e)}
	}
}
