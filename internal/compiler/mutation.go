package compiler

import (
	"errors"
	"strings"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/sqlbuilder"
)

// lowerInsert builds INSERT INTO t (cols) VALUES (vals). Column order is
// the source order of the surviving fields.
func (f *frame) lowerInsert(table *ast.Table) (string, error) {
	b := sqlbuilder.New(f.c.flavor).Insert().Into(table.Name)

	emitted := 0
	for _, fl := range table.Fields() {
		val, skip, err := f.assignValue(b, fl)
		if err != nil {
			return "", err
		}
		if skip {
			continue
		}
		b.Field(fl.Name)
		b.Value(val)
		emitted++
	}

	if emitted == 0 {
		return "", shapeError(ErrCodeAtLeastOneFieldRequired, f.op.Name, table.Name,
			"insert into %s resolved no fields", table.Name)
	}

	if f.c.opts.Returning != "" {
		b.Returning(f.c.opts.Returning)
	}

	return b.String(), nil
}

// lowerUpdate builds UPDATE t SET … WHERE (…). The dispatcher guarantees a
// non-empty selector list.
func (f *frame) lowerUpdate(table *ast.Table) (string, error) {
	b := sqlbuilder.New(f.c.flavor).Update().Table(table.Name)

	emitted := 0
	for _, fl := range table.Fields() {
		val, skip, err := f.assignValue(b, fl)
		if err != nil {
			return "", err
		}
		if skip {
			continue
		}
		b.Set(fl.Name, val)
		emitted++
	}

	if emitted == 0 {
		return "", shapeError(ErrCodeAtLeastOneFieldRequired, f.op.Name, table.Name,
			"update of %s resolved no fields", table.Name)
	}

	for _, sel := range table.Params {
		term, err := f.compileSelector(b, sel)
		if err != nil {
			return "", err
		}
		b.Where(term)
	}

	f.c.applyMutationConfig(b)
	return b.String(), nil
}

// lowerDelete builds DELETE FROM t [joins] WHERE (…). Deletes require a
// selector and forbid field children; joins reuse query join lowering.
func (f *frame) lowerDelete(table *ast.Table) (string, error) {
	if len(table.Params) == 0 {
		return "", shapeError(ErrCodeDeleteRequiresSelector, f.op.Name, table.Name,
			"delete from %s has no selector", table.Name)
	}
	if len(table.Fields()) > 0 {
		return "", shapeError(ErrCodeFieldsNotAllowedInDelete, f.op.Name, table.Name,
			"delete from %s cannot select or assign fields", table.Name)
	}

	b := sqlbuilder.New(f.c.flavor).Delete().From(table.Name)

	for _, join := range table.Joins() {
		fragment, _, err := f.lowerJoin(table, join.Table)
		if err != nil {
			return "", err
		}
		b.Join(fragment)
	}

	for _, sel := range table.Params {
		term, err := f.compileSelector(b, sel)
		if err != nil {
			return "", err
		}
		b.Where(term)
	}

	f.c.applyMutationConfig(b)
	return b.String(), nil
}

// assignValue renders a mutation field's value. The bool result is true
// when the field must be skipped: unresolved variables and unserializable
// values drop the field from the statement rather than failing the
// operation.
func (f *frame) assignValue(b *sqlbuilder.Builder, field *ast.Field) (string, bool, error) {
	if field.Alias != "" {
		return "", false, shapeError(ErrCodeAliasInMutation, f.op.Name, "",
			"field %s: aliases are not allowed in mutations", field.Name)
	}
	if field.Value == nil {
		return "", false, shapeError(ErrCodeValueRequired, f.op.Name, "",
			"field %s: mutation fields require a value", field.Name)
	}

	switch v := field.Value.(type) {
	case *ast.Variable:
		val, ok := f.env.Lookup(v.Name)
		if !ok {
			return "", true, nil
		}
		return b.Str(val), false, nil

	case *ast.Literal:
		return b.Str(v.Value), false, nil

	case *ast.RawText:
		// Multi-token raw SQL is parenthesized in assignment position.
		if strings.ContainsRune(v.Text, ' ') {
			return "(" + b.Raw(v.Text) + ")", false, nil
		}
		return b.Raw(v.Text), false, nil

	case *ast.FuncCall, *ast.QueryCall, *ast.ColumnRef:
		s, err := f.compileExpr(b, field.Value)
		if err != nil {
			return f.recoverValueError(err)
		}
		return s, false, nil

	case *ast.BinaryExpr:
		s, err := f.compileExpr(b, field.Value)
		if err != nil {
			return f.recoverValueError(err)
		}
		return "(" + s + ")", false, nil

	default:
		return "", true, nil
	}
}

// recoverValueError downgrades value errors to a field skip; anything else
// stays fatal.
func (f *frame) recoverValueError(err error) (string, bool, error) {
	var ve *ValueError
	if errors.As(err, &ve) {
		return "", true, nil
	}
	return "", false, err
}

// StatementKind names the statement a top-level table lowers to, without
// compiling it. The CLI summary uses this.
func StatementKind(op *ast.Operation, table *ast.Table) string {
	switch {
	case table.Delete:
		return "DELETE"
	case op.Kind == ast.OpQuery:
		return "SELECT"
	case len(table.Params) > 0:
		return "UPDATE"
	default:
		return "INSERT"
	}
}
