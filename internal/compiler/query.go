package compiler

import (
	"strings"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/sqlbuilder"
)

// selectMode controls how a table lowers to a SELECT. The same walk serves
// the outermost statement, nested derived tables, and query-call
// subselects; only aliasing, WHERE source, and config application differ.
type selectMode struct {
	topLevel  bool           // outermost statement: own-field aliases apply, config applies
	subselect bool           // query-call inline: no caller config
	selectors []ast.Selector // WHERE terms for this level
	fkCols    []string       // derived tables: ON-clause columns appended to the projection
}

// lowerSelect builds the SELECT statement for a table.
//
// Projection order is fixed: the table's own fields, then each join child's
// contributions, then any foreign-key columns a parent's ON clause needs.
func (f *frame) lowerSelect(table *ast.Table, mode selectMode) (string, error) {
	b := sqlbuilder.New(f.c.flavor).Select().From(table.Name)

	seen := map[string]bool{}
	addField := func(expr string) {
		if !seen[expr] {
			seen[expr] = true
			b.Field(expr)
		}
	}

	for _, fl := range table.Fields() {
		if fl.Value != nil {
			return "", shapeError(ErrCodeAssignmentsNotAllowedInQuery, f.op.Name, table.Name,
				"field %s: value assignments are not allowed in queries", fl.Name)
		}
		expr := table.Name + "." + fl.Name
		if mode.topLevel && fl.Alias != "" {
			expr += " AS " + fl.Alias
		}
		addField(expr)
	}

	for _, join := range table.Joins() {
		fragment, items, err := f.lowerJoin(table, join.Table)
		if err != nil {
			return "", err
		}
		for _, item := range items {
			addField(item)
		}
		b.Join(fragment)
	}

	for _, col := range mode.fkCols {
		addField(col)
	}

	for _, sel := range mode.selectors {
		term, err := f.compileSelector(b, sel)
		if err != nil {
			return "", err
		}
		b.Where(term)
	}

	if mode.topLevel && !mode.subselect {
		f.c.applySelectConfig(b)
	}

	return b.String(), nil
}

// lowerJoin rewrites a `...on child` spread into an INNER JOIN against a
// nested derived table. It returns the join fragment and the projection
// items the parent level contributes for the child.
//
// The child's selectors are partitioned: those whose right-hand side is a
// column of the parent table become the ON clause; everything else is
// hoisted into the derived table's WHERE. The derived projection also
// carries the child-side columns the ON clause references.
func (f *frame) lowerJoin(parent, child *ast.Table) (string, []string, error) {
	var onSels, hoisted []ast.Selector
	for _, sel := range child.Params {
		if ref, ok := sel.RHS.(*ast.ColumnRef); ok && ref.Table() == parent.Name {
			onSels = append(onSels, sel)
		} else {
			hoisted = append(hoisted, sel)
		}
	}

	var fkCols []string
	for _, sel := range onSels {
		fkCols = append(fkCols, child.Name+"."+sel.LHS)
	}

	derived, err := f.lowerSelect(child, selectMode{selectors: hoisted, fkCols: fkCols})
	if err != nil {
		return "", nil, err
	}

	b := sqlbuilder.New(f.c.flavor)
	var onTerms []string
	for _, sel := range onSels {
		rhs, err := f.compileExpr(b, sel.RHS)
		if err != nil {
			return "", nil, err
		}
		onTerms = append(onTerms, child.Name+"."+sel.LHS+" "+sel.Op+" "+rhs)
	}
	if len(onTerms) == 0 {
		onTerms = []string{"1 = 1"}
	}

	fragment := "INNER JOIN (" + derived + ") AS " + child.Name + " ON (" + strings.Join(onTerms, " AND ") + ")"

	// At the parent level the child's own fields are referenced through the
	// derived alias with their aliases applied; anything deeper is already
	// exposed under its final name and is referenced bare.
	var items []string
	for _, fl := range child.Fields() {
		item := child.Name + "." + fl.Name
		if fl.Alias != "" {
			item += " AS " + fl.Alias
		}
		items = append(items, item)
	}
	for _, join := range child.Joins() {
		items = append(items, exposedNames(join.Table)...)
	}

	return fragment, items, nil
}

// exposedNames lists the column names a table's derived projection makes
// visible to its ancestors: each own field under its alias (or name), then
// the exposures of its own joins.
func exposedNames(table *ast.Table) []string {
	var names []string
	for _, fl := range table.Fields() {
		if fl.Alias != "" {
			names = append(names, fl.Alias)
		} else {
			names = append(names, fl.Name)
		}
	}
	for _, join := range table.Joins() {
		names = append(names, exposedNames(join.Table)...)
	}
	return names
}
