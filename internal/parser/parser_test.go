package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docql/docql/internal/ast"
)

func TestParse_SimpleMutation(t *testing.T) {
	doc, err := Parse(`mutation m { users { name: "John" age: 45 } }`)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 1)

	op := doc.Operations[0]
	assert.Equal(t, ast.OpMutation, op.Kind)
	assert.Equal(t, "m", op.Name)
	require.Len(t, op.Tables, 1)

	table := op.Tables[0]
	assert.Equal(t, "users", table.Name)
	assert.False(t, table.Delete)
	assert.Empty(t, table.Params)

	fields := table.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "name", fields[0].Name)
	lit, ok := fields[0].Value.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.String("John"), lit.Value)
	assert.Equal(t, "age", fields[1].Name)
	lit, ok = fields[1].Value.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Int(45), lit.Value)
}

func TestParse_VariableDecls(t *testing.T) {
	doc, err := Parse(`mutation m($id, $name!) { users(id=$id) { name: $name } }`)
	require.NoError(t, err)

	op := doc.Operations[0]
	require.Len(t, op.Vars, 2)
	assert.Equal(t, ast.VariableDecl{Name: "id"}, op.Vars[0])
	assert.Equal(t, ast.VariableDecl{Name: "name", Required: true}, op.Vars[1])

	table := op.Tables[0]
	require.Len(t, table.Params, 1)
	assert.Equal(t, "id", table.Params[0].LHS)
	assert.Equal(t, "=", table.Params[0].Op)
	v, ok := table.Params[0].RHS.(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "id", v.Name)
}

func TestParse_DeleteTable(t *testing.T) {
	doc, err := Parse(`mutation m($name) { - users(name=$name) }`)
	require.NoError(t, err)

	table := doc.Operations[0].Tables[0]
	assert.True(t, table.Delete)
	assert.Equal(t, "users", table.Name)
	require.Len(t, table.Params, 1)
	assert.Empty(t, table.Children)
}

func TestParse_QueryWithAliasAndJoin(t *testing.T) {
	doc, err := Parse(`query q {
		users {
			name
			...on bookmarks(user_id=users.id, name="Example") {
				name[bookmark_name]
			}
		}
	}`)
	require.NoError(t, err)

	table := doc.Operations[0].Tables[0]
	fields := table.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "name", fields[0].Name)
	assert.Empty(t, fields[0].Alias)
	assert.Nil(t, fields[0].Value)

	joins := table.Joins()
	require.Len(t, joins, 1)
	child := joins[0].Table
	assert.Equal(t, "bookmarks", child.Name)

	require.Len(t, child.Params, 2)
	ref, ok := child.Params[0].RHS.(*ast.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "users.id", ref.Path)
	assert.Equal(t, "users", ref.Table())

	childFields := child.Fields()
	require.Len(t, childFields, 1)
	assert.Equal(t, "bookmark_name", childFields[0].Alias)
}

func TestParse_SelectorOperators(t *testing.T) {
	tests := []struct {
		input string
		op    string
	}{
		{`query q { t(a = 1) { } }`, "="},
		{`query q { t(a != 1) { } }`, "!="},
		{`query q { t(a < 1) { } }`, "<"},
		{`query q { t(a > 1) { } }`, ">"},
		{`query q { t(a <= 1) { } }`, "<="},
		{`query q { t(a >= 1) { } }`, ">="},
		{`query q { t(a in [1, 2]) { } }`, "in"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			doc, err := Parse(tt.input)
			require.NoError(t, err)
			sel := doc.Operations[0].Tables[0].Params[0]
			assert.Equal(t, tt.op, sel.Op)
		})
	}
}

func TestParse_InRequiresListOrCall(t *testing.T) {
	_, err := Parse(`query q { t(a in 5) { } }`)
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestParse_ExpressionVariants(t *testing.T) {
	doc, err := Parse(`query q($dog) {
		messages(content in ["cat", true, $dog], created < CURRENT_TIMESTAMP - INTERVAL '1 week', score > sum(points)) { }
	}`)
	require.NoError(t, err)

	params := doc.Operations[0].Tables[0].Params
	require.Len(t, params, 3)

	list, ok := params[0].RHS.(*ast.List)
	require.True(t, ok)
	require.Len(t, list.Items, 3)
	assert.IsType(t, &ast.Literal{}, list.Items[0])
	assert.IsType(t, &ast.Variable{}, list.Items[2])

	bin, ok := params[1].RHS.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", bin.Op)
	left, ok := bin.Left.(*ast.RawText)
	require.True(t, ok)
	assert.Equal(t, "CURRENT_TIMESTAMP", left.Text)
	right, ok := bin.Right.(*ast.RawText)
	require.True(t, ok)
	assert.Equal(t, "INTERVAL '1 week'", right.Text)

	call, ok := params[2].RHS.(*ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "sum", call.Name)
	require.Len(t, call.Args, 1)
}

func TestParse_NullLiterals(t *testing.T) {
	doc, err := Parse(`mutation m { t { a: null b: NULL c: true d: false } }`)
	require.NoError(t, err)

	fields := doc.Operations[0].Tables[0].Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, ast.Null{}, fields[0].Value.(*ast.Literal).Value)
	assert.Equal(t, ast.Null{}, fields[1].Value.(*ast.Literal).Value)
	assert.Equal(t, ast.Bool(true), fields[2].Value.(*ast.Literal).Value)
	assert.Equal(t, ast.Bool(false), fields[3].Value.(*ast.Literal).Value)
}

func TestParse_QueryCallClassification(t *testing.T) {
	doc, err := Parse(`
		query getUserID { users(id=3) { id } }
		query getBookmarksForUser { users(id=getUserID()) { name } }
	`)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 2)

	sel := doc.Operations[1].Tables[0].Params[0]
	qc, ok := sel.RHS.(*ast.QueryCall)
	require.True(t, ok, "call naming a document operation should classify as QueryCall")
	assert.Equal(t, "getUserID", qc.Name)

	// Lookup resolves by name.
	op, ok := doc.Lookup("getUserID")
	require.True(t, ok)
	assert.Equal(t, ast.OpQuery, op.Kind)
	_, ok = doc.Lookup("nope")
	assert.False(t, ok)
}

func TestParse_FuncCallStaysFuncCall(t *testing.T) {
	doc, err := Parse(`query q { t(a = now()) { } }`)
	require.NoError(t, err)
	_, ok := doc.Operations[0].Tables[0].Params[0].RHS.(*ast.FuncCall)
	assert.True(t, ok)
}

func TestParse_MultipleTablesInMutation(t *testing.T) {
	doc, err := Parse(`mutation m { users { name: "a" } logs { msg: "b" } }`)
	require.NoError(t, err)
	assert.Len(t, doc.Operations[0].Tables, 2)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty document", ""},
		{"bad keyword", `table m { }`},
		{"missing name", `query { }`},
		{"missing open brace", `query q users { }`},
		{"unclosed operation", `query q { users { }`},
		{"unclosed table", `query q { users {`},
		{"duplicate operation", `query q { a { } } query q { b { } }`},
		{"bad vardecl", `query q(id) { t { } }`},
		{"bad selector operator", `query q { t(a like 1) { } }`},
		{"bad alias", `query q { t { name[1] } }`},
		{"unterminated list", `query q { t(a in [1, 2 { } }`},
		{"unterminated string", `query q { t(a = "x) { } }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("query q {\n  users {\n    name[1]\n  }\n}")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}
