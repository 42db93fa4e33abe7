package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/parser"
	"github.com/docql/docql/internal/sqlbuilder"
)

func TestInsert_Literals(t *testing.T) {
	sql := compileOne(t, `mutation m { users { name: "John" age: 45 } }`, Options{}, nil)
	assert.Equal(t, "INSERT INTO users (name, age) VALUES ('John', 45)", sql)
}

func TestInsert_Returning(t *testing.T) {
	sql := compileOne(t, `mutation m { users { name: "John" } }`,
		Options{Returning: "id"}, nil)
	assert.Equal(t, "INSERT INTO users (name) VALUES ('John') RETURNING id", sql)
}

func TestInsert_UnresolvedVariableSkipsField(t *testing.T) {
	sql := compileOne(t, `mutation m($name, $email) { users { name: $name email: $email } }`,
		Options{}, map[string]ast.Scalar{"name": ast.String("John")})
	assert.Equal(t, "INSERT INTO users (name) VALUES ('John')", sql)
}

func TestInsert_AllFieldsUnresolvedFails(t *testing.T) {
	err := compileErr(t, `mutation m($a, $b) { users { x: $a y: $b } }`, Options{}, nil)
	assert.True(t, IsShapeError(err, ErrCodeAtLeastOneFieldRequired), "got %v", err)
}

func TestInsert_RawTextValue(t *testing.T) {
	sql := compileOne(t, `mutation m { events { name: "boot" at: CURRENT_TIMESTAMP } }`, Options{}, nil)
	assert.Equal(t, "INSERT INTO events (name, at) VALUES ('boot', CURRENT_TIMESTAMP)", sql)
}

func TestInsert_RawExpressionParenthesized(t *testing.T) {
	sql := compileOne(t, `mutation m { events { expires: CURRENT_TIMESTAMP - INTERVAL '1 week' } }`, Options{}, nil)
	assert.Equal(t, "INSERT INTO events (expires) VALUES ((CURRENT_TIMESTAMP - INTERVAL '1 week'))", sql)
}

func TestInsert_FunctionValue(t *testing.T) {
	sql := compileOne(t, `mutation m { users { created: now() } }`, Options{}, nil)
	assert.Equal(t, "INSERT INTO users (created) VALUES (NOW())", sql)
}

func TestInsert_ScalarKinds(t *testing.T) {
	sql := compileOne(t, `mutation m { t { a: null b: true c: 1.5 d: -2 } }`, Options{}, nil)
	assert.Equal(t, "INSERT INTO t (a, b, c, d) VALUES (NULL, TRUE, 1.5, -2)", sql)
}

func TestUpdate_VariablesAndWhere(t *testing.T) {
	sql := compileOne(t, `mutation m($id, $name, $age) { users(id=$id) { name: $name age: $age } }`,
		Options{}, map[string]ast.Scalar{
			"id":   ast.Int(9),
			"name": ast.String("John"),
			"age":  ast.Int(45),
		})
	assert.Equal(t, "UPDATE users SET name = 'John', age = 45 WHERE (id = 9)", sql)
}

func TestUpdate_Config(t *testing.T) {
	limit := 1
	sql := compileOne(t, `mutation m { users(id=9) { name: "x" } }`,
		Options{Limit: &limit, OrderBy: "id", Returning: "name"}, nil)
	assert.Equal(t, "UPDATE users SET name = 'x' WHERE (id = 9) ORDER BY id ASC LIMIT 1 RETURNING name", sql)
}

func TestDelete_OrderLimit(t *testing.T) {
	limit := 1
	sql := compileOne(t, `mutation m($name) { - users(name=$name) }`,
		Options{Limit: &limit, OrderBy: "name", Descending: true},
		map[string]ast.Scalar{"name": ast.String("Tyler")})
	assert.Equal(t, "DELETE FROM users WHERE (name = 'Tyler') ORDER BY name DESC LIMIT 1", sql)
}

func TestDelete_WithJoin(t *testing.T) {
	sql := compileOne(t, `mutation m {
		- users(active=false) {
			...on sessions(user_id=users.id) { }
		}
	}`, Options{}, nil)

	assert.Equal(t, "DELETE FROM users "+
		"INNER JOIN (SELECT sessions.user_id FROM sessions) AS sessions ON (sessions.user_id = users.id) "+
		"WHERE (active = FALSE)", sql)
}

func TestDelete_RequiresSelector(t *testing.T) {
	err := compileErr(t, `mutation m { - users { } }`, Options{}, nil)
	assert.True(t, IsShapeError(err, ErrCodeDeleteRequiresSelector), "got %v", err)
}

func TestDelete_FieldsRejected(t *testing.T) {
	err := compileErr(t, `mutation m { - users(id=1) { name } }`, Options{}, nil)
	assert.True(t, IsShapeError(err, ErrCodeFieldsNotAllowedInDelete), "got %v", err)
}

func TestMutation_JoinRejectedOutsideDelete(t *testing.T) {
	err := compileErr(t, `mutation m { users { name: "x" ...on logs(user_id=users.id) { } } }`, Options{}, nil)
	assert.True(t, IsShapeError(err, ErrCodeJoinsNotAllowedInMutation), "got %v", err)
}

func TestMutation_AliasRejected(t *testing.T) {
	// Programmatic AST: the surface grammar reads name[alias] as a query
	// field, so build the shape directly.
	doc := &ast.Document{Operations: []*ast.Operation{{
		Kind: ast.OpMutation,
		Name: "m",
		Tables: []*ast.Table{{
			Name: "users",
			Children: []ast.Node{
				&ast.Field{Name: "name", Alias: "n", Value: &ast.Literal{Value: ast.String("x")}},
			},
		}},
	}}}

	_, err := New(doc, sqlbuilder.FlavorPostgres, Options{}).Compile(nil)
	require.Error(t, err)
	assert.True(t, IsShapeError(err, ErrCodeAliasInMutation), "got %v", err)
}

func TestMutation_ValueRequired(t *testing.T) {
	err := compileErr(t, `mutation m { users { name } }`, Options{}, nil)
	assert.True(t, IsShapeError(err, ErrCodeValueRequired), "got %v", err)
}

func TestMutation_RequiresTable(t *testing.T) {
	err := compileErr(t, `mutation m { }`, Options{}, nil)
	assert.True(t, IsShapeError(err, ErrCodeMutationRequiresTable), "got %v", err)
}

func TestMutation_MultipleTables(t *testing.T) {
	stmts := compileAll(t, `mutation m { users { name: "a" } logs(id=1) { msg: "b" } }`, Options{}, nil)
	require.Len(t, stmts, 2)
	assert.Equal(t, "INSERT INTO users (name) VALUES ('a')", stmts[0])
	assert.Equal(t, "UPDATE logs SET msg = 'b' WHERE (id = 1)", stmts[1])
}

func TestMutation_MissingRequiredVariable(t *testing.T) {
	err := compileErr(t, `mutation m($id!) { users(id=$id) { name: "x" } }`, Options{}, nil)
	assert.True(t, IsResolutionError(err, ErrCodeMissingRequiredVariable), "got %v", err)
}

func TestMySQL_ReturningDropped(t *testing.T) {
	doc, err := parser.Parse(`mutation m { users { name: "x" } }`)
	require.NoError(t, err)
	stmts, err := New(doc, sqlbuilder.FlavorMySQL, Options{Returning: "id"}).Compile(nil)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO users (name) VALUES ('x')", stmts[0])
}
