package docql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompile_InsertWithLiterals(t *testing.T) {
	stmts, err := Compile(`mutation m { users { name: "John" age: 45 } }`, "pg", Config{})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO users (name, age) VALUES ('John', 45)", stmts[0])
}

func TestCompile_UpdateWithVariables(t *testing.T) {
	stmts, err := Compile(
		`mutation m($id,$name,$age) { users(id=$id) { name:$name age:$age } }`,
		"pg",
		Config{Variables: map[string]any{"id": 9, "name": "John", "age": 45}},
	)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "UPDATE users SET name = 'John', age = 45 WHERE (id = 9)", stmts[0])
}

func TestCompile_DeleteWithOrderLimit(t *testing.T) {
	limit := 1
	stmts, err := Compile(
		`mutation m($name) { - users(name=$name) }`,
		"pg",
		Config{
			Variables:  map[string]any{"name": "Tyler"},
			Limit:      &limit,
			OrderBy:    "name",
			Descending: true,
		},
	)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "DELETE FROM users WHERE (name = 'Tyler') ORDER BY name DESC LIMIT 1", stmts[0])
}

func TestCompile_NestedFilteredJoin(t *testing.T) {
	stmts, err := Compile(`query q {
		users {
			name
			...on bookmarks(user_id=users.id, name="Example") {
				name[bookmark_name]
				...on pages(bookmark_id=bookmarks.id, page=2) {
					number[page_number]
				}
			}
		}
	}`, "pg", Config{})
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	want := "SELECT users.name, bookmarks.name AS bookmark_name, page_number FROM users " +
		"INNER JOIN (SELECT bookmarks.name, pages.number AS page_number, bookmarks.user_id FROM bookmarks " +
		"INNER JOIN (SELECT pages.number, pages.bookmark_id FROM pages WHERE (page = 2)) AS pages " +
		"ON (pages.bookmark_id = bookmarks.id) WHERE (name = 'Example')) AS bookmarks " +
		"ON (bookmarks.user_id = users.id)"
	assert.Equal(t, want, stmts[0])
}

func TestCompile_QueryCallSubselect(t *testing.T) {
	stmts, err := Compile(`
		query getUserID { users(id=3) { id } }
		query getBookmarksForUser { users(id=getUserID()) { name } }
	`, "pg", Config{})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT users.name FROM users WHERE (id = (SELECT users.id FROM users WHERE (id = 3)))", stmts[1])
}

func TestCompile_InSelectorMixedScalars(t *testing.T) {
	stmts, err := Compile(
		`query q($dog) { messages(content in ["cat", true, $dog]) { } }`,
		"pg",
		Config{Variables: map[string]any{"dog": "dog"}},
	)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "SELECT * FROM messages WHERE (content in ('cat', TRUE, 'dog'))", stmts[0])
}

func TestCompile_EmptyQueryBody(t *testing.T) {
	stmts, err := Compile(`query q { users { } }`, "pg", Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT * FROM users"}, stmts)
}

func TestCompile_MissingRequiredVariable(t *testing.T) {
	_, err := Compile(`query q($id!) { users(id=$id) { } }`, "pg", Config{})
	require.Error(t, err)
	assert.Equal(t, "MISSING_REQUIRED_VARIABLE", ErrorKind(err))
}

func TestCompile_OptionalVariableOmitsField(t *testing.T) {
	stmts, err := Compile(
		`mutation m($name, $email) { users { name: $name email: $email } }`,
		"pg",
		Config{Variables: map[string]any{"name": "John"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"INSERT INTO users (name) VALUES ('John')"}, stmts)
}

func TestCompile_ZeroEmittedFieldsFails(t *testing.T) {
	_, err := Compile(`mutation m($a) { users { x: $a } }`, "pg", Config{})
	require.Error(t, err)
	assert.Equal(t, "AT_LEAST_ONE_FIELD_REQUIRED", ErrorKind(err))
}

func TestCompile_ParseErrorKind(t *testing.T) {
	_, err := Compile(`query q { users {`, "pg", Config{})
	require.Error(t, err)
	assert.Equal(t, "PARSE_ERROR", ErrorKind(err))
}

func TestCompile_UnknownFlavor(t *testing.T) {
	_, err := Compile(`query q { users { } }`, "oracle", Config{})
	assert.Error(t, err)
}

func TestCompile_StatementPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		prefix string
	}{
		{"select", `query q { users { } }`, "SELECT "},
		{"insert", `mutation m { users { a: 1 } }`, "INSERT INTO "},
		{"update", `mutation m { users(id=1) { a: 1 } }`, "UPDATE "},
		{"delete", `mutation m { - users(id=1) }`, "DELETE FROM "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Compile(tt.source, "pg", Config{})
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			assert.True(t, strings.HasPrefix(stmts[0], tt.prefix), "got %q", stmts[0])
		})
	}
}

func TestCompile_AllFlavors(t *testing.T) {
	for _, flavor := range []string{"pg", "mysql", "sqlite3"} {
		t.Run(flavor, func(t *testing.T) {
			stmts, err := Compile(`mutation m { users { name: "x" } }`, flavor, Config{})
			require.NoError(t, err)
			assert.Equal(t, "INSERT INTO users (name) VALUES ('x')", stmts[0])
		})
	}
}

// Compilation is deterministic: the same document, flavor, and variables
// always produce identical SQL.
func TestCompile_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-z][a-z0-9_]{0,8}`).Draw(t, "name")
		age := rapid.Int64Range(-1000, 1000).Draw(t, "age")
		limit := rapid.IntRange(0, 100).Draw(t, "limit")

		source := fmt.Sprintf(
			`mutation m($name, $age) { users(id > %d) { name: $name age: $age } }`, age)
		cfg := Config{
			Variables: map[string]any{"name": name, "age": age},
			Limit:     &limit,
			OrderBy:   "id",
		}

		first, err := Compile(source, "pg", cfg)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		second, err := Compile(source, "pg", cfg)
		if err != nil {
			t.Fatalf("recompile: %v", err)
		}
		if len(first) != len(second) {
			t.Fatalf("statement count changed: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("statement %d differs:\n%s\n%s", i, first[i], second[i])
			}
		}
	})
}

func TestCompile_VariableQuotingInjectionSafe(t *testing.T) {
	stmts, err := Compile(
		`mutation m($name) { users { name: $name } }`,
		"pg",
		Config{Variables: map[string]any{"name": "Robert'); DROP TABLE users;--"}},
	)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name) VALUES ('Robert''); DROP TABLE users;--')", stmts[0])
}
