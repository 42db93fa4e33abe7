// Package sqlbuilder assembles dialect-specific SQL strings. The builder is
// a thin accumulator: the compiler decides structure, the builder owns
// string assembly and scalar quoting. One builder produces one statement and
// is discarded afterwards.
package sqlbuilder

import (
	"strconv"
	"strings"

	"github.com/docql/docql/internal/ast"
)

// Verb is the statement kind under construction.
type Verb string

const (
	VerbSelect Verb = "SELECT"
	VerbInsert Verb = "INSERT"
	VerbUpdate Verb = "UPDATE"
	VerbDelete Verb = "DELETE"
)

// Builder accumulates one SQL statement. All mutating methods return the
// receiver for chaining.
type Builder struct {
	flavor Flavor
	verb   Verb
	table  string

	fields  []string // SELECT projection or INSERT column list
	values  []string // INSERT values
	sets    []string // UPDATE assignments
	joins   []string
	wheres  []string // AND-joined, wrapped in one outer paren pair

	orderCol  string
	orderDesc bool
	limit     int
	hasLimit  bool
	offset    int
	hasOffset bool
	returning string
}

// New creates a builder for the given flavor.
func New(flavor Flavor) *Builder {
	return &Builder{flavor: flavor}
}

// Flavor returns the dialect this builder targets.
func (b *Builder) Flavor() Flavor { return b.flavor }

// Select marks the statement as a SELECT.
func (b *Builder) Select() *Builder { b.verb = VerbSelect; return b }

// Insert marks the statement as an INSERT.
func (b *Builder) Insert() *Builder { b.verb = VerbInsert; return b }

// Update marks the statement as an UPDATE.
func (b *Builder) Update() *Builder { b.verb = VerbUpdate; return b }

// Delete marks the statement as a DELETE.
func (b *Builder) Delete() *Builder { b.verb = VerbDelete; return b }

// From sets the source relation of a SELECT or DELETE.
func (b *Builder) From(table string) *Builder { b.table = table; return b }

// Into sets the target relation of an INSERT.
func (b *Builder) Into(table string) *Builder { b.table = table; return b }

// Table sets the target relation of an UPDATE.
func (b *Builder) Table(table string) *Builder { b.table = table; return b }

// Field appends a projection item (SELECT) or column name (INSERT).
func (b *Builder) Field(expr string) *Builder {
	b.fields = append(b.fields, expr)
	return b
}

// Value appends a pre-rendered INSERT value. Pairs positionally with Field.
func (b *Builder) Value(v string) *Builder {
	b.values = append(b.values, v)
	return b
}

// Set appends an UPDATE assignment.
func (b *Builder) Set(column, value string) *Builder {
	b.sets = append(b.sets, column+" = "+value)
	return b
}

// Join appends a pre-rendered join fragment.
func (b *Builder) Join(fragment string) *Builder {
	b.joins = append(b.joins, fragment)
	return b
}

// Where appends a predicate term. Terms are joined with AND and the whole
// clause is wrapped in exactly one pair of parentheses.
func (b *Builder) Where(term string) *Builder {
	b.wheres = append(b.wheres, term)
	return b
}

// Order sets the ORDER BY column and direction.
func (b *Builder) Order(column string, descending bool) *Builder {
	b.orderCol = column
	b.orderDesc = descending
	return b
}

// Limit sets the LIMIT clause.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	b.hasLimit = true
	return b
}

// Offset sets the OFFSET clause.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	b.hasOffset = true
	return b
}

// Returning sets the RETURNING column. Dropped silently when the dialect
// does not support the clause.
func (b *Builder) Returning(column string) *Builder {
	if b.flavor.SupportsReturning() {
		b.returning = column
	}
	return b
}

// Str renders a scalar as a SQL literal for this flavor.
func (b *Builder) Str(s ast.Scalar) string {
	return Quote(s)
}

// Quote renders a scalar as a SQL literal. Strings are single-quoted with
// embedded single quotes doubled; numbers use canonical decimal form. The
// supported flavors agree on literal syntax, so quoting is flavor-free.
func Quote(s ast.Scalar) string {
	switch val := s.(type) {
	case nil, ast.Null:
		return "NULL"
	case ast.Bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case ast.Int:
		return strconv.FormatInt(int64(val), 10)
	case ast.Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case ast.String:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	default:
		return "NULL"
	}
}

// Raw passes a SQL fragment through untouched.
func (b *Builder) Raw(s string) string { return s }

// String assembles the final statement.
func (b *Builder) String() string {
	var sb strings.Builder

	switch b.verb {
	case VerbSelect:
		sb.WriteString("SELECT ")
		if len(b.fields) == 0 {
			sb.WriteString("*")
		} else {
			sb.WriteString(strings.Join(b.fields, ", "))
		}
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		b.writeJoins(&sb)
		b.writeWhere(&sb)
		b.writeOrder(&sb)
		b.writeLimitOffset(&sb)

	case VerbInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.fields, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(strings.Join(b.values, ", "))
		sb.WriteString(")")
		b.writeReturning(&sb)

	case VerbUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		sb.WriteString(strings.Join(b.sets, ", "))
		b.writeWhere(&sb)
		b.writeOrder(&sb)
		b.writeLimitOffset(&sb)
		b.writeReturning(&sb)

	case VerbDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
		b.writeJoins(&sb)
		b.writeWhere(&sb)
		b.writeOrder(&sb)
		b.writeLimitOffset(&sb)
		b.writeReturning(&sb)
	}

	return sb.String()
}

func (b *Builder) writeJoins(sb *strings.Builder) {
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
}

func (b *Builder) writeWhere(sb *strings.Builder) {
	if len(b.wheres) == 0 {
		return
	}
	sb.WriteString(" WHERE (")
	sb.WriteString(strings.Join(b.wheres, " AND "))
	sb.WriteString(")")
}

func (b *Builder) writeOrder(sb *strings.Builder) {
	if b.orderCol == "" {
		return
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(b.orderCol)
	if b.orderDesc {
		sb.WriteString(" DESC")
	} else {
		sb.WriteString(" ASC")
	}
}

func (b *Builder) writeLimitOffset(sb *strings.Builder) {
	if b.hasLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	if b.hasOffset {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}
}

func (b *Builder) writeReturning(sb *strings.Builder) {
	if b.returning == "" {
		return
	}
	sb.WriteString(" RETURNING ")
	sb.WriteString(b.returning)
}
