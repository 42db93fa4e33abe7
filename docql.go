// Package docql compiles a GraphQL-inspired document language into
// dialect-specific SQL strings. A document holds named queries and
// mutations; each top-level table of an operation lowers to one SELECT,
// INSERT, UPDATE, or DELETE statement.
//
// Compilation is pure and deterministic: the same document, flavor, and
// configuration always produce the same SQL, and a parsed document may be
// compiled concurrently against distinct variable sets.
package docql

import (
	"errors"
	"fmt"

	"github.com/docql/docql/internal/ast"
	"github.com/docql/docql/internal/compiler"
	"github.com/docql/docql/internal/parser"
	"github.com/docql/docql/internal/sqlbuilder"
)

// Flavor names accepted by Compile.
const (
	FlavorPostgres = string(sqlbuilder.FlavorPostgres)
	FlavorMySQL    = string(sqlbuilder.FlavorMySQL)
	FlavorSQLite   = string(sqlbuilder.FlavorSQLite)
)

// Config carries the optional per-compilation settings. Everything except
// Variables applies to top-level statements only; inlined query-call
// subselects never see it.
type Config struct {
	// Variables binds caller values to $variables declared by operations.
	// Values may be nil, bool, string, or any Go integer or float type.
	Variables map[string]any

	// Limit appends LIMIT n.
	Limit *int

	// Offset appends OFFSET n (queries only).
	Offset *int

	// OrderBy appends ORDER BY column, ascending unless Descending is set.
	OrderBy string

	// Descending flips OrderBy direction.
	Descending bool

	// Returning appends RETURNING column to mutations on dialects that
	// support the clause.
	Returning string
}

// Compile parses source and lowers every operation for the given flavor,
// returning one SQL string per top-level table in document order.
func Compile(source, flavor string, cfg Config) ([]string, error) {
	fl, err := sqlbuilder.ParseFlavor(flavor)
	if err != nil {
		return nil, err
	}

	doc, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]ast.Scalar, len(cfg.Variables))
	for name, value := range cfg.Variables {
		scalar, err := ast.ScalarFrom(value)
		if err != nil {
			return nil, fmt.Errorf("variable $%s: %w", name, err)
		}
		vars[name] = scalar
	}

	opts := compiler.Options{
		Limit:      cfg.Limit,
		Offset:     cfg.Offset,
		OrderBy:    cfg.OrderBy,
		Descending: cfg.Descending,
		Returning:  cfg.Returning,
	}

	return compiler.New(doc, fl, opts).Compile(vars)
}

// ErrorKind extracts the structured kind tag of a compilation error:
// "PARSE_ERROR" for malformed source, a shape code such as
// "ALIAS_IN_MUTATION" or "AT_LEAST_ONE_FIELD_REQUIRED" for structural
// violations, or a resolution code such as "MISSING_REQUIRED_VARIABLE".
// Returns "" for nil or unrecognized errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return "PARSE_ERROR"
	}
	var se *compiler.ShapeError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	var re *compiler.ResolutionError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	var ve *compiler.ValueError
	if errors.As(err, &ve) {
		return "VALUE_ERROR"
	}
	return ""
}
