package sqlbuilder

import "fmt"

// Flavor selects the target SQL dialect.
type Flavor string

const (
	FlavorPostgres Flavor = "pg"
	FlavorMySQL    Flavor = "mysql"
	FlavorSQLite   Flavor = "sqlite3"
)

// ParseFlavor validates a flavor name from user input.
func ParseFlavor(name string) (Flavor, error) {
	switch Flavor(name) {
	case FlavorPostgres, FlavorMySQL, FlavorSQLite:
		return Flavor(name), nil
	case "postgres", "postgresql":
		return FlavorPostgres, nil
	case "sqlite":
		return FlavorSQLite, nil
	default:
		return "", fmt.Errorf("unknown SQL flavor %q (want pg, mysql, or sqlite3)", name)
	}
}

// SupportsReturning reports whether the dialect accepts a RETURNING clause
// on mutations. MySQL does not; the builder drops the clause there.
func (f Flavor) SupportsReturning() bool {
	return f != FlavorMySQL
}
