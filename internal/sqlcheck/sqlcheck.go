// Package sqlcheck syntax-checks compiled statements against a throwaway
// in-memory SQLite database. Statements are prepared, never executed; only
// the schema the caller supplies is applied so that table and column
// references resolve.
package sqlcheck

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Checker holds the in-memory database for one vet run.
type Checker struct {
	db *sql.DB
}

// Open creates a fresh in-memory SQLite database.
func Open() (*Checker, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The database lives for one check run on a single goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Checker{db: db}, nil
}

// Close releases the database.
func (c *Checker) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// ApplySchema executes the caller's DDL so that prepared statements can
// resolve relations.
func (c *Checker) ApplySchema(schemaSQL string) error {
	if _, err := c.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Result is the outcome of checking one statement.
type Result struct {
	SQL string
	Err error
}

// Check prepares each statement and records the outcome. A nil Err means
// SQLite accepted the statement's syntax and references.
func (c *Checker) Check(stmts []string) []Result {
	results := make([]Result, 0, len(stmts))
	for _, stmt := range stmts {
		prepared, err := c.db.Prepare(stmt)
		if err == nil {
			prepared.Close()
		}
		results = append(results, Result{SQL: stmt, Err: err})
	}
	return results
}
