package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario, verifies its inline expectations, and
// compares the emitted SQL against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result := Run(scenario)
	if err := Verify(scenario, result); err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	// Error scenarios have no SQL to snapshot.
	if scenario.Expect.Error != "" {
		return
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(renderStatements(result.Statements)))
}

// renderStatements joins statements the way the CLI prints them: one per
// line, semicolon-terminated.
func renderStatements(statements []string) string {
	var sb strings.Builder
	for _, stmt := range statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	return sb.String()
}
