package harness

import (
	"fmt"

	"github.com/docql/docql"
)

// Result holds the outcome of running one scenario.
type Result struct {
	Statements []string
	Err        error
}

// Run compiles a scenario's document against its config.
func Run(scenario *Scenario) *Result {
	flavor := scenario.Flavor
	if flavor == "" {
		flavor = docql.FlavorPostgres
	}

	cfg := docql.Config{
		Variables:  scenario.Config.Variables,
		Limit:      scenario.Config.Limit,
		Offset:     scenario.Config.Offset,
		OrderBy:    scenario.Config.OrderBy,
		Descending: scenario.Config.Descending,
		Returning:  scenario.Config.Returning,
	}

	statements, err := docql.Compile(scenario.Document, flavor, cfg)
	return &Result{Statements: statements, Err: err}
}

// Verify checks a result against the scenario's expectations.
func Verify(scenario *Scenario, result *Result) error {
	if scenario.Expect.Error != "" {
		if result.Err == nil {
			return fmt.Errorf("expected error %s, compilation succeeded", scenario.Expect.Error)
		}
		if kind := docql.ErrorKind(result.Err); kind != scenario.Expect.Error {
			return fmt.Errorf("expected error %s, got %s (%v)", scenario.Expect.Error, kind, result.Err)
		}
		return nil
	}

	if result.Err != nil {
		return fmt.Errorf("unexpected error: %w", result.Err)
	}
	if len(result.Statements) != len(scenario.Expect.Statements) {
		return fmt.Errorf("expected %d statement(s), got %d",
			len(scenario.Expect.Statements), len(result.Statements))
	}
	for i, want := range scenario.Expect.Statements {
		if result.Statements[i] != want {
			return fmt.Errorf("statement %d mismatch:\nwant: %s\ngot:  %s", i, want, result.Statements[i])
		}
	}
	return nil
}
