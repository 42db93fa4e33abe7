package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docql/docql"
	"github.com/docql/docql/internal/sqlcheck"
)

// VetOptions holds flags for the vet command.
type VetOptions struct {
	*RootOptions
	Schema   string
	Vars     []string
	VarsFile string
}

// VetResult is the JSON payload for a vet run.
type VetResult struct {
	Checked int         `json:"checked"`
	Failed  int         `json:"failed"`
	Issues  []VetIssue  `json:"issues,omitempty"`
}

// VetIssue describes one statement SQLite rejected.
type VetIssue struct {
	SQL   string `json:"sql"`
	Error string `json:"error"`
}

// NewVetCommand creates the vet command.
func NewVetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vet <document-file>",
		Short: "Syntax-check compiled SQL against an in-memory SQLite database",
		Long: `Compile a document with the sqlite3 flavor and prepare every resulting
statement against a throwaway in-memory database. Statements are prepared,
never executed. Supply the schema the document targets with --schema so
table and column references resolve.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVet(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema DDL file applied before checking")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "variable binding key=value (repeatable)")
	cmd.Flags().StringVar(&opts.VarsFile, "vars", "", "variables file (.yaml or .cue)")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runVet(opts *VetOptions, cmd *cobra.Command, path string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return outputError(formatter, "E_READ", fmt.Sprintf("reading document: %v", err))
	}
	schema, err := os.ReadFile(opts.Schema)
	if err != nil {
		return outputError(formatter, "E_READ", fmt.Sprintf("reading schema: %v", err))
	}

	fileVars := map[string]any{}
	if opts.VarsFile != "" {
		fileVars, err = LoadVarsFile(opts.VarsFile)
		if err != nil {
			return outputError(formatter, "E_CONFIG", err.Error())
		}
	}
	flagVars, err := ParseVarFlags(opts.Vars)
	if err != nil {
		return outputError(formatter, "E_CONFIG", err.Error())
	}

	statements, err := docql.Compile(string(source), docql.FlavorSQLite, docql.Config{
		Variables: MergeVars(fileVars, flagVars),
	})
	if err != nil {
		code := docql.ErrorKind(err)
		if code == "" {
			code = "E_COMPILE"
		}
		return outputError(formatter, code, err.Error())
	}

	checker, err := sqlcheck.Open()
	if err != nil {
		return outputError(formatter, "E_SQLITE", err.Error())
	}
	defer checker.Close()

	if err := checker.ApplySchema(string(schema)); err != nil {
		return outputError(formatter, "E_SCHEMA", err.Error())
	}

	results := checker.Check(statements)
	vet := &VetResult{Checked: len(results)}
	for _, r := range results {
		if r.Err != nil {
			vet.Failed++
			vet.Issues = append(vet.Issues, VetIssue{SQL: r.SQL, Error: r.Err.Error()})
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(vet); err != nil {
			return err
		}
	} else {
		for _, issue := range vet.Issues {
			fmt.Fprintf(formatter.Writer, "%s %s\n  %s\n", failureMark, issue.Error, issue.SQL)
		}
		if vet.Failed == 0 {
			fmt.Fprintf(formatter.Writer, "%s %d statement(s) checked\n", successMark, vet.Checked)
		}
	}

	if vet.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d statement(s) failed", vet.Failed, vet.Checked))
	}
	return nil
}
