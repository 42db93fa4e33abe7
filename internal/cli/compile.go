package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docql/docql"
	"github.com/docql/docql/internal/compiler"
	"github.com/docql/docql/internal/parser"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Flavor     string
	Vars       []string
	VarsFile   string
	Limit      int
	Offset     int
	OrderBy    string
	Descending bool
	Returning  string
}

// CompileResult is the JSON payload for a successful compile.
type CompileResult struct {
	Flavor     string   `json:"flavor"`
	Statements []string `json:"statements"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [document-file]",
		Short: "Compile a document to SQL statements",
		Long: `Compile a document of named queries and mutations to SQL.

Reads the document from the given file, or from stdin when no file is
given. One statement is emitted per top-level table, in document order.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Flavor, "flavor", "f", "", "SQL flavor (pg|mysql|sqlite3)")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "variable binding key=value (repeatable)")
	cmd.Flags().StringVar(&opts.VarsFile, "vars", "", "variables file (.yaml or .cue)")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "append LIMIT n")
	cmd.Flags().IntVar(&opts.Offset, "offset", -1, "append OFFSET n")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "append ORDER BY column")
	cmd.Flags().BoolVar(&opts.Descending, "descending", false, "ORDER BY descends")
	cmd.Flags().StringVar(&opts.Returning, "returning", "", "append RETURNING column to mutations")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command, args []string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	source, name, err := readSource(cmd.InOrStdin(), args)
	if err != nil {
		return outputError(formatter, "E_READ", err.Error())
	}
	formatter.VerboseLog("Compiling %s", name)

	flavor := opts.Flavor
	if flavor == "" {
		flavor = viper.GetString("flavor")
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return outputError(formatter, "E_CONFIG", err.Error())
	}

	statements, err := docql.Compile(source, flavor, cfg)
	if err != nil {
		code := docql.ErrorKind(err)
		if code == "" {
			code = "E_COMPILE"
		}
		return outputError(formatter, code, err.Error())
	}

	if opts.Verbose {
		writeSummary(formatter, source)
	}

	result := &CompileResult{Flavor: flavor, Statements: statements}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, stmt := range statements {
		fmt.Fprintf(formatter.Writer, "%s;\n", stmt)
	}
	return nil
}

// readSource reads the document from the file argument or stdin.
func readSource(stdin io.Reader, args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading document: %w", err)
	}
	return string(data), args[0], nil
}

// buildConfig assembles the compile config from flags and variable sources.
func buildConfig(opts *CompileOptions) (docql.Config, error) {
	var fileVars map[string]any
	if opts.VarsFile != "" {
		loaded, err := LoadVarsFile(opts.VarsFile)
		if err != nil {
			return docql.Config{}, err
		}
		fileVars = loaded
	}

	flagVars, err := ParseVarFlags(opts.Vars)
	if err != nil {
		return docql.Config{}, err
	}

	cfg := docql.Config{
		Variables:  MergeVars(fileVars, flagVars),
		OrderBy:    opts.OrderBy,
		Descending: opts.Descending,
		Returning:  opts.Returning,
	}
	if opts.Limit >= 0 {
		limit := opts.Limit
		cfg.Limit = &limit
	}
	if opts.Offset >= 0 {
		offset := opts.Offset
		cfg.Offset = &offset
	}
	return cfg, nil
}

// writeSummary renders a per-operation table on the verbose writer.
func writeSummary(formatter *OutputFormatter, source string) {
	doc, err := parser.Parse(source)
	if err != nil {
		return
	}

	w := formatter.ErrWriter
	summary := &strings.Builder{}
	table := tablewriter.NewTable(summary)
	table.Header([]string{"Operation", "Kind", "Table", "Statement"})
	for _, op := range doc.Operations {
		for _, t := range op.Tables {
			table.Append([]string{op.Name, op.Kind.String(), t.Name, compiler.StatementKind(op, t)})
		}
	}
	table.Render()
	fmt.Fprint(w, summary.String())
}

func outputError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
