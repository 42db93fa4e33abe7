package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the docql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docql",
		Short: "docql - compile document queries to SQL",
		Long:  "Compile a GraphQL-inspired document language into dialect-specific SQL statements.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			if !cmd.Flags().Changed("format") {
				opts.Format = viper.GetString("format")
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewVetCommand(opts))

	return cmd
}

// initConfig loads defaults from an optional .docql.yaml in the working
// directory or the user's config directory.
func initConfig() {
	viper.SetDefault("flavor", "pg")
	viper.SetDefault("format", "text")

	viper.SetConfigName(".docql")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/docql")
	_ = viper.ReadInConfig() // missing config files are fine
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
