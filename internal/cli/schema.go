package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nysql/internal/dbengine"
	"github.com/roach88/nysql/internal/ir"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Database string
	Prefix   string
}

// NewSchemaCommand creates the schema command, the CLI's front door onto
// Get-Schema.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List tables and columns in a database directory",
		Long: `List every table's schema, sorted by name. Use --prefix to restrict the
listing to tables whose name starts with a given string.

Example:
  nysql schema --db ./mydb
  nysql schema --db ./mydb --prefix user`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSchema(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to database directory (omit for in-memory)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only list tables whose name starts with this prefix")

	return cmd
}

func showSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	eng, err := dbengine.Open(dbengine.Config{DataDir: opts.Database})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}

	tables, err := eng.GetSchema(opts.Prefix)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read schema", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(tables)
	}

	if len(tables) == 0 {
		return formatter.Success("No tables.")
	}
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s:", t.Table)
		for _, col := range t.Columns {
			fmt.Fprintf(&b, " %s", formatColumn(col))
		}
	}
	return formatter.Success(b.String())
}

func formatColumn(col ir.Value) string {
	obj, ok := col.(ir.Object)
	if !ok {
		return fmt.Sprintf("%v", col)
	}
	name, _ := obj["name"].(ir.Text)
	typ, _ := obj["type"].(ir.Text)
	return fmt.Sprintf("%s(%s)", name, typ)
}
