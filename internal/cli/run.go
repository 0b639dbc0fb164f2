package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nysql/internal/dbengine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <sql-file>",
		Short: "Submit a SQL script to a database directory",
		Long: `Open a nysql database and submit every statement in a SQL script to it,
in order, printing each statement's result.

Statements are separated by semicolons. With --db omitted, the database
is in-memory and discarded when the command exits.

Example:
  nysql run ./schema.sql --db ./mydb
  nysql run ./queries.sql --db ./mydb --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQLFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to database directory (omit for in-memory)")

	return cmd
}

func runSQLFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read SQL file", err)
	}

	slog.Info("opening database", "dir", opts.Database)
	eng, err := dbengine.Open(dbengine.Config{DataDir: opts.Database})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	failures := 0
	for _, stmt := range splitStatements(string(data)) {
		slog.Debug("submitting statement", "sql", stmt)
		for _, ev := range eng.SubmitSQL(stmt) {
			if ev.Type == "error" {
				failures++
			}
			if err := formatter.Success(formatEvent(ev)); err != nil {
				return WrapExitError(ExitFailure, "failed to write output", err)
			}
		}
	}

	if failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d statement(s) failed", failures))
	}
	return nil
}

// splitStatements splits a SQL script into individual statements on
// semicolons. It does not parse quoted strings for embedded semicolons;
// scripts with ';' inside string literals should use one statement per
// file in that case.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
