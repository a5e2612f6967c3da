package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opuslabs/sqlite-opus/internal/db"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query against the configured database",
		Long: `Run a one-shot SQL query against the configured database file.

The database comes from --db-path, the config file, or the
SQLITE_OPUS_DB_PATH environment variable. Supports multiple output formats
for scripting and integration.`,
		Example: `  # Execute SQL directly
  sqlite-opus query --db-path app.db "SELECT * FROM users"

  # List tables
  sqlite-opus query --db-path app.db tables

  # Show schema for a table
  sqlite-opus query --db-path app.db schema users

  # Output as JSON
  sqlite-opus query --db-path app.db "SELECT * FROM users" --format json

  # Read SQL from a file or stdin
  sqlite-opus query -i report.sql
  echo "SELECT 1" | sqlite-opus query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return fmt.Errorf("no query given (pass SQL as an argument, via --input, or on stdin)")
	}

	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return fmt.Errorf("query is empty")
	}

	manager, err := openManager(cmd)
	if err != nil {
		return err
	}
	defer manager.Disconnect()

	cfg := GetConfig(cmd.Context())
	if !db.IsSelect(sqlQuery) && !cfg.AllowDML {
		return fmt.Errorf("only SELECT queries are allowed (set allow_dml to change this)")
	}
	if db.IsSelect(sqlQuery) {
		sqlQuery = db.EnsureLimit(sqlQuery, cfg.MaxQueryResults)
	}

	result, err := manager.Execute(cmd.Context(), sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return renderResult(cmd.OutOrStdout(), result, opts.Format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List all tables in the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer manager.Disconnect()

			tables, err := manager.Tables(cmd.Context())
			if err != nil {
				return err
			}

			result := &db.Result{Columns: []string{"name"}, RowCount: len(tables)}
			for _, name := range tables {
				result.Rows = append(result.Rows, map[string]any{"name": name})
			}
			return renderResult(cmd.OutOrStdout(), result, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(_ *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the CREATE statement for a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer manager.Disconnect()

			schema, err := manager.TableSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), schema)
			return nil
		},
	}
}

// openManager connects a Manager to the configured database file.
func openManager(cmd *cobra.Command) (*db.Manager, error) {
	cfg := GetConfig(cmd.Context())
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("no database configured (set --db-path)")
	}

	manager := db.NewManager(GetLogger(cmd.Context()))
	if err := manager.Connect(cfg.DBPath); err != nil {
		return nil, err
	}
	return manager, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
