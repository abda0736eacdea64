package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/wrappers/cmtsql"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec SQL",
		Short: "Run a statement with the comment prepended",
		Long: `Opens the database named by --driver and --dsn and runs SQL with the comment
block in front of it. Statements are executed and the number of affected
rows printed; with --query the result rows are printed tab separated.

Drivers: mysql, postgres (lib/pq), pgx, sqlite.`,
		Example: `  sqlcomment exec --driver sqlite --dsn ./app.db -c "cleanup" "DELETE FROM sessions"
  sqlcomment exec --driver pgx --dsn "$DATABASE_URL" --query "SELECT id FROM users"`,
		Args: cobra.ExactArgs(1),
		RunE: runExec,
	}
	cmd.Flags().String("driver", "", "database/sql driver name")
	cmd.Flags().String("dsn", "", "data source name")
	cmd.Flags().Bool("query", false, "print result rows instead of rows affected")
	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg := getConfig(cmd.Context())
	if cfg.Driver == "" {
		return fmt.Errorf("--driver is required")
	}
	sc, err := cfg.SQLComment()
	if err != nil {
		return err
	}

	raw, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db := cmtsql.WrapDB(raw, sc)
	defer db.Close()

	ctx := sqlcomment.WithComment(cmd.Context(), cfg.Comment)
	if query, _ := cmd.Flags().GetBool("query"); query {
		return printRows(ctx, cmd.OutOrStdout(), db, args[0])
	}

	res, err := db.ExecContext(ctx, args[0])
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
	return nil
}

func printRows(ctx context.Context, out io.Writer, db *cmtsql.DB, query string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.Join(cols, "\t"))

	vals := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	fields := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, v := range vals {
			fields[i] = "NULL"
			if v.Valid {
				fields[i] = v.String
			}
		}
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
	return rows.Err()
}
