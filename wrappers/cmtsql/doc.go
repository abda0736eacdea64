// Package cmtsql wraps `database/sql` so that every statement carries the
// comment found on its context, and emits one Honeycomb event per DB call.
//
// After opening a DB connection, replace the *sql.DB object with a *cmtsql.DB
// object. The *cmtsql.DB struct implements all the same functions as the
// normal *sql.DB struct. Put a comment on the context with
// sqlcomment.WithComment (or let one of the HTTP wrappers do it for you) and
// use the context-aware calls:
//
//	ctx = sqlcomment.WithComment(ctx, "GET /flavors")
//	rows, err := db.QueryContext(ctx, "SELECT id FROM flavors")
//	// runs: /* GET /flavors */ SELECT id FROM flavors
//
// Transactions, connections and prepared statements remember the comment that
// was on the context when they were created, so calls made on them without a
// context of their own are still annotated.
package cmtsql
