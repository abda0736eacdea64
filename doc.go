// Package sqlcomment prepends caller supplied comments to generated SQL so
// they show up in database query logs and traces.
//
// Summary
//
// A comment is rendered as a `/* ... */` block in front of the SQL, separated
// from it by a space (or a line feed with Config.Newline). The comment text is
// sanitized first so it stays on one line and can never close its block early
// or open a nested one.
//
// There are two ways to get comments into SQL. The first is to install the
// injector on a query generator: any host that exposes an OperationTable can
// be passed to Install, which wraps the selectQuery, insertQuery, updateQuery,
// deleteQuery and bulkInsertQuery operations. From then on, a comment passed
// in those operations' options is added to the fragment they return.
//
//   gen := generator.New("mysql")
//   sqlcomment.Install(gen, sqlcomment.Config{Newline: true})
//   q, _ := gen.SelectQuery("flavors", &generator.SelectOptions{Comment: "menu page"})
//
// The second is to put a comment on a context and use one of the wrapped
// database handles in the wrappers directory. Every statement run with that
// context gets the comment.
//
//   db := cmtsql.WrapDB(odb)
//   ctx = sqlcomment.WithComment(ctx, "nightly rollup")
//   db.ExecContext(ctx, "DELETE FROM sessions WHERE expired = 1")
//
// The HTTP and gRPC wrappers set the context comment for you from the matched
// route or method, plus any incoming trace IDs.
//
// Examples
//
// There are runnable examples in the examples directory and examples of each
// wrapper in the godoc.
package sqlcomment
