// Package cmtsqlx wraps `jmoiron/sqlx` so that every statement carries the
// comment found on its context, and emits one Honeycomb event per DB call.
//
// After opening a DB connection, replace the *sqlx.DB object with a
// *cmtsqlx.DB object. The *cmtsqlx.DB struct implements the same functions as
// the normal *sqlx.DB struct, named queries included. A comment on a named
// query has its colons doubled so sqlx does not mistake a route such as
// `GET /flavors/:id` for a bind name.
package cmtsqlx
