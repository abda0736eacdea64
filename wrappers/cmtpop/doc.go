// Package cmtpop wraps the gobuffalo/pop ORM.
//
// Summary
//
// cmtpop provides an implementation of the pop store interface on top of
// cmtsqlx. Swap it in for the connection's store and hand pop a context that
// carries a comment:
//
//	db, err := sqlx.Open("postgres", conn.URL())
//	conn.Store = cmtpop.Wrap(cmtsqlx.WrapDB(db))
//	err := conn.WithContext(sqlcomment.WithComment(ctx, "GET /flavors")).All(&flavors)
//
// There are a few flaws - when starting a pop Transaction, you'll get an
// annotated, instrumented begin but none of the statements pop runs inside the
// transaction are annotated, because pop runs them on the *sqlx.Tx directly.
//
// Most other operations should come through ok.
package cmtpop
